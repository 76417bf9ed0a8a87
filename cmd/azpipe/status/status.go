// Copyright 2026 The Azpipe Authors
// SPDX-License-Identifier: Apache-2.0

// Package status implements the "azpipe status" command reporting az
// toolchain readiness.
package status

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/azpipe/azpipe/cmd/azpipe/cli"
	"github.com/azpipe/azpipe/lib/azcli"
	libpipeline "github.com/azpipe/azpipe/lib/pipeline"
)

// statusParams holds the parameters for the status command. Unlike the
// pipeline commands it carries no catalog: readiness is a property of
// the host, not of any configured pipeline.
type statusParams struct {
	cli.JSONOutput
	AzPath  string        `json:"-"`
	Timeout time.Duration `json:"-"`
	Refresh bool          `json:"refresh" flag:"refresh" desc:"drop any cached result and re-probe"`
}

// AddFlags implements [cli.FlagBinder] for the infrastructure fields;
// Refresh binds through its flag tag like any parameter.
func (p *statusParams) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&p.AzPath, "az-path", "",
		"explicit path to the az binary (default $"+azcli.EnvAzPath+", then probe)")
	flagSet.DurationVar(&p.Timeout, "timeout", azcli.DefaultTimeout,
		"timeout per az invocation")
}

// Command returns the "status" command. The probe itself never fails:
// a missing binary, a logged-out identity, or a missing azure-devops
// extension all land in the report. In text mode an unready toolchain
// exits 1 after printing the report.
func Command() *cli.Command {
	var params statusParams
	var service *libpipeline.Service

	return &cli.Command{
		Name:    "status",
		Summary: "Check az toolchain readiness",
		Description: `Probe the local az toolchain: binary present, identity logged in,
azure-devops extension installed. Pipeline operations need all
three; the report names the first missing piece and how to fix it.`,
		Usage: "azpipe status [flags]",
		Examples: []cli.Example{
			{
				Description: "Check readiness",
				Command:     "azpipe status",
			},
			{
				Description: "Re-probe after running az login",
				Command:     "azpipe status --refresh",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("status", pflag.ContinueOnError)
			params.AddFlags(flagSet)
			if err := cli.BindFlags(&params, flagSet); err != nil {
				panic(fmt.Sprintf("status flags: %v", err))
			}
			return flagSet
		},
		Params:      func() any { return &params },
		Output:      func() any { return &libpipeline.Status{} },
		Annotations: cli.ReadOnly(),
		Run: func(args []string) error {
			if len(args) > 0 {
				return cli.Validation("usage: azpipe status [flags]")
			}

			// The service persists across MCP calls so the five-minute
			// status cache actually takes effect in a long-lived server.
			if service == nil {
				logger := cli.NewCommandLogger().With("command", "status")
				locator := azcli.NewLocator(params.AzPath)
				runner := azcli.NewRunner(locator, logger)
				service = libpipeline.NewService(&libpipeline.Config{}, runner, logger,
					libpipeline.WithTimeout(params.Timeout))
			}

			if params.Refresh {
				service.InvalidateStatus()
			}
			report := service.CheckCliStatus(context.Background())

			if done, err := params.EmitJSON(report); done {
				return err
			}

			printStatus(report)
			if !report.Ready {
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}

func printStatus(report *libpipeline.Status) {
	fmt.Printf("az installed:           %s\n", checkmark(report.Installed, report.Version))
	fmt.Printf("logged in:              %s\n", checkmark(report.LoggedIn, report.Account))
	fmt.Printf("azure-devops extension: %s\n", checkmark(report.ExtensionPresent, ""))
	if report.Ready {
		fmt.Println("ready")
		return
	}
	if report.Detail != "" {
		fmt.Printf("not ready: %s\n", report.Detail)
	} else {
		fmt.Println("not ready")
	}
}

func checkmark(ok bool, detail string) string {
	state := "no"
	if ok {
		state = "yes"
	}
	if ok && detail != "" {
		return state + " (" + detail + ")"
	}
	return state
}
