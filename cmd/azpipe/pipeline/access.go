// Copyright 2026 The Azpipe Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"fmt"

	"github.com/azpipe/azpipe/cmd/azpipe/cli"
	libpipeline "github.com/azpipe/azpipe/lib/pipeline"
)

// accessParams holds the parameters for the pipeline access command.
type accessParams struct {
	cli.JSONOutput
	Service serviceParams
	Name    string `json:"name" desc:"configured pipeline name" required:"true"`
}

// accessCommand returns the "access" subcommand probing pipeline
// visibility without triggering anything.
func accessCommand() *cli.Command {
	var params accessParams
	var service *libpipeline.Service

	return &cli.Command{
		Name:    "access",
		Summary: "Check whether a configured pipeline is reachable",
		Description: `Probe one catalog pipeline with 'az pipelines show' to verify the
current az identity can read it, without queuing a run. An
inaccessible pipeline is a report with the denial detail, not an
error; the command only errors for names missing from the catalog.`,
		Usage: "azpipe pipeline access [flags] <name>",
		Examples: []cli.Example{
			{
				Description: "Verify the api-deploy pipeline is reachable",
				Command:     "azpipe pipeline access api-deploy",
			},
		},
		Params:      func() any { return &params },
		Output:      func() any { return &libpipeline.AccessReport{} },
		Annotations: cli.ReadOnly(),
		Run: func(args []string) error {
			if len(args) == 1 {
				params.Name = args[0]
			} else if len(args) > 1 {
				return cli.Validation("usage: azpipe pipeline access [flags] <name>")
			}
			if params.Name == "" {
				return cli.Validation("pipeline name is required\n\nusage: azpipe pipeline access [flags] <name>")
			}

			if service == nil {
				logger := cli.NewCommandLogger().With("command", "pipeline/access")
				built, err := params.Service.newService(logger)
				if err != nil {
					return err
				}
				service = built
			}

			report, err := service.TestAccess(context.Background(), params.Name)
			if err != nil {
				return asToolError(err)
			}

			if done, err := params.EmitJSON(report); done {
				return err
			}

			if report.Accessible {
				fmt.Printf("%s: accessible\n", report.Name)
				return nil
			}
			fmt.Printf("%s: not accessible\n  %s\n", report.Name, report.Detail)
			return &cli.ExitError{Code: 1}
		},
	}
}
