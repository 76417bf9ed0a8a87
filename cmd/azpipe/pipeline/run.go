// Copyright 2026 The Azpipe Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"fmt"

	"github.com/azpipe/azpipe/cmd/azpipe/cli"
	libpipeline "github.com/azpipe/azpipe/lib/pipeline"
)

// runParams holds the parameters for the pipeline run command. Name is
// positional in CLI mode (args[0]) and a named property in JSON/MCP
// mode.
type runParams struct {
	cli.JSONOutput
	Service serviceParams
	Name    string   `json:"name"   desc:"configured pipeline name" required:"true"`
	Branch  string   `json:"branch" flag:"branch" desc:"branch to run against, overriding the catalog branch"`
	Vars    []string `json:"variables" flag:"var" desc:"key=value variable passed to the run (repeatable)"`
}

// runCommand returns the "run" subcommand for triggering one
// configured pipeline.
func runCommand() *cli.Command {
	var params runParams
	var service *libpipeline.Service

	return &cli.Command{
		Name:    "run",
		Summary: "Trigger a configured pipeline",
		Description: `Trigger one pipeline from the catalog by name. The run is queued
through 'az pipelines run' against the organization, project, and
pipeline id recorded in the catalog.

Variables given with --var override the catalog's variables key by
key. --branch overrides the catalog branch for this run only.

A trigger that az rejects (not logged in, no permission, pipeline
deleted upstream) reports the failure kind and a remediation hint.`,
		Usage: "azpipe pipeline run [flags] <name>",
		Examples: []cli.Example{
			{
				Description: "Trigger the api-deploy pipeline on its default branch",
				Command:     "azpipe pipeline run api-deploy",
			},
			{
				Description: "Trigger against a release branch with an extra variable",
				Command:     "azpipe pipeline run api-deploy --branch release/2026.08 --var environment=prod",
			},
		},
		Params:      func() any { return &params },
		Output:      func() any { return &libpipeline.Outcome{} },
		Annotations: cli.Create(),
		Run: func(args []string) error {
			if len(args) == 1 {
				params.Name = args[0]
			} else if len(args) > 1 {
				return cli.Validation("usage: azpipe pipeline run [flags] <name>")
			}
			if params.Name == "" {
				return cli.Validation("pipeline name is required\n\nusage: azpipe pipeline run [flags] <name>")
			}

			vars, err := parseVariables(params.Vars)
			if err != nil {
				return err
			}

			// The service (and its locator cache) lives for the
			// process, surviving MCP parameter resets between calls.
			if service == nil {
				logger := cli.NewCommandLogger().With("command", "pipeline/run")
				service, err = params.Service.newService(logger)
				if err != nil {
					return err
				}
			}

			outcome, err := service.Trigger(context.Background(), params.Name, vars, params.Branch)
			if err != nil {
				return asToolError(err)
			}

			if done, err := params.EmitJSON(outcome); done {
				if err != nil {
					return err
				}
				return outcomeToolError(outcome)
			}

			fmt.Println(describeOutcome(outcome))
			if !outcome.Success {
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}
