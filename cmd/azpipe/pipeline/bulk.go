// Copyright 2026 The Azpipe Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"fmt"

	"github.com/azpipe/azpipe/cmd/azpipe/cli"
	libpipeline "github.com/azpipe/azpipe/lib/pipeline"
)

// bulkParams holds the parameters for the pipeline bulk command. Name
// is positional in CLI mode and a named property in JSON/MCP mode.
type bulkParams struct {
	cli.JSONOutput
	Service serviceParams
	Name    string   `json:"name" desc:"configured pipeline name" required:"true"`
	Count   int      `json:"count" flag:"count" desc:"number of independent runs to queue" default:"1"`
	Branch  string   `json:"branch" flag:"branch" desc:"branch to run against, overriding the catalog branch"`
	Vars    []string `json:"variables" flag:"var" desc:"key=value variable passed to every run (repeatable)"`
	Limit   int      `json:"limit" flag:"limit" desc:"maximum concurrent triggers" default:"4"`
}

// bulkCommand returns the "bulk" subcommand queueing several runs of
// one configured pipeline.
func bulkCommand() *cli.Command {
	var params bulkParams
	var service *libpipeline.Service

	return &cli.Command{
		Name:    "bulk",
		Summary: "Queue several runs of a configured pipeline",
		Description: `Queue N independent runs of one catalog pipeline. Triggers run
concurrently up to --limit at a time, and one failure never stops the
others: the result carries exactly N outcomes in request order, each
either a queued run or a classified failure.

A name missing from the catalog fails the whole batch before any
trigger starts, as does a missing az binary (detected by one probe,
not N).`,
		Usage: "azpipe pipeline bulk [flags] <name>",
		Examples: []cli.Example{
			{
				Description: "Queue five runs of the load-test pipeline",
				Command:     "azpipe pipeline bulk load-test --count 5",
			},
			{
				Description: "Queue three runs against a release branch",
				Command:     "azpipe pipeline bulk api-deploy --count 3 --branch release/2026.08",
			},
		},
		Params:      func() any { return &params },
		Output:      func() any { return []libpipeline.Outcome{} },
		Annotations: cli.Create(),
		Run: func(args []string) error {
			if len(args) == 1 {
				params.Name = args[0]
			} else if len(args) > 1 {
				return cli.Validation("usage: azpipe pipeline bulk [flags] <name>")
			}
			if params.Name == "" {
				return cli.Validation("pipeline name is required\n\nusage: azpipe pipeline bulk [flags] <name>")
			}
			if params.Count < 0 {
				return cli.Validation("--count must be zero or positive, got %d", params.Count)
			}

			vars, err := parseVariables(params.Vars)
			if err != nil {
				return err
			}

			if service == nil {
				logger := cli.NewCommandLogger().With("command", "pipeline/bulk")
				service, err = params.Service.newService(logger, libpipeline.WithBulkLimit(params.Limit))
				if err != nil {
					return err
				}
			}

			outcomes, err := service.TriggerBulk(context.Background(), params.Name, params.Count, vars, params.Branch)
			if err != nil {
				return asToolError(err)
			}

			if done, err := params.EmitJSON(outcomes); done {
				return err
			}

			failed := 0
			for i := range outcomes {
				fmt.Println(describeOutcome(&outcomes[i]))
				if !outcomes[i].Success {
					failed++
				}
			}
			if failed > 0 {
				fmt.Printf("%d of %d triggers failed\n", failed, len(outcomes))
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}
