// Copyright 2026 The Azpipe Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/azpipe/azpipe/cmd/azpipe/cli"
	libpipeline "github.com/azpipe/azpipe/lib/pipeline"
)

// runsParams holds the parameters for the pipeline runs command.
type runsParams struct {
	cli.JSONOutput
	Service serviceParams
	Name    string `json:"name" desc:"configured pipeline name" required:"true"`
	Top     int    `json:"top" flag:"top" desc:"number of most recent runs to return" default:"5"`
}

// runsCommand returns the "runs" subcommand listing recent runs.
func runsCommand() *cli.Command {
	var params runsParams
	var service *libpipeline.Service

	return &cli.Command{
		Name:    "runs",
		Summary: "List recent runs of a configured pipeline",
		Description: `List the most recent runs of one catalog pipeline, newest first.
Each entry carries the run id, normalized status, creation time, and
a link to the run in the Azure DevOps web UI.`,
		Usage: "azpipe pipeline runs [flags] <name>",
		Examples: []cli.Example{
			{
				Description: "Show the five most recent api-deploy runs",
				Command:     "azpipe pipeline runs api-deploy",
			},
			{
				Description: "Show the last twenty runs as JSON",
				Command:     "azpipe pipeline runs api-deploy --top 20 --json",
			},
		},
		Params:      func() any { return &params },
		Output:      func() any { return []libpipeline.Run{} },
		Annotations: cli.ReadOnly(),
		Run: func(args []string) error {
			if len(args) == 1 {
				params.Name = args[0]
			} else if len(args) > 1 {
				return cli.Validation("usage: azpipe pipeline runs [flags] <name>")
			}
			if params.Name == "" {
				return cli.Validation("pipeline name is required\n\nusage: azpipe pipeline runs [flags] <name>")
			}

			if service == nil {
				logger := cli.NewCommandLogger().With("command", "pipeline/runs")
				built, err := params.Service.newService(logger)
				if err != nil {
					return err
				}
				service = built
			}

			runs, err := service.ListRuns(context.Background(), params.Name, params.Top)
			if err != nil {
				return asToolError(err)
			}

			if done, err := params.EmitJSON(runs); done {
				return err
			}

			if len(runs) == 0 {
				fmt.Printf("no runs found for %s\n", params.Name)
				return nil
			}
			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintln(tw, "RUN\tSTATUS\tCREATED\tLINK")
			for _, run := range runs {
				created := ""
				if !run.CreatedAt.IsZero() {
					created = run.CreatedAt.Format("2006-01-02 15:04:05")
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", run.ID, run.Status, created, run.WebLink)
			}
			return tw.Flush()
		},
	}
}
