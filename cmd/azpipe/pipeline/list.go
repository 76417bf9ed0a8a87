// Copyright 2026 The Azpipe Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/azpipe/azpipe/cmd/azpipe/cli"
	libpipeline "github.com/azpipe/azpipe/lib/pipeline"
)

// listParams holds the parameters for the pipeline list command.
type listParams struct {
	cli.JSONOutput
	Service serviceParams
}

// listCommand returns the "list" subcommand printing the catalog.
func listCommand() *cli.Command {
	var params listParams
	var service *libpipeline.Service

	return &cli.Command{
		Name:    "list",
		Summary: "List the configured pipelines",
		Description: `Print the pipeline catalog: every name that can be passed to run,
bulk, runs, and access, with its organization, project, pipeline id,
and default branch. Reads only the local catalog file; az is never
invoked.`,
		Usage: "azpipe pipeline list [flags]",
		Examples: []cli.Example{
			{
				Description: "List configured pipelines",
				Command:     "azpipe pipeline list",
			},
		},
		Params:      func() any { return &params },
		Output:      func() any { return []libpipeline.Pipeline{} },
		Annotations: cli.ReadOnlyLocal(),
		Run: func(args []string) error {
			if len(args) > 0 {
				return cli.Validation("usage: azpipe pipeline list [flags]")
			}

			if service == nil {
				logger := cli.NewCommandLogger().With("command", "pipeline/list")
				built, err := params.Service.newService(logger)
				if err != nil {
					return err
				}
				service = built
			}

			entries := service.Configured()

			if done, err := params.EmitJSON(entries); done {
				return err
			}

			if len(entries) == 0 {
				fmt.Println("no pipelines configured")
				return nil
			}
			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintln(tw, "NAME\tORGANIZATION\tPROJECT\tID\tBRANCH")
			for _, p := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", p.Name, p.Organization, p.Project, p.ID, p.Branch)
			}
			return tw.Flush()
		},
	}
}
