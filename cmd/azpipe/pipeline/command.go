// Copyright 2026 The Azpipe Authors
// SPDX-License-Identifier: Apache-2.0

// Package pipeline implements the "azpipe pipeline" command group:
// triggering catalog pipelines, listing their runs, probing access,
// and printing the catalog.
package pipeline

import (
	"github.com/azpipe/azpipe/cmd/azpipe/cli"
)

// Command returns the "pipeline" command group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "pipeline",
		Summary: "Trigger and inspect Azure DevOps pipelines",
		Description: `Operations on the pipelines configured in the catalog file. Every
operation selects a pipeline by its configured name; organization,
project, and pipeline id stay in the catalog.`,
		Subcommands: []*cli.Command{
			runCommand(),
			bulkCommand(),
			runsCommand(),
			accessCommand(),
			listCommand(),
		},
	}
}
