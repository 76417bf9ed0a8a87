// Copyright 2026 The Azpipe Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the complete azpipe CLI command tree. Both
// the CLI entry point and the MCP server walk this tree: the binary
// dispatches on it, and tool discovery turns its Params-bearing leaf
// commands into MCP tools.
package commands

import (
	"fmt"

	"github.com/azpipe/azpipe/cmd/azpipe/cli"
	mcpcmd "github.com/azpipe/azpipe/cmd/azpipe/mcp"
	pipelinecmd "github.com/azpipe/azpipe/cmd/azpipe/pipeline"
	statuscmd "github.com/azpipe/azpipe/cmd/azpipe/status"
	"github.com/azpipe/azpipe/lib/version"
)

// Root builds and returns the complete azpipe CLI command tree. Tool
// discovery walks root.Subcommands, so the MCP command is added last
// (after the tree is constructed) and receives the root pointer for
// introspection.
func Root() *cli.Command {
	root := &cli.Command{
		Name: "azpipe",
		Description: `azpipe: Azure DevOps pipeline operations through the az CLI.

Trigger pipelines, inspect recent runs, and verify access using a
local pipeline catalog. All Azure DevOps communication goes through
the installed az CLI, so authentication is whatever "az login" set
up; azpipe never stores credentials of its own.`,
		Subcommands: []*cli.Command{
			pipelinecmd.Command(),
			statuscmd.Command(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(args []string) error {
					fmt.Printf("azpipe %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Check that az is installed, logged in, and has the devops extension",
				Command:     "azpipe status",
			},
			{
				Description: "List the pipelines configured in the catalog",
				Command:     "azpipe pipeline list",
			},
			{
				Description: "Trigger a configured pipeline with a variable override",
				Command:     "azpipe pipeline run api-deploy --var environment=prod",
			},
			{
				Description: "Queue five runs of a pipeline concurrently",
				Command:     "azpipe pipeline bulk load-test --count 5",
			},
			{
				Description: "Show the five most recent runs of a pipeline",
				Command:     "azpipe pipeline runs api-deploy",
			},
			{
				Description: "Verify the logged-in account can reach a pipeline",
				Command:     "azpipe pipeline access api-deploy",
			},
		},
	}

	// The MCP command walks root.Subcommands for tool discovery, so it
	// must be appended after the tree is constructed.
	root.Subcommands = append(root.Subcommands, mcpcmd.Command(root))

	return root
}
