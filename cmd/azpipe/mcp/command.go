// Copyright 2026 The Azpipe Authors
// SPDX-License-Identifier: Apache-2.0

package mcp

import "github.com/azpipe/azpipe/cmd/azpipe/cli"

// Command returns the "mcp" command group. The root parameter is the
// top-level CLI command tree, used for tool discovery when the "serve"
// subcommand starts.
func Command(root *cli.Command) *cli.Command {
	return &cli.Command{
		Name:    "mcp",
		Summary: "Model Context Protocol server for agent tool access",
		Description: `MCP server that exposes azpipe commands as tools over
newline-delimited JSON-RPC 2.0 on stdin/stdout.

Agent frameworks launch this as a subprocess to trigger and inspect
Azure DevOps pipelines via structured tool calls. The server
discovers tools from the CLI command tree and generates JSON Schema
descriptions from parameter struct tags.`,
		Subcommands: []*cli.Command{
			serveCommand(root),
		},
	}
}

func serveCommand(root *cli.Command) *cli.Command {
	return &cli.Command{
		Name:    "serve",
		Summary: "Start MCP server on stdin/stdout",
		Description: `Start a Model Context Protocol server that reads JSON-RPC 2.0
requests from stdin and writes responses to stdout.

The server discovers all CLI commands with typed parameter structs
and exposes them as MCP tools. Tool names are underscore-joined
command paths (e.g., azpipe_pipeline_run).

Infrastructure settings the tools need (catalog path, az binary,
timeouts) come from the environment of the serving process, not from
tool arguments; agents only see the pipeline-facing parameters.

This command is intended to be launched by MCP-capable clients as a
subprocess.`,
		Usage: "azpipe mcp serve",
		Examples: []cli.Example{
			{
				Description: "Start MCP server (typically launched by an agent framework)",
				Command:     "AZPIPE_CONFIG=pipelines.yaml azpipe mcp serve",
			},
		},
		Run: func(args []string) error {
			return NewServer(root).Serve()
		},
	}
}
