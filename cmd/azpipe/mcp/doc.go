// Copyright 2026 The Azpipe Authors
// SPDX-License-Identifier: Apache-2.0

// Package mcp implements a Model Context Protocol server that exposes
// azpipe CLI commands as MCP tools over newline-delimited JSON-RPC 2.0
// on stdin/stdout.
//
// The server discovers tools by walking the CLI command tree and
// collecting leaf commands that have a [cli.Command.Params] function.
// Each discovered command becomes an MCP tool with inputSchema
// generated from the parameter struct's tags via [cli.ParamsSchema].
// Commands that declare [cli.Command.Output] also get an outputSchema
// reflected from the output type via [cli.OutputSchema], and their
// results include structuredContent (parsed JSON) alongside the text
// content block.
//
// Tool names are underscore-joined command paths (e.g.,
// "azpipe_pipeline_run" for "azpipe pipeline run"). Arguments are JSON
// objects matching the parameter struct's json tags.
//
// This package implements the 2025-11-25 MCP protocol specification.
package mcp
