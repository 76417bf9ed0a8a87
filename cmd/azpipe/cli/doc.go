// Copyright 2026 The Azpipe Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command framework for azpipe: a command
// tree with flag parsing, struct-tag parameter binding, JSON Schema
// generation, categorized tool errors, and behavioral annotations.
//
// The same leaf command serves two callers. On a terminal, flags
// populate the parameter struct and output is formatted text (or JSON
// with --json). Under the MCP server, the parameter struct is
// populated from JSON arguments against the generated schema and
// output is captured as the tool result.
package cli
