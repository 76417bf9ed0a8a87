// Copyright 2026 The Azpipe Authors
// SPDX-License-Identifier: Apache-2.0

package cli

// ToolAnnotations describes behavioral properties of a CLI command
// when exposed as a tool by the MCP server. The server translates
// these into protocol hints that help agents decide which tools are
// safe to call, which can be retried, and which require confirmation.
//
// All fields are pointers. A nil field means "unspecified" and the
// tool server applies its own defaults (which in MCP are: not
// read-only, destructive, not idempotent, open-world).
type ToolAnnotations struct {
	// ReadOnly is true when the command only reads state and never
	// modifies it.
	ReadOnly *bool

	// Destructive is true when the command may irreversibly remove or
	// damage data.
	Destructive *bool

	// Idempotent is true when repeated calls with identical arguments
	// produce the same result.
	Idempotent *bool

	// OpenWorld is true when the command reaches outside the local
	// host. Nearly every azpipe command talks to Azure DevOps through
	// az, so the presets default this to true; purely local commands
	// (version, catalog listing) override it.
	OpenWorld *bool
}

// ReadOnly returns annotations for commands that query state without
// modifying it: listing runs, showing status, probing access.
func ReadOnly() *ToolAnnotations {
	return &ToolAnnotations{
		ReadOnly:    boolPtr(true),
		Destructive: boolPtr(false),
		Idempotent:  boolPtr(true),
		OpenWorld:   boolPtr(true),
	}
}

// ReadOnlyLocal returns read-only annotations for commands that never
// leave the local host, like printing the configured catalog.
func ReadOnlyLocal() *ToolAnnotations {
	annotations := ReadOnly()
	annotations.OpenWorld = boolPtr(false)
	return annotations
}

// Create returns annotations for commands whose side effects
// accumulate on repeated calls: every trigger queues a new run.
func Create() *ToolAnnotations {
	return &ToolAnnotations{
		ReadOnly:    boolPtr(false),
		Destructive: boolPtr(false),
		Idempotent:  boolPtr(false),
		OpenWorld:   boolPtr(true),
	}
}

func boolPtr(value bool) *bool {
	return &value
}
