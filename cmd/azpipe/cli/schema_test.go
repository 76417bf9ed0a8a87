// Copyright 2026 The Azpipe Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"testing"
	"time"
)

func TestParamsSchema(t *testing.T) {
	type params struct {
		JSONOutput
		Name    string        `json:"name" flag:"name" desc:"configured pipeline name" required:"true"`
		Branch  string        `json:"branch" flag:"branch" desc:"branch override"`
		Top     int           `json:"top" flag:"top" desc:"number of runs" default:"5"`
		Timeout time.Duration `json:"timeout" flag:"timeout" desc:"per-call timeout" default:"30s"`
		Vars    []string      `json:"variables" flag:"var" desc:"key=value variable"`
	}

	schema, err := ParamsSchema(&params{})
	if err != nil {
		t.Fatalf("ParamsSchema() error: %v", err)
	}
	if schema.Type != "object" {
		t.Errorf("Type = %q, want object", schema.Type)
	}

	name, ok := schema.Properties["name"]
	if !ok {
		t.Fatal("name property missing")
	}
	if name.Type != "string" || name.Description == "" {
		t.Errorf("name schema = %+v", name)
	}

	if top := schema.Properties["top"]; top.Type != "integer" || top.Default != 5 {
		t.Errorf("top schema = %+v, want integer default 5", top)
	}
	if timeout := schema.Properties["timeout"]; timeout.Format != "duration" || timeout.Default != "30s" {
		t.Errorf("timeout schema = %+v, want duration format, string default", timeout)
	}
	if vars := schema.Properties["variables"]; vars.Type != "array" || vars.Items.Type != "string" {
		t.Errorf("variables schema = %+v, want string array", vars)
	}

	if len(schema.Required) != 1 || schema.Required[0] != "name" {
		t.Errorf("Required = %v, want [name]", schema.Required)
	}

	// The embedded JSONOutput field has json:"-" and must not leak
	// into the agent-visible schema.
	if _, ok := schema.Properties["OutputJSON"]; ok {
		t.Error("OutputJSON leaked into the schema")
	}
}

func TestParamsSchema_ExcludesFlagBinderFields(t *testing.T) {
	type params struct {
		Service binderParams `json:"service"`
		Name    string       `json:"name" flag:"name" desc:"pipeline name"`
	}

	schema, err := ParamsSchema(&params{})
	if err != nil {
		t.Fatalf("ParamsSchema() error: %v", err)
	}
	if _, ok := schema.Properties["service"]; ok {
		t.Error("FlagBinder field leaked into the schema")
	}
	if _, ok := schema.Properties["name"]; !ok {
		t.Error("name property missing")
	}
}

func TestOutputSchema(t *testing.T) {
	type run struct {
		ID        int       `json:"id" desc:"run id"`
		Status    string    `json:"status"`
		CreatedAt time.Time `json:"createdAt"`
		WebLink   string    `json:"webLink,omitempty"`
	}

	t.Run("struct", func(t *testing.T) {
		schema, err := OutputSchema(&run{})
		if err != nil {
			t.Fatalf("OutputSchema() error: %v", err)
		}
		if schema.Type != "object" {
			t.Errorf("Type = %q, want object", schema.Type)
		}
		if created := schema.Properties["createdAt"]; created.Type != "string" || created.Format != "date-time" {
			t.Errorf("createdAt schema = %+v, want date-time string", created)
		}
	})

	t.Run("slice of structs", func(t *testing.T) {
		schema, err := OutputSchema([]run{})
		if err != nil {
			t.Fatalf("OutputSchema() error: %v", err)
		}
		if schema.Type != "array" || schema.Items.Type != "object" {
			t.Errorf("schema = %+v, want array of objects", schema)
		}
	})

	t.Run("string map", func(t *testing.T) {
		schema, err := OutputSchema(map[string]string{})
		if err != nil {
			t.Fatalf("OutputSchema() error: %v", err)
		}
		if schema.Type != "object" || schema.AdditionalProperties.Type != "string" {
			t.Errorf("schema = %+v, want object with string values", schema)
		}
	})
}

func TestToolError_Categories(t *testing.T) {
	tests := []struct {
		err  *ToolError
		want ErrorCategory
	}{
		{Validation("bad input"), CategoryValidation},
		{NotFound("missing"), CategoryNotFound},
		{Forbidden("denied"), CategoryForbidden},
		{Conflict("exists"), CategoryConflict},
		{Transient("timeout"), CategoryTransient},
		{Internal("bug"), CategoryInternal},
	}
	for _, tt := range tests {
		if tt.err.Category != tt.want {
			t.Errorf("category = %q, want %q", tt.err.Category, tt.want)
		}
	}
}
