// Copyright 2026 The Azpipe Authors
// SPDX-License-Identifier: Apache-2.0

// Package pipeline implements the Azure DevOps pipeline operations:
// a YAML catalog of configured pipelines and a Service that triggers,
// lists, and probes them through the az CLI.
package pipeline

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Pipeline is one configured pipeline entry. The catalog is the only
// source of pipeline identity: operations accept a configured name,
// never a raw organization/project/id triple.
type Pipeline struct {
	// Name is the unique key callers use to select this pipeline.
	Name string `yaml:"name" json:"name"`

	// Organization is the Azure DevOps organization, either the bare
	// name or a full https://dev.azure.com/<org> URL.
	Organization string `yaml:"organization" json:"organization"`

	// Project is the Azure DevOps project name.
	Project string `yaml:"project" json:"project"`

	// ID is the numeric pipeline (build definition) id.
	ID int `yaml:"id" json:"id"`

	// Branch is the default branch to run against when a call does not
	// override it.
	Branch string `yaml:"branch,omitempty" json:"branch,omitempty"`

	// Variables are key/value pairs always passed to runs of this
	// pipeline. Call-time variables override them key by key.
	Variables map[string]string `yaml:"variables,omitempty" json:"variables,omitempty"`
}

// OrganizationURL returns the organization in the form az expects for
// --organization. Bare names are expanded to dev.azure.com URLs; full
// URLs pass through with their trailing slash trimmed.
func (p *Pipeline) OrganizationURL() string {
	org := strings.TrimRight(strings.TrimSpace(p.Organization), "/")
	if strings.HasPrefix(org, "https://") || strings.HasPrefix(org, "http://") {
		return org
	}
	return "https://dev.azure.com/" + org
}

// Config is the parsed pipeline catalog.
type Config struct {
	Pipelines []Pipeline `yaml:"pipelines" json:"pipelines"`

	byName map[string]*Pipeline
}

// NotConfiguredError reports a pipeline name absent from the catalog.
// It carries the configured names so callers can present them; this is
// a caller mistake, never a reason to invoke az.
type NotConfiguredError struct {
	Name      string
	Available []string
}

func (e *NotConfiguredError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("pipeline %q is not configured (the catalog is empty)", e.Name)
	}
	return fmt.Sprintf("pipeline %q is not configured (configured: %s)",
		e.Name, strings.Join(e.Available, ", "))
}

// LoadConfig reads and parses a pipeline catalog file.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pipeline config: %w", err)
	}
	cfg, err := ParseConfig(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig parses catalog YAML and validates every entry. Names
// must be unique: the name is the lookup key for every operation.
func ParseConfig(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	cfg.byName = make(map[string]*Pipeline, len(cfg.Pipelines))
	for i := range cfg.Pipelines {
		p := &cfg.Pipelines[i]
		if err := p.validate(); err != nil {
			return nil, fmt.Errorf("pipeline %d (%q): %w", i, p.Name, err)
		}
		if _, dup := cfg.byName[p.Name]; dup {
			return nil, fmt.Errorf("duplicate pipeline name %q", p.Name)
		}
		cfg.byName[p.Name] = p
	}
	return &cfg, nil
}

func (p *Pipeline) validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(p.Organization) == "" {
		return fmt.Errorf("organization is required")
	}
	if strings.TrimSpace(p.Project) == "" {
		return fmt.Errorf("project is required")
	}
	if p.ID <= 0 {
		return fmt.Errorf("id must be a positive pipeline id, got %d", p.ID)
	}
	return nil
}

// Lookup resolves a configured name. Unknown names return
// *NotConfiguredError with the sorted catalog names.
func (c *Config) Lookup(name string) (*Pipeline, error) {
	if p, ok := c.byName[name]; ok {
		return p, nil
	}
	return nil, &NotConfiguredError{Name: name, Available: c.Names()}
}

// Names returns the configured pipeline names, sorted.
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.byName))
	for name := range c.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
