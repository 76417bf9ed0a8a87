// Copyright 2026 The Azpipe Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestExecute_DispatchesSubcommand(t *testing.T) {
	var ran []string
	root := &Command{
		Name: "azpipe",
		Subcommands: []*Command{
			{
				Name: "pipeline",
				Subcommands: []*Command{
					{Name: "run", Run: func(args []string) error {
						ran = args
						return nil
					}},
				},
			},
		},
	}

	if err := root.Execute([]string{"pipeline", "run", "api-deploy"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if len(ran) != 1 || ran[0] != "api-deploy" {
		t.Errorf("Run args = %v, want [api-deploy]", ran)
	}
}

func TestExecute_UnknownCommandSuggests(t *testing.T) {
	root := &Command{
		Name: "azpipe",
		Subcommands: []*Command{
			{Name: "pipeline"},
			{Name: "status"},
		},
	}

	err := root.Execute([]string{"stats"})
	if err == nil {
		t.Fatal("Execute() succeeded, want unknown command error")
	}
	if !strings.Contains(err.Error(), `did you mean "status"`) {
		t.Errorf("error = %q, want suggestion for status", err)
	}
}

func TestExecute_SubcommandRequired(t *testing.T) {
	root := &Command{
		Name:        "azpipe",
		Subcommands: []*Command{{Name: "pipeline"}},
	}

	err := root.Execute(nil)
	if err == nil || !strings.Contains(err.Error(), "subcommand required") {
		t.Errorf("Execute() error = %v, want subcommand required", err)
	}
}

func TestExecute_FlagsFromParams(t *testing.T) {
	type runParams struct {
		Branch string `json:"branch" flag:"branch" desc:"branch to run" default:"main"`
		Top    int    `json:"top" flag:"top" desc:"run count" default:"5"`
	}
	var params runParams

	cmd := &Command{
		Name:   "runs",
		Params: func() any { return &params },
		Run:    func(args []string) error { return nil },
	}

	if err := cmd.Execute([]string{"--branch", "release", "--top", "9"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if params.Branch != "release" || params.Top != 9 {
		t.Errorf("params = %+v, want branch=release top=9", params)
	}

	// Defaults apply when flags are absent.
	params = runParams{}
	if err := cmd.Execute(nil); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if params.Branch != "main" || params.Top != 5 {
		t.Errorf("params = %+v, want defaults main/5", params)
	}
}

func TestExecute_UnknownFlagSuggests(t *testing.T) {
	type params struct {
		Branch string `json:"branch" flag:"branch" desc:"branch"`
	}
	var p params
	cmd := &Command{
		Name:   "run",
		Params: func() any { return &p },
		Run:    func(args []string) error { return nil },
	}

	err := cmd.Execute([]string{"--brnach", "main"})
	if err == nil {
		t.Fatal("Execute() succeeded, want unknown flag error")
	}
	if !strings.Contains(err.Error(), "--branch") {
		t.Errorf("error = %q, want --branch suggestion", err)
	}
}

func TestPrintHelp(t *testing.T) {
	root := &Command{
		Name:        "azpipe",
		Description: "Azure DevOps pipeline operations through the az CLI.",
		Subcommands: []*Command{
			{Name: "pipeline", Summary: "Trigger and inspect pipelines"},
			{Name: "status", Summary: "Check az toolchain readiness"},
		},
		Examples: []Example{
			{Description: "Trigger a configured pipeline", Command: "azpipe pipeline run api-deploy"},
		},
	}

	var buffer bytes.Buffer
	root.PrintHelp(&buffer)
	help := buffer.String()

	for _, want := range []string{
		"Azure DevOps pipeline operations",
		"pipeline",
		"Trigger and inspect pipelines",
		"azpipe pipeline run api-deploy",
		"Run 'azpipe <command> --help'",
	} {
		if !strings.Contains(help, want) {
			t.Errorf("help output missing %q:\n%s", want, help)
		}
	}
}

func TestSuggestCommand_Threshold(t *testing.T) {
	commands := []*Command{{Name: "run"}, {Name: "access"}}
	if got := suggestCommand("rnu", commands); got != "run" {
		t.Errorf("suggestCommand(rnu) = %q, want run", got)
	}
	if got := suggestCommand("completelydifferent", commands); got != "" {
		t.Errorf("suggestCommand(completelydifferent) = %q, want no suggestion", got)
	}
}
