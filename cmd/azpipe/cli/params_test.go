// Copyright 2026 The Azpipe Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"reflect"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestBindFlags_SupportedTypes(t *testing.T) {
	type params struct {
		Name    string        `json:"name" flag:"name,n" desc:"pipeline name"`
		Wait    bool          `json:"wait" flag:"wait" desc:"wait for completion" default:"true"`
		Top     int           `json:"top" flag:"top" desc:"run count" default:"5"`
		Timeout time.Duration `json:"timeout" flag:"timeout" desc:"per-call timeout" default:"30s"`
		Vars    []string      `json:"vars" flag:"var" desc:"key=value variable"`
	}
	var p params

	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err != nil {
		t.Fatalf("BindFlags() error: %v", err)
	}

	args := []string{"-n", "api-deploy", "--wait=false", "--top", "3",
		"--timeout", "2m", "--var", "a=1", "--var", "b=2"}
	if err := flagSet.Parse(args); err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if p.Name != "api-deploy" || p.Wait || p.Top != 3 || p.Timeout != 2*time.Minute {
		t.Errorf("params = %+v", p)
	}
	if !reflect.DeepEqual(p.Vars, []string{"a=1", "b=2"}) {
		t.Errorf("Vars = %v, want [a=1 b=2]", p.Vars)
	}
}

func TestBindFlags_DefaultsApplyOnBind(t *testing.T) {
	type params struct {
		Timeout time.Duration `json:"timeout" flag:"timeout" default:"30s"`
		Top     int           `json:"top" flag:"top" default:"5"`
	}
	var p params

	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err != nil {
		t.Fatalf("BindFlags() error: %v", err)
	}

	// pflag writes defaults through the target at registration, which
	// is what lets the MCP server reset params by rebinding.
	if p.Timeout != 30*time.Second || p.Top != 5 {
		t.Errorf("params = %+v, want defaults before Parse", p)
	}
}

type binderParams struct {
	bound bool
}

func (b *binderParams) AddFlags(flagSet *pflag.FlagSet) {
	b.bound = true
	flagSet.String("config", "", "catalog path")
}

func TestBindFlags_FlagBinderField(t *testing.T) {
	type params struct {
		Service binderParams
		Name    string `json:"name" flag:"name"`
	}
	var p params

	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err != nil {
		t.Fatalf("BindFlags() error: %v", err)
	}
	if !p.Service.bound {
		t.Error("FlagBinder field was not bound via AddFlags")
	}
	if flagSet.Lookup("config") == nil {
		t.Error("config flag missing from flag set")
	}
	if flagSet.Lookup("name") == nil {
		t.Error("name flag missing from flag set")
	}
}

func TestBindFlags_EmbeddedStruct(t *testing.T) {
	var p struct {
		JSONOutput
		Name string `json:"name" flag:"name"`
	}

	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err != nil {
		t.Fatalf("BindFlags() error: %v", err)
	}
	if flagSet.Lookup("json") == nil {
		t.Error("embedded JSONOutput did not contribute the --json flag")
	}

	if err := flagSet.Parse([]string{"--json"}); err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if !p.OutputJSON {
		t.Error("OutputJSON = false after --json")
	}
}

func TestBindFlags_RejectsUnsupportedType(t *testing.T) {
	var p struct {
		Ratio float32 `json:"ratio" flag:"ratio"`
	}
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err == nil {
		t.Error("BindFlags() accepted a float32 field, want error")
	}
}

func TestBindFlags_RejectsNonPointer(t *testing.T) {
	var p struct{}
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(p, flagSet); err == nil {
		t.Error("BindFlags() accepted a non-pointer, want error")
	}
}
