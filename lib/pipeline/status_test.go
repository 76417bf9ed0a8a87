// Copyright 2026 The Azpipe Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/azpipe/azpipe/lib/azcli"
	"github.com/azpipe/azpipe/lib/clock"
)

// statusRunner answers the three status probes like a healthy az.
func statusRunner() *fakeRunner {
	return &fakeRunner{respond: func(args []string) (*azcli.Result, error) {
		switch {
		case args[0] == "--version":
			return &azcli.Result{Stdout: "azure-cli    2.64.0\n\ncore         2.64.0\n"}, nil
		case args[0] == "account":
			return jsonResult(`{"name": "Contoso Prod", "user": {"name": "dev@contoso.com"}}`), nil
		case args[0] == "extension":
			return jsonResult(`{"name": "azure-devops", "version": "1.0.1"}`), nil
		}
		return &azcli.Result{ExitCode: 2, Stderr: "unexpected probe"}, nil
	}}
}

func TestCheckCliStatus_Ready(t *testing.T) {
	runner := statusRunner()
	svc := NewService(testConfig(t), runner, nil)

	status := svc.CheckCliStatus(context.Background())
	if !status.Ready {
		t.Fatalf("status = %+v, want ready", status)
	}
	if !status.Installed || !status.LoggedIn || !status.ExtensionPresent {
		t.Errorf("status = %+v, want all probes positive", status)
	}
	if status.Account != "dev@contoso.com" {
		t.Errorf("Account = %q, want dev@contoso.com", status.Account)
	}
	if !strings.Contains(status.Version, "azure-cli") {
		t.Errorf("Version = %q, want azure-cli line", status.Version)
	}
	if runner.callCount() != 3 {
		t.Errorf("runner calls = %d, want 3 probes", runner.callCount())
	}
}

func TestCheckCliStatus_CachesForFiveMinutes(t *testing.T) {
	runner := statusRunner()
	clk := clock.Fake(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	svc := NewService(testConfig(t), runner, nil, WithClock(clk))

	svc.CheckCliStatus(context.Background())
	clk.Advance(4 * time.Minute)
	svc.CheckCliStatus(context.Background())
	if runner.callCount() != 3 {
		t.Errorf("runner calls = %d, want 3 (second check inside the TTL)", runner.callCount())
	}

	clk.Advance(2 * time.Minute)
	svc.CheckCliStatus(context.Background())
	if runner.callCount() != 6 {
		t.Errorf("runner calls = %d, want 6 (TTL expired, re-probe)", runner.callCount())
	}
}

func TestInvalidateStatus_ForcesReprobe(t *testing.T) {
	runner := statusRunner()
	clk := clock.Fake(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	svc := NewService(testConfig(t), runner, nil, WithClock(clk))

	svc.CheckCliStatus(context.Background())
	svc.InvalidateStatus()
	svc.CheckCliStatus(context.Background())
	if runner.callCount() != 6 {
		t.Errorf("runner calls = %d, want 6 after invalidation", runner.callCount())
	}
}

func TestCheckCliStatus_MissingBinaryNeverPanics(t *testing.T) {
	runner := &fakeRunner{respond: func(args []string) (*azcli.Result, error) {
		return nil, &azcli.NotFoundError{Probed: []string{"$PATH (az)"}}
	}}
	svc := NewService(testConfig(t), runner, nil)

	status := svc.CheckCliStatus(context.Background())
	if status.Installed || status.Ready {
		t.Errorf("status = %+v, want not installed", status)
	}
	if status.Detail == "" {
		t.Error("Detail empty, want locate failure text")
	}
	if runner.callCount() != 1 {
		t.Errorf("runner calls = %d, want 1 (later probes skipped)", runner.callCount())
	}
}

func TestCheckCliStatus_NotLoggedIn(t *testing.T) {
	runner := &fakeRunner{respond: func(args []string) (*azcli.Result, error) {
		switch {
		case args[0] == "--version":
			return &azcli.Result{Stdout: "azure-cli 2.64.0"}, nil
		case args[0] == "account":
			return &azcli.Result{ExitCode: 1, Stderr: "ERROR: Please run 'az login'"}, nil
		case args[0] == "extension":
			return jsonResult(`{"name": "azure-devops"}`), nil
		}
		return nil, nil
	}}
	svc := NewService(testConfig(t), runner, nil)

	status := svc.CheckCliStatus(context.Background())
	if status.Ready || status.LoggedIn {
		t.Errorf("status = %+v, want not logged in", status)
	}
	if !status.Installed || !status.ExtensionPresent {
		t.Errorf("status = %+v, login failure must not hide other probes", status)
	}
	if !strings.Contains(status.Detail, "az login") {
		t.Errorf("Detail = %q, want az login hint", status.Detail)
	}
}
