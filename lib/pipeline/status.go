// Copyright 2026 The Azpipe Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/azpipe/azpipe/lib/azcli"
)

// Status reports whether the az toolchain is ready for pipeline
// operations: binary present, identity logged in, azure-devops
// extension installed. Ready is the conjunction.
type Status struct {
	Installed        bool   `json:"installed"`
	Version          string `json:"version,omitempty"`
	LoggedIn         bool   `json:"loggedIn"`
	Account          string `json:"account,omitempty"`
	ExtensionPresent bool   `json:"extensionPresent"`
	Ready            bool   `json:"ready"`
	Detail           string `json:"detail,omitempty"`
}

// CheckCliStatus probes the az toolchain. It never returns an error:
// every failure mode, missing binary included, is expressed in the
// Status so callers can always render a readiness report.
//
// Results are cached for five minutes; InvalidateStatus forces the
// next call to re-probe (after an az login, say).
func (s *Service) CheckCliStatus(ctx context.Context) *Status {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()

	now := s.clock.Now()
	if s.status != nil && now.Sub(s.statusAt) < statusTTL {
		return s.status
	}

	status := s.probeStatus(ctx)
	s.status = status
	s.statusAt = now
	return status
}

// InvalidateStatus drops the cached status.
func (s *Service) InvalidateStatus() {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.status = nil
}

func (s *Service) probeStatus(ctx context.Context) *Status {
	status := &Status{}

	version, err := s.runStatusProbe(ctx, []string{"--version"})
	if err != nil {
		status.Detail = err.Error()
		return status
	}
	status.Installed = true
	status.Version = firstLine(version.Stdout)
	if version.ExitCode != 0 {
		status.Detail = fmt.Sprintf("az --version exited %d", version.ExitCode)
		return status
	}

	account, err := s.runStatusProbe(ctx, []string{"account", "show", "--output", "json"})
	if err != nil {
		status.Detail = err.Error()
		return status
	}
	if account.ExitCode == 0 && account.Parsed != nil {
		status.LoggedIn = true
		status.Account = accountName(account.Parsed)
	} else {
		status.Detail = "not logged in; run 'az login'"
	}

	extension, err := s.runStatusProbe(ctx, []string{"extension", "show", "--name", "azure-devops", "--output", "json"})
	if err != nil {
		status.Detail = err.Error()
		return status
	}
	if extension.ExitCode == 0 {
		status.ExtensionPresent = true
	} else if status.Detail == "" {
		status.Detail = "azure-devops extension missing; run 'az extension add --name azure-devops'"
	}

	status.Ready = status.Installed && status.LoggedIn && status.ExtensionPresent
	return status
}

// runStatusProbe runs one probe invocation, flattening both failure
// channels (locate/launch errors and kill-at-deadline results) into a
// plain error so probeStatus stays linear.
func (s *Service) runStatusProbe(ctx context.Context, args []string) (*azcli.Result, error) {
	result, err := s.runner.Run(ctx, args, s.timeout)
	if err != nil {
		return nil, err
	}
	if result.TimedOut {
		return nil, fmt.Errorf("az %s timed out", strings.Join(args, " "))
	}
	return result, nil
}

func firstLine(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	// az --version leads with the core version, e.g. "azure-cli 2.64.0".
	return strings.Join(strings.Fields(text), " ")
}

// accountName pulls the signed-in identity out of `az account show`
// output: the user name when present, the subscription name otherwise.
func accountName(parsed any) string {
	obj, ok := parsed.(map[string]any)
	if !ok {
		return ""
	}
	if user, ok := obj["user"].(map[string]any); ok {
		if name, ok := user["name"].(string); ok && name != "" {
			return name
		}
	}
	if name, ok := obj["name"].(string); ok {
		return name
	}
	return ""
}
