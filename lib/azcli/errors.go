// Copyright 2026 The Azpipe Authors
// SPDX-License-Identifier: Apache-2.0

package azcli

import (
	"fmt"
	"strings"
)

// InstallURL is the remediation link included when the az binary
// cannot be found on the host.
const InstallURL = "https://learn.microsoft.com/cli/azure/install-azure-cli"

// NotFoundError reports that no az executable could be located. It
// carries every location that was probed so the operator can see
// exactly where the search looked. Within a single process this
// condition does not heal on its own: callers treat it as fatal for
// the operation (and for an entire bulk batch) unless the locator
// cache is explicitly cleared.
type NotFoundError struct {
	// Probed lists the candidate locations that were checked, in
	// probe order.
	Probed []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("az CLI not found (probed: %s); install it from %s",
		strings.Join(e.Probed, ", "), InstallURL)
}

// LaunchError reports that the az executable was located but the
// subprocess could not be started: the binary disappeared between
// locate and exec, or the process lacks execute permission. A
// non-zero exit from az itself is NOT a LaunchError; that is a
// successful invocation whose result carries the exit code.
type LaunchError struct {
	// Path is the executable that failed to start.
	Path string
	// Err is the underlying exec error.
	Err error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("starting %s: %v", e.Path, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// Kind identifies the failure class of a classified az invocation.
type Kind string

const (
	// KindLaunch covers subprocess start failures folded into an
	// outcome (see LaunchError for the standalone error form).
	KindLaunch Kind = "launch"

	// KindTimeout covers invocations killed at their deadline.
	KindTimeout Kind = "timeout"

	// KindAuthentication covers missing or expired az sessions.
	KindAuthentication Kind = "authentication"

	// KindExtensionMissing covers a missing azure-devops extension.
	KindExtensionMissing Kind = "extension_missing"

	// KindPipelineNotFound covers pipelines the service reports as
	// nonexistent (distinct from a name missing from the local
	// configuration, which never reaches the subprocess).
	KindPipelineNotFound Kind = "pipeline_not_found"

	// KindPermission covers authenticated-but-forbidden responses.
	KindPermission Kind = "permission"

	// KindParse covers invocations that exited zero but produced
	// stdout that could not be decoded as JSON.
	KindParse Kind = "parse"

	// KindUnknown covers non-zero exits matching no known signature.
	KindUnknown Kind = "unknown"
)

// CliError is a classified az invocation failure. It always carries
// the stderr excerpt that triggered the classification and a one-line
// remediation hint for the operator or agent.
//
// CliError values travel as data inside bulk outcomes rather than
// aborting the batch, so the JSON field names are part of the tool
// output contract.
type CliError struct {
	// Kind is the failure class.
	Kind Kind `json:"kind"`

	// Stderr is the trimmed stderr text from the invocation (stdout
	// when stderr was empty, since az sometimes reports errors there).
	Stderr string `json:"stderr,omitempty"`

	// Remediation is a one-line hint on how to fix the failure.
	Remediation string `json:"remediation,omitempty"`

	// ExitCode is the subprocess exit status, or TimeoutExitCode for
	// invocations killed at their deadline.
	ExitCode int `json:"exit_code"`
}

func (e *CliError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "az invocation failed (%s)", e.Kind)
	if e.Stderr != "" {
		fmt.Fprintf(&b, ": %s", e.Stderr)
	}
	if e.Remediation != "" {
		fmt.Fprintf(&b, " (remediation: %s)", e.Remediation)
	}
	return b.String()
}
