// Copyright 2026 The Azpipe Authors
// SPDX-License-Identifier: Apache-2.0

package azcli

import "strings"

// signature is one entry in the classification table: an invocation
// whose stderr contains every substring in all (case-insensitive) is
// classified as kind with the given remediation hint.
type signature struct {
	all         []string
	kind        Kind
	remediation string
}

// signatures is the ordered classification table. Order matters:
// specific signatures come before generic ones, so a message that
// mentions both the azure-devops extension and "az login" classifies
// as extension-missing rather than authentication. The table is data,
// not control flow, so tests exercise it without any subprocess.
var signatures = []signature{
	{
		all:         []string{"extension", "is not installed"},
		kind:        KindExtensionMissing,
		remediation: "run 'az extension add --name azure-devops'",
	},
	{
		all:         []string{"az extension add"},
		kind:        KindExtensionMissing,
		remediation: "run 'az extension add --name azure-devops'",
	},
	{
		all:         []string{"az login"},
		kind:        KindAuthentication,
		remediation: "run 'az login' with an account that can reach Azure DevOps",
	},
	{
		all:         []string{"not logged in"},
		kind:        KindAuthentication,
		remediation: "run 'az login' with an account that can reach Azure DevOps",
	},
	{
		all:         []string{"tf400813"},
		kind:        KindAuthentication,
		remediation: "run 'az login' with an account that can reach Azure DevOps",
	},
	{
		all:         []string{"does not have permission"},
		kind:        KindPermission,
		remediation: "request access to the organization or project from its administrator",
	},
	{
		all:         []string{"forbidden"},
		kind:        KindPermission,
		remediation: "request access to the organization or project from its administrator",
	},
	{
		all:         []string{"access denied"},
		kind:        KindPermission,
		remediation: "request access to the organization or project from its administrator",
	},
	{
		all:         []string{"does not exist"},
		kind:        KindPipelineNotFound,
		remediation: "verify the pipeline id, organization, and project in the configuration",
	},
	{
		all:         []string{"could not be found"},
		kind:        KindPipelineNotFound,
		remediation: "verify the pipeline id, organization, and project in the configuration",
	},
	{
		all:         []string{"was not found"},
		kind:        KindPipelineNotFound,
		remediation: "verify the pipeline id, organization, and project in the configuration",
	},
}

// Classify maps a failed invocation onto the error taxonomy. Call it
// only for results with a non-zero exit code (including the timeout
// sentinel); a zero-exit result has nothing to classify.
//
// Matching is substring-based over stderr because that is all the
// external tool offers: az has no machine-readable error channel, so
// the signatures track the messages its current releases emit. When
// stderr is empty the stdout text is matched instead, since az
// reports some failures there.
func Classify(result *Result) *CliError {
	if result.TimedOut {
		return &CliError{
			Kind:        KindTimeout,
			Stderr:      excerpt(result.Stderr),
			Remediation: "increase the invocation timeout or check Azure DevOps service health",
			ExitCode:    TimeoutExitCode,
		}
	}

	text := strings.TrimSpace(result.Stderr)
	if text == "" {
		text = strings.TrimSpace(result.Stdout)
	}
	lower := strings.ToLower(text)

	for _, sig := range signatures {
		if matchesAll(lower, sig.all) {
			return &CliError{
				Kind:        sig.kind,
				Stderr:      excerpt(text),
				Remediation: sig.remediation,
				ExitCode:    result.ExitCode,
			}
		}
	}

	return &CliError{
		Kind:        KindUnknown,
		Stderr:      excerpt(text),
		Remediation: "inspect the stderr text; the failure matched no known az signature",
		ExitCode:    result.ExitCode,
	}
}

func matchesAll(lower string, needles []string) bool {
	for _, needle := range needles {
		if !strings.Contains(lower, needle) {
			return false
		}
	}
	return true
}

// excerpt bounds the stderr text carried on a classified error. az
// stack traces can run to many kilobytes; the leading lines carry the
// actual message.
func excerpt(text string) string {
	const limit = 2000
	text = strings.TrimSpace(text)
	if len(text) <= limit {
		return text
	}
	return text[:limit] + " [truncated]"
}
