// Copyright 2026 The Azpipe Authors
// SPDX-License-Identifier: Apache-2.0

// Package azcli executes the Azure CLI as a subprocess and classifies
// its failures.
//
// The package owns the three leaf concerns of talking to az: locating
// the binary on the host (Locator, with a process-lifetime cache),
// running one subcommand with a wall-clock deadline and capturing its
// output (Runner, producing an immutable Result per invocation), and
// mapping a failed invocation onto a typed taxonomy with a remediation
// hint (Classify, driven by an ordered signature table).
//
// azcli knows nothing about pipelines. The pipeline service in
// lib/pipeline composes these pieces per operation; everything here is
// testable with shell scripts in a temp directory or no subprocess at
// all.
package azcli
