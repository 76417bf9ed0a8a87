// Copyright 2026 The Azpipe Authors
// SPDX-License-Identifier: Apache-2.0

package azcli

import (
	"os"
	"os/exec"
	"runtime"
	"sync"
)

// EnvAzPath is the environment variable that overrides az binary
// discovery. It takes precedence over PATH lookup and the platform
// install directories, but not over an override passed explicitly to
// NewLocator (config beats environment beats discovery).
const EnvAzPath = "AZPIPE_AZ_PATH"

// Locator discovers the az executable and caches the result for the
// lifetime of the process. The cache is write-once-then-read-many:
// concurrent readers are safe, and nothing invalidates the cached
// path short of ClearCache (a fresh process re-probes).
//
// A Locator instance is constructed once at startup and passed to
// every consumer. There is deliberately no package-level cached path.
type Locator struct {
	override   string
	binaryName string
	probePaths []string

	mu     sync.Mutex
	cached string
}

// NewLocator returns a Locator. override, when non-empty, is probed
// before anything else (it typically comes from configuration); the
// AZPIPE_AZ_PATH environment variable is probed next, then PATH, then
// the platform-conventional install directories.
func NewLocator(override string) *Locator {
	return &Locator{
		override:   override,
		binaryName: defaultBinaryName(),
		probePaths: defaultProbePaths(),
	}
}

// Locate returns the path to the az executable, probing on the first
// call and serving the cached result on every subsequent call.
// Returns *NotFoundError listing the probed locations when no
// candidate exists and is executable.
func (l *Locator) Locate() (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cached != "" {
		return l.cached, nil
	}

	var probed []string

	for _, candidate := range []string{l.override, os.Getenv(EnvAzPath)} {
		if candidate == "" {
			continue
		}
		probed = append(probed, candidate)
		if isExecutable(candidate) {
			l.cached = candidate
			return candidate, nil
		}
	}

	probed = append(probed, "$PATH ("+l.binaryName+")")
	if path, err := exec.LookPath(l.binaryName); err == nil {
		l.cached = path
		return path, nil
	}

	for _, candidate := range l.probePaths {
		probed = append(probed, candidate)
		if isExecutable(candidate) {
			l.cached = candidate
			return candidate, nil
		}
	}

	return "", &NotFoundError{Probed: probed}
}

// ClearCache discards the cached path so the next Locate re-probes.
// This exists for operators who install az mid-session; normal code
// never calls it.
func (l *Locator) ClearCache() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cached = ""
}

func defaultBinaryName() string {
	if runtime.GOOS == "windows" {
		return "az.cmd"
	}
	return "az"
}

// defaultProbePaths lists platform-conventional install locations
// checked after PATH lookup fails. The Windows paths are where the
// MSI installer places az; the Unix paths cover distro packages and
// Homebrew.
func defaultProbePaths() []string {
	if runtime.GOOS == "windows" {
		return []string{
			`C:\Program Files (x86)\Microsoft SDKs\Azure\CLI2\wbin\az.cmd`,
			`C:\Program Files\Microsoft SDKs\Azure\CLI2\wbin\az.cmd`,
		}
	}
	return []string{
		"/usr/bin/az",
		"/usr/local/bin/az",
		"/opt/homebrew/bin/az",
		"/opt/az/bin/az",
	}
}

// isExecutable reports whether path names a regular file the process
// could execute. On Windows existence is enough (execute permission
// is not a mode bit there).
func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
