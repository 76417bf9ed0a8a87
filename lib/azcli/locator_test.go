// Copyright 2026 The Azpipe Authors
// SPDX-License-Identifier: Apache-2.0

package azcli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeFakeBinary creates an executable shell script and returns its path.
func writeFakeBinary(t *testing.T, name, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatalf("writing fake binary: %v", err)
	}
	return path
}

func TestLocator_OverrideWins(t *testing.T) {
	fake := writeFakeBinary(t, "az", "exit 0")

	locator := NewLocator(fake)
	path, err := locator.Locate()
	if err != nil {
		t.Fatalf("Locate() error: %v", err)
	}
	if path != fake {
		t.Errorf("Locate() = %q, want override %q", path, fake)
	}
}

func TestLocator_EnvOverride(t *testing.T) {
	fake := writeFakeBinary(t, "az", "exit 0")
	t.Setenv(EnvAzPath, fake)

	locator := NewLocator("")
	path, err := locator.Locate()
	if err != nil {
		t.Fatalf("Locate() error: %v", err)
	}
	if path != fake {
		t.Errorf("Locate() = %q, want env override %q", path, fake)
	}
}

func TestLocator_CachesAcrossCalls(t *testing.T) {
	dir := t.TempDir()
	fake := filepath.Join(dir, "az")
	if err := os.WriteFile(fake, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("writing fake binary: %v", err)
	}

	locator := NewLocator(fake)
	first, err := locator.Locate()
	if err != nil {
		t.Fatalf("first Locate() error: %v", err)
	}

	// Remove the binary: the cached path must still be served without
	// re-probing (a fresh process re-probes, not a fresh call).
	if err := os.Remove(fake); err != nil {
		t.Fatalf("removing fake binary: %v", err)
	}

	second, err := locator.Locate()
	if err != nil {
		t.Fatalf("second Locate() error: %v", err)
	}
	if second != first {
		t.Errorf("cached Locate() = %q, want %q", second, first)
	}
}

func TestLocator_ClearCacheReprobes(t *testing.T) {
	dir := t.TempDir()
	fake := filepath.Join(dir, "az")
	if err := os.WriteFile(fake, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("writing fake binary: %v", err)
	}

	locator := &Locator{override: fake, binaryName: "az-missing-binary"}
	if _, err := locator.Locate(); err != nil {
		t.Fatalf("Locate() error: %v", err)
	}

	if err := os.Remove(fake); err != nil {
		t.Fatalf("removing fake binary: %v", err)
	}
	locator.ClearCache()

	_, err := locator.Locate()
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Locate() after ClearCache = %v, want *NotFoundError", err)
	}
}

func TestLocator_NotFoundListsProbedLocations(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no-such-az")
	locator := &Locator{
		override:   missing,
		binaryName: "az-missing-binary",
		probePaths: []string{"/nonexistent/az"},
	}

	_, err := locator.Locate()
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Locate() = %v, want *NotFoundError", err)
	}
	if len(notFound.Probed) < 3 {
		t.Errorf("Probed = %v, want override, PATH, and install-dir entries", notFound.Probed)
	}
	if notFound.Probed[0] != missing {
		t.Errorf("Probed[0] = %q, want override %q first", notFound.Probed[0], missing)
	}
	if msg := notFound.Error(); !strings.Contains(msg, InstallURL) {
		t.Errorf("Error() = %q, want install link %q", msg, InstallURL)
	}
}

func TestLocator_SkipsNonExecutableCandidate(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "az")
	if err := os.WriteFile(plain, []byte("not a program"), 0o644); err != nil {
		t.Fatalf("writing file: %v", err)
	}

	locator := &Locator{
		override:   plain,
		binaryName: "az-missing-binary",
	}

	_, err := locator.Locate()
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Locate() = %v, want *NotFoundError for non-executable candidate", err)
	}
}
