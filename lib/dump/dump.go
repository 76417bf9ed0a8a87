// Copyright 2026 The Azpipe Authors
// SPDX-License-Identifier: Apache-2.0

// Package dump archives raw az responses as timestamped JSON files.
// Archiving is optional diagnostics: a nil *Writer is valid and every
// method on it is a no-op, so callers never branch on whether dumping
// is configured.
package dump

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/azpipe/azpipe/lib/clock"
)

// Writer persists one JSON document per call under a directory.
type Writer struct {
	dir    string
	clock  clock.Clock
	logger *slog.Logger
}

// NewWriter returns a Writer rooted at dir. The directory is created
// lazily on first write.
func NewWriter(dir string, clk clock.Clock, logger *slog.Logger) *Writer {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{dir: dir, clock: clk, logger: logger}
}

// Write archives data as <prefix>_<timestamp>_<id>.json and returns
// the file path. The short random id keeps two dumps in the same
// second from colliding. Failures are returned, not fatal; callers
// treat a failed dump as a logged diagnostic loss.
func (w *Writer) Write(prefix string, data any) (string, error) {
	if w == nil {
		return "", nil
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating dump directory %s: %w", w.dir, err)
	}

	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding %s dump: %w", prefix, err)
	}

	stamp := w.clock.Now().UTC().Format("20060102T150405")
	name := fmt.Sprintf("%s_%s_%s.json", prefix, stamp, uuid.NewString()[:8])
	path := filepath.Join(w.dir, name)

	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return "", fmt.Errorf("writing %s dump: %w", prefix, err)
	}

	w.logger.Debug("archived response", "prefix", prefix, "path", path)
	return path, nil
}
