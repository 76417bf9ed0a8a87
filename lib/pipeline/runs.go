// Copyright 2026 The Azpipe Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// RunStatus is the normalized state of a pipeline run. az reports a
// status while the run is live and a separate result once it finishes;
// RunStatus folds both into one field.
type RunStatus string

const (
	StatusQueued     RunStatus = "queued"
	StatusInProgress RunStatus = "inProgress"
	StatusSucceeded  RunStatus = "succeeded"
	StatusFailed     RunStatus = "failed"
	StatusCanceled   RunStatus = "canceled"
	StatusUnknown    RunStatus = "unknown"
)

// Run is one pipeline run as surfaced to callers.
type Run struct {
	ID        int       `json:"id"`
	Status    RunStatus `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	WebLink   string    `json:"webLink,omitempty"`
}

// azRun mirrors the fields of az's build JSON that matter here. The id
// decodes through json.Number because az has emitted both integral and
// float-formatted ids across releases.
type azRun struct {
	ID          json.Number `json:"id"`
	Status      string      `json:"status"`
	Result      string      `json:"result"`
	QueueTime   string      `json:"queueTime"`
	CreatedDate string      `json:"createdDate"`
	Links       struct {
		Web struct {
			Href string `json:"href"`
		} `json:"web"`
	} `json:"_links"`
}

// parseRun decodes one az build object.
func parseRun(raw []byte) (*Run, error) {
	var src azRun
	if err := json.Unmarshal(raw, &src); err != nil {
		return nil, fmt.Errorf("decoding run: %w", err)
	}
	return src.toRun()
}

// parseRunList decodes the array form returned by `az pipelines runs
// list`. Entries that fail to decode individually fail the whole list:
// a half-parsed listing is worse than an error.
func parseRunList(raw []byte) ([]Run, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decoding run list: %w", err)
	}
	runs := make([]Run, 0, len(items))
	for i, item := range items {
		run, err := parseRun(item)
		if err != nil {
			return nil, fmt.Errorf("run %d: %w", i, err)
		}
		runs = append(runs, *run)
	}
	return runs, nil
}

func (src *azRun) toRun() (*Run, error) {
	id, err := src.ID.Int64()
	if err != nil {
		// Tolerate float-formatted ids.
		f, ferr := src.ID.Float64()
		if ferr != nil {
			return nil, fmt.Errorf("run id %q is not numeric", src.ID.String())
		}
		id = int64(f)
	}

	run := &Run{
		ID:      int(id),
		Status:  normalizeStatus(src.Status, src.Result),
		WebLink: src.Links.Web.Href,
	}

	stamp := src.CreatedDate
	if stamp == "" {
		stamp = src.QueueTime
	}
	if stamp != "" {
		created, err := parseAzTime(stamp)
		if err != nil {
			return nil, fmt.Errorf("run %d: %w", run.ID, err)
		}
		run.CreatedAt = created
	}
	return run, nil
}

// parseAzTime accepts the timestamp shapes az emits: RFC 3339 with or
// without fractional seconds, and zone-less local timestamps.
func parseAzTime(stamp string) (time.Time, error) {
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.999999",
		"2006-01-02T15:04:05",
	} {
		if t, err := time.Parse(layout, stamp); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", stamp)
}

// normalizeStatus folds az's status/result pair into one RunStatus.
// A completed run's state lives in result; a live run's in status.
func normalizeStatus(status, result string) RunStatus {
	switch result {
	case "succeeded", "partiallySucceeded":
		return StatusSucceeded
	case "failed":
		return StatusFailed
	case "canceled":
		return StatusCanceled
	}
	switch status {
	case "notStarted", "queued", "postponed":
		return StatusQueued
	case "inProgress":
		return StatusInProgress
	case "cancelling":
		return StatusCanceled
	case "completed":
		// Completed without a recognized result.
		return StatusUnknown
	}
	return StatusUnknown
}

// sortRunsNewestFirst orders runs by creation time descending, run id
// descending as the tiebreaker so ordering is total.
func sortRunsNewestFirst(runs []Run) {
	sort.SliceStable(runs, func(i, j int) bool {
		if !runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].CreatedAt.After(runs[j].CreatedAt)
		}
		return runs[i].ID > runs[j].ID
	})
}
