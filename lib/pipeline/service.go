// Copyright 2026 The Azpipe Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/azpipe/azpipe/lib/azcli"
	"github.com/azpipe/azpipe/lib/clock"
	"github.com/azpipe/azpipe/lib/dump"
)

// DefaultBulkLimit bounds how many az subprocesses a bulk trigger runs
// at once. az invocations are network-bound; four in flight saturates
// the useful parallelism without stampeding the local CLI cache.
const DefaultBulkLimit = 4

// DefaultListTop is the run count returned by ListRuns when the caller
// does not ask for a specific number.
const DefaultListTop = 5

// statusTTL is how long a CheckCliStatus result is served from cache.
// Auth state changes rarely mid-session; five minutes keeps repeated
// status checks from paying three az invocations each.
const statusTTL = 5 * time.Minute

// Service executes pipeline operations against the catalog through a
// CommandRunner. It is safe for concurrent use.
type Service struct {
	config  *Config
	runner  azcli.CommandRunner
	locator Locator
	clock   clock.Clock
	dumper  *dump.Writer
	logger  *slog.Logger
	timeout time.Duration
	bulkMax int

	statusMu sync.Mutex
	status   *Status
	statusAt time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithTimeout bounds each az invocation.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithBulkLimit bounds bulk trigger concurrency.
func WithBulkLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.bulkMax = n
		}
	}
}

// WithDumper archives every raw az response through w.
func WithDumper(w *dump.Writer) Option {
	return func(s *Service) { s.dumper = w }
}

// WithClock substitutes the status-cache clock.
func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// Locator resolves the az binary path. *azcli.Locator satisfies it.
type Locator interface {
	Locate() (string, error)
}

// WithLocator sets the locator used for the bulk preflight probe. When
// unset, bulk triggers skip the preflight and each worker reports the
// locate failure itself.
func WithLocator(l Locator) Option {
	return func(s *Service) { s.locator = l }
}

// NewService builds a Service over a parsed catalog and a runner.
func NewService(cfg *Config, runner azcli.CommandRunner, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		config:  cfg,
		runner:  runner,
		clock:   clock.Real(),
		logger:  logger,
		timeout: azcli.DefaultTimeout,
		bulkMax: DefaultBulkLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Outcome is the result of one trigger attempt. Exactly one of Run and
// Error is set; Success mirrors which.
type Outcome struct {
	Name    string        `json:"name"`
	Success bool          `json:"success"`
	Run     *Run          `json:"run,omitempty"`
	Error   *OutcomeError `json:"error,omitempty"`
}

// OutcomeError is a trigger failure in caller-facing form.
type OutcomeError struct {
	Kind        string `json:"kind"`
	Message     string `json:"message"`
	Remediation string `json:"remediation,omitempty"`
}

func outcomeFromCliError(cliErr *azcli.CliError) *OutcomeError {
	return &OutcomeError{
		Kind:        string(cliErr.Kind),
		Message:     cliErr.Stderr,
		Remediation: cliErr.Remediation,
	}
}

// Trigger runs one configured pipeline. vars override the catalog's
// variables key by key; branchOverride, when non-empty, overrides the
// catalog branch for this run only.
//
// Unknown names and an unlocatable az binary are returned as errors
// before any subprocess runs. Everything that happens after the
// subprocess starts, timeouts included, lands in the Outcome.
func (s *Service) Trigger(ctx context.Context, name string, vars map[string]string, branchOverride string) (*Outcome, error) {
	p, err := s.config.Lookup(name)
	if err != nil {
		return nil, err
	}

	args := []string{
		"pipelines", "run",
		"--organization", p.OrganizationURL(),
		"--project", p.Project,
		"--id", strconv.Itoa(p.ID),
	}
	if branch := firstNonEmpty(branchOverride, p.Branch); branch != "" {
		args = append(args, "--branch", branch)
	}
	for _, kv := range mergeVariables(p.Variables, vars) {
		args = append(args, "--variables", kv)
	}
	args = append(args, "--output", "json")

	result, err := s.runner.Run(ctx, args, s.timeout)
	if err != nil {
		var launch *azcli.LaunchError
		if errors.As(err, &launch) {
			s.logger.Error("az failed to start", "pipeline", name, "error", launch)
			return &Outcome{
				Name: name,
				Error: &OutcomeError{
					Kind:        string(azcli.KindLaunch),
					Message:     launch.Error(),
					Remediation: "check that the az binary is executable and not corrupted",
				},
			}, nil
		}
		return nil, err
	}
	s.dump("trigger_"+name, result)

	outcome := &Outcome{Name: name}
	switch {
	case result.TimedOut || result.ExitCode != 0:
		cliErr := azcli.Classify(result)
		s.logger.Warn("pipeline trigger failed",
			"pipeline", name, "kind", cliErr.Kind, "exit_code", cliErr.ExitCode)
		outcome.Error = outcomeFromCliError(cliErr)
	case result.ParseErr != nil:
		outcome.Error = &OutcomeError{
			Kind:    string(azcli.KindParse),
			Message: fmt.Sprintf("az returned unparseable output: %v", result.ParseErr),
		}
	default:
		run, parseErr := parseRun([]byte(result.Stdout))
		if parseErr != nil {
			outcome.Error = &OutcomeError{
				Kind:    string(azcli.KindParse),
				Message: parseErr.Error(),
			}
			break
		}
		outcome.Success = true
		outcome.Run = run
		s.logger.Info("pipeline triggered",
			"pipeline", name, "run_id", run.ID, "status", run.Status)
	}
	return outcome, nil
}

// TriggerBulk queues count independent runs of one configured
// pipeline, bounded by the bulk limit. One failed trigger never stops
// the others: the returned slice has exactly count outcomes, index i
// holding the result of the i-th requested run. count <= 0 returns an
// empty slice without spawning anything.
//
// An unknown name and an unlocatable az binary both fail the whole
// batch before any subprocess runs. The binary is checked by a single
// probe, not once per run. Everything after a subprocess starts lands
// in its own outcome.
func (s *Service) TriggerBulk(ctx context.Context, name string, count int, vars map[string]string, branchOverride string) ([]Outcome, error) {
	if _, err := s.config.Lookup(name); err != nil {
		return nil, err
	}
	if count <= 0 {
		return []Outcome{}, nil
	}

	if s.locator != nil {
		if _, err := s.locator.Locate(); err != nil {
			return nil, err
		}
	}

	outcomes := make([]Outcome, count)
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(s.bulkMax)
	for i := 0; i < count; i++ {
		i := i
		group.Go(func() error {
			outcome, err := s.Trigger(ctx, name, vars, branchOverride)
			if err != nil {
				return err
			}
			outcomes[i] = *outcome
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// ListRuns returns the most recent runs of a configured pipeline,
// newest first, at most top entries (DefaultListTop when top <= 0).
func (s *Service) ListRuns(ctx context.Context, name string, top int) ([]Run, error) {
	p, err := s.config.Lookup(name)
	if err != nil {
		return nil, err
	}
	if top <= 0 {
		top = DefaultListTop
	}

	args := []string{
		"pipelines", "runs", "list",
		"--organization", p.OrganizationURL(),
		"--project", p.Project,
		"--pipeline-ids", strconv.Itoa(p.ID),
		"--top", strconv.Itoa(top),
		"--output", "json",
	}
	result, err := s.runner.Run(ctx, args, s.timeout)
	if err != nil {
		return nil, err
	}
	s.dump("runs_"+name, result)

	if result.TimedOut || result.ExitCode != 0 {
		return nil, azcli.Classify(result)
	}
	runs, err := parseRunList([]byte(result.Stdout))
	if err != nil {
		return nil, &azcli.CliError{
			Kind:        azcli.KindParse,
			Stderr:      err.Error(),
			Remediation: "upgrade az; its runs list output did not decode",
		}
	}

	// az honors --top, but ordering is not guaranteed and a lagging
	// server can overshoot. Enforce both here.
	sortRunsNewestFirst(runs)
	if len(runs) > top {
		runs = runs[:top]
	}
	return runs, nil
}

// AccessReport is the result of probing one configured pipeline.
type AccessReport struct {
	Name       string `json:"name"`
	Accessible bool   `json:"accessible"`
	Detail     string `json:"detail,omitempty"`
}

// TestAccess probes whether the current az identity can read a
// configured pipeline, without triggering anything. Inaccessibility is
// a report, not an error: only unknown names and an unrunnable az
// error out.
func (s *Service) TestAccess(ctx context.Context, name string) (*AccessReport, error) {
	p, err := s.config.Lookup(name)
	if err != nil {
		return nil, err
	}

	args := []string{
		"pipelines", "show",
		"--organization", p.OrganizationURL(),
		"--project", p.Project,
		"--id", strconv.Itoa(p.ID),
		"--output", "json",
	}
	result, err := s.runner.Run(ctx, args, s.timeout)
	if err != nil {
		return nil, err
	}
	s.dump("access_"+name, result)

	if result.TimedOut || result.ExitCode != 0 {
		cliErr := azcli.Classify(result)
		detail := cliErr.Stderr
		if cliErr.Remediation != "" {
			detail = fmt.Sprintf("%s (remediation: %s)", detail, cliErr.Remediation)
		}
		return &AccessReport{Name: name, Detail: detail}, nil
	}
	return &AccessReport{Name: name, Accessible: true}, nil
}

// Configured returns the catalog entries sorted by name.
func (s *Service) Configured() []Pipeline {
	entries := make([]Pipeline, len(s.config.Pipelines))
	copy(entries, s.config.Pipelines)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// mergeVariables flattens catalog and call-time variables into sorted
// k=v strings, call-time values winning per key. Sorting keeps the
// argument vector deterministic for logs and tests.
func mergeVariables(base, override map[string]string) []string {
	merged := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+merged[k])
	}
	return pairs
}

func (s *Service) dump(prefix string, result *azcli.Result) {
	if s.dumper == nil {
		return
	}
	payload := result.Parsed
	if payload == nil {
		payload = map[string]any{
			"stdout":    result.Stdout,
			"stderr":    result.Stderr,
			"exit_code": result.ExitCode,
		}
	}
	if _, err := s.dumper.Write(prefix, payload); err != nil {
		s.logger.Warn("response dump failed", "prefix", prefix, "error", err)
	}
}
