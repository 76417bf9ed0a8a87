// Copyright 2026 The Azpipe Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/azpipe/azpipe/cmd/azpipe/cli"
	"github.com/azpipe/azpipe/lib/azcli"
	"github.com/azpipe/azpipe/lib/clock"
	"github.com/azpipe/azpipe/lib/dump"
	libpipeline "github.com/azpipe/azpipe/lib/pipeline"
)

// EnvConfigPath is the environment variable naming the pipeline
// catalog file when --config is not given.
const EnvConfigPath = "AZPIPE_CONFIG"

// defaultConfigPath is the catalog location when neither --config nor
// the environment variable is set.
const defaultConfigPath = "pipelines.yaml"

// serviceParams carries the infrastructure flags shared by every
// pipeline command: where the catalog lives, which az binary to use,
// how long an invocation may take, and whether to archive responses.
//
// It implements [cli.FlagBinder], so these bind as CLI flags but stay
// out of the MCP input schemas: the MCP server is launched with the
// right environment, agents never choose the catalog or binary.
type serviceParams struct {
	ConfigPath string
	AzPath     string
	Timeout    time.Duration
	DumpDir    string
}

// AddFlags implements [cli.FlagBinder].
func (p *serviceParams) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&p.ConfigPath, "config", "",
		"pipeline catalog file (default $"+EnvConfigPath+", then "+defaultConfigPath+")")
	flagSet.StringVar(&p.AzPath, "az-path", "",
		"explicit path to the az binary (default $"+azcli.EnvAzPath+", then probe)")
	flagSet.DurationVar(&p.Timeout, "timeout", azcli.DefaultTimeout,
		"timeout per az invocation")
	flagSet.StringVar(&p.DumpDir, "dump-dir", "",
		"archive raw az responses as JSON files under this directory")
}

// newService builds the pipeline service from the bound flags and
// environment. extra options are applied after the flag-derived ones.
func (p *serviceParams) newService(logger *slog.Logger, extra ...libpipeline.Option) (*libpipeline.Service, error) {
	configPath := p.ConfigPath
	if configPath == "" {
		configPath = os.Getenv(EnvConfigPath)
	}
	if configPath == "" {
		configPath = defaultConfigPath
	}

	config, err := libpipeline.LoadConfig(configPath)
	if err != nil {
		return nil, cli.Validation("loading pipeline catalog: %w", err)
	}

	locator := azcli.NewLocator(p.AzPath)
	runner := azcli.NewRunner(locator, logger)

	options := []libpipeline.Option{
		libpipeline.WithTimeout(p.Timeout),
		libpipeline.WithLocator(locator),
	}
	if p.DumpDir != "" {
		options = append(options, libpipeline.WithDumper(
			dump.NewWriter(p.DumpDir, clock.Real(), logger)))
	}
	options = append(options, extra...)

	return libpipeline.NewService(config, runner, logger, options...), nil
}

// asToolError maps service and az errors onto tool error categories so
// MCP clients get actionable errorInfo instead of opaque text.
func asToolError(err error) error {
	var notConfigured *libpipeline.NotConfiguredError
	if errors.As(err, &notConfigured) {
		return cli.NotFound("%s", notConfigured.Error())
	}

	var notFound *azcli.NotFoundError
	if errors.As(err, &notFound) {
		return cli.Internal("%s", notFound.Error())
	}

	var launch *azcli.LaunchError
	if errors.As(err, &launch) {
		return cli.Internal("%s", launch.Error())
	}

	var cliErr *azcli.CliError
	if errors.As(err, &cliErr) {
		switch cliErr.Kind {
		case azcli.KindAuthentication, azcli.KindPermission:
			return cli.Forbidden("%s", cliErr.Error())
		case azcli.KindExtensionMissing:
			return cli.Validation("%s", cliErr.Error())
		case azcli.KindPipelineNotFound:
			return cli.NotFound("%s", cliErr.Error())
		case azcli.KindTimeout:
			return cli.Transient("%s", cliErr.Error())
		default:
			return cli.Internal("%s", cliErr.Error())
		}
	}

	return err
}

// parseVariables turns repeatable --var key=value strings into a map.
func parseVariables(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	vars := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, cli.Validation("invalid variable %q, expected key=value", pair)
		}
		vars[key] = value
	}
	return vars, nil
}

// outcomeToolError converts a failed outcome into a categorized tool
// error for MCP clients. Returns nil for successful outcomes.
func outcomeToolError(outcome *libpipeline.Outcome) error {
	if outcome.Success {
		return nil
	}
	message := outcome.Error.Message
	if outcome.Error.Remediation != "" {
		message = fmt.Sprintf("%s (remediation: %s)", message, outcome.Error.Remediation)
	}
	switch azcli.Kind(outcome.Error.Kind) {
	case azcli.KindAuthentication, azcli.KindPermission:
		return cli.Forbidden("%s: %s", outcome.Name, message)
	case azcli.KindExtensionMissing:
		return cli.Validation("%s: %s", outcome.Name, message)
	case azcli.KindPipelineNotFound:
		return cli.NotFound("%s: %s", outcome.Name, message)
	case azcli.KindTimeout:
		return cli.Transient("%s: %s", outcome.Name, message)
	default:
		return cli.Internal("%s: %s", outcome.Name, message)
	}
}

// describeOutcome renders one outcome as a human line.
func describeOutcome(outcome *libpipeline.Outcome) string {
	if outcome.Success {
		line := fmt.Sprintf("%s: run %d %s", outcome.Name, outcome.Run.ID, outcome.Run.Status)
		if outcome.Run.WebLink != "" {
			line += "\n  " + outcome.Run.WebLink
		}
		return line
	}
	line := fmt.Sprintf("%s: %s: %s", outcome.Name, outcome.Error.Kind, outcome.Error.Message)
	if outcome.Error.Remediation != "" {
		line += "\n  remediation: " + outcome.Error.Remediation
	}
	return line
}
