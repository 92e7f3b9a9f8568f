// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// double-agentx is an AgentX subagent that publishes values read from
// external diagnostic commands (GPU sensors via rocm-smi --json, for
// example) under an OID subtree of the local SNMP master agent.
//
// Subcommands:
//
//	serve   connect to the master agent and answer requests (default)
//	walk    rebuild the tree once and print it with its digest
//
// The configuration file comes from --config, DOUBLE_AGENTX_CONFIG, or
// ~/.config/double-agentx/config.yaml, in that order.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/double-agentx/lib/config"
	"github.com/bureau-foundation/double-agentx/lib/process"
	"github.com/bureau-foundation/double-agentx/lib/version"
)

const binaryName = "double-agentx"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		stop()
		process.Fatal(err)
	}
}

// usageError is a command-line mistake; it exits with status 2.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }
func (e *usageError) ExitCode() int { return 2 }

func usagef(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

// globalOptions are the flags accepted before the subcommand.
type globalOptions struct {
	configPath string
	logLevel   slog.Level
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var (
		options     globalOptions
		logLevel    string
		showVersion bool
	)
	flagSet := pflag.NewFlagSet(binaryName, pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.SetInterspersed(false)
	flagSet.StringVarP(&options.configPath, "config", "c", "", "config file (default: $"+config.EnvironmentVariable+", then "+config.DefaultPath+")")
	flagSet.StringVar(&logLevel, "log-level", "info", "minimum log level: debug, info, warn, or error")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	flagSet.Usage = func() { printUsage(stderr, flagSet) }

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return &usageError{err: err}
	}
	if showVersion {
		version.Print(stdout, binaryName)
		return nil
	}
	if err := options.logLevel.UnmarshalText([]byte(logLevel)); err != nil {
		return usagef("invalid --log-level %q", logLevel)
	}

	subcommand, rest := "serve", flagSet.Args()
	if len(rest) > 0 {
		subcommand, rest = rest[0], rest[1:]
	}

	switch subcommand {
	case "serve":
		if len(rest) > 0 {
			return usagef("serve: unexpected argument %q", rest[0])
		}
		return runServe(ctx, options, stderr)
	case "walk":
		return runWalk(ctx, options, rest, stdout, stderr)
	default:
		return usagef("unknown command %q (want serve or walk)", subcommand)
	}
}

// loadConfig reads --config, or falls back to [config.Load] when the
// flag is empty.
func loadConfig(options globalOptions) (*config.Config, error) {
	if options.configPath != "" {
		return config.LoadFile(options.configPath)
	}
	return config.Load()
}

func printUsage(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `%s publishes command output as an AgentX subtree.

Usage:
  %s [flags] [serve]
  %s [flags] walk [--format text|json|cbor|diag] [--input snapshot.cbor]

Flags:
%s`, binaryName, binaryName, binaryName, flagSet.FlagUsages())
}
