// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/double-agentx/lib/codec"
	"github.com/bureau-foundation/double-agentx/lib/mib"
)

// walkOutput is the JSON form of a walk.
type walkOutput struct {
	Bindings []mib.VarBind `json:"bindings"`
	Digest   string        `json:"digest"`
}

func runWalk(ctx context.Context, options globalOptions, args []string, stdout, stderr io.Writer) error {
	var format, input string
	flagSet := pflag.NewFlagSet("walk", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&format, "format", "text", "output format: text, json, cbor, or diag (CBOR diagnostic notation)")
	flagSet.StringVar(&input, "input", "", "print a snapshot saved with --format cbor instead of running the metric commands")
	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return &usageError{err: err}
	}
	if flagSet.NArg() > 0 {
		return usagef("walk: unexpected argument %q", flagSet.Arg(0))
	}
	switch format {
	case "text", "json", "cbor", "diag":
	default:
		return usagef("walk: unknown --format %q (want text, json, cbor, or diag)", format)
	}

	var snapshot mib.Snapshot
	var err error
	if input != "" {
		snapshot, err = readSnapshot(input)
	} else {
		snapshot, err = walkEngine(ctx, options, stderr)
	}
	if err != nil {
		return err
	}

	switch format {
	case "cbor":
		data, err := snapshot.Encode()
		if err != nil {
			return err
		}
		_, err = stdout.Write(data)
		return err
	case "diag":
		data, err := snapshot.Encode()
		if err != nil {
			return err
		}
		diagnostic, err := codec.Diagnose(data)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, diagnostic)
		return err
	case "json":
		digest, err := snapshot.Digest()
		if err != nil {
			return err
		}
		encoder := json.NewEncoder(stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(walkOutput{Bindings: snapshot.Bindings, Digest: digest})
	default:
		digest, err := snapshot.Digest()
		if err != nil {
			return err
		}
		for _, binding := range snapshot.Bindings {
			fmt.Fprintf(stdout, "%s = %s\n", binding.Name, binding.Value)
		}
		fmt.Fprintf(stdout, "digest: %s\n", digest)
		return nil
	}
}

// walkEngine runs every metric command once and returns the tree.
func walkEngine(ctx context.Context, options globalOptions, stderr io.Writer) (mib.Snapshot, error) {
	cfg, err := loadConfig(options)
	if err != nil {
		return mib.Snapshot{}, err
	}
	logger := newLogger(stderr, options.logLevel)
	engine, err := mib.NewEngine(cfg.OIDBase, cfg.Metrics, mib.NewExecRunner(logger), logger)
	if err != nil {
		return mib.Snapshot{}, err
	}
	return engine.Walk(ctx)
}

func readSnapshot(path string) (mib.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return mib.Snapshot{}, fmt.Errorf("reading snapshot: %w", err)
	}
	snapshot, err := mib.DecodeSnapshot(data)
	if err != nil {
		return mib.Snapshot{}, fmt.Errorf("%s: %w", path, err)
	}
	return snapshot, nil
}
