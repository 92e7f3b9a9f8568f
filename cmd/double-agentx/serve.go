// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"io"

	"github.com/bureau-foundation/double-agentx/lib/agentx"
	"github.com/bureau-foundation/double-agentx/lib/clock"
	"github.com/bureau-foundation/double-agentx/lib/mib"
)

func runServe(ctx context.Context, options globalOptions, stderr io.Writer) error {
	cfg, err := loadConfig(options)
	if err != nil {
		return err
	}
	logger := newLogger(stderr, options.logLevel)

	engine, err := mib.NewEngine(cfg.OIDBase, cfg.Metrics, mib.NewExecRunner(logger), logger)
	if err != nil {
		return err
	}

	logger.Info("starting subagent",
		"socket", cfg.Connection.Socket,
		"oid_base", cfg.OIDBase.String(),
		"groups", len(cfg.Metrics),
	)
	subagent := &agentx.Subagent{
		Dial: agentx.UnixDialer(cfg.Connection.Socket),
		Session: agentx.SessionConfig{
			ID:          cfg.OIDBase,
			Description: cfg.Description,
			Timeout:     cfg.Connection.AgentTimeout,
			Subtree:     cfg.OIDBase,
		},
		Handler:           engineHandler{engine: engine},
		ReconnectInterval: cfg.Connection.ReconnectInterval,
		Clock:             clock.Real(),
		Logger:            logger,
	}
	err = subagent.Run(ctx)
	logger.Info("subagent stopped")
	return err
}
