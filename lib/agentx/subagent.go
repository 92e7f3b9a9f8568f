// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package agentx

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/bureau-foundation/double-agentx/lib/clock"
	"github.com/bureau-foundation/double-agentx/lib/netutil"
)

// DefaultReconnectInterval is the wait between a failed session and the
// next connection attempt.
const DefaultReconnectInterval = 60 * time.Second

// Subagent keeps a session with the master agent alive: it dials,
// opens, serves, and on any failure waits ReconnectInterval before
// trying again.
type Subagent struct {
	// Dial connects to the master agent.
	Dial func(ctx context.Context) (net.Conn, error)

	Session SessionConfig
	Handler Handler

	// ReconnectInterval defaults to DefaultReconnectInterval.
	ReconnectInterval time.Duration

	Clock  clock.Clock
	Logger *slog.Logger
}

// UnixDialer returns a Dial function for the master agent socket at path.
func UnixDialer(path string) func(ctx context.Context) (net.Conn, error) {
	return func(ctx context.Context) (net.Conn, error) {
		var dialer net.Dialer
		return dialer.DialContext(ctx, "unix", path)
	}
}

// Run serves sessions until ctx is done, then returns nil.
func (a *Subagent) Run(ctx context.Context) error {
	interval := a.ReconnectInterval
	if interval <= 0 {
		interval = DefaultReconnectInterval
	}

	for {
		err := a.runSession(ctx)
		if ctx.Err() != nil {
			return nil
		}
		level := slog.LevelWarn
		if errors.Is(err, ErrClosedByMaster) || netutil.IsExpectedCloseError(err) {
			level = slog.LevelInfo
		}
		a.Logger.Log(ctx, level, "agentx session ended, reconnecting",
			"error", err,
			"retry_in", interval.String(),
		)

		select {
		case <-ctx.Done():
			return nil
		case <-a.Clock.After(interval):
		}
	}
}

func (a *Subagent) runSession(ctx context.Context) error {
	conn, err := a.Dial(ctx)
	if err != nil {
		return err
	}
	session, err := OpenSession(ctx, conn, a.Session, a.Handler, a.Clock, a.Logger)
	if err != nil {
		return err
	}
	err = session.Serve(ctx)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		a.Logger.Info("agentx session closed", "session_id", session.SessionID())
	}
	return err
}
