// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts the two time operations the subagent needs:
// reading the current time (AgentX sysUpTime is reported relative to
// session start) and waiting (the reconnect backoff).
//
// Production code injects [Real]. Tests inject [Fake] and drive time
// with [FakeClock.Advance], using [FakeClock.WaitForTimers] to block
// until the code under test has started waiting.
package clock
