// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [SocketDir] creates a short temporary directory for Unix domain
// sockets, whose paths are limited to 108 bytes.
//
// [RequireReceive] and [RequireClosed] wrap the select-with-timeout
// pattern so tests that wait on goroutines never hang the suite.
//
// [Logger] returns a *slog.Logger that writes through t.Log, so log
// output appears next to the failing test and only when it fails or
// runs with -v.
//
// All helpers call t.Fatalf on failure rather than returning errors.
package testutil
