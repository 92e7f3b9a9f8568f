// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds the binary entrypoint error handler. It is the
// one place outside the CLI that writes to stderr without the
// structured logger, for errors that occur before the logger exists.
package process
