// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build version information. The variables are
// injected at build time via -ldflags, for example:
//
//	go build -ldflags "-X github.com/bureau-foundation/double-agentx/lib/version.GitCommit=$(git rev-parse --short HEAD)" ./cmd/double-agentx
package version
