// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the double-agentx configuration file.
//
// Configuration is loaded from a single file specified by either the
// DOUBLE_AGENTX_CONFIG environment variable (via [Load]) or a --config
// flag (via [LoadFile]). With neither, [Load] reads
// ~/.config/double-agentx/config.yaml. There is no other directory
// search and no environment override of individual values.
//
// The file is YAML. Files named *.json or *.jsonc are accepted too:
// comments and trailing commas are stripped first, and the remaining
// JSON is parsed as YAML (a JSON document is valid YAML).
//
// Variable expansion is performed on connection.socket after loading:
// a leading "~" and ${HOME}, ${VAR}, and ${VAR:-default} patterns are
// expanded.
//
// [Config.Validate] compiles every metric group, so an unknown
// converter name, a malformed JSONPath, or two entries serving the
// same OID is reported when the file is loaded, not on the first
// query.
//
// Key exports:
//
//   - [Config] -- connection settings, OID base, and metric groups
//   - [Default] -- a Config with every optional field populated
//   - [Load] and [LoadFile] -- the two entry points for loading
package config
