// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mib

import "errors"

// Error classes for a failed resolution cycle. Every error returned by
// this package wraps exactly one of these; match with errors.Is.
var (
	// ErrConfiguration covers empty commands, unknown converter names,
	// malformed converter arguments, malformed JSONPath expressions,
	// and conflicting entry OIDs.
	ErrConfiguration = errors.New("configuration error")

	// ErrSource covers command start failures, timeouts, output that
	// is not UTF-8, and output that is not JSON.
	ErrSource = errors.New("source error")

	// ErrExtraction covers JSONPath expressions with no match or whose
	// first match is not a JSON string.
	ErrExtraction = errors.New("extraction error")

	// ErrConversion covers converter failures at runtime (unparseable
	// numbers, trims longer than the value) and values that cannot be
	// represented on the wire.
	ErrConversion = errors.New("conversion error")
)
