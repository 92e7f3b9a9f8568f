// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package mib materializes monitoring values into an ordered OID tree
// and answers exact and successor lookups against it.
//
// Values come from metric groups. Each [Group] names one external
// command (typically a GPU diagnostic tool run with a JSON output
// flag) and a nested [Entry] tree describing where each value lives in
// the command's output and which OID it is served under. A leaf-bearing
// entry carries either a literal string or a JSONPath expression, and
// optionally a converter chain ("cast_float,multiply_by(1000),cast_int")
// that turns the extracted string into the final wire value.
//
// # Resolution cycle
//
// [Engine] is the only entry point. Every query operation ([Engine.Get],
// [Engine.GetNext], [Engine.GetBulk], [Engine.Walk]) first clears the
// tree, runs every group's command, extracts and converts every value,
// and only then resolves the request against the freshly built tree.
// Nothing is cached between cycles. A failure anywhere in the rebuild
// fails the whole request with one error; there are no partial
// batches. Lookup misses are not failures: they resolve to
// [NoSuchObject] or [EndOfMibView] values paired with the requested
// identifier.
//
// The engine holds a mutex for the whole rebuild-and-resolve cycle, so
// concurrent callers are serialized. A hung command stalls every
// caller unless the group sets a timeout.
//
// # Configuration errors at load time
//
// Converter chains and JSONPath expressions are parsed once, when the
// engine is constructed (or when [Compile] validates a configuration).
// Unknown converter names, malformed arguments, malformed paths,
// empty commands, and two entries claiming the same OID are all
// reported as [ErrConfiguration] before any request is served.
package mib
