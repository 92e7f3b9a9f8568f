// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package oid provides the numeric object identifier used to key every
// value the subagent serves.
//
// An [OID] is a sequence of non-negative 32-bit sub-identifiers. OIDs
// are ordered lexicographically, component by component, each
// component compared as an unsigned integer. This is the order SNMP
// walks use, and it differs from comparing the dotted text forms:
// "1.10" sorts after "1.9" here, before it as a string.
//
// OIDs are written in configuration either as a dotted string
// ("1.3.6.1.4.1.99999") or as a YAML sequence ([1, 3, 6, 1]). Both
// forms decode into the same value.
//
// This package depends on no other double-agentx packages.
package oid
