// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the deterministic CBOR encoding used for MIB
// tree snapshots.
//
// Snapshots are hashed to detect whether two rebuilds produced the
// same tree, so the encoding must be canonical: the encoder uses Core
// Deterministic Encoding (RFC 8949 §4.2), with sorted map keys, the
// smallest integer encoding, and no indefinite-length items. Types
// implementing encoding.TextMarshaler (oid.OID, mib.ValueType) encode
// as CBOR text strings, so a snapshot reads naturally in diagnostic
// notation:
//
//	[{"name": "1.3.6.1.4.1.99999.2.1.5.1", "value": {"type": "integer", "integer": 42500}}]
//
// Unmarshal reads snapshots back, decoding text strings through
// encoding.TextUnmarshaler and untyped maps as map[string]any.
//
// Struct fields follow their `json` tags, which fxamacker/cbor reads
// when no `cbor` tag is present.
package codec
