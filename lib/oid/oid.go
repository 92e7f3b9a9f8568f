// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package oid

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// MaxLength is the largest number of sub-identifiers an OID may carry
// on the AgentX wire (the n_subid field is one byte, and RFC 2578
// limits OIDs to 128 components).
const MaxLength = 128

// OID is an object identifier. The zero value (nil) is the null OID,
// which AgentX uses to mean "unbounded" in a search range end.
type OID []uint32

// Parse parses a dotted OID such as "1.3.6.1.4.1.99999". A single
// leading dot is accepted. The empty string parses to the null OID.
func Parse(text string) (OID, error) {
	text = strings.TrimPrefix(strings.TrimSpace(text), ".")
	if text == "" {
		return nil, nil
	}
	parts := strings.Split(text, ".")
	if len(parts) > MaxLength {
		return nil, fmt.Errorf("oid %q has %d sub-identifiers, maximum is %d", text, len(parts), MaxLength)
	}
	result := make(OID, len(parts))
	for i, part := range parts {
		value, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("oid %q: sub-identifier %d (%q) is not an unsigned 32-bit integer", text, i, part)
		}
		result[i] = uint32(value)
	}
	return result, nil
}

// MustParse is like [Parse] but panics on error. Use it only for
// constants in tests and package-level variables.
func MustParse(text string) OID {
	result, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return result
}

// String returns the dotted form. The null OID renders as "".
func (o OID) String() string {
	if len(o) == 0 {
		return ""
	}
	var builder strings.Builder
	for i, component := range o {
		if i > 0 {
			builder.WriteByte('.')
		}
		builder.WriteString(strconv.FormatUint(uint64(component), 10))
	}
	return builder.String()
}

// IsNull reports whether o has no sub-identifiers.
func (o OID) IsNull() bool {
	return len(o) == 0
}

// Compare returns -1, 0, or +1 ordering a against b component by
// component. A proper prefix sorts before every OID it prefixes.
func Compare(a, b OID) int {
	return slices.Compare(a, b)
}

// Less reports whether o sorts strictly before other.
func (o OID) Less(other OID) bool {
	return Compare(o, other) < 0
}

// Equal reports whether o and other have identical sub-identifiers.
func (o OID) Equal(other OID) bool {
	return slices.Equal(o, other)
}

// HasPrefix reports whether prefix is a (not necessarily proper)
// prefix of o.
func (o OID) HasPrefix(prefix OID) bool {
	return len(o) >= len(prefix) && slices.Equal(o[:len(prefix)], prefix)
}

// Join concatenates parts into a freshly allocated OID. None of the
// inputs are aliased by the result.
func Join(parts ...OID) OID {
	total := 0
	for _, part := range parts {
		total += len(part)
	}
	result := make(OID, 0, total)
	for _, part := range parts {
		result = append(result, part...)
	}
	return result
}

// Clone returns a copy of o that does not share its backing array.
func (o OID) Clone() OID {
	if o == nil {
		return nil
	}
	return slices.Clone(o)
}

// MarshalText implements encoding.TextMarshaler using the dotted form.
func (o OID) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *OID) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// UnmarshalYAML accepts either a dotted scalar or a sequence of
// integers.
func (o *OID) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return o.UnmarshalText([]byte(node.Value))
	case yaml.SequenceNode:
		var components []uint32
		if err := node.Decode(&components); err != nil {
			return fmt.Errorf("line %d: oid sequence: %w", node.Line, err)
		}
		if len(components) > MaxLength {
			return fmt.Errorf("line %d: oid has %d sub-identifiers, maximum is %d", node.Line, len(components), MaxLength)
		}
		*o = OID(components)
		return nil
	default:
		return fmt.Errorf("line %d: oid must be a dotted string or a sequence of integers", node.Line)
	}
}
