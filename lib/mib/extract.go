// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mib

import (
	"bytes"
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

// parseDocument parses command output as a single JSON document.
func parseDocument(output []byte) (any, error) {
	if len(bytes.TrimSpace(output)) == 0 {
		return nil, fmt.Errorf("%w: command produced no output", ErrSource)
	}
	document, err := oj.Parse(output)
	if err != nil {
		return nil, fmt.Errorf("%w: command output is not JSON: %v", ErrSource, err)
	}
	return document, nil
}

// extract resolves a leaf's initial value. Literals need no document.
// JSONPath results must have a JSON string as their first match;
// numbers, booleans, nulls, objects, and arrays are rejected rather
// than coerced.
func (l *leaf) extract(document any) (Scalar, error) {
	if l.literal != nil {
		return StringScalar(*l.literal), nil
	}
	match, found := firstMatch(l.path, document)
	if !found {
		return Scalar{}, fmt.Errorf("%w: entry %q: json_path %q matched nothing", ErrExtraction, l.name, l.pathText)
	}
	text, ok := match.(string)
	if !ok {
		return Scalar{}, fmt.Errorf("%w: entry %q: json_path %q matched %s, only strings are supported",
			ErrExtraction, l.name, l.pathText, jsonTypeName(match))
	}
	return StringScalar(text), nil
}

// firstMatch returns the match of path whose location sorts first,
// with object keys in byte order and array elements by index. Parsed
// objects are Go maps, so the order [jp.Expr.Get] visits them in
// changes from one call to the next.
func firstMatch(path jp.Expr, document any) (any, bool) {
	locations := path.Locate(document, 0)
	if len(locations) == 0 {
		return nil, false
	}
	slices.SortFunc(locations, compareLocations)
	return locations[0].First(document), true
}

// compareLocations orders two normalized paths fragment by fragment.
// A path sorts before any path it is a prefix of.
func compareLocations(a, b jp.Expr) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := compareFragments(a[i], b[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a), len(b))
}

func compareFragments(a, b jp.Frag) int {
	switch x := a.(type) {
	case jp.Child:
		if y, ok := b.(jp.Child); ok {
			return strings.Compare(string(x), string(y))
		}
	case jp.Nth:
		if y, ok := b.(jp.Nth); ok {
			return cmp.Compare(int(x), int(y))
		}
	}
	return strings.Compare(jp.Expr{a}.String(), jp.Expr{b}.String())
}

// resolve extracts and converts the leaf's value and reduces it to a
// wire value.
func (l *leaf) resolve(document any) (Value, error) {
	initial, err := l.extract(document)
	if err != nil {
		return Value{}, err
	}
	converted, err := l.chain.Apply(initial)
	if err != nil {
		return Value{}, fmt.Errorf("entry %q: %w", l.name, err)
	}
	value, err := converted.toWire()
	if err != nil {
		return Value{}, fmt.Errorf("entry %q: %w", l.name, err)
	}
	return value, nil
}

func jsonTypeName(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case bool:
		return "a boolean"
	case int64, float64:
		return "a number"
	case map[string]any:
		return "an object"
	case []any:
		return "an array"
	default:
		return fmt.Sprintf("%T", value)
	}
}
