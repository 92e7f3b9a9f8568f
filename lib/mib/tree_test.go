// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mib

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bureau-foundation/double-agentx/lib/oid"
)

func buildTree(t *testing.T, names ...string) *tree {
	t.Helper()
	result := newTree()
	for i, name := range names {
		result.insert(oid.MustParse(name), Integer(int32(i)))
	}
	return result
}

func TestTreeOrderIsNumeric(t *testing.T) {
	result := buildTree(t, "1.3.10", "1.3.9", "1.3.9.1", "1.3.2")
	var names []string
	for _, binding := range result.snapshot().Bindings {
		names = append(names, binding.Name.String())
	}
	want := []string{"1.3.2", "1.3.9", "1.3.9.1", "1.3.10"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("snapshot order mismatch (-want +got):\n%s", diff)
	}
}

func TestTreeGet(t *testing.T) {
	result := buildTree(t, "1.3.6.1", "1.3.6.2")
	if value, ok := result.get(oid.MustParse("1.3.6.2")); !ok || value != Integer(1) {
		t.Errorf("get(1.3.6.2) = %v, %v", value, ok)
	}
	if _, ok := result.get(oid.MustParse("1.3.6")); ok {
		t.Error("get of a prefix should miss")
	}
}

func TestTreeInsertReplaces(t *testing.T) {
	result := newTree()
	name := oid.MustParse("1.3.6.1")
	result.insert(name, Integer(1))
	result.insert(name.Clone(), Integer(2))
	if result.len() != 1 {
		t.Fatalf("len = %d, want 1", result.len())
	}
	if value, _ := result.get(name); value != Integer(2) {
		t.Errorf("value = %v, want replacement", value)
	}
}

func TestResolveRange(t *testing.T) {
	result := buildTree(t, "1.3.6.1.1", "1.3.6.1.2", "1.3.6.2.1")
	tests := []struct {
		name        string
		searchRange SearchRange
		wantName    string
		wantValue   Value
	}{
		{"inclusive exact hit", SearchRange{Start: oid.MustParse("1.3.6.1.2"), Include: true}, "1.3.6.1.2", Integer(1)},
		{"exclusive skips exact hit", SearchRange{Start: oid.MustParse("1.3.6.1.2")}, "1.3.6.2.1", Integer(2)},
		{"prefix start finds first child", SearchRange{Start: oid.MustParse("1.3.6.1")}, "1.3.6.1.1", Integer(0)},
		{"start before everything", SearchRange{Start: oid.MustParse("0")}, "1.3.6.1.1", Integer(0)},
		{"end bound excludes candidate", SearchRange{Start: oid.MustParse("1.3.6.1.2"), End: oid.MustParse("1.3.6.2")}, "1.3.6.1.2", EndOfMibView},
		{"end bound is exclusive", SearchRange{Start: oid.MustParse("1.3.6.1.1"), End: oid.MustParse("1.3.6.1.2")}, "1.3.6.1.1", EndOfMibView},
		{"candidate below end", SearchRange{Start: oid.MustParse("1.3.6.1.1"), End: oid.MustParse("1.3.6.1.3")}, "1.3.6.1.2", Integer(1)},
		{"past the last key", SearchRange{Start: oid.MustParse("1.3.6.2.1")}, "1.3.6.2.1", EndOfMibView},
		{"last key inclusive", SearchRange{Start: oid.MustParse("1.3.6.2.1"), Include: true}, "1.3.6.2.1", Integer(2)},
		{"beyond tree", SearchRange{Start: oid.MustParse("2"), Include: true}, "2", EndOfMibView},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := result.resolveRange(test.searchRange)
			if got.Name.String() != test.wantName || got.Value != test.wantValue {
				t.Errorf("got (%s, %v), want (%s, %v)", got.Name, got.Value, test.wantName, test.wantValue)
			}
		})
	}
}

func TestSuccessorWalkMatchesOrder(t *testing.T) {
	names := []string{"1.3.6.1.4.1.2", "1.3.6.1.4.1.10", "1.3.6.1.4.1.2.1", "1.3.6.1.4.1.99999.1", "1.3.6.1.4.1.3"}
	result := buildTree(t, names...)
	ordered := result.snapshot().Bindings

	cursor := SearchRange{Start: ordered[0].Name, Include: true}
	for i := range ordered {
		binding := result.resolveRange(cursor)
		if !binding.Name.Equal(ordered[i].Name) {
			t.Fatalf("step %d: got %s, want %s", i, binding.Name, ordered[i].Name)
		}
		cursor = SearchRange{Start: binding.Name}
	}
	if final := result.resolveRange(cursor); final.Value != EndOfMibView {
		t.Errorf("walk past the end returned %v", final.Value)
	}
}

func TestEmptyTree(t *testing.T) {
	result := newTree()
	start := oid.MustParse("1.3.6")
	binding := result.resolveRange(SearchRange{Start: start, Include: true})
	if !binding.Name.Equal(start) || binding.Value != EndOfMibView {
		t.Errorf("empty tree resolved to (%s, %v)", binding.Name, binding.Value)
	}
	if _, ok := result.get(start); ok {
		t.Error("empty tree get should miss")
	}
}

func TestSnapshotDigestStable(t *testing.T) {
	first, err := buildTree(t, "1.3.6.1", "1.3.6.2").snapshot().Digest()
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	second, err := buildTree(t, "1.3.6.1", "1.3.6.2").snapshot().Digest()
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if first != second {
		t.Errorf("identical trees produced different digests: %s vs %s", first, second)
	}
	changed, err := buildTree(t, "1.3.6.1", "1.3.6.3").snapshot().Digest()
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if changed == first {
		t.Error("different trees produced the same digest")
	}
	if len(first) != 64 {
		t.Errorf("digest %q is not 32 hex-encoded bytes", first)
	}
}

func TestSnapshotDoesNotAliasTree(t *testing.T) {
	result := buildTree(t, "1.3.6.1")
	snapshot := result.snapshot()
	snapshot.Bindings[0].Name[0] = 9
	if _, ok := result.get(oid.MustParse("1.3.6.1")); !ok {
		t.Error("mutating a snapshot changed the tree")
	}
}

func TestDecodeSnapshotRoundTrip(t *testing.T) {
	result := buildTree(t, "1.3.6.1", "1.3.6.2.10")
	result.insert(oid.MustParse("1.3.6.2.9"), OctetString("MI300X"))
	original := result.snapshot()
	data, err := original.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("DecodeSnapshot: %v", err)
	}
	if diff := cmp.Diff(original, decoded); diff != "" {
		t.Errorf("decoded snapshot mismatch (-want +got):\n%s", diff)
	}
	originalDigest, _ := original.Digest()
	decodedDigest, _ := decoded.Digest()
	if originalDigest != decodedDigest {
		t.Errorf("digest changed across decode: %s vs %s", originalDigest, decodedDigest)
	}
}

func TestDecodeSnapshotRejectsDisorder(t *testing.T) {
	unordered := Snapshot{Bindings: []VarBind{
		{Name: oid.MustParse("1.3.6.2"), Value: Integer(1)},
		{Name: oid.MustParse("1.3.6.1"), Value: Integer(2)},
	}}
	data, err := unordered.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := DecodeSnapshot(data); err == nil {
		t.Error("expected an error for out-of-order bindings")
	}
}

func TestDecodeSnapshotRejectsGarbage(t *testing.T) {
	if _, err := DecodeSnapshot([]byte{0xff, 0x00}); err == nil {
		t.Error("expected an error for malformed CBOR")
	}
}
