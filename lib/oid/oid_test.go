// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package oid

import (
	"slices"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  OID
	}{
		{"1.3.6.1.4.1.99999", OID{1, 3, 6, 1, 4, 1, 99999}},
		{".1.3.6", OID{1, 3, 6}},
		{"0", OID{0}},
		{"4294967295", OID{4294967295}},
		{"", nil},
	}
	for _, test := range tests {
		got, err := Parse(test.input)
		if err != nil {
			t.Errorf("Parse(%q): %v", test.input, err)
			continue
		}
		if !got.Equal(test.want) {
			t.Errorf("Parse(%q) = %v, want %v", test.input, got, test.want)
		}
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	for _, input := range []string{"1..3", "1.a", "1.-2", "4294967296", "1.3."} {
		if _, err := Parse(input); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", input)
		}
	}
}

func TestStringRoundTrip(t *testing.T) {
	original := MustParse("1.3.6.1.4.1.99999.2.1.5.1")
	if got := original.String(); got != "1.3.6.1.4.1.99999.2.1.5.1" {
		t.Errorf("String() = %q", got)
	}
	if got := OID(nil).String(); got != "" {
		t.Errorf("null OID String() = %q, want empty", got)
	}
}

func TestCompareIsNumericNotTextual(t *testing.T) {
	nine := MustParse("1.3.9")
	ten := MustParse("1.3.10")
	if !nine.Less(ten) {
		t.Errorf("expected %s < %s", nine, ten)
	}
	if nine.String() < ten.String() {
		t.Fatal("test premise broken: textual order should disagree")
	}
}

func TestComparePrefixSortsFirst(t *testing.T) {
	prefix := MustParse("1.3.6")
	longer := MustParse("1.3.6.0")
	if Compare(prefix, longer) != -1 {
		t.Errorf("Compare(%s, %s) = %d, want -1", prefix, longer, Compare(prefix, longer))
	}
	if Compare(longer, prefix) != 1 {
		t.Errorf("Compare(%s, %s) = %d, want 1", longer, prefix, Compare(longer, prefix))
	}
	if Compare(prefix, prefix.Clone()) != 0 {
		t.Error("OID should compare equal to its clone")
	}
}

func TestCompareUnsignedHighBit(t *testing.T) {
	// 0x80000000 would be negative if compared as int32.
	low := OID{1, 1}
	high := OID{1, 0x80000000}
	if !low.Less(high) {
		t.Errorf("expected %s < %s", low, high)
	}
}

func TestSortOrder(t *testing.T) {
	oids := []OID{
		MustParse("1.3.6.1.10"),
		MustParse("1.3.6.1.2.1"),
		MustParse("1.3.6.1.2"),
		MustParse("1.3.6.1.9.9"),
	}
	slices.SortFunc(oids, Compare)
	want := []string{"1.3.6.1.2", "1.3.6.1.2.1", "1.3.6.1.9.9", "1.3.6.1.10"}
	for i, o := range oids {
		if o.String() != want[i] {
			t.Errorf("position %d: got %s, want %s", i, o, want[i])
		}
	}
}

func TestJoinDoesNotAlias(t *testing.T) {
	base := make(OID, 3, 10)
	copy(base, OID{1, 3, 6})
	first := Join(base, OID{1})
	second := Join(base, OID{2})
	if first.String() != "1.3.6.1" || second.String() != "1.3.6.2" {
		t.Errorf("Join aliased its input: first=%s second=%s", first, second)
	}
}

func TestHasPrefix(t *testing.T) {
	full := MustParse("1.3.6.1.4.1")
	if !full.HasPrefix(MustParse("1.3.6")) {
		t.Error("expected prefix match")
	}
	if full.HasPrefix(MustParse("1.3.7")) {
		t.Error("unexpected prefix match")
	}
	if !full.HasPrefix(nil) {
		t.Error("null OID is a prefix of everything")
	}
}

func TestUnmarshalYAML(t *testing.T) {
	var document struct {
		Dotted   OID `yaml:"dotted"`
		Sequence OID `yaml:"sequence"`
	}
	input := "dotted: 1.3.6.1.4.1.99999\nsequence: [2, 1, 5]\n"
	if err := yaml.Unmarshal([]byte(input), &document); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if document.Dotted.String() != "1.3.6.1.4.1.99999" {
		t.Errorf("dotted = %s", document.Dotted)
	}
	if document.Sequence.String() != "2.1.5" {
		t.Errorf("sequence = %s", document.Sequence)
	}
}

func TestUnmarshalYAMLRejectsMapping(t *testing.T) {
	var document struct {
		Value OID `yaml:"value"`
	}
	if err := yaml.Unmarshal([]byte("value: {a: 1}\n"), &document); err == nil {
		t.Fatal("expected error for mapping node")
	}
}
