// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package agentx

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bureau-foundation/double-agentx/lib/oid"
)

func TestEncodeOID(t *testing.T) {
	tests := []struct {
		name    string
		value   oid.OID
		include bool
		want    []byte
	}{
		{
			name:  "internet prefix compressed",
			value: oid.MustParse("1.3.6.1.4.1.99999"),
			want:  []byte{2, 4, 0, 0, 0, 0, 0, 1, 0, 1, 0x86, 0x9f},
		},
		{
			name:    "include flag",
			value:   oid.MustParse("1.3.6.1.2.1"),
			include: true,
			want:    []byte{1, 2, 1, 0, 0, 0, 0, 1},
		},
		{
			name:  "prefix only",
			value: oid.MustParse("1.3.6.1.4"),
			want:  []byte{0, 4, 0, 0},
		},
		{
			name:  "no prefix",
			value: oid.MustParse("1.2.3"),
			want:  []byte{3, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 0, 3},
		},
		{
			name:  "fifth component too large for prefix byte",
			value: oid.MustParse("1.3.6.1.300"),
			want:  []byte{5, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 3, 0, 0, 0, 6, 0, 0, 0, 1, 0, 0, 1, 0x2c},
		},
		{
			name:  "null",
			value: nil,
			want:  []byte{0, 0, 0, 0},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			e := newEncoder()
			if err := e.oid(test.value, test.include); err != nil {
				t.Fatalf("oid: %v", err)
			}
			if !bytes.Equal(e.buffer, test.want) {
				t.Errorf("encoded = % x, want % x", e.buffer, test.want)
			}

			d := newDecoder(e.buffer, binary.BigEndian)
			decoded, include, err := d.oid()
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !decoded.Equal(test.value) || include != test.include {
				t.Errorf("decoded = %s include=%v, want %s include=%v", decoded, include, test.value, test.include)
			}
		})
	}
}

func TestDecodeOIDLittleEndian(t *testing.T) {
	data := []byte{2, 4, 1, 0, 1, 0, 0, 0, 0x9f, 0x86, 0x01, 0}
	d := newDecoder(data, binary.LittleEndian)
	value, include, err := d.oid()
	if err != nil {
		t.Fatalf("oid: %v", err)
	}
	if value.String() != "1.3.6.1.4.1.99999" || !include {
		t.Errorf("decoded %s include=%v", value, include)
	}
	if d.remaining() != 0 {
		t.Errorf("%d bytes left over", d.remaining())
	}
}

func TestDecodeOIDTruncated(t *testing.T) {
	d := newDecoder([]byte{3, 0, 0, 0, 0, 0, 0, 1}, binary.BigEndian)
	if _, _, err := d.oid(); !errors.Is(err, errShortPayload) {
		t.Errorf("error = %v, want errShortPayload", err)
	}
}

func TestOctetStringPadding(t *testing.T) {
	for _, value := range []string{"", "abcd", "abcde", "ab"} {
		e := newEncoder()
		e.octetString([]byte(value))
		if len(e.buffer)%4 != 0 {
			t.Errorf("%q: encoded length %d is not 4-aligned", value, len(e.buffer))
		}

		d := newDecoder(e.buffer, binary.BigEndian)
		decoded, err := d.octetString()
		if err != nil {
			t.Fatalf("%q: %v", value, err)
		}
		if string(decoded) != value || d.remaining() != 0 {
			t.Errorf("%q: decoded %q with %d bytes left", value, decoded, d.remaining())
		}
	}

	e := newEncoder()
	e.octetString([]byte("abcde"))
	want := []byte{0, 0, 0, 5, 'a', 'b', 'c', 'd', 'e', 0, 0, 0}
	if !bytes.Equal(e.buffer, want) {
		t.Errorf("encoded = % x, want % x", e.buffer, want)
	}
}

func TestOctetStringLengthBeyondPayload(t *testing.T) {
	d := newDecoder([]byte{0, 0, 0, 9, 'a', 'b', 'c', 'd'}, binary.BigEndian)
	if _, err := d.octetString(); !errors.Is(err, errShortPayload) {
		t.Errorf("error = %v, want errShortPayload", err)
	}
}

func TestVarBindEncoding(t *testing.T) {
	name := oid.MustParse("1.3.6.1.4.1.99999.2.1.5.1")

	e := newEncoder()
	if err := e.varBind(VarBind{Type: ValueInteger, Name: name, Value: int32(-2)}); err != nil {
		t.Fatalf("varBind: %v", err)
	}
	want := []byte{
		0, 2, 0, 0,
		6, 4, 0, 0,
		0, 0, 0, 1, 0, 1, 0x86, 0x9f, 0, 0, 0, 2, 0, 0, 0, 1, 0, 0, 0, 5, 0, 0, 0, 1,
		0xff, 0xff, 0xff, 0xfe,
	}
	if !bytes.Equal(e.buffer, want) {
		t.Errorf("encoded = % x\nwant      % x", e.buffer, want)
	}
}

func TestVarBindListDecoding(t *testing.T) {
	bindings := []VarBind{
		{Type: ValueInteger, Name: oid.MustParse("1.3.6.1.4.1.99999.1.1"), Value: int32(42500)},
		{Type: ValueOctetString, Name: oid.MustParse("1.3.6.1.4.1.99999.1.2"), Value: []byte("card0")},
		{Type: ValueObjectIdentifier, Name: oid.MustParse("1.3.6.1.4.1.99999.1.3"), Value: oid.MustParse("1.3.6.1.4.1.99999")},
		{Type: ValueTimeTicks, Name: oid.MustParse("1.3.6.1.4.1.99999.1.4"), Value: uint32(150)},
		{Type: ValueCounter64, Name: oid.MustParse("1.3.6.1.4.1.99999.1.5"), Value: uint64(1) << 40},
		{Type: ValueEndOfMibView, Name: oid.MustParse("1.3.6.1.4.1.99999.9")},
	}

	e := newEncoder()
	for _, binding := range bindings {
		if err := e.varBind(binding); err != nil {
			t.Fatalf("varBind %s: %v", binding.Name, err)
		}
	}
	decoded, err := newDecoder(e.buffer, binary.BigEndian).varBindList()
	if err != nil {
		t.Fatalf("varBindList: %v", err)
	}
	if diff := cmp.Diff(bindings, decoded); diff != "" {
		t.Errorf("decoded varbinds (-want +got):\n%s", diff)
	}
}

func TestVarBindTypeMismatch(t *testing.T) {
	e := newEncoder()
	err := e.varBind(VarBind{Type: ValueInteger, Name: oid.MustParse("1.2"), Value: "42"})
	if err == nil {
		t.Fatal("expected an error for a string Integer value")
	}
}

func TestSearchRangeListDecoding(t *testing.T) {
	ranges := []SearchRange{
		{Start: oid.MustParse("1.3.6.1.4.1.99999"), Include: true, End: oid.MustParse("1.3.6.1.4.1.100000")},
		{Start: oid.MustParse("1.3.6.1.4.1.99999.2.1.5.1")},
	}
	e := newEncoder()
	for _, searchRange := range ranges {
		if err := e.searchRange(searchRange); err != nil {
			t.Fatalf("searchRange: %v", err)
		}
	}
	decoded, err := newDecoder(e.buffer, binary.BigEndian).searchRangeList()
	if err != nil {
		t.Fatalf("searchRangeList: %v", err)
	}
	if diff := cmp.Diff(ranges, decoded); diff != "" {
		t.Errorf("decoded ranges (-want +got):\n%s", diff)
	}
}
