// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"strings"
	"testing"

	"github.com/bureau-foundation/double-agentx/lib/oid"
)

type binding struct {
	Name  oid.OID `json:"name"`
	Label string  `json:"label,omitempty"`
	Count int     `json:"count"`
}

func TestMarshalIsDeterministic(t *testing.T) {
	first, err := Marshal(map[string]int{"zeta": 1, "alpha": 2, "mid": 3})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Marshal(map[string]int{"mid": 3, "alpha": 2, "zeta": 1})
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("encoding differs between runs: %x vs %x", first, again)
		}
	}
}

func TestOIDEncodesAsText(t *testing.T) {
	data, err := Marshal(binding{Name: oid.MustParse("1.3.6.1.4.1.99999"), Count: 2})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	diagnostic, err := Diagnose(data)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if !strings.Contains(diagnostic, `"1.3.6.1.4.1.99999"`) {
		t.Errorf("expected dotted OID in diagnostic output, got %s", diagnostic)
	}
	if strings.Contains(diagnostic, "label") {
		t.Errorf("omitempty field should be absent, got %s", diagnostic)
	}

	var decoded binding
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !decoded.Name.Equal(oid.MustParse("1.3.6.1.4.1.99999")) || decoded.Count != 2 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestUnmarshalAnyUsesStringKeys(t *testing.T) {
	data, err := Marshal(map[string]any{"key": "value"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded any
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if _, ok := decoded.(map[string]any); !ok {
		t.Errorf("decoded type = %T, want map[string]any", decoded)
	}
}
