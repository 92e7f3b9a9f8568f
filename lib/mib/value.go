// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mib

import (
	"fmt"
	"math"
	"strconv"

	"github.com/bureau-foundation/double-agentx/lib/oid"
)

// ScalarKind identifies which field of a [Scalar] is meaningful.
type ScalarKind uint8

const (
	KindString ScalarKind = iota + 1
	KindInteger
	KindFloat
)

func (k ScalarKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	default:
		return fmt.Sprintf("ScalarKind(%d)", uint8(k))
	}
}

// Scalar is the intermediate value flowing through a converter chain.
type Scalar struct {
	Kind    ScalarKind
	String  string
	Integer int64
	Float   float64
}

// StringScalar returns a string-kind Scalar.
func StringScalar(value string) Scalar {
	return Scalar{Kind: KindString, String: value}
}

// IntegerScalar returns an integer-kind Scalar.
func IntegerScalar(value int64) Scalar {
	return Scalar{Kind: KindInteger, Integer: value}
}

// FloatScalar returns a float-kind Scalar.
func FloatScalar(value float64) Scalar {
	return Scalar{Kind: KindFloat, Float: value}
}

// GoString renders the scalar for error messages and test failures.
func (s Scalar) GoString() string {
	switch s.Kind {
	case KindString:
		return "String(" + strconv.Quote(s.String) + ")"
	case KindInteger:
		return "Integer(" + strconv.FormatInt(s.Integer, 10) + ")"
	case KindFloat:
		return "Float(" + strconv.FormatFloat(s.Float, 'g', -1, 64) + ")"
	default:
		return s.Kind.String()
	}
}

// toWire reduces a fully converted Scalar to a wire value. Only
// strings and integers that fit in Integer32 are representable.
func (s Scalar) toWire() (Value, error) {
	switch s.Kind {
	case KindString:
		return OctetString(s.String), nil
	case KindInteger:
		if s.Integer < math.MinInt32 || s.Integer > math.MaxInt32 {
			return Value{}, fmt.Errorf("%w: integer %d does not fit in Integer32", ErrConversion, s.Integer)
		}
		return Integer(int32(s.Integer)), nil
	default:
		return Value{}, fmt.Errorf("%w: %#v cannot be stored; end the converter chain with cast_int", ErrConversion, s)
	}
}

// ValueType is the wire kind of a served value.
type ValueType uint8

const (
	TypeInteger ValueType = iota + 1
	TypeOctetString
	TypeNoSuchObject
	TypeEndOfMibView
)

var valueTypeNames = map[ValueType]string{
	TypeInteger:      "integer",
	TypeOctetString:  "octet-string",
	TypeNoSuchObject: "no-such-object",
	TypeEndOfMibView: "end-of-mib-view",
}

func (t ValueType) String() string {
	if name, ok := valueTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ValueType(%d)", uint8(t))
}

// MarshalText renders the type by name in snapshots and --json output.
func (t ValueType) MarshalText() ([]byte, error) {
	if _, ok := valueTypeNames[t]; !ok {
		return nil, fmt.Errorf("unknown value type %d", uint8(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (t *ValueType) UnmarshalText(text []byte) error {
	for candidate, name := range valueTypeNames {
		if name == string(text) {
			*t = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown value type %q", text)
}

// Value is a wire-representable value: a signed 32-bit integer, an
// octet string, or one of the two lookup sentinels.
type Value struct {
	Type        ValueType `json:"type"`
	Integer     int32     `json:"integer,omitempty"`
	OctetString string    `json:"octet_string,omitempty"`
}

// Integer returns an Integer32 value.
func Integer(value int32) Value {
	return Value{Type: TypeInteger, Integer: value}
}

// OctetString returns an octet string value.
func OctetString(value string) Value {
	return Value{Type: TypeOctetString, OctetString: value}
}

// NoSuchObject marks an exact lookup miss.
var NoSuchObject = Value{Type: TypeNoSuchObject}

// EndOfMibView marks an exhausted successor lookup.
var EndOfMibView = Value{Type: TypeEndOfMibView}

func (v Value) String() string {
	switch v.Type {
	case TypeInteger:
		return "INTEGER: " + strconv.FormatInt(int64(v.Integer), 10)
	case TypeOctetString:
		return "STRING: " + strconv.Quote(v.OctetString)
	default:
		return v.Type.String()
	}
}

// VarBind pairs an identifier with the value resolved for it.
type VarBind struct {
	Name  oid.OID `json:"name"`
	Value Value   `json:"value"`
}

// SearchRange is one requested range of a successor lookup. A null End
// means the range is unbounded. For exact lookups only Start is used.
type SearchRange struct {
	Start   oid.OID
	Include bool
	End     oid.OID
}
