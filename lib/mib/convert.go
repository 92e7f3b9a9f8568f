// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mib

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ConverterKind selects a transform.
type ConverterKind uint8

const (
	// CastFloat coerces to Float: integers widen, strings parse.
	CastFloat ConverterKind = iota + 1

	// CastInt coerces to Integer: floats round to nearest with ties
	// away from zero, strings parse as base-10 integers.
	CastInt

	// MultiplyBy scales an Integer or Float by Factor and yields a
	// Float. A String passes through unchanged.
	MultiplyBy

	// Trim removes Count characters from both ends of a String.
	// Other kinds pass through unchanged.
	Trim

	// TrimRight removes Count characters from the end of a String.
	// Other kinds pass through unchanged.
	TrimRight
)

var converterNames = map[ConverterKind]string{
	CastFloat:  "cast_float",
	CastInt:    "cast_int",
	MultiplyBy: "multiply_by",
	Trim:       "trim",
	TrimRight:  "trim_right",
}

func (k ConverterKind) String() string {
	if name, ok := converterNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ConverterKind(%d)", uint8(k))
}

// Converter is one parsed step of a converter chain. Factor is set for
// MultiplyBy, Count for Trim and TrimRight.
type Converter struct {
	Kind   ConverterKind
	Factor float64
	Count  int
}

// String renders the converter in chain syntax.
func (c Converter) String() string {
	switch c.Kind {
	case MultiplyBy:
		return "multiply_by(" + strconv.FormatFloat(c.Factor, 'g', -1, 64) + ")"
	case Trim, TrimRight:
		return c.Kind.String() + "(" + strconv.Itoa(c.Count) + ")"
	default:
		return c.Kind.String()
	}
}

// Apply runs the converter on value.
func (c Converter) Apply(value Scalar) (Scalar, error) {
	switch c.Kind {
	case CastFloat:
		return castFloat(value)
	case CastInt:
		return castInt(value)
	case MultiplyBy:
		switch value.Kind {
		case KindInteger:
			return FloatScalar(float64(value.Integer) * c.Factor), nil
		case KindFloat:
			return FloatScalar(value.Float * c.Factor), nil
		}
		return value, nil
	case Trim:
		if value.Kind != KindString {
			return value, nil
		}
		length := utf8.RuneCountInString(value.String)
		if 2*c.Count > length {
			return Scalar{}, fmt.Errorf("%w: trim(%d) on %q: value has only %d characters",
				ErrConversion, c.Count, value.String, length)
		}
		runes := []rune(value.String)
		return StringScalar(string(runes[c.Count : length-c.Count])), nil
	case TrimRight:
		if value.Kind != KindString {
			return value, nil
		}
		length := utf8.RuneCountInString(value.String)
		if c.Count > length {
			return Scalar{}, fmt.Errorf("%w: trim_right(%d) on %q: value has only %d characters",
				ErrConversion, c.Count, value.String, length)
		}
		runes := []rune(value.String)
		return StringScalar(string(runes[:length-c.Count])), nil
	default:
		return Scalar{}, fmt.Errorf("%w: unknown converter kind %d", ErrConfiguration, uint8(c.Kind))
	}
}

func castFloat(value Scalar) (Scalar, error) {
	switch value.Kind {
	case KindFloat:
		return value, nil
	case KindInteger:
		return FloatScalar(float64(value.Integer)), nil
	case KindString:
		parsed, err := strconv.ParseFloat(value.String, 64)
		if err != nil {
			return Scalar{}, fmt.Errorf("%w: cast_float: %q is not a number", ErrConversion, value.String)
		}
		return FloatScalar(parsed), nil
	}
	return Scalar{}, fmt.Errorf("%w: cast_float: unsupported %s", ErrConversion, value.Kind)
}

func castInt(value Scalar) (Scalar, error) {
	switch value.Kind {
	case KindInteger:
		return value, nil
	case KindFloat:
		rounded := math.Round(value.Float)
		if math.IsNaN(rounded) || rounded < math.MinInt64 || rounded >= math.MaxInt64 {
			return Scalar{}, fmt.Errorf("%w: cast_int: %v is out of integer range", ErrConversion, value.Float)
		}
		return IntegerScalar(int64(rounded)), nil
	case KindString:
		parsed, err := strconv.ParseInt(value.String, 10, 64)
		if err != nil {
			return Scalar{}, fmt.Errorf("%w: cast_int: %q is not an integer", ErrConversion, value.String)
		}
		return IntegerScalar(parsed), nil
	}
	return Scalar{}, fmt.Errorf("%w: cast_int: unsupported %s", ErrConversion, value.Kind)
}

// Chain is an ordered list of converters.
type Chain []Converter

// ParseChain parses a comma-separated converter chain. Segments are
// trimmed and empty segments dropped, so "" and " , " yield an empty
// chain. Unknown names and malformed arguments wrap ErrConfiguration.
func ParseChain(text string) (Chain, error) {
	var chain Chain
	for _, segment := range strings.Split(text, ",") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		converter, err := parseConverter(segment)
		if err != nil {
			return nil, err
		}
		chain = append(chain, converter)
	}
	return chain, nil
}

func parseConverter(segment string) (Converter, error) {
	switch segment {
	case "cast_float":
		return Converter{Kind: CastFloat}, nil
	case "cast_int":
		return Converter{Kind: CastInt}, nil
	}

	name, argument, ok := splitCall(segment)
	if !ok {
		return Converter{}, fmt.Errorf("%w: unknown converter %q", ErrConfiguration, segment)
	}
	switch name {
	case "multiply_by":
		factor, err := strconv.ParseFloat(argument, 64)
		if err != nil || math.IsNaN(factor) || math.IsInf(factor, 0) {
			return Converter{}, fmt.Errorf("%w: %s: factor %q is not a finite number", ErrConfiguration, segment, argument)
		}
		return Converter{Kind: MultiplyBy, Factor: factor}, nil
	case "trim", "trim_right":
		count, err := strconv.ParseUint(argument, 10, 31)
		if err != nil {
			return Converter{}, fmt.Errorf("%w: %s: length %q is not a non-negative integer", ErrConfiguration, segment, argument)
		}
		kind := Trim
		if name == "trim_right" {
			kind = TrimRight
		}
		return Converter{Kind: kind, Count: int(count)}, nil
	}
	return Converter{}, fmt.Errorf("%w: unknown converter %q", ErrConfiguration, name)
}

// splitCall splits "name(argument)" into its parts.
func splitCall(segment string) (name, argument string, ok bool) {
	open := strings.IndexByte(segment, '(')
	if open <= 0 || !strings.HasSuffix(segment, ")") {
		return "", "", false
	}
	return segment[:open], segment[open+1 : len(segment)-1], true
}

// Apply runs every converter in order, feeding each the previous
// output.
func (c Chain) Apply(value Scalar) (Scalar, error) {
	for _, converter := range c {
		var err error
		value, err = converter.Apply(value)
		if err != nil {
			return Scalar{}, err
		}
	}
	return value, nil
}

// String renders the chain in the syntax ParseChain accepts.
func (c Chain) String() string {
	parts := make([]string, len(c))
	for i, converter := range c {
		parts[i] = converter.String()
	}
	return strings.Join(parts, ",")
}
