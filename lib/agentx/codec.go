// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package agentx

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/bureau-foundation/double-agentx/lib/oid"
)

// internetPrefix is the 1.3.6.1 prefix that OID encoding can elide.
var internetPrefix = oid.OID{1, 3, 6, 1}

// errShortPayload reports a payload that ends inside a field.
var errShortPayload = errors.New("payload truncated")

// SearchRange is one element of a SearchRangeList. A null End means
// the range is unbounded.
type SearchRange struct {
	Start   oid.OID
	Include bool
	End     oid.OID
}

// VarBind is a variable binding. Value holds int32 for Integer,
// []byte for OctetString, Opaque, and IPAddress, oid.OID for
// ObjectIdentifier, uint32 for Counter32, Gauge32, and TimeTicks, uint64
// for Counter64, and nil for Null and the three exception types.
type VarBind struct {
	Type  ValueType
	Name  oid.OID
	Value any
}

// encoder appends AgentX fields to a buffer in one byte order.
type encoder struct {
	buffer []byte
	order  binary.AppendByteOrder
}

func newEncoder() *encoder {
	return &encoder{order: binary.BigEndian}
}

func (e *encoder) uint8(value uint8) {
	e.buffer = append(e.buffer, value)
}

func (e *encoder) uint16(value uint16) {
	e.buffer = e.order.AppendUint16(e.buffer, value)
}

func (e *encoder) uint32(value uint32) {
	e.buffer = e.order.AppendUint32(e.buffer, value)
}

func (e *encoder) uint64(value uint64) {
	e.buffer = e.order.AppendUint64(e.buffer, value)
}

func (e *encoder) reserved(count int) {
	for i := 0; i < count; i++ {
		e.buffer = append(e.buffer, 0)
	}
}

// oid encodes an Object Identifier (RFC 2741 §5.1), eliding the
// 1.3.6.1.n prefix when n fits in the prefix byte.
func (e *encoder) oid(value oid.OID, include bool) error {
	prefix := uint8(0)
	subidentifiers := value
	if len(value) >= 5 && value.HasPrefix(internetPrefix) && value[4] > 0 && value[4] <= 255 {
		prefix = uint8(value[4])
		subidentifiers = value[5:]
	}
	if len(subidentifiers) > oid.MaxLength {
		return fmt.Errorf("oid %s has too many sub-identifiers", value)
	}
	e.uint8(uint8(len(subidentifiers)))
	e.uint8(prefix)
	if include {
		e.uint8(1)
	} else {
		e.uint8(0)
	}
	e.reserved(1)
	for _, component := range subidentifiers {
		e.uint32(component)
	}
	return nil
}

// octetString encodes a length-prefixed string padded to four bytes.
func (e *encoder) octetString(value []byte) {
	e.uint32(uint32(len(value)))
	e.buffer = append(e.buffer, value...)
	if remainder := len(value) % 4; remainder != 0 {
		e.reserved(4 - remainder)
	}
}

func (e *encoder) searchRange(searchRange SearchRange) error {
	if err := e.oid(searchRange.Start, searchRange.Include); err != nil {
		return err
	}
	return e.oid(searchRange.End, false)
}

func (e *encoder) varBind(binding VarBind) error {
	e.uint16(uint16(binding.Type))
	e.reserved(2)
	if err := e.oid(binding.Name, false); err != nil {
		return err
	}

	switch binding.Type {
	case ValueInteger:
		value, ok := binding.Value.(int32)
		if !ok {
			return fmt.Errorf("varbind %s: Integer needs int32, got %T", binding.Name, binding.Value)
		}
		e.uint32(uint32(value))
	case ValueOctetString, ValueOpaque, ValueIPAddress:
		value, ok := binding.Value.([]byte)
		if !ok {
			return fmt.Errorf("varbind %s: type %d needs []byte, got %T", binding.Name, binding.Type, binding.Value)
		}
		e.octetString(value)
	case ValueObjectIdentifier:
		value, ok := binding.Value.(oid.OID)
		if !ok {
			return fmt.Errorf("varbind %s: ObjectIdentifier needs oid.OID, got %T", binding.Name, binding.Value)
		}
		return e.oid(value, false)
	case ValueCounter32, ValueGauge32, ValueTimeTicks:
		value, ok := binding.Value.(uint32)
		if !ok {
			return fmt.Errorf("varbind %s: type %d needs uint32, got %T", binding.Name, binding.Type, binding.Value)
		}
		e.uint32(value)
	case ValueCounter64:
		value, ok := binding.Value.(uint64)
		if !ok {
			return fmt.Errorf("varbind %s: Counter64 needs uint64, got %T", binding.Name, binding.Value)
		}
		e.uint64(value)
	case ValueNull, ValueNoSuchObject, ValueNoSuchInstance, ValueEndOfMibView:
	default:
		return fmt.Errorf("varbind %s: unknown value type %d", binding.Name, binding.Type)
	}
	return nil
}

// decoder consumes AgentX fields from a payload in one byte order.
type decoder struct {
	data   []byte
	offset int
	order  binary.ByteOrder
}

func newDecoder(data []byte, order binary.ByteOrder) *decoder {
	return &decoder{data: data, order: order}
}

func (d *decoder) remaining() int {
	return len(d.data) - d.offset
}

func (d *decoder) take(count int) ([]byte, error) {
	if count < 0 || d.remaining() < count {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", errShortPayload, count, d.offset, d.remaining())
	}
	field := d.data[d.offset : d.offset+count]
	d.offset += count
	return field, nil
}

func (d *decoder) uint8() (uint8, error) {
	field, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return field[0], nil
}

func (d *decoder) uint16() (uint16, error) {
	field, err := d.take(2)
	if err != nil {
		return 0, err
	}
	return d.order.Uint16(field), nil
}

func (d *decoder) uint32() (uint32, error) {
	field, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return d.order.Uint32(field), nil
}

func (d *decoder) uint64() (uint64, error) {
	field, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return d.order.Uint64(field), nil
}

// oid decodes an Object Identifier and its include flag.
func (d *decoder) oid() (oid.OID, bool, error) {
	header, err := d.take(4)
	if err != nil {
		return nil, false, err
	}
	count, prefix, include := int(header[0]), header[1], header[2] != 0
	if count == 0 && prefix == 0 {
		return nil, include, nil
	}

	var result oid.OID
	if prefix != 0 {
		result = make(oid.OID, 0, 5+count)
		result = append(result, internetPrefix...)
		result = append(result, uint32(prefix))
	} else {
		result = make(oid.OID, 0, count)
	}
	for i := 0; i < count; i++ {
		component, err := d.uint32()
		if err != nil {
			return nil, false, err
		}
		result = append(result, component)
	}
	return result, include, nil
}

func (d *decoder) octetString() ([]byte, error) {
	length, err := d.uint32()
	if err != nil {
		return nil, err
	}
	if int64(length) > int64(d.remaining()) {
		return nil, fmt.Errorf("%w: octet string of %d bytes at offset %d", errShortPayload, length, d.offset)
	}
	padded := int(length)
	if remainder := padded % 4; remainder != 0 {
		padded += 4 - remainder
	}
	field, err := d.take(padded)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), field[:length]...), nil
}

func (d *decoder) searchRangeList() ([]SearchRange, error) {
	var ranges []SearchRange
	for d.remaining() > 0 {
		start, include, err := d.oid()
		if err != nil {
			return nil, fmt.Errorf("search range %d start: %w", len(ranges), err)
		}
		end, _, err := d.oid()
		if err != nil {
			return nil, fmt.Errorf("search range %d end: %w", len(ranges), err)
		}
		ranges = append(ranges, SearchRange{Start: start, Include: include, End: end})
	}
	return ranges, nil
}

func (d *decoder) varBind() (VarBind, error) {
	typeField, err := d.uint16()
	if err != nil {
		return VarBind{}, err
	}
	if _, err := d.take(2); err != nil {
		return VarBind{}, err
	}
	name, _, err := d.oid()
	if err != nil {
		return VarBind{}, err
	}

	binding := VarBind{Type: ValueType(typeField), Name: name}
	switch binding.Type {
	case ValueInteger:
		value, err := d.uint32()
		if err != nil {
			return VarBind{}, err
		}
		binding.Value = int32(value)
	case ValueOctetString, ValueOpaque, ValueIPAddress:
		binding.Value, err = d.octetString()
	case ValueObjectIdentifier:
		binding.Value, _, err = d.oid()
	case ValueCounter32, ValueGauge32, ValueTimeTicks:
		binding.Value, err = d.uint32()
	case ValueCounter64:
		binding.Value, err = d.uint64()
	case ValueNull, ValueNoSuchObject, ValueNoSuchInstance, ValueEndOfMibView:
	default:
		return VarBind{}, fmt.Errorf("varbind %s: unknown value type %d", name, typeField)
	}
	if err != nil {
		return VarBind{}, err
	}
	return binding, nil
}

func (d *decoder) varBindList() ([]VarBind, error) {
	var bindings []VarBind
	for d.remaining() > 0 {
		binding, err := d.varBind()
		if err != nil {
			return nil, fmt.Errorf("varbind %d: %w", len(bindings), err)
		}
		bindings = append(bindings, binding)
	}
	return bindings, nil
}
