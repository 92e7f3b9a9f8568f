// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package agentx

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/bureau-foundation/double-agentx/lib/oid"
)

// ErrMalformed reports a PDU that could not be parsed.
var ErrMalformed = errors.New("agentx: malformed pdu")

// Header is the fixed PDU header (RFC 2741 §6.1).
type Header struct {
	Version       uint8
	Type          Type
	Flags         Flags
	SessionID     uint32
	TransactionID uint32
	PacketID      uint32
	PayloadLength uint32
}

// byteOrder returns the order of every multi-byte field after the
// first four header bytes.
func (h Header) byteOrder() binary.ByteOrder {
	if h.Flags&FlagNetworkByteOrder != 0 {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// Packet is one framed PDU: its header and the raw payload.
type Packet struct {
	Header  Header
	Payload []byte
}

func decodeHeader(raw [HeaderLength]byte) (Header, error) {
	header := Header{
		Version: raw[0],
		Type:    Type(raw[1]),
		Flags:   Flags(raw[2]),
	}
	if header.Version != ProtocolVersion {
		return Header{}, fmt.Errorf("%w: version %d", ErrMalformed, header.Version)
	}
	order := header.byteOrder()
	header.SessionID = order.Uint32(raw[4:8])
	header.TransactionID = order.Uint32(raw[8:12])
	header.PacketID = order.Uint32(raw[12:16])
	header.PayloadLength = order.Uint32(raw[16:20])
	if header.PayloadLength%4 != 0 {
		return Header{}, fmt.Errorf("%w: payload length %d is not a multiple of 4", ErrMalformed, header.PayloadLength)
	}
	return header, nil
}

// ReadPacket reads one PDU from r. io.EOF is returned unwrapped when
// the stream ends cleanly between PDUs.
func ReadPacket(r io.Reader) (*Packet, error) {
	var raw [HeaderLength]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read pdu header: %w", err)
	}
	header, err := decodeHeader(raw)
	if err != nil {
		return nil, err
	}
	if header.PayloadLength > maxPayloadLength {
		return nil, fmt.Errorf("%w: payload length %d exceeds maximum %d", ErrMalformed, header.PayloadLength, maxPayloadLength)
	}

	payload := make([]byte, header.PayloadLength)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("read %s payload: %w", header.Type, err)
	}
	return &Packet{Header: header, Payload: payload}, nil
}

// WritePacket writes header and payload as one frame. Outbound PDUs are
// always in network byte order; PayloadLength is taken from payload.
func WritePacket(w io.Writer, header Header, payload []byte) error {
	header.Version = ProtocolVersion
	header.Flags |= FlagNetworkByteOrder
	header.PayloadLength = uint32(len(payload))

	frame := make([]byte, 0, HeaderLength+len(payload))
	frame = append(frame, header.Version, byte(header.Type), byte(header.Flags), 0)
	frame = binary.BigEndian.AppendUint32(frame, header.SessionID)
	frame = binary.BigEndian.AppendUint32(frame, header.TransactionID)
	frame = binary.BigEndian.AppendUint32(frame, header.PacketID)
	frame = binary.BigEndian.AppendUint32(frame, header.PayloadLength)
	frame = append(frame, payload...)
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("write %s pdu: %w", header.Type, err)
	}
	return nil
}

// Open is the payload of an agentx-Open-PDU.
type Open struct {
	Timeout     uint8
	ID          oid.OID
	Description string
}

// MarshalPayload encodes the Open payload in network byte order.
func (o Open) MarshalPayload() ([]byte, error) {
	e := newEncoder()
	e.uint8(o.Timeout)
	e.reserved(3)
	if err := e.oid(o.ID, false); err != nil {
		return nil, fmt.Errorf("open id: %w", err)
	}
	e.octetString([]byte(o.Description))
	return e.buffer, nil
}

// DecodeOpen parses an Open payload.
func DecodeOpen(packet *Packet) (Open, error) {
	d := newDecoder(packet.Payload, packet.Header.byteOrder())
	timeout, err := d.uint8()
	if err != nil {
		return Open{}, fmt.Errorf("%w: open: %w", ErrMalformed, err)
	}
	if _, err := d.take(3); err != nil {
		return Open{}, fmt.Errorf("%w: open: %w", ErrMalformed, err)
	}
	id, _, err := d.oid()
	if err != nil {
		return Open{}, fmt.Errorf("%w: open id: %w", ErrMalformed, err)
	}
	description, err := d.octetString()
	if err != nil {
		return Open{}, fmt.Errorf("%w: open description: %w", ErrMalformed, err)
	}
	return Open{Timeout: timeout, ID: id, Description: string(description)}, nil
}

// Register is the payload of an agentx-Register-PDU for a single
// subtree (range_subid 0) in the default context.
type Register struct {
	Timeout  uint8
	Priority uint8
	Subtree  oid.OID
}

// MarshalPayload encodes the Register payload in network byte order.
func (r Register) MarshalPayload() ([]byte, error) {
	e := newEncoder()
	e.uint8(r.Timeout)
	e.uint8(r.Priority)
	e.uint8(0)
	e.reserved(1)
	if err := e.oid(r.Subtree, false); err != nil {
		return nil, fmt.Errorf("register subtree: %w", err)
	}
	return e.buffer, nil
}

// DecodeRegister parses a Register payload. Registrations with a
// range_subid are not produced by this package and are rejected.
func DecodeRegister(packet *Packet) (Register, error) {
	d := newDecoder(packet.Payload, packet.Header.byteOrder())
	if packet.Header.Flags&FlagNonDefaultContext != 0 {
		if _, err := d.octetString(); err != nil {
			return Register{}, fmt.Errorf("%w: register context: %w", ErrMalformed, err)
		}
	}
	fields, err := d.take(4)
	if err != nil {
		return Register{}, fmt.Errorf("%w: register: %w", ErrMalformed, err)
	}
	if fields[2] != 0 {
		return Register{}, fmt.Errorf("%w: register range_subid %d", ErrMalformed, fields[2])
	}
	subtree, _, err := d.oid()
	if err != nil {
		return Register{}, fmt.Errorf("%w: register subtree: %w", ErrMalformed, err)
	}
	return Register{Timeout: fields[0], Priority: fields[1], Subtree: subtree}, nil
}

// Close is the payload of an agentx-Close-PDU.
type Close struct {
	Reason CloseReason
}

// MarshalPayload encodes the Close payload.
func (c Close) MarshalPayload() ([]byte, error) {
	e := newEncoder()
	e.uint8(uint8(c.Reason))
	e.reserved(3)
	return e.buffer, nil
}

// DecodeClose parses a Close payload.
func DecodeClose(packet *Packet) (Close, error) {
	d := newDecoder(packet.Payload, packet.Header.byteOrder())
	fields, err := d.take(4)
	if err != nil {
		return Close{}, fmt.Errorf("%w: close: %w", ErrMalformed, err)
	}
	return Close{Reason: CloseReason(fields[0])}, nil
}

// Request is a decoded Get, GetNext, or GetBulk PDU. For Get, every
// range has a null End and only Start is meaningful.
type Request struct {
	Header         Header
	Context        []byte
	NonRepeaters   uint16
	MaxRepetitions uint16
	Ranges         []SearchRange
}

// DecodeRequest parses the payload of a Get, GetNext, or GetBulk PDU.
func DecodeRequest(packet *Packet) (*Request, error) {
	switch packet.Header.Type {
	case TypeGet, TypeGetNext, TypeGetBulk:
	default:
		return nil, fmt.Errorf("%w: %s is not a read request", ErrMalformed, packet.Header.Type)
	}

	request := &Request{Header: packet.Header}
	d := newDecoder(packet.Payload, packet.Header.byteOrder())
	if packet.Header.Flags&FlagNonDefaultContext != 0 {
		context, err := d.octetString()
		if err != nil {
			return nil, fmt.Errorf("%w: %s context: %w", ErrMalformed, packet.Header.Type, err)
		}
		request.Context = context
	}
	if packet.Header.Type == TypeGetBulk {
		nonRepeaters, err := d.uint16()
		if err != nil {
			return nil, fmt.Errorf("%w: getbulk non_repeaters: %w", ErrMalformed, err)
		}
		maxRepetitions, err := d.uint16()
		if err != nil {
			return nil, fmt.Errorf("%w: getbulk max_repetitions: %w", ErrMalformed, err)
		}
		request.NonRepeaters = nonRepeaters
		request.MaxRepetitions = maxRepetitions
	}
	ranges, err := d.searchRangeList()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformed, packet.Header.Type, err)
	}
	request.Ranges = ranges
	return request, nil
}

// MarshalPayload encodes the request payload in network byte order.
// The fake master in tests uses it to drive a session.
func (r *Request) MarshalPayload() ([]byte, error) {
	e := newEncoder()
	if r.Header.Flags&FlagNonDefaultContext != 0 {
		e.octetString(r.Context)
	}
	if r.Header.Type == TypeGetBulk {
		e.uint16(r.NonRepeaters)
		e.uint16(r.MaxRepetitions)
	}
	for i, searchRange := range r.Ranges {
		if err := e.searchRange(searchRange); err != nil {
			return nil, fmt.Errorf("search range %d: %w", i, err)
		}
	}
	return e.buffer, nil
}

// Response is the payload of an agentx-Response-PDU.
type Response struct {
	SysUpTime uint32
	Error     ErrorStatus
	Index     uint16
	VarBinds  []VarBind
}

// MarshalPayload encodes the Response payload in network byte order.
func (r Response) MarshalPayload() ([]byte, error) {
	e := newEncoder()
	e.uint32(r.SysUpTime)
	e.uint16(uint16(r.Error))
	e.uint16(r.Index)
	for i, binding := range r.VarBinds {
		if err := e.varBind(binding); err != nil {
			return nil, fmt.Errorf("response varbind %d: %w", i, err)
		}
	}
	return e.buffer, nil
}

// DecodeResponse parses a Response payload.
func DecodeResponse(packet *Packet) (Response, error) {
	if packet.Header.Type != TypeResponse {
		return Response{}, fmt.Errorf("%w: expected Response, got %s", ErrMalformed, packet.Header.Type)
	}
	d := newDecoder(packet.Payload, packet.Header.byteOrder())
	sysUpTime, err := d.uint32()
	if err != nil {
		return Response{}, fmt.Errorf("%w: response: %w", ErrMalformed, err)
	}
	status, err := d.uint16()
	if err != nil {
		return Response{}, fmt.Errorf("%w: response: %w", ErrMalformed, err)
	}
	index, err := d.uint16()
	if err != nil {
		return Response{}, fmt.Errorf("%w: response: %w", ErrMalformed, err)
	}
	bindings, err := d.varBindList()
	if err != nil {
		return Response{}, fmt.Errorf("%w: response: %w", ErrMalformed, err)
	}
	return Response{SysUpTime: sysUpTime, Error: ErrorStatus(status), Index: index, VarBinds: bindings}, nil
}
