// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package agentx

import "fmt"

// ProtocolVersion is the only AgentX version (RFC 2741 §6.1).
const ProtocolVersion = 1

// HeaderLength is the fixed size of a PDU header.
const HeaderLength = 20

// maxPayloadLength bounds the payload of an inbound PDU. Requests from
// a master agent are small; anything near this is a framing error.
const maxPayloadLength = 1 << 20

// Type is the PDU type field.
type Type uint8

const (
	TypeOpen            Type = 1
	TypeClose           Type = 2
	TypeRegister        Type = 3
	TypeUnregister      Type = 4
	TypeGet             Type = 5
	TypeGetNext         Type = 6
	TypeGetBulk         Type = 7
	TypeTestSet         Type = 8
	TypeCommitSet       Type = 9
	TypeUndoSet         Type = 10
	TypeCleanupSet      Type = 11
	TypeNotify          Type = 12
	TypePing            Type = 13
	TypeIndexAllocate   Type = 14
	TypeIndexDeallocate Type = 15
	TypeAddAgentCaps    Type = 16
	TypeRemoveAgentCaps Type = 17
	TypeResponse        Type = 18
)

var typeNames = map[Type]string{
	TypeOpen:            "Open",
	TypeClose:           "Close",
	TypeRegister:        "Register",
	TypeUnregister:      "Unregister",
	TypeGet:             "Get",
	TypeGetNext:         "GetNext",
	TypeGetBulk:         "GetBulk",
	TypeTestSet:         "TestSet",
	TypeCommitSet:       "CommitSet",
	TypeUndoSet:         "UndoSet",
	TypeCleanupSet:      "CleanupSet",
	TypeNotify:          "Notify",
	TypePing:            "Ping",
	TypeIndexAllocate:   "IndexAllocate",
	TypeIndexDeallocate: "IndexDeallocate",
	TypeAddAgentCaps:    "AddAgentCaps",
	TypeRemoveAgentCaps: "RemoveAgentCaps",
	TypeResponse:        "Response",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// Flags is the header flags bitmask.
type Flags uint8

const (
	FlagInstanceRegistration Flags = 0x01
	FlagNewIndex             Flags = 0x02
	FlagAnyIndex             Flags = 0x04
	FlagNonDefaultContext    Flags = 0x08
	FlagNetworkByteOrder     Flags = 0x10
)

// ErrorStatus is the res.error field of a Response PDU.
type ErrorStatus uint16

const (
	NoError               ErrorStatus = 0
	GenErr                ErrorStatus = 5
	OpenFailed            ErrorStatus = 256
	NotOpen               ErrorStatus = 257
	IndexWrongType        ErrorStatus = 258
	IndexAlreadyAllocated ErrorStatus = 259
	IndexNoneAvailable    ErrorStatus = 260
	IndexNotAllocated     ErrorStatus = 261
	UnsupportedContext    ErrorStatus = 262
	DuplicateRegistration ErrorStatus = 263
	UnknownRegistration   ErrorStatus = 264
	UnknownAgentCaps      ErrorStatus = 265
	ParseError            ErrorStatus = 266
	RequestDenied         ErrorStatus = 267
	ProcessingError       ErrorStatus = 268
)

var errorStatusNames = map[ErrorStatus]string{
	NoError:               "noAgentXError",
	GenErr:                "genErr",
	OpenFailed:            "openFailed",
	NotOpen:               "notOpen",
	IndexWrongType:        "indexWrongType",
	IndexAlreadyAllocated: "indexAlreadyAllocated",
	IndexNoneAvailable:    "indexNoneAvailable",
	IndexNotAllocated:     "indexNotAllocated",
	UnsupportedContext:    "unsupportedContext",
	DuplicateRegistration: "duplicateRegistration",
	UnknownRegistration:   "unknownRegistration",
	UnknownAgentCaps:      "unknownAgentCaps",
	ParseError:            "parseError",
	RequestDenied:         "requestDenied",
	ProcessingError:       "processingError",
}

func (s ErrorStatus) String() string {
	if name, ok := errorStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("ErrorStatus(%d)", uint16(s))
}

// CloseReason is the reason field of a Close PDU.
type CloseReason uint8

const (
	ReasonOther         CloseReason = 1
	ReasonParseError    CloseReason = 2
	ReasonProtocolError CloseReason = 3
	ReasonTimeouts      CloseReason = 4
	ReasonShutdown      CloseReason = 5
	ReasonByManager     CloseReason = 6
)

var closeReasonNames = map[CloseReason]string{
	ReasonOther:         "reasonOther",
	ReasonParseError:    "reasonParseError",
	ReasonProtocolError: "reasonProtocolError",
	ReasonTimeouts:      "reasonTimeouts",
	ReasonShutdown:      "reasonShutdown",
	ReasonByManager:     "reasonByManager",
}

func (r CloseReason) String() string {
	if name, ok := closeReasonNames[r]; ok {
		return name
	}
	return fmt.Sprintf("CloseReason(%d)", uint8(r))
}

// ValueType is the v.type field of a VarBind.
type ValueType uint16

const (
	ValueInteger          ValueType = 2
	ValueOctetString      ValueType = 4
	ValueNull             ValueType = 5
	ValueObjectIdentifier ValueType = 6
	ValueIPAddress        ValueType = 64
	ValueCounter32        ValueType = 65
	ValueGauge32          ValueType = 66
	ValueTimeTicks        ValueType = 67
	ValueOpaque           ValueType = 68
	ValueCounter64        ValueType = 70
	ValueNoSuchObject     ValueType = 128
	ValueNoSuchInstance   ValueType = 129
	ValueEndOfMibView     ValueType = 130
)
