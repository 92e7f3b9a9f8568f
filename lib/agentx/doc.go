// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package agentx implements the subagent side of the AgentX protocol
// (RFC 2741) over a stream socket, typically the master agent's Unix
// socket at /var/agentx/master.
//
// The package is organized around the session data flow:
//
//   - pdu.go: header, PDU type, flag, error, and value type constants
//   - codec.go: byte-level encoding of OIDs, octet strings, search
//     ranges, and variable bindings in either byte order
//   - packet.go: framing (20-byte header plus payload) and the
//     PDU bodies this subagent sends and receives
//   - session.go: Open and Register handshake, then the request loop
//     that dispatches Get, GetNext, and GetBulk to a [Handler]
//   - subagent.go: dial, serve, and reconnect after a fixed interval
//
// Only the read-only subset of the protocol is implemented. Set
// phases, notifications, index allocation, and agent capabilities are
// answered with processingError.
package agentx
