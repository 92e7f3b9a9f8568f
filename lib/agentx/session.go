// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package agentx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/bureau-foundation/double-agentx/lib/clock"
	"github.com/bureau-foundation/double-agentx/lib/oid"
)

// ErrClosedByMaster is returned by Serve when the master agent sends a
// Close PDU.
var ErrClosedByMaster = errors.New("agentx: session closed by master agent")

// Handler answers the read requests of a session. A returned error
// fails the whole request with genErr.
type Handler interface {
	Get(ctx context.Context, names []oid.OID) ([]VarBind, error)
	GetNext(ctx context.Context, ranges []SearchRange) ([]VarBind, error)
	GetBulk(ctx context.Context, nonRepeaters, maxRepetitions int, ranges []SearchRange) ([]VarBind, error)
}

// SessionConfig describes the session opened with the master agent.
type SessionConfig struct {
	// ID identifies the subagent in the Open PDU.
	ID oid.OID

	// Description is the human-readable subagent name.
	Description string

	// Timeout is the per-request timeout the master should allow.
	// Whole seconds, at most 255; zero lets the master decide.
	Timeout time.Duration

	// Subtree is registered after the session opens.
	Subtree oid.OID

	// Priority of the registration. Zero selects the RFC default of 127.
	Priority uint8
}

// pastDeadline unblocks pending I/O when applied as a deadline.
var pastDeadline = time.Unix(1, 0)

// closeWriteTimeout bounds the final Close write to a peer that has
// stopped reading.
const closeWriteTimeout = time.Second

// Session is an open AgentX session on one connection. Requests are
// served one at a time.
type Session struct {
	conn    net.Conn
	handler Handler
	clock   clock.Clock
	logger  *slog.Logger

	sessionID         uint32
	opened            time.Time
	nextPacketID      uint32
	nextTransactionID uint32

	closeOnce sync.Once
}

// OpenSession performs the Open and Register handshake on conn. The handshake
// is abandoned when ctx is done. On failure conn is closed.
func OpenSession(ctx context.Context, conn net.Conn, config SessionConfig, handler Handler, clk clock.Clock, logger *slog.Logger) (*Session, error) {
	session := &Session{
		conn:    conn,
		handler: handler,
		clock:   clk,
		logger:  logger,
	}

	stop := context.AfterFunc(ctx, func() { conn.SetDeadline(pastDeadline) })
	err := session.handshake(config)
	if !stop() && ctx.Err() != nil {
		err = fmt.Errorf("agentx handshake: %w", ctx.Err())
	}
	if err != nil {
		conn.Close()
		return nil, err
	}
	conn.SetDeadline(time.Time{})
	return session, nil
}

func (s *Session) handshake(config SessionConfig) error {
	timeout := config.Timeout / time.Second
	if timeout < 0 || timeout > 255 {
		return fmt.Errorf("agentx timeout %v is outside 0..255s", config.Timeout)
	}

	response, err := s.call(TypeOpen, Open{
		Timeout:     uint8(timeout),
		ID:          config.ID,
		Description: config.Description,
	})
	if err != nil {
		return fmt.Errorf("agentx open: %w", err)
	}
	if response.body.Error != NoError {
		return fmt.Errorf("agentx open: master answered %s", response.body.Error)
	}
	s.sessionID = response.header.SessionID
	s.opened = s.clock.Now()

	priority := config.Priority
	if priority == 0 {
		priority = 127
	}
	response, err = s.call(TypeRegister, Register{
		Timeout:  uint8(timeout),
		Priority: priority,
		Subtree:  config.Subtree,
	})
	if err != nil {
		return fmt.Errorf("agentx register %s: %w", config.Subtree, err)
	}
	if response.body.Error != NoError {
		return fmt.Errorf("agentx register %s: master answered %s", config.Subtree, response.body.Error)
	}

	s.logger.Info("agentx session open",
		"session_id", s.sessionID,
		"subtree", config.Subtree.String(),
	)
	return nil
}

type payloadMarshaler interface {
	MarshalPayload() ([]byte, error)
}

type reply struct {
	header Header
	body   Response
}

// call sends an administrative PDU and waits for its Response.
func (s *Session) call(pduType Type, body payloadMarshaler) (reply, error) {
	payload, err := body.MarshalPayload()
	if err != nil {
		return reply{}, err
	}
	s.nextPacketID++
	s.nextTransactionID++
	header := Header{
		Type:          pduType,
		SessionID:     s.sessionID,
		TransactionID: s.nextTransactionID,
		PacketID:      s.nextPacketID,
	}
	if err := WritePacket(s.conn, header, payload); err != nil {
		return reply{}, err
	}

	for {
		packet, err := ReadPacket(s.conn)
		if err != nil {
			return reply{}, err
		}
		if packet.Header.Type != TypeResponse || packet.Header.PacketID != header.PacketID {
			s.logger.Debug("discarding pdu while awaiting response",
				"type", packet.Header.Type.String(),
				"packet_id", packet.Header.PacketID,
			)
			continue
		}
		response, err := DecodeResponse(packet)
		if err != nil {
			return reply{}, err
		}
		return reply{header: packet.Header, body: response}, nil
	}
}

// SessionID returns the identifier assigned by the master agent.
func (s *Session) SessionID() uint32 {
	return s.sessionID
}

// sysUpTime is the session age in hundredths of a second.
func (s *Session) sysUpTime() uint32 {
	return uint32(s.clock.Now().Sub(s.opened) / (10 * time.Millisecond))
}

// Serve answers requests until the master closes the session, the
// connection fails, or ctx is done. When ctx ends the session sends a
// Close with reason shutdown and Serve returns ctx.Err().
func (s *Session) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { s.conn.SetReadDeadline(pastDeadline) })
	defer stop()

	for {
		packet, err := ReadPacket(s.conn)
		if err != nil {
			if ctx.Err() != nil {
				s.Close(ReasonShutdown)
				return ctx.Err()
			}
			s.closeConn()
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("agentx: master agent disconnected: %w", err)
			}
			if errors.Is(err, ErrMalformed) {
				return err
			}
			return fmt.Errorf("agentx: %w", err)
		}

		switch packet.Header.Type {
		case TypeGet, TypeGetNext, TypeGetBulk:
			err = s.serveRequest(ctx, packet)
		case TypePing:
			err = s.respond(packet.Header, Response{})
		case TypeClose:
			closePDU, decodeErr := DecodeClose(packet)
			if decodeErr != nil {
				s.logger.Warn("malformed close pdu from master", "error", decodeErr)
			}
			s.logger.Info("master agent closed session",
				"session_id", s.sessionID,
				"reason", closePDU.Reason.String(),
			)
			s.closeConn()
			return ErrClosedByMaster
		case TypeResponse:
			s.logger.Debug("ignoring unsolicited response", "packet_id", packet.Header.PacketID)
		default:
			s.logger.Debug("unsupported pdu", "type", packet.Header.Type.String())
			err = s.respond(packet.Header, Response{Error: ProcessingError})
		}
		if err != nil {
			s.closeConn()
			return err
		}
	}
}

func (s *Session) serveRequest(ctx context.Context, packet *Packet) error {
	request, err := DecodeRequest(packet)
	if err != nil {
		s.logger.Warn("malformed request", "type", packet.Header.Type.String(), "error", err)
		return s.respond(packet.Header, Response{Error: ParseError})
	}
	if packet.Header.Flags&FlagNonDefaultContext != 0 {
		return s.respond(packet.Header, Response{Error: UnsupportedContext})
	}

	var bindings []VarBind
	switch packet.Header.Type {
	case TypeGet:
		names := make([]oid.OID, len(request.Ranges))
		for i, searchRange := range request.Ranges {
			names[i] = searchRange.Start
		}
		bindings, err = s.handler.Get(ctx, names)
	case TypeGetNext:
		bindings, err = s.handler.GetNext(ctx, request.Ranges)
	case TypeGetBulk:
		bindings, err = s.handler.GetBulk(ctx, int(request.NonRepeaters), int(request.MaxRepetitions), request.Ranges)
	}
	if err != nil {
		s.logger.Error("request failed",
			"type", packet.Header.Type.String(),
			"ranges", len(request.Ranges),
			"error", err,
		)
		return s.respond(packet.Header, Response{Error: GenErr})
	}
	return s.respond(packet.Header, Response{VarBinds: bindings})
}

// respond answers the PDU described by request with the same session,
// transaction, and packet identifiers.
func (s *Session) respond(request Header, response Response) error {
	response.SysUpTime = s.sysUpTime()
	payload, err := response.MarshalPayload()
	if err != nil {
		s.logger.Error("encoding response", "error", err)
		payload, _ = Response{SysUpTime: response.SysUpTime, Error: GenErr}.MarshalPayload()
	}
	return WritePacket(s.conn, Header{
		Type:          TypeResponse,
		SessionID:     request.SessionID,
		TransactionID: request.TransactionID,
		PacketID:      request.PacketID,
	}, payload)
}

// Close sends a Close PDU with reason and closes the connection. Write
// errors are ignored.
func (s *Session) Close(reason CloseReason) {
	s.closeOnce.Do(func() {
		s.conn.SetWriteDeadline(time.Now().Add(closeWriteTimeout)) //nolint:realclock // kernel I/O deadline
		payload, _ := Close{Reason: reason}.MarshalPayload()
		s.nextPacketID++
		WritePacket(s.conn, Header{
			Type:      TypeClose,
			SessionID: s.sessionID,
			PacketID:  s.nextPacketID,
		}, payload)
		s.conn.Close()
	})
}

func (s *Session) closeConn() {
	s.closeOnce.Do(func() { s.conn.Close() })
}
