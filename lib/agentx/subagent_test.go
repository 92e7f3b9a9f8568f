// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package agentx

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/bureau-foundation/double-agentx/lib/clock"
	"github.com/bureau-foundation/double-agentx/lib/testutil"
)

// pipeDialer hands out the subagent end of a net.Pipe per dial and
// sends the master end to the test. Queued errors are returned first.
type pipeDialer struct {
	errs    chan error
	masters chan net.Conn
}

func newPipeDialer() *pipeDialer {
	return &pipeDialer{errs: make(chan error, 4), masters: make(chan net.Conn, 4)}
}

func (d *pipeDialer) dial(ctx context.Context) (net.Conn, error) {
	select {
	case err := <-d.errs:
		return nil, err
	default:
	}
	subagentConn, masterConn := net.Pipe()
	d.masters <- masterConn
	return subagentConn, nil
}

func TestSubagentReconnects(t *testing.T) {
	fakeClock := clock.Fake(testEpoch)
	dialer := newPipeDialer()
	dialer.errs <- errors.New("connection refused")

	subagent := &Subagent{
		Dial:              dialer.dial,
		Session:           testSessionConfig(),
		Handler:           &fakeHandler{},
		ReconnectInterval: 30 * time.Second,
		Clock:             fakeClock,
		Logger:            testutil.Logger(t),
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- subagent.Run(ctx) }()

	// First dial fails; nothing connects until the interval passes.
	fakeClock.WaitForTimers(1)
	select {
	case <-dialer.masters:
		t.Fatal("redialed before the reconnect interval elapsed")
	default:
	}
	fakeClock.Advance(30 * time.Second)

	masterConn := testutil.RequireReceive(t, dialer.masters, testTimeout, "second dial")
	master := &fakeMaster{t: t, conn: masterConn}
	master.accept()

	// The master closes the session; the subagent waits and reconnects.
	payload, _ := Close{Reason: ReasonByManager}.MarshalPayload()
	if err := WritePacket(masterConn, Header{Type: TypeClose, SessionID: testSessionID, PacketID: 1}, payload); err != nil {
		t.Fatalf("writing close: %v", err)
	}
	fakeClock.WaitForTimers(1)
	fakeClock.Advance(30 * time.Second)

	masterConn = testutil.RequireReceive(t, dialer.masters, testTimeout, "third dial")
	master = &fakeMaster{t: t, conn: masterConn}
	master.accept()

	cancel()
	closePacket := master.read(TypeClose)
	closePDU, err := DecodeClose(closePacket)
	if err != nil {
		t.Fatalf("DecodeClose: %v", err)
	}
	if closePDU.Reason != ReasonShutdown {
		t.Errorf("close reason = %s, want reasonShutdown", closePDU.Reason)
	}
	if err := testutil.RequireReceive(t, done, testTimeout, "subagent exit"); err != nil {
		t.Errorf("Run = %v, want nil", err)
	}
}

func TestSubagentStopsWhileWaiting(t *testing.T) {
	fakeClock := clock.Fake(testEpoch)
	dialer := newPipeDialer()
	dialer.errs <- errors.New("no such file or directory")

	subagent := &Subagent{
		Dial:    dialer.dial,
		Session: testSessionConfig(),
		Handler: &fakeHandler{},
		Clock:   fakeClock,
		Logger:  testutil.Logger(t),
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- subagent.Run(ctx) }()

	fakeClock.WaitForTimers(1)
	cancel()
	if err := testutil.RequireReceive(t, done, testTimeout, "subagent exit"); err != nil {
		t.Errorf("Run = %v, want nil", err)
	}
}

func TestSubagentDefaultInterval(t *testing.T) {
	fakeClock := clock.Fake(testEpoch)
	dialer := newPipeDialer()
	dialer.errs <- errors.New("refused")

	subagent := &Subagent{
		Dial:    dialer.dial,
		Session: testSessionConfig(),
		Handler: &fakeHandler{},
		Clock:   fakeClock,
		Logger:  testutil.Logger(t),
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- subagent.Run(ctx) }()

	fakeClock.WaitForTimers(1)
	fakeClock.Advance(DefaultReconnectInterval - time.Second)
	if fakeClock.PendingCount() != 1 {
		t.Errorf("reconnect fired before %v", DefaultReconnectInterval)
	}
	fakeClock.Advance(time.Second)
	masterConn := testutil.RequireReceive(t, dialer.masters, testTimeout, "redial")
	master := &fakeMaster{t: t, conn: masterConn}
	master.accept()

	cancel()
	master.read(TypeClose)
	testutil.RequireReceive(t, done, testTimeout, "subagent exit")
}

func TestUnixDialer(t *testing.T) {
	socketPath := filepath.Join(testutil.SocketDir(t), "master")
	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer listener.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := listener.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	conn, err := UnixDialer(socketPath)(context.Background())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	masterConn := testutil.RequireReceive(t, accepted, testTimeout, "accept")
	defer masterConn.Close()

	if err := WritePacket(conn, Header{Type: TypePing, SessionID: 1, PacketID: 1}, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	packet, err := ReadPacket(masterConn)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if packet.Header.Type != TypePing {
		t.Errorf("type = %s, want Ping", packet.Header.Type)
	}
}
