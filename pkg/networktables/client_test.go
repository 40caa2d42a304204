package networktables

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nt2go/ntclient/pkg/networktables/errors"
	"github.com/nt2go/ntclient/pkg/networktables/store"
)

// fakeServer accepts exactly one connection on an ephemeral port and hands
// it back to the test, which then scripts raw bytes in either direction.
func fakeServer(t *testing.T) (addr string, accept func() net.Conn) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	connCh := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			connCh <- conn
		}
	}()

	return ln.Addr().String(), func() net.Conn {
		select {
		case conn := <-connCh:
			return conn
		case <-time.After(2 * time.Second):
			t.Fatal("server never accepted a connection")
			return nil
		}
	}
}

func newTestClient(t *testing.T, addr string) *Client {
	t.Helper()
	c, err := New(addr, WithTickInterval(2*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func readExactly(t *testing.T, conn net.Conn, n int) []byte {
	t.Helper()
	buf := make([]byte, n)
	_, err := io.ReadFull(conn, buf)
	require.NoError(t, err)
	return buf
}

func waitForState(t *testing.T, c *Client, phase store.ConnectionPhase) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.State() == phase {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for state %s, got %s", phase, c.State())
}

// Scenario A: fresh client connects, sends 01 02 00, server sends
// HELLO_COMPLETE, state transitions Initializing -> Connected.
func TestNewSendsHelloAndBecomesConnected(t *testing.T) {
	addr, accept := fakeServer(t)

	c := newTestClient(t, addr)
	assert.Equal(t, store.Initializing, c.State())

	server := accept()
	hello := readExactly(t, server, 3)
	assert.Equal(t, []byte{0x01, 0x02, 0x00}, hello)

	_, err := server.Write([]byte{0x03})
	require.NoError(t, err)

	waitForState(t, c, store.Connected)
}

// Scenario B: server sends an assignment for "/x" = 3.5 at id 7, sequence 1.
func TestReceiveAssignmentInstallsEntry(t *testing.T) {
	addr, accept := fakeServer(t)
	c := newTestClient(t, addr)
	server := accept()
	readExactly(t, server, 3)

	msg := []byte{
		0x10, 0x00, 0x02, 0x2F, 0x78, 0x01, 0x00, 0x07, 0x00, 0x01,
		0x40, 0x0C, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	}
	_, err := server.Write(msg)
	require.NoError(t, err)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if v, ok := c.GetNumber("/x"); ok {
			assert.Equal(t, 3.5, v)
			entry, ok := c.Store.EntryByID(7)
			require.True(t, ok)
			assert.Equal(t, "/x", entry.Name)
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("assignment was never installed")
}

// Scenario C: local SetNumber on an existing entry queues an update the
// send loop writes as ENTRY_UPDATE with the incremented sequence.
func TestSetNumberWritesUpdateOnNextTick(t *testing.T) {
	addr, accept := fakeServer(t)
	c := newTestClient(t, addr)
	server := accept()
	readExactly(t, server, 3)

	_, err := server.Write([]byte{
		0x10, 0x00, 0x02, 0x2F, 0x78, 0x01, 0x00, 0x07, 0x00, 0x01,
		0x40, 0x0C, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	})
	require.NoError(t, err)
	waitForEntry(t, c, 7)

	c.SetNumber("/x", 4.5)

	tag := readExactly(t, server, 1)
	assert.Equal(t, []byte{0x11}, tag)
	rest := readExactly(t, server, 12)
	assert.Equal(t, []byte{
		0x00, 0x07, 0x00, 0x02,
		0x40, 0x12, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	}, rest)
}

// Scenario D: local SetBool on an unknown name queues a pending-creation
// entry the send loop writes as ENTRY_ASSIGNMENT with the sentinel id.
func TestSetBoolNewNameWritesAssignmentOnNextTick(t *testing.T) {
	addr, accept := fakeServer(t)
	c := newTestClient(t, addr)
	server := accept()
	readExactly(t, server, 3)
	_, err := server.Write([]byte{0x03})
	require.NoError(t, err)
	waitForState(t, c, store.Connected)

	c.SetBool("/new", true)

	msg := readExactly(t, server, 13)
	assert.Equal(t, []byte{
		0x10, 0x00, 0x04, 0x2F, 0x6E, 0x65, 0x77,
		0x00, 0xFF, 0xFF, 0x00, 0x01, 0x01,
	}, msg)
}

// Scenario E: server sends an update for an id that doesn't exist; the
// receive loop treats this as fatal.
func TestReceiveUpdateUnknownIDIsFatal(t *testing.T) {
	addr, accept := fakeServer(t)
	c := newTestClient(t, addr)
	server := accept()
	readExactly(t, server, 3)

	_, err := server.Write([]byte{0x11, 0x00, 0x42, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00})
	require.NoError(t, err)

	waitForState(t, c, store.Error)
	assert.Equal(t, errors.IdDoesntExist, c.Store.State.ErrorKind())
}

// Scenario F: server sends an update whose sequence equals the stored
// sequence; the store is unchanged and a non-fatal error is logged.
func TestReceiveUpdateSameSequenceIsNonFatal(t *testing.T) {
	addr, accept := fakeServer(t)
	c := newTestClient(t, addr)
	server := accept()
	readExactly(t, server, 3)
	_, err := server.Write([]byte{0x03})
	require.NoError(t, err)
	waitForState(t, c, store.Connected)

	_, err = server.Write([]byte{
		0x10, 0x00, 0x02, 0x2F, 0x78, 0x01, 0x00, 0x07, 0x00, 0x01,
		0x40, 0x0C, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	})
	require.NoError(t, err)
	waitForEntry(t, c, 7)

	_, err = server.Write([]byte{
		0x11, 0x00, 0x07, 0x00, 0x01,
		0x40, 0x0C, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	})
	require.NoError(t, err)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(c.Errors()) > 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	errs := c.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, errors.OutOfOrderSequenceNumbers, errs[0].Kind)
	assert.Equal(t, store.Connected, c.State())

	v, ok := c.GetNumber("/x")
	require.True(t, ok)
	assert.Equal(t, 3.5, v)
}

func TestCloseIsIdempotent(t *testing.T) {
	addr, accept := fakeServer(t)
	c, err := New(addr)
	require.NoError(t, err)
	accept()

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.Equal(t, store.Closed, c.State())
}

func waitForEntry(t *testing.T, c *Client, id uint16) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := c.Store.EntryByID(id); ok {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("entry was never installed")
}
