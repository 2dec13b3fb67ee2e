package hub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub()
	go h.Run()
	t.Cleanup(h.Stop)
	return h
}

func receive(t *testing.T, conn *Connection) string {
	t.Helper()
	select {
	case data := <-conn.Send:
		return string(data)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return ""
	}
}

func TestBroadcastReachesRoomOnly(t *testing.T) {
	h := startHub(t)
	a := h.NewConnection(nil)
	b := h.NewConnection(nil)
	other := h.NewConnection(nil)
	h.Register(a)
	h.Register(b)
	h.Register(other)

	h.BindSession(a, "room-1")
	h.BindSession(b, "room-1")
	h.BindSession(other, "room-2")
	assert.Equal(t, 2, h.GetSessionCount())
	assert.True(t, h.HasActiveConnections("room-1"))

	require.NoError(t, h.BroadcastJSON("room-1", map[string]string{"type": "ping"}))
	assert.JSONEq(t, `{"type":"ping"}`, receive(t, a))
	assert.JSONEq(t, `{"type":"ping"}`, receive(t, b))

	select {
	case <-other.Send:
		t.Fatal("message leaked to another room")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestRebindLeavesOldRoom(t *testing.T) {
	h := startHub(t)
	conn := h.NewConnection(nil)
	h.Register(conn)

	h.BindSession(conn, "old")
	h.BindSession(conn, "new")
	assert.False(t, h.HasActiveConnections("old"))
	assert.Equal(t, "new", h.SessionOf(conn))
}

func TestUnregisterClosesSend(t *testing.T) {
	h := startHub(t)
	conn := h.NewConnection(nil)
	h.Register(conn)
	h.BindSession(conn, "room")

	h.Unregister(conn)
	_, ok := <-conn.Send
	assert.False(t, ok)
	assert.Equal(t, 0, h.GetConnectionCount())
	assert.False(t, h.HasActiveConnections("room"))
	assert.ErrorIs(t, h.SendToConnection(conn, []byte("x")), ErrClosed)
}
