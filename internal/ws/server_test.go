package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/agentdesk/internal/adapter/agentclient"
	"github.com/xiaot623/agentdesk/internal/domain"
	"github.com/xiaot623/agentdesk/internal/hub"
	"github.com/xiaot623/agentdesk/internal/protocol"
)

type fakeAgent struct {
	chunks []string
}

func (f *fakeAgent) Invoke(ctx context.Context, agentID string, req *domain.AgentInvokeRequest, handler agentclient.EventHandler) error {
	for _, c := range f.chunks {
		if err := handler(agentclient.SSEEvent{Data: c}); err != nil {
			return err
		}
	}
	return nil
}

type fakeRuns struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeRuns) ListRuns(ctx context.Context, agentID string) ([]domain.AgentRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return []domain.AgentRun{
		{ID: "r1", Name: "AgentExecutor", ChildRunIDs: []string{"r2"}},
		{ID: "r2", Name: "ChatOpenAI", RunType: domain.RunTypeLLM},
	}, nil
}

func (f *fakeRuns) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestGateway(t *testing.T, runs *fakeRuns) string {
	t.Helper()
	h := hub.NewHub()
	go h.Run()
	t.Cleanup(h.Stop)

	srv := NewServer(Config{
		PingInterval:   time.Second,
		WriteTimeout:   time.Second,
		ReadTimeout:    5 * time.Second,
		MaxMessageSize: 4096,
	}, h, &fakeAgent{chunks: []string{"Hi", " there", "[END]"}}, runs)

	e := echo.New()
	e.GET("/ws", srv.HandleWebSocket)
	ts := httptest.NewServer(e)
	t.Cleanup(ts.Close)
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil reads JSON messages until match returns true.
func readUntil(t *testing.T, conn *websocket.Conn, match func(map[string]interface{}) bool) map[string]interface{} {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var msg map[string]interface{}
		require.NoError(t, conn.ReadJSON(&msg))
		if match(msg) {
			return msg
		}
	}
}

func ofType(typ string) func(map[string]interface{}) bool {
	return func(m map[string]interface{}) bool { return m["type"] == typ }
}

func hello(t *testing.T, conn *websocket.Conn, agentID, roomID string) string {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]string{
		"type":       protocol.TypeHello,
		"agent_id":   agentID,
		"session_id": roomID,
	}))
	ack := readUntil(t, conn, ofType(protocol.TypeHelloAck))
	assert.Equal(t, "agent-1", ack["agent_id"])
	return ack["session_id"].(string)
}

func TestGatewaySubmitStreamsTranscript(t *testing.T) {
	url := newTestGateway(t, &fakeRuns{})
	conn := dial(t, url)
	room := hello(t, conn, "agent-1", "")
	assert.NotEmpty(t, room)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": protocol.TypeSubmit, "input": "hello"}))

	final := readUntil(t, conn, func(m map[string]interface{}) bool {
		return m["type"] == protocol.TypeTranscript && m["state"] == string(domain.StreamStateClosed)
	})
	messages := final["messages"].([]interface{})
	require.Len(t, messages, 2)
	assert.Equal(t, "hello", messages[0].(map[string]interface{})["message"])
	assert.Equal(t, "Hi there", messages[1].(map[string]interface{})["message"])
	assert.EqualValues(t, 0, final["elapsed_ms"])
}

func TestGatewayRoomIsShared(t *testing.T) {
	url := newTestGateway(t, &fakeRuns{})
	first := dial(t, url)
	room := hello(t, first, "agent-1", "")

	second := dial(t, url)
	assert.Equal(t, room, hello(t, second, "", room))

	require.NoError(t, first.WriteJSON(map[string]string{"type": protocol.TypeNewSession}))
	created := readUntil(t, second, ofType(protocol.TypeSessionCreated))
	assert.NotEmpty(t, created["chat_session_id"])
}

func TestGatewayTraceFetchesOncePerSwitch(t *testing.T) {
	runs := &fakeRuns{}
	url := newTestGateway(t, runs)
	conn := dial(t, url)
	hello(t, conn, "agent-1", "")

	require.NoError(t, conn.WriteJSON(map[string]string{"type": protocol.TypeShowTrace}))
	msg := readUntil(t, conn, ofType(protocol.TypeTrace))
	entries := msg["entries"].([]interface{})
	require.Len(t, entries, 1)
	assert.Equal(t, "r1", entries[0].(map[string]interface{})["run_id"])

	require.NoError(t, conn.WriteJSON(map[string]string{"type": protocol.TypeShowTrace}))
	readUntil(t, conn, ofType(protocol.TypeTrace))
	assert.Equal(t, 1, runs.count())

	require.NoError(t, conn.WriteJSON(map[string]string{"type": protocol.TypeShowChat}))
	readUntil(t, conn, ofType(protocol.TypeTranscript))
	require.NoError(t, conn.WriteJSON(map[string]string{"type": protocol.TypeShowTrace}))
	readUntil(t, conn, ofType(protocol.TypeTrace))
	assert.Equal(t, 2, runs.count())
}

func TestGatewayErrors(t *testing.T) {
	url := newTestGateway(t, &fakeRuns{})
	conn := dial(t, url)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": protocol.TypeSubmit, "input": "x"}))
	msg := readUntil(t, conn, ofType(protocol.TypeError))
	assert.Equal(t, protocol.ErrorCodeSessionRequired, msg["code"])

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	msg = readUntil(t, conn, ofType(protocol.TypeError))
	assert.Equal(t, protocol.ErrorCodeInvalidMessage, msg["code"])

	room := hello(t, conn, "agent-1", "")
	other := dial(t, url)
	require.NoError(t, other.WriteJSON(map[string]string{"type": protocol.TypeHello, "agent_id": "agent-2", "session_id": room}))
	msg = readUntil(t, other, ofType(protocol.TypeError))
	assert.Equal(t, protocol.ErrorCodeAgentMismatch, msg["code"])

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "bogus"}))
	msg = readUntil(t, conn, ofType(protocol.TypeError))
	assert.Contains(t, msg["message"], "bogus")
}
