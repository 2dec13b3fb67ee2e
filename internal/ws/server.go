// Package ws serves the chat gateway: browser clients drive a chat session
// and its trace view over a WebSocket.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/xiaot623/agentdesk/internal/chat"
	"github.com/xiaot623/agentdesk/internal/hub"
	"github.com/xiaot623/agentdesk/internal/protocol"
	"github.com/xiaot623/agentdesk/internal/trace"
)

// Config holds connection timing limits.
type Config struct {
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	MaxMessageSize int64
}

// room is one shared chat: every connection bound to it sees the same
// transcript and trace view.
type room struct {
	id    string
	chat  *chat.Session
	panel *trace.Panel
}

// Server handles WebSocket connections.
type Server struct {
	cfg      Config
	hub      *hub.Hub
	invoker  chat.Invoker
	traces   *trace.Cache
	upgrader websocket.Upgrader

	mu    sync.Mutex
	rooms map[string]*room
}

// NewServer creates a new WebSocket server.
func NewServer(cfg Config, h *hub.Hub, invoker chat.Invoker, runs trace.Fetcher) *Server {
	return &Server{
		cfg:     cfg,
		hub:     h,
		invoker: invoker,
		traces:  trace.NewCache(runs),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		rooms: make(map[string]*room),
	}
}

// HandleWebSocket handles WebSocket upgrade and connection lifecycle.
func (s *Server) HandleWebSocket(c echo.Context) error {
	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("ERROR: failed to upgrade WebSocket: %v", err)
		return err
	}

	conn := s.hub.NewConnection(ws)
	s.hub.Register(conn)

	ws.SetReadLimit(s.cfg.MaxMessageSize)

	go s.writePump(conn)
	go s.readPump(conn)

	return nil
}

// readPump reads messages from the WebSocket connection.
func (s *Server) readPump(conn *hub.Connection) {
	defer func() {
		s.hub.Unregister(conn)
		conn.Close()
	}()

	conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	conn.Conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		return nil
	})

	for {
		_, message, err := conn.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WARN: WebSocket error: %v", err)
			}
			break
		}

		s.handleMessage(conn, message)
	}
}

// writePump writes messages to the WebSocket connection.
func (s *Server) writePump(conn *hub.Connection) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("WARN: failed to write message: %v", err)
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage dispatches incoming messages to appropriate handlers.
func (s *Server) handleMessage(conn *hub.Connection, data []byte) {
	var base protocol.BaseMessage
	if err := json.Unmarshal(data, &base); err != nil {
		s.sendError(conn, protocol.ErrorCodeInvalidMessage, "invalid JSON message")
		return
	}

	if base.Type == protocol.TypeHello {
		s.handleHello(conn, data)
		return
	}

	r := s.roomOf(conn)
	if r == nil {
		s.sendError(conn, protocol.ErrorCodeSessionRequired, "must send hello first")
		return
	}

	switch base.Type {
	case protocol.TypeSubmit:
		s.handleSubmit(conn, r, data)
	case protocol.TypeNewSession:
		s.handleNewSession(r)
	case protocol.TypeShowTrace:
		s.handleShowTrace(conn, r, false)
	case protocol.TypeRefreshTrace:
		s.handleShowTrace(conn, r, true)
	case protocol.TypeShowChat:
		r.panel.Deactivate()
		s.sendJSON(conn, transcriptMessage(r.id, r.chat.Snapshot()))
	default:
		s.sendError(conn, protocol.ErrorCodeInvalidMessage, "unknown message type: "+base.Type)
	}
}

// handleHello binds the connection to an existing room or opens a new one.
func (s *Server) handleHello(conn *hub.Connection, data []byte) {
	var msg protocol.HelloMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(conn, protocol.ErrorCodeInvalidMessage, "invalid hello message")
		return
	}

	r, err := s.openRoom(msg.SessionID, msg.AgentID)
	if err != nil {
		code := protocol.ErrorCodeInvalidMessage
		if errors.Is(err, errAgentMismatch) {
			code = protocol.ErrorCodeAgentMismatch
		}
		s.sendError(conn, code, err.Error())
		return
	}

	s.hub.BindSession(conn, r.id)

	s.sendJSON(conn, protocol.HelloAckMessage{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeHelloAck,
			Ts:        time.Now().UnixMilli(),
			SessionID: r.id,
		},
		AgentID: r.chat.AgentID(),
	})
	s.sendJSON(conn, transcriptMessage(r.id, r.chat.Snapshot()))

	log.Printf("INFO: hello handshake completed: room=%s agent=%s", r.id, r.chat.AgentID())
}

var errAgentMismatch = errors.New("session belongs to another agent")

func (s *Server) openRoom(id, agentID string) (*room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.rooms[id]; ok && id != "" {
		if agentID != "" && agentID != r.chat.AgentID() {
			return nil, errAgentMismatch
		}
		return r, nil
	}
	if agentID == "" {
		return nil, errors.New("agent_id is required")
	}
	if id == "" {
		id = "room_" + uuid.New().String()[:8]
	}

	r := &room{
		id:    id,
		panel: trace.NewPanel(s.traces, agentID),
	}
	r.chat = chat.NewSession(agentID, s.invoker, chat.WithListener(func(snap chat.Snapshot) {
		if err := s.hub.BroadcastJSON(r.id, transcriptMessage(r.id, snap)); err != nil {
			log.Printf("ERROR: failed to broadcast transcript: %v", err)
		}
	}))
	s.rooms[id] = r
	return r, nil
}

func (s *Server) roomOf(conn *hub.Connection) *room {
	id := s.hub.SessionOf(conn)
	if id == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rooms[id]
}

// handleSubmit streams one turn. The stream is not tied to the connection:
// other connections of the room keep receiving it if this one drops.
func (s *Server) handleSubmit(conn *hub.Connection, r *room, data []byte) {
	var msg protocol.SubmitMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(conn, protocol.ErrorCodeInvalidMessage, "invalid submit message")
		return
	}
	if r.chat.Snapshot().InFlight() {
		s.sendError(conn, protocol.ErrorCodeStreamBusy, chat.ErrStreamInProgress.Error())
		return
	}

	go func() {
		err := r.chat.Submit(context.Background(), msg.Input)
		switch {
		case errors.Is(err, chat.ErrStreamInProgress):
			s.sendError(conn, protocol.ErrorCodeStreamBusy, err.Error())
		case errors.Is(err, context.Canceled):
		case err != nil:
			log.Printf("WARN: agent stream for room %s closed with error: %v", r.id, err)
		}
	}()
}

func (s *Server) handleNewSession(r *room) {
	id := r.chat.NewSession()
	s.hub.BroadcastJSON(r.id, protocol.SessionCreatedMessage{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeSessionCreated,
			Ts:        time.Now().UnixMilli(),
			SessionID: r.id,
		},
		ChatSessionID: id,
	})
}

func (s *Server) handleShowTrace(conn *hub.Connection, r *room, refresh bool) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		var entries []trace.Entry
		var err error
		if refresh {
			entries, err = r.panel.Refresh(ctx)
		} else {
			entries, err = r.panel.Activate(ctx)
		}
		if err != nil {
			log.Printf("ERROR: failed to load trace for %s: %v", r.chat.AgentID(), err)
			s.sendError(conn, protocol.ErrorCodeTraceFail, err.Error())
			return
		}
		s.hub.BroadcastJSON(r.id, protocol.TraceMessage{
			BaseMessage: protocol.BaseMessage{
				Type:      protocol.TypeTrace,
				Ts:        time.Now().UnixMilli(),
				SessionID: r.id,
			},
			Entries: entries,
		})
	}()
}

func transcriptMessage(roomID string, snap chat.Snapshot) protocol.TranscriptMessage {
	return protocol.TranscriptMessage{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeTranscript,
			Ts:        time.Now().UnixMilli(),
			SessionID: roomID,
		},
		ChatSessionID: snap.SessionID,
		State:         snap.State,
		ElapsedMs:     snap.ElapsedMs,
		Messages:      snap.Display(),
	}
}

func (s *Server) sendJSON(conn *hub.Connection, v interface{}) {
	if err := s.hub.SendJSONToConnection(conn, v); err != nil {
		log.Printf("WARN: failed to send to connection %s: %v", conn.ID, err)
	}
}

// sendError sends an error message to a connection.
func (s *Server) sendError(conn *hub.Connection, code, message string) {
	s.sendJSON(conn, protocol.ErrorMessage{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeError,
			Ts:        time.Now().UnixMilli(),
			SessionID: s.hub.SessionOf(conn),
		},
		Code:    code,
		Message: message,
	})
}
