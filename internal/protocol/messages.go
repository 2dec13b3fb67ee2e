// Package protocol defines the WebSocket messages exchanged between chat
// clients and the gateway.
package protocol

import (
	"github.com/xiaot623/agentdesk/internal/domain"
	"github.com/xiaot623/agentdesk/internal/trace"
)

// Message types from client to gateway
const (
	TypeHello        = "hello"
	TypeSubmit       = "submit"
	TypeNewSession   = "new_session"
	TypeShowTrace    = "show_trace"
	TypeShowChat     = "show_chat"
	TypeRefreshTrace = "refresh_trace"
)

// Message types from gateway to client
const (
	TypeHelloAck       = "hello_ack"
	TypeTranscript     = "transcript"
	TypeSessionCreated = "session_created"
	TypeTrace          = "trace"
	TypeError          = "error"
)

// BaseMessage contains common fields for all messages. SessionID is the
// gateway room a connection is bound to.
type BaseMessage struct {
	Type      string `json:"type"`
	Ts        int64  `json:"ts"`
	SessionID string `json:"session_id,omitempty"`
}

// HelloMessage binds a connection to a room. An empty SessionID opens a
// new room for AgentID.
type HelloMessage struct {
	BaseMessage
	AgentID string `json:"agent_id"`
}

// HelloAckMessage confirms the room binding.
type HelloAckMessage struct {
	BaseMessage
	AgentID string `json:"agent_id"`
}

// SubmitMessage sends one user turn.
type SubmitMessage struct {
	BaseMessage
	Input string `json:"input"`
}

// TranscriptMessage carries a chat snapshot. Messages are in display form:
// while a response is streaming the last AI message ends with the cursor.
type TranscriptMessage struct {
	BaseMessage
	ChatSessionID string             `json:"chat_session_id,omitempty"`
	State         domain.StreamState `json:"state"`
	ElapsedMs     int64              `json:"elapsed_ms"`
	Messages      []domain.Message   `json:"messages"`
}

// SessionCreatedMessage announces a fresh agent session id.
type SessionCreatedMessage struct {
	BaseMessage
	ChatSessionID string `json:"chat_session_id"`
}

// TraceMessage carries the trace view.
type TraceMessage struct {
	BaseMessage
	Entries []trace.Entry `json:"entries"`
}

// ErrorMessage is sent when a client message cannot be served.
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrorCodeInvalidMessage  = "invalid_message"
	ErrorCodeSessionRequired = "session_required"
	ErrorCodeAgentMismatch   = "agent_mismatch"
	ErrorCodeStreamBusy      = "stream_in_progress"
	ErrorCodeTraceFail       = "trace_fail"
)
