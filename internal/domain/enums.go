// Package domain defines the core domain models for agentdesk.
package domain

// MessageType identifies the author of a transcript entry.
type MessageType string

const (
	MessageTypeHuman MessageType = "human"
	MessageTypeAI    MessageType = "ai"
)

// StreamState is the lifecycle of a single chat submission.
type StreamState string

const (
	StreamStateIdle               StreamState = "idle"
	StreamStateAwaitingFirstToken StreamState = "awaiting_first_token"
	StreamStateStreaming          StreamState = "streaming"
	StreamStateClosed             StreamState = "closed"
)

// RunType values reported by the trace API.
const (
	RunTypeLLM       = "llm"
	RunTypeTool      = "tool"
	RunTypeChain     = "chain"
	RunTypeRetriever = "retriever"
	RunTypeAgent     = "agent"
)
