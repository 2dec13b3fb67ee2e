package domain

// Message is a single transcript entry.
type Message struct {
	Type    MessageType `json:"type"`
	Message string      `json:"message"`
}

// CursorGlyph marks the insertion point of an in-flight AI message.
const CursorGlyph = "▍"
