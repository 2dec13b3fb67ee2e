// Package chat assembles the chat transcript from an agent's event stream.
package chat

import "github.com/xiaot623/agentdesk/internal/domain"

// Transcript is an ordered list of turns. Every update returns a new
// slice; a Transcript handed out is never mutated afterwards.
type Transcript []domain.Message

// AppendTurn returns t followed by the human input and an empty AI
// placeholder that becomes the streaming target.
func (t Transcript) AppendTurn(input string) Transcript {
	next := make(Transcript, len(t), len(t)+2)
	copy(next, t)
	return append(next,
		domain.Message{Type: domain.MessageTypeHuman, Message: input},
		domain.Message{Type: domain.MessageTypeAI, Message: ""},
	)
}

// ReplaceLastAI returns a copy of t whose most recent AI entry carries text.
// Earlier entries are untouched. Without an AI entry the copy is unchanged.
func (t Transcript) ReplaceLastAI(text string) Transcript {
	next := make(Transcript, len(t))
	copy(next, t)
	for i := len(next) - 1; i >= 0; i-- {
		if next[i].Type == domain.MessageTypeAI {
			next[i].Message = text
			break
		}
	}
	return next
}

// LastAI returns the most recent AI message text.
func (t Transcript) LastAI() (string, bool) {
	for i := len(t) - 1; i >= 0; i-- {
		if t[i].Type == domain.MessageTypeAI {
			return t[i].Message, true
		}
	}
	return "", false
}

// NormalizeChunk maps an empty stream payload to a newline.
func NormalizeChunk(data string) string {
	if data == "" {
		return "\n"
	}
	return data
}

// IsEndOfStream reports whether data is the end-of-stream marker.
func IsEndOfStream(data string) bool {
	return data == domain.EndOfStream
}
