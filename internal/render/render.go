// Package render turns chat transcripts into terminal text. AI messages are
// rendered as markdown; math is passed through as plain text.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/xiaot623/agentdesk/internal/chat"
	"github.com/xiaot623/agentdesk/internal/domain"
)

// BlinkingCursor is the cursor glyph wrapped in ANSI blink on/off.
const BlinkingCursor = "\x1b[5m" + domain.CursorGlyph + "\x1b[25m"

// cursorToken stands in for the cursor glyph while markdown is rendered so
// the renderer cannot split or restyle it.
const cursorToken = "AGENTDESKCURSORTOKEN"

// Renderer renders transcripts with glamour.
type Renderer struct {
	md *glamour.TermRenderer
}

// Option configures the glamour renderer.
type Option = glamour.TermRendererOption

// WithStyle selects a glamour standard style such as "dark" or "notty".
func WithStyle(style string) Option {
	return glamour.WithStandardStyle(style)
}

// New creates a renderer that wraps at width columns. Without options the
// style is detected from the terminal.
func New(width int, opts ...Option) (*Renderer, error) {
	base := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if len(opts) == 0 {
		base = append(base, glamour.WithAutoStyle())
	}
	md, err := glamour.NewTermRenderer(append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	return &Renderer{md: md}, nil
}

// Markdown renders one AI message. A trailing cursor glyph is kept and made
// to blink.
func (r *Renderer) Markdown(text string) (string, error) {
	hasCursor := strings.HasSuffix(text, domain.CursorGlyph)
	text = strings.TrimSuffix(text, domain.CursorGlyph)
	if strings.TrimSpace(text) == "" {
		if hasCursor {
			return BlinkingCursor + "\n", nil
		}
		return "", nil
	}
	if hasCursor {
		text += cursorToken
	}
	out, err := r.md.Render(text)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return strings.ReplaceAll(out, cursorToken, BlinkingCursor), nil
}

// Transcript renders the display form of a snapshot.
func (r *Renderer) Transcript(snap chat.Snapshot) (string, error) {
	var b strings.Builder
	for _, msg := range snap.Display() {
		switch msg.Type {
		case domain.MessageTypeHuman:
			fmt.Fprintf(&b, "\nyou › %s\n", msg.Message)
		case domain.MessageTypeAI:
			out, err := r.Markdown(msg.Message)
			if err != nil {
				return "", err
			}
			b.WriteString(out)
		}
	}
	return b.String(), nil
}

// Status formats the elapsed-time line shown while a request is open.
func Status(snap chat.Snapshot) string {
	if !snap.InFlight() {
		return ""
	}
	return fmt.Sprintf("%.1fs", snap.Elapsed.Seconds())
}
