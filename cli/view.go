package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/xiaot623/agentdesk/internal/chat"
	"github.com/xiaot623/agentdesk/internal/domain"
	"github.com/xiaot623/agentdesk/internal/render"
	"github.com/xiaot623/agentdesk/internal/trace"
)

// Terminal control sequences. The elapsed time is drawn after the cursor
// between save and restore so the next chunk overwrites it.
const (
	clearLine     = "\r\x1b[K"
	clearToEOL    = "\x1b[K"
	saveCursor    = "\x1b7"
	restoreCursor = "\x1b8"
)

// chatView prints snapshots to a line-oriented terminal. The AI message is
// streamed as raw text and printed again as rendered markdown once the
// stream closes.
type chatView struct {
	out      io.Writer
	renderer *render.Renderer

	mu        sync.Mutex
	active    bool
	printed   int
	streaming bool
	elapsed   time.Duration
	inTrace   bool
}

func newChatView(out io.Writer, renderer *render.Renderer) *chatView {
	return &chatView{out: out, renderer: renderer}
}

// OnSnapshot is the chat.Listener of the view.
func (v *chatView) OnSnapshot(snap chat.Snapshot) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.inTrace {
		return
	}

	switch snap.State {
	case domain.StreamStateAwaitingFirstToken:
		v.active = true
		v.elapsed = snap.Elapsed
		fmt.Fprintf(v.out, "%sthinking %s", clearLine, render.Status(snap))

	case domain.StreamStateStreaming:
		v.active = true
		v.elapsed = snap.Elapsed
		text, _ := snap.Messages.LastAI()
		if !v.streaming {
			fmt.Fprint(v.out, clearLine)
			v.streaming = true
		}
		if len(text) > v.printed {
			fmt.Fprint(v.out, clearToEOL+text[v.printed:])
			v.printed = len(text)
		}
		fmt.Fprintf(v.out, "%s  %s%s", saveCursor, render.Status(snap), restoreCursor)

	case domain.StreamStateClosed:
		if !v.active {
			return
		}
		text, _ := snap.Messages.LastAI()
		if v.streaming {
			fmt.Fprintf(v.out, "%s\n", clearToEOL)
		} else {
			fmt.Fprintf(v.out, "%s\n", clearLine)
		}
		rendered, err := v.renderer.Markdown(text)
		if err != nil {
			rendered = text + "\n"
		}
		fmt.Fprintf(v.out, "%s(%.1fs)\n", rendered, v.elapsed.Seconds())
		v.reset()

	case domain.StreamStateIdle:
		v.reset()
	}
}

func (v *chatView) reset() {
	v.active = false
	v.printed = 0
	v.streaming = false
	v.elapsed = 0
}

// ShowTrace switches to the trace view and prints entries.
func (v *chatView) ShowTrace(entries []trace.Entry) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.inTrace = true
	fmt.Fprint(v.out, trace.Render(entries))
}

// ShowChat switches back and reprints the transcript.
func (v *chatView) ShowChat(snap chat.Snapshot) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.inTrace = false
	out, err := v.renderer.Transcript(snap)
	if err != nil {
		fmt.Fprintf(v.out, "render error: %v\n", err)
		return
	}
	fmt.Fprint(v.out, out)
}
