package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xiaot623/agentdesk/internal/adapter/agentclient"
	"github.com/xiaot623/agentdesk/internal/domain"
)

// ErrStreamInProgress is returned by Submit while another submission of the
// same session is still streaming.
var ErrStreamInProgress = errors.New("a response is still streaming")

// Invoker opens an agent invocation stream.
type Invoker interface {
	Invoke(ctx context.Context, agentID string, req *domain.AgentInvokeRequest, handler agentclient.EventHandler) error
}

// Snapshot is an immutable view of a chat session.
type Snapshot struct {
	SessionID string             `json:"session_id"`
	State     domain.StreamState `json:"state"`
	Elapsed   time.Duration      `json:"-"`
	ElapsedMs int64              `json:"elapsed_ms"`
	Messages  Transcript         `json:"messages"`
}

// InFlight reports whether a request is open.
func (s Snapshot) InFlight() bool {
	return s.State == domain.StreamStateAwaitingFirstToken || s.State == domain.StreamStateStreaming
}

// Display returns the transcript as shown to the user: while a request is
// open the last AI message ends with the cursor glyph.
func (s Snapshot) Display() Transcript {
	if !s.InFlight() {
		return s.Messages
	}
	text, _ := s.Messages.LastAI()
	return s.Messages.ReplaceLastAI(text + domain.CursorGlyph)
}

// Listener receives snapshots in the order they were taken. It must not
// call Submit or NewSession.
type Listener func(Snapshot)

// Option configures a Session.
type Option func(*Session)

// WithTickResolution overrides the timer resolution.
func WithTickResolution(d time.Duration) Option {
	return func(s *Session) { s.tick = d }
}

// WithListener registers the snapshot listener.
func WithListener(l Listener) Option {
	return func(s *Session) { s.listener = l }
}

// WithSessionID starts with an existing session id.
func WithSessionID(id string) Option {
	return func(s *Session) { s.sessionID = id }
}

// Session owns the transcript, stream state and timer of one chat.
type Session struct {
	agentID  string
	invoker  Invoker
	tick     time.Duration
	listener Listener
	newID    func() string

	// emitMu orders snapshot delivery.
	emitMu sync.Mutex

	mu         sync.Mutex
	sessionID  string
	messages   Transcript
	state      domain.StreamState
	timer      *Timer
	cancel     context.CancelFunc
	generation uint64
}

// NewSession creates an idle chat bound to agentID. The session id stays
// empty until NewSession is called, unless WithSessionID is given.
func NewSession(agentID string, invoker Invoker, opts ...Option) *Session {
	s := &Session{
		agentID: agentID,
		invoker: invoker,
		tick:    TickResolution,
		state:   domain.StreamStateIdle,
		newID:   func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AgentID returns the agent this chat talks to.
func (s *Session) AgentID() string {
	return s.agentID
}

// Snapshot returns the current view.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	elapsed := s.timer.Elapsed()
	return Snapshot{
		SessionID: s.sessionID,
		State:     s.state,
		Elapsed:   elapsed,
		ElapsedMs: elapsed.Milliseconds(),
		Messages:  s.messages,
	}
}

// NewSession starts a fresh session: any open stream is cancelled, the
// transcript is cleared and a new session id is assigned.
func (s *Session) NewSession() string {
	s.mu.Lock()
	s.generation++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	timer := s.timer
	s.timer = nil
	s.sessionID = s.newID()
	s.messages = nil
	s.state = domain.StreamStateIdle
	id := s.sessionID
	s.mu.Unlock()

	timer.Stop()
	s.publish()
	return id
}

// Submit appends the human turn and an AI placeholder, then streams the
// agent's answer into the placeholder. It blocks until the stream closes
// and returns the stream error, if any. The timer is stopped and reset on
// every exit path.
func (s *Session) Submit(ctx context.Context, input string) error {
	s.mu.Lock()
	if s.state == domain.StreamStateAwaitingFirstToken || s.state == domain.StreamStateStreaming {
		s.mu.Unlock()
		return ErrStreamInProgress
	}
	gen := s.generation
	streamCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.messages = s.messages.AppendTurn(input)
	s.state = domain.StreamStateAwaitingFirstToken
	var sessionID *string
	if s.sessionID != "" {
		id := s.sessionID
		sessionID = &id
	}
	timer := StartTimer(s.tick, func(time.Duration) { s.publish() })
	s.timer = timer
	s.mu.Unlock()

	defer s.finish(gen, timer, cancel)
	s.publish()

	req := &domain.AgentInvokeRequest{
		Input:           input,
		EnableStreaming: true,
		SessionID:       sessionID,
	}

	var buf strings.Builder
	return s.invoker.Invoke(streamCtx, s.agentID, req, func(event agentclient.SSEEvent) error {
		if IsEndOfStream(event.Data) {
			return nil
		}
		buf.WriteString(NormalizeChunk(event.Data))
		s.apply(gen, buf.String())
		return nil
	})
}

func (s *Session) apply(gen uint64, text string) {
	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return
	}
	s.messages = s.messages.ReplaceLastAI(text)
	s.state = domain.StreamStateStreaming
	s.mu.Unlock()
	s.publish()
}

// finish is the single release path of a submission.
func (s *Session) finish(gen uint64, timer *Timer, cancel context.CancelFunc) {
	timer.Stop()
	cancel()

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.cancel = nil
	s.state = domain.StreamStateClosed
	s.mu.Unlock()
	s.publish()
}

func (s *Session) publish() {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	if s.listener == nil {
		return
	}
	s.listener(s.Snapshot())
}
