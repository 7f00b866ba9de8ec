package internal

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// PlaceholderReply is committed as the assistant message of a failed turn
const PlaceholderReply = "Sorry, I encountered an error. Please try again."

// ConversationSession is one user's chat: the selected persona and model,
// the committed history and the turn currently in flight, if any.
//
// History never contains system messages. Changing persona or model clears it.
// Only one turn may be in flight; its partial reply is kept outside history
// until the stream ends.
type ConversationSession struct {
	mu sync.Mutex

	catalog *Catalog
	gateway Gateway

	personaID    string
	modelID      string
	customPrompt string

	history    []Message
	state      State
	pending    *strings.Builder
	cancelTurn context.CancelFunc

	headroom    int
	temperature *float64
	now         func() time.Time
	observer    func(from, to State)
}

// SessionOption configures a new session
type SessionOption func(*ConversationSession)

// WithPersona selects the initial persona instead of the catalog default
func WithPersona(id string) SessionOption {
	return func(s *ConversationSession) { s.personaID = id }
}

// WithModel selects the initial model instead of the catalog default
func WithModel(id string) SessionOption {
	return func(s *ConversationSession) { s.modelID = id }
}

// WithTokenHeadroom reserves tokens below the model maximum when sizing replies
func WithTokenHeadroom(tokens int) SessionOption {
	return func(s *ConversationSession) { s.headroom = tokens }
}

// WithTemperature passes a sampling temperature through to the gateway
func WithTemperature(t float64) SessionOption {
	return func(s *ConversationSession) { s.temperature = &t }
}

// WithClock overrides the time source used for message timestamps
func WithClock(now func() time.Time) SessionOption {
	return func(s *ConversationSession) { s.now = now }
}

// WithStateObserver registers fn to be called on every state transition.
// fn runs with the session locked and must not call back into the session.
func WithStateObserver(fn func(from, to State)) SessionOption {
	return func(s *ConversationSession) { s.observer = fn }
}

// NewConversationSession creates an idle session with empty history
func NewConversationSession(catalog *Catalog, gateway Gateway, opts ...SessionOption) (*ConversationSession, error) {
	s := &ConversationSession{
		catalog:   catalog,
		gateway:   gateway,
		personaID: catalog.Personas.Default().ID,
		modelID:   catalog.Models.Default().ID,
		state:     StateIdle,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if _, ok := catalog.Personas.Lookup(s.personaID); !ok {
		return nil, &IdentifierError{Kind: "persona", ID: s.personaID}
	}
	if _, ok := catalog.Models.Lookup(s.modelID); !ok {
		return nil, &IdentifierError{Kind: "model", ID: s.modelID}
	}
	if s.headroom < 0 {
		s.headroom = 0
	}
	return s, nil
}

// SetPersona selects a persona. Switching to a different persona clears history;
// selecting the current one is a no-op.
func (s *ConversationSession) SetPersona(id string) error {
	if _, ok := s.catalog.Personas.Lookup(id); !ok {
		return &IdentifierError{Kind: "persona", ID: id}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if id == s.personaID {
		return nil
	}
	if s.state.InFlight() {
		return ErrTurnInProgress
	}
	logger.Debug("persona changed", "from", s.personaID, "to", id, "cleared", len(s.history))
	s.personaID = id
	s.history = nil
	return nil
}

// SetModel selects a model. Switching to a different model clears history;
// selecting the current one is a no-op.
func (s *ConversationSession) SetModel(id string) error {
	if _, ok := s.catalog.Models.Lookup(id); !ok {
		return &IdentifierError{Kind: "model", ID: id}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if id == s.modelID {
		return nil
	}
	if s.state.InFlight() {
		return ErrTurnInProgress
	}
	logger.Debug("model changed", "from", s.modelID, "to", id, "cleared", len(s.history))
	s.modelID = id
	s.history = nil
	return nil
}

// SetCustomPersonaPrompt replaces the prompt used by custom personas. History is kept.
func (s *ConversationSession) SetCustomPersonaPrompt(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customPrompt = text
}

// ClearHistory drops all committed messages
func (s *ConversationSession) ClearHistory() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.InFlight() {
		return ErrTurnInProgress
	}
	s.history = nil
	return nil
}

// TurnOption configures a single Submit call
type TurnOption func(*turnConfig)

type turnConfig struct {
	onFragment func(string)
}

// OnFragment calls fn with each fragment as it is applied to the pending reply
func OnFragment(fn func(text string)) TurnOption {
	return func(c *turnConfig) { c.onFragment = fn }
}

// Submit runs one turn: it appends the user message, streams the reply from the
// gateway and commits it. It returns the committed assistant message.
//
// On gateway failure the placeholder reply is committed, the session returns to
// idle and the *GatewayError is returned alongside the placeholder message.
func (s *ConversationSession) Submit(ctx context.Context, text string, opts ...TurnOption) (Message, error) {
	if strings.TrimSpace(text) == "" {
		return Message{}, ErrBlankInput
	}
	var cfg turnConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return Message{}, ErrTurnInProgress
	}
	s.history = append(s.history, s.messageLocked(RoleUser, text))
	s.setStateLocked(StateAwaitingResponse)
	req := s.buildRequestLocked()
	turnCtx, cancel := context.WithCancel(ctx)
	s.cancelTurn = cancel
	personaID := s.personaID
	s.mu.Unlock()
	defer cancel()

	logger.Debug("turn started", "persona", personaID, "model", req.Model, "messages", len(req.Messages), "max_tokens", req.MaxTokens)

	if failure := s.consume(turnCtx, req, cfg.onFragment); failure != nil {
		return s.fail(failure), failure
	}
	return s.commit(), nil
}

// consume applies gateway events in order until a terminal event arrives
func (s *ConversationSession) consume(ctx context.Context, req CompletionRequest, onFragment func(string)) *GatewayError {
	for ev := range s.gateway.Stream(ctx, req) {
		switch ev.Kind {
		case EventFragment:
			s.appendFragment(ev.Text)
			if onFragment != nil {
				onFragment(ev.Text)
			}
		case EventDone:
			return nil
		case EventFailed:
			return asGatewayError(ev.Err)
		}
	}

	if err := ctx.Err(); err != nil {
		return &GatewayError{Kind: FailureCanceled, Err: err}
	}
	return &GatewayError{Kind: FailureProtocol, Message: "stream ended without a terminal event"}
}

func asGatewayError(err error) *GatewayError {
	var gwErr *GatewayError
	switch {
	case errors.As(err, &gwErr):
		return gwErr
	case err == nil:
		return &GatewayError{Kind: FailureProtocol}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &GatewayError{Kind: FailureCanceled, Err: err}
	default:
		return &GatewayError{Kind: FailureNetwork, Err: err}
	}
}

func (s *ConversationSession) appendFragment(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		s.pending = &strings.Builder{}
		s.setStateLocked(StateStreamingResponse)
	}
	s.pending.WriteString(text)
}

func (s *ConversationSession) commit() Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	var content string
	if s.pending != nil {
		content = s.pending.String()
	}
	msg := s.messageLocked(RoleAssistant, content)
	s.history = append(s.history, msg)
	s.endTurnLocked()
	logger.Debug("turn completed", "chars", len(content), "history", len(s.history))
	return msg
}

func (s *ConversationSession) fail(err *GatewayError) Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = nil
	s.setStateLocked(StateErrored)
	msg := s.messageLocked(RoleAssistant, PlaceholderReply)
	s.history = append(s.history, msg)
	s.endTurnLocked()
	logger.Warn("turn failed", "kind", err.Kind, "status", err.Status, "reason", err.Reason())
	return msg
}

func (s *ConversationSession) endTurnLocked() {
	s.pending = nil
	s.cancelTurn = nil
	s.setStateLocked(StateIdle)
}

func (s *ConversationSession) setStateLocked(to State) {
	from := s.state
	s.state = to
	if s.observer != nil && from != to {
		s.observer(from, to)
	}
}

func (s *ConversationSession) messageLocked(role Role, content string) Message {
	return Message{Role: role, Content: content, Timestamp: s.now().UTC().Format(time.RFC3339)}
}

// Cancel aborts the turn in flight. The turn ends through the failure path.
// It reports whether a turn was canceled.
func (s *ConversationSession) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelTurn == nil {
		return false
	}
	s.cancelTurn()
	return true
}

// History returns a snapshot of the committed messages
func (s *ConversationSession) History() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := make([]Message, len(s.history))
	copy(history, s.history)
	return history
}

// PendingText returns the partial reply of the turn in flight
func (s *ConversationSession) PendingText() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return "", false
	}
	return s.pending.String(), true
}

func (s *ConversationSession) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Persona returns the selected persona
func (s *ConversationSession) Persona() PersonaDescriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, _ := s.catalog.Personas.Lookup(s.personaID)
	return p
}

// Model returns the selected model
func (s *ConversationSession) Model() ModelDescriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, _ := s.catalog.Models.Lookup(s.modelID)
	return m
}

func (s *ConversationSession) CustomPrompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.customPrompt
}

// ResponseLimit returns the response-size limit requests are sent with
func (s *ConversationSession) ResponseLimit() int {
	m := s.Model()
	return ResponseLimit(m.MaxContextTokens, s.headroom)
}

func (s *ConversationSession) Catalog() *Catalog {
	return s.catalog
}
