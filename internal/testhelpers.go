package internal

import (
	"context"
	"iter"
	"sync"
	"time"
)

// CreateTestCatalog creates a small catalog for tests
func CreateTestCatalog() *Catalog {
	cat, err := NewCatalog("test",
		[]PersonaDescriptor{
			{ID: "teaching", Label: "Teaching Expert", SystemPrompt: "You are a master educator.", ResponseLengthHint: "verbose"},
			{ID: "jarvis", Label: "Jarvis", SystemPrompt: "You are J.A.R.V.I.S.", ResponseLengthHint: "concise"},
			{ID: "custom", Label: "Custom", SystemPrompt: "You are a helpful assistant.", Custom: true},
		},
		[]ModelDescriptor{
			{ID: "small", Label: "Small", MaxContextTokens: 8192, Provider: "Test"},
			{ID: "large", Label: "Large", MaxContextTokens: 131072, Provider: "Test"},
		},
		"teaching", "large")
	if err != nil {
		panic(err)
	}
	return cat
}

// CreateTestTranscript creates a transcript with sample data
func CreateTestTranscript(id string) *Transcript {
	return CreateTestTranscriptWithMessages(id, []Message{
		{
			Role:      RoleUser,
			Content:   "Hello, how are you?",
			Timestamp: time.Now().Format(time.RFC3339),
		},
		{
			Role:      RoleAssistant,
			Content:   "I'm doing well, thank you!",
			Timestamp: time.Now().Format(time.RFC3339),
		},
	})
}

// CreateTestTranscriptWithMessages creates a transcript with custom messages
func CreateTestTranscriptWithMessages(id string, messages []Message) *Transcript {
	return &Transcript{
		ID:           id,
		Persona:      "teaching",
		PersonaLabel: "Teaching Expert",
		Model:        "large",
		ModelLabel:   "Large",
		Messages:     messages,
	}
}

// ScriptedGateway replays a fixed list of events for every request
type ScriptedGateway struct {
	mu       sync.Mutex
	events   []Event
	requests []CompletionRequest

	holdAt  int
	reached chan struct{}
	release chan struct{}
	once    sync.Once
}

// NewScriptedGateway creates a gateway that streams events in order
func NewScriptedGateway(events ...Event) *ScriptedGateway {
	return &ScriptedGateway{events: events, holdAt: -1}
}

// PauseAt blocks streams before the event at index until Release is called.
// An index equal to the number of events pauses after the last event.
func (g *ScriptedGateway) PauseAt(index int) *ScriptedGateway {
	g.holdAt = index
	g.reached = make(chan struct{})
	g.release = make(chan struct{})
	return g
}

// Reached is closed once a stream arrives at the pause point
func (g *ScriptedGateway) Reached() <-chan struct{} {
	return g.reached
}

// Release lets paused streams continue
func (g *ScriptedGateway) Release() {
	close(g.release)
}

// Requests returns the requests received so far
func (g *ScriptedGateway) Requests() []CompletionRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]CompletionRequest(nil), g.requests...)
}

func (g *ScriptedGateway) Stream(ctx context.Context, req CompletionRequest) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		g.mu.Lock()
		g.requests = append(g.requests, req)
		g.mu.Unlock()

		for i := 0; i <= len(g.events); i++ {
			if i == g.holdAt {
				g.once.Do(func() { close(g.reached) })
				select {
				case <-g.release:
				case <-ctx.Done():
					yield(Failed(&GatewayError{Kind: FailureCanceled, Err: ctx.Err()}))
					return
				}
			}
			if i == len(g.events) {
				return
			}
			if !yield(g.events[i]) {
				return
			}
		}
	}
}
