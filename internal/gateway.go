package internal

import (
	"context"
	"iter"
)

// EventKind distinguishes the events of a completion stream
type EventKind int

const (
	EventFragment EventKind = iota
	EventDone
	EventFailed
)

func (k EventKind) String() string {
	switch k {
	case EventFragment:
		return "fragment"
	case EventDone:
		return "done"
	case EventFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event is one item of a completion stream
type Event struct {
	Kind EventKind
	Text string // fragment text
	Err  error  // failure cause
}

// Fragment returns a content event
func Fragment(text string) Event {
	return Event{Kind: EventFragment, Text: text}
}

// Done returns the successful terminal event
func Done() Event {
	return Event{Kind: EventDone}
}

// Failed returns the failing terminal event
func Failed(err error) Event {
	return Event{Kind: EventFailed, Err: err}
}

// CompletionRequest is what a session sends to the completion service
type CompletionRequest struct {
	Messages    []Message
	Model       string
	MaxTokens   int
	Temperature *float64
}

// Gateway streams completions from a remote service.
// The sequence is lazy and ordered; it ends with exactly one Done or Failed event.
// Implementations report context cancellation as a Failed event.
type Gateway interface {
	Stream(ctx context.Context, req CompletionRequest) iter.Seq[Event]
}

// GatewayFunc adapts a function to the Gateway interface
type GatewayFunc func(ctx context.Context, req CompletionRequest) iter.Seq[Event]

func (f GatewayFunc) Stream(ctx context.Context, req CompletionRequest) iter.Seq[Event] {
	return f(ctx, req)
}
