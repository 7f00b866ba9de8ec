package gateway

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/iksnae/persona-chat/internal"
)

// Echo is an offline gateway that streams back the last user message word by word
type Echo struct {
	// Delay between fragments
	Delay time.Duration
}

// NewEcho creates an offline gateway
func NewEcho(delay time.Duration) *Echo {
	internal.LogInfo("Using mock completion gateway")
	return &Echo{Delay: delay}
}

func (e *Echo) Stream(ctx context.Context, req internal.CompletionRequest) iter.Seq[internal.Event] {
	return func(yield func(internal.Event) bool) {
		reply := echoReply(req)
		words := strings.SplitAfter(reply, " ")

		for _, w := range words {
			if e.Delay > 0 {
				t := time.NewTimer(e.Delay)
				select {
				case <-ctx.Done():
					t.Stop()
					yield(internal.Failed(&internal.GatewayError{Kind: internal.FailureCanceled, Err: ctx.Err()}))
					return
				case <-t.C:
				}
			} else if err := ctx.Err(); err != nil {
				yield(internal.Failed(&internal.GatewayError{Kind: internal.FailureCanceled, Err: err}))
				return
			}
			if !yield(internal.Fragment(w)) {
				return
			}
		}
		yield(internal.Done())
	}
}

func echoReply(req internal.CompletionRequest) string {
	var last string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == internal.RoleUser {
			last = req.Messages[i].Content
			break
		}
	}
	return fmt.Sprintf("You said: %q (model %s, up to %d tokens)", last, req.Model, req.MaxTokens)
}
