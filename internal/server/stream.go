package server

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/iksnae/persona-chat/internal"
)

// turnFrame is the payload of one SSE frame on the turns endpoint
type turnFrame struct {
	Text    string            `json:"text,omitempty"`
	Message *internal.Message `json:"message,omitempty"`
	Error   string            `json:"error,omitempty"`
	Kind    string            `json:"kind,omitempty"`
}

// sseWriter opens the event stream on first use so request errors can still be answered with a status
type sseWriter struct {
	w       http.ResponseWriter
	bw      *bufio.Writer
	flusher http.Flusher
	started bool
	broken  bool
}

func (s *sseWriter) start() error {
	if s.started {
		return nil
	}
	flusher, ok := s.w.(http.Flusher)
	if !ok {
		return fmt.Errorf("response writer does not implement http.Flusher")
	}
	s.w.Header().Set("Content-Type", "text/event-stream")
	s.w.Header().Set("Cache-Control", "no-cache")
	s.w.Header().Set("Connection", "keep-alive")
	s.w.WriteHeader(http.StatusOK)
	s.flusher = flusher
	s.bw = bufio.NewWriter(s.w)
	s.started = true
	return nil
}

func (s *sseWriter) send(event string, frame turnFrame) {
	if s.broken {
		return
	}
	if err := s.start(); err != nil {
		s.broken = true
		internal.LogWarn("Cannot stream reply: %v", err)
		return
	}
	b, _ := json.Marshal(frame)
	if _, err := fmt.Fprintf(s.bw, "event: %s\ndata: %s\n\n", event, b); err != nil {
		s.broken = true
		return
	}
	_ = s.bw.Flush()
	s.flusher.Flush()
}

// submitTurn streams one turn. The turn is bound to the request context, so a
// disconnecting client cancels it.
func (s *Server) submitTurn(w http.ResponseWriter, r *http.Request, id string, session *internal.ConversationSession) {
	var req turnRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	stream := &sseWriter{w: w}
	msg, err := session.Submit(r.Context(), req.Text, internal.OnFragment(func(text string) {
		stream.send("fragment", turnFrame{Text: text})
	}))

	var gwErr *internal.GatewayError
	switch {
	case err == nil:
		stream.send("done", turnFrame{Message: &msg})
	case errors.As(err, &gwErr):
		stream.send("error", turnFrame{Message: &msg, Error: internal.UserMessage(err), Kind: string(gwErr.Kind)})
	case !stream.started:
		writeSessionError(w, err)
	default:
		stream.send("error", turnFrame{Error: err.Error()})
	}
}
