package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iksnae/persona-chat/internal"
	"github.com/iksnae/persona-chat/internal/export"
)

// sessionView is the JSON snapshot of a session
type sessionView struct {
	ID            string             `json:"id"`
	Persona       string             `json:"persona"`
	Model         string             `json:"model"`
	State         internal.State     `json:"state"`
	ResponseLimit int                `json:"response_limit"`
	CustomPrompt  string             `json:"custom_prompt,omitempty"`
	History       []internal.Message `json:"history"`
	Pending       *string            `json:"pending,omitempty"`
}

func newSessionView(id string, s *internal.ConversationSession) sessionView {
	v := sessionView{
		ID:            id,
		Persona:       s.Persona().ID,
		Model:         s.Model().ID,
		State:         s.State(),
		ResponseLimit: s.ResponseLimit(),
		CustomPrompt:  s.CustomPrompt(),
		History:       s.History(),
	}
	if text, ok := s.PendingText(); ok {
		v.Pending = &text
	}
	return v
}

type createSessionRequest struct {
	Persona string `json:"persona"`
	Model   string `json:"model"`
}

type idRequest struct {
	ID string `json:"id"`
}

type customPromptRequest struct {
	Prompt string `json:"prompt"`
}

type turnRequest struct {
	Text string `json:"text"`
}

func (s *Server) listPersonas(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Personas.All())
}

func (s *Server) listModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Models.All())
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	opts := s.cfg.SessionOptions()
	if req.Persona != "" {
		opts = append(opts, internal.WithPersona(req.Persona))
	}
	if req.Model != "" {
		opts = append(opts, internal.WithModel(req.Model))
	}

	session, err := internal.NewConversationSession(s.catalog, s.gateway, opts...)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	id := s.registry.Add(session)
	internal.LogDebug("Created session %s", id)
	writeJSON(w, http.StatusCreated, newSessionView(id, session))
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, id string, session *internal.ConversationSession)

// withSession resolves {id} or answers 404
func (s *Server) withSession(fn sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		session, ok := s.registry.Get(id)
		if !ok {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		fn(w, r, id, session)
	}
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request, id string, session *internal.ConversationSession) {
	writeJSON(w, http.StatusOK, newSessionView(id, session))
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.registry.Delete(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setPersona(w http.ResponseWriter, r *http.Request, id string, session *internal.ConversationSession) {
	var req idRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := session.SetPersona(req.ID); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(id, session))
}

func (s *Server) setModel(w http.ResponseWriter, r *http.Request, id string, session *internal.ConversationSession) {
	var req idRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := session.SetModel(req.ID); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(id, session))
}

func (s *Server) setCustomPrompt(w http.ResponseWriter, r *http.Request, id string, session *internal.ConversationSession) {
	var req customPromptRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	session.SetCustomPersonaPrompt(req.Prompt)
	writeJSON(w, http.StatusOK, newSessionView(id, session))
}

func (s *Server) clearHistory(w http.ResponseWriter, r *http.Request, id string, session *internal.ConversationSession) {
	if err := session.ClearHistory(); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(id, session))
}

func (s *Server) exportSession(w http.ResponseWriter, r *http.Request, id string, session *internal.ConversationSession) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "md"
	}
	exporter, err := export.NewExporter(format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", contentTypes[exporter.Extension()])
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+"."+exporter.Extension()))
	w.WriteHeader(http.StatusOK)
	if err := exporter.Export(session.Transcript(id), w); err != nil {
		internal.LogWarn("Export of session %s failed: %v", id, err)
	}
}

var contentTypes = map[string]string{
	"json":  "application/json",
	"jsonl": "application/x-ndjson",
	"md":    "text/markdown; charset=utf-8",
	"yaml":  "application/yaml",
}

func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, internal.ErrBlankInput), errors.Is(err, internal.ErrUnknownIdentifier):
		return http.StatusBadRequest
	case errors.Is(err, internal.ErrTurnInProgress):
		return http.StatusConflict
	case errors.Is(err, internal.ErrGatewayFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeSessionError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		internal.LogWarn("Failed to encode response: %v", err)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		http.Error(w, `{"error":"failed to encode error response"}`, http.StatusInternalServerError)
	}
}
