package internal

import "strings"

// ResponseLimit returns the response-size limit for a model.
// headroom tokens are reserved when that still leaves a positive limit.
func ResponseLimit(maxContextTokens, headroom int) int {
	if headroom > 0 && maxContextTokens-headroom > 0 {
		return maxContextTokens - headroom
	}
	return maxContextTokens
}

// BuildRequest assembles the request for the current configuration and history.
// The pending assistant message is never included.
func (s *ConversationSession) BuildRequest() CompletionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buildRequestLocked()
}

func (s *ConversationSession) buildRequestLocked() CompletionRequest {
	model, _ := s.catalog.Models.Lookup(s.modelID)

	messages := make([]Message, 0, len(s.history)+1)
	messages = append(messages, Message{Role: RoleSystem, Content: s.systemPromptLocked()})
	messages = append(messages, s.history...)

	req := CompletionRequest{
		Messages:  messages,
		Model:     model.ID,
		MaxTokens: ResponseLimit(model.MaxContextTokens, s.headroom),
	}
	if s.temperature != nil {
		t := *s.temperature
		req.Temperature = &t
	}
	return req
}

func (s *ConversationSession) systemPromptLocked() string {
	persona, _ := s.catalog.Personas.Lookup(s.personaID)
	if persona.Custom && strings.TrimSpace(s.customPrompt) != "" {
		return s.customPrompt
	}
	return persona.SystemPrompt
}
