package internal

import "time"

// Transcript is a read-only export of a conversation
type Transcript struct {
	ID           string    `json:"id" yaml:"id"`
	Persona      string    `json:"persona" yaml:"persona"`
	PersonaLabel string    `json:"persona_label,omitempty" yaml:"persona_label,omitempty"`
	Model        string    `json:"model" yaml:"model"`
	ModelLabel   string    `json:"model_label,omitempty" yaml:"model_label,omitempty"`
	ExportedAt   string    `json:"exported_at,omitempty" yaml:"exported_at,omitempty"`
	Messages     []Message `json:"messages" yaml:"messages"`
}

// Transcript snapshots the committed history under the given id
func (s *ConversationSession) Transcript(id string) *Transcript {
	persona := s.Persona()
	model := s.Model()
	return &Transcript{
		ID:           id,
		Persona:      persona.ID,
		PersonaLabel: persona.Label,
		Model:        model.ID,
		ModelLabel:   model.Label,
		ExportedAt:   s.now().UTC().Format(time.RFC3339),
		Messages:     s.History(),
	}
}
