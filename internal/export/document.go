package export

import "github.com/iksnae/persona-chat/internal"

// document is the layout of the structured formats: the transcript plus turn counts
type document struct {
	internal.Transcript `yaml:",inline"`

	Turns       int `json:"turns" yaml:"turns"`
	FailedTurns int `json:"failed_turns,omitempty" yaml:"failed_turns,omitempty"`
}

func newDocument(transcript *internal.Transcript) document {
	doc := document{Transcript: *transcript}
	if doc.Messages == nil {
		doc.Messages = []internal.Message{}
	}
	for _, msg := range transcript.Messages {
		switch {
		case msg.Role == internal.RoleUser:
			doc.Turns++
		case msg.Role == internal.RoleAssistant && msg.Content == internal.PlaceholderReply:
			doc.FailedTurns++
		}
	}
	return doc
}
