package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/iksnae/persona-chat/internal"
)

// JSONLExporter exports transcripts in JSONL format (one message per line)
type JSONLExporter struct{}

type jsonlLine struct {
	Role      internal.Role `json:"role"`
	Content   string        `json:"content"`
	Timestamp string        `json:"timestamp,omitempty"`
	Persona   string        `json:"persona"`
	Model     string        `json:"model"`
}

// Export writes one line per committed message
func (e *JSONLExporter) Export(transcript *internal.Transcript, w io.Writer) error {
	enc := json.NewEncoder(w)

	for _, msg := range transcript.Messages {
		line := jsonlLine{
			Role:      msg.Role,
			Content:   msg.Content,
			Timestamp: msg.Timestamp,
			Persona:   transcript.Persona,
			Model:     transcript.Model,
		}
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("failed to encode message: %w", err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
