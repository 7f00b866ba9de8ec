package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/persona-chat/internal"
)

// MarkdownExporter exports transcripts in Markdown format
type MarkdownExporter struct{}

// Export exports a transcript to Markdown format
func (e *MarkdownExporter) Export(transcript *internal.Transcript, w io.Writer) error {
	_, _ = fmt.Fprintf(w, "# Conversation %s\n\n", transcript.ID)

	_, _ = fmt.Fprintf(w, "**Persona:** %s  \n", labelOr(transcript.PersonaLabel, transcript.Persona))
	_, _ = fmt.Fprintf(w, "**Model:** %s  \n", labelOr(transcript.ModelLabel, transcript.Model))
	if transcript.ExportedAt != "" {
		_, _ = fmt.Fprintf(w, "**Exported:** %s  \n", transcript.ExportedAt)
	}
	_, _ = fmt.Fprintf(w, "**Messages:** %d\n\n", len(transcript.Messages))

	_, _ = fmt.Fprintf(w, "---\n\n")

	for i, msg := range transcript.Messages {
		timestamp := ""
		if msg.Timestamp != "" {
			timestamp = fmt.Sprintf(" (%s)", msg.Timestamp)
		}

		_, _ = fmt.Fprintf(w, "**%s:**%s\n\n%s\n\n", speaker(msg.Role, transcript), timestamp, escapeMarkdown(msg.Content))

		if i < len(transcript.Messages)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

func labelOr(label, id string) string {
	if label == "" {
		return id
	}
	return label
}

func speaker(role internal.Role, transcript *internal.Transcript) string {
	switch role {
	case internal.RoleUser:
		return "You"
	case internal.RoleAssistant:
		return labelOr(transcript.PersonaLabel, "Assistant")
	default:
		return string(role)
	}
}

// escapeMarkdown escapes emphasis markers outside fenced code blocks
func escapeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		} else if inCodeBlock {
			result = append(result, line)
		} else {
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
