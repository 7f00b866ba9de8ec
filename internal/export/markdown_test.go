package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/iksnae/persona-chat/internal"
)

func TestMarkdownExporter_Export(t *testing.T) {
	tests := []struct {
		name       string
		transcript *internal.Transcript
		want       []string
		notWant    []string
	}{
		{
			name:       "basic transcript",
			transcript: internal.CreateTestTranscript("test1"),
			want: []string{
				"# Conversation test1",
				"**Persona:** Teaching Expert",
				"**Model:** Large",
				"**Messages:** 2",
				"**You:**",
				"Hello, how are you?",
				"**Teaching Expert:**",
			},
		},
		{
			name: "message with timestamp",
			transcript: internal.CreateTestTranscriptWithMessages("test2", []internal.Message{
				{Role: internal.RoleUser, Content: "Hello", Timestamp: "2023-01-01T00:00:00Z"},
			}),
			want: []string{"**You:** (2023-01-01T00:00:00Z)"},
		},
		{
			name: "labels fall back to ids",
			transcript: &internal.Transcript{
				ID:       "test3",
				Persona:  "jarvis",
				Model:    "small",
				Messages: []internal.Message{{Role: internal.RoleAssistant, Content: "At your service."}},
			},
			want:    []string{"**Persona:** jarvis", "**Model:** small", "**Assistant:**"},
			notWant: []string{"**Exported:**"},
		},
		{
			name:       "empty transcript",
			transcript: internal.CreateTestTranscriptWithMessages("test4", []internal.Message{}),
			want:       []string{"# Conversation test4", "**Messages:** 0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			exporter := &MarkdownExporter{}

			if err := exporter.Export(tt.transcript, &buf); err != nil {
				t.Fatalf("MarkdownExporter.Export() error = %v", err)
			}

			output := buf.String()
			for _, wantStr := range tt.want {
				if !strings.Contains(output, wantStr) {
					t.Errorf("Output should contain %q, got:\n%s", wantStr, output)
				}
			}
			for _, notWantStr := range tt.notWant {
				if strings.Contains(output, notWantStr) {
					t.Errorf("Output should not contain %q, got:\n%s", notWantStr, output)
				}
			}
		})
	}
}

func TestMarkdownExporter_Extension(t *testing.T) {
	exporter := &MarkdownExporter{}
	if got := exporter.Extension(); got != "md" {
		t.Errorf("MarkdownExporter.Extension() = %v, want md", got)
	}
}

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		notWant []string
	}{
		{
			name:  "basic text",
			input: "Hello world",
			want:  []string{"Hello world"},
		},
		{
			name:    "markdown bold",
			input:   "This is **bold** text",
			want:    []string{"\\*\\*bold\\*\\*"},
			notWant: []string{"**bold**"},
		},
		{
			name:    "markdown underline",
			input:   "This is __underlined__ text",
			want:    []string{"\\_\\_underlined\\_\\_"},
			notWant: []string{"__underlined__"},
		},
		{
			name:  "code block preserved",
			input: "```go\npackage main\n```",
			want:  []string{"```go", "package main", "```"},
		},
		{
			name:    "mixed content",
			input:   "Regular text **bold** and ```code```",
			want:    []string{"\\*\\*bold\\*\\*", "```code```"},
			notWant: []string{"**bold**"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := escapeMarkdown(tt.input)
			for _, wantStr := range tt.want {
				if !strings.Contains(got, wantStr) {
					t.Errorf("escapeMarkdown() should contain %q, got: %s", wantStr, got)
				}
			}
			for _, notWantStr := range tt.notWant {
				if strings.Contains(got, notWantStr) {
					t.Errorf("escapeMarkdown() should not contain %q, got: %s", notWantStr, got)
				}
			}
		})
	}
}
