package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/iksnae/persona-chat/internal"
)

func TestJSONExporter_Export(t *testing.T) {
	tests := []struct {
		name       string
		transcript *internal.Transcript
		wantErr    bool
	}{
		{
			name:       "basic transcript",
			transcript: internal.CreateTestTranscript("test1"),
			wantErr:    false,
		},
		{
			name:       "empty transcript",
			transcript: internal.CreateTestTranscriptWithMessages("test2", []internal.Message{}),
			wantErr:    false,
		},
		{
			name: "transcript with all fields",
			transcript: &internal.Transcript{
				ID:           "test3",
				Persona:      "jarvis",
				PersonaLabel: "Jarvis",
				Model:        "small",
				ModelLabel:   "Small",
				ExportedAt:   "2023-01-01T00:01:00Z",
				Messages: []internal.Message{
					{
						Role:      internal.RoleUser,
						Content:   "Hello",
						Timestamp: "2023-01-01T00:00:00Z",
					},
				},
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			exporter := &JSONExporter{}

			err := exporter.Export(tt.transcript, &buf)
			if (err != nil) != tt.wantErr {
				t.Errorf("JSONExporter.Export() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr {
				output := buf.String()
				var got internal.Transcript
				if err := json.Unmarshal([]byte(output), &got); err != nil {
					t.Errorf("Output is not valid JSON: %v\nOutput: %s", err, output)
					return
				}

				if got.ID != tt.transcript.ID || got.Persona != tt.transcript.Persona || got.Model != tt.transcript.Model {
					t.Errorf("decoded header = %q/%q/%q, want %q/%q/%q",
						got.ID, got.Persona, got.Model, tt.transcript.ID, tt.transcript.Persona, tt.transcript.Model)
				}
				if len(got.Messages) != len(tt.transcript.Messages) {
					t.Errorf("decoded %d messages, want %d", len(got.Messages), len(tt.transcript.Messages))
				}

				if !strings.Contains(output, "  ") {
					t.Errorf("Output should be pretty-printed with indentation")
				}
			}
		})
	}
}

func TestJSONExporter_Extension(t *testing.T) {
	exporter := &JSONExporter{}
	if got := exporter.Extension(); got != "json" {
		t.Errorf("JSONExporter.Extension() = %v, want json", got)
	}
}
