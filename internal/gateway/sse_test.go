package gateway

import (
	"io"
	"strings"
	"testing"
)

func TestSSEReader_ReadEvent(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantTypes []string
		wantData  []string
	}{
		{
			name:     "single data line",
			input:    "data: hello\n\n",
			wantData: []string{"hello"},
		},
		{
			name:     "multiple events",
			input:    "data: one\n\ndata: two\n\n",
			wantData: []string{"one", "two"},
		},
		{
			name:      "event type",
			input:     "event: message\ndata: {}\n\n",
			wantTypes: []string{"message"},
			wantData:  []string{"{}"},
		},
		{
			name:     "multi-line data",
			input:    "data: a\ndata: b\n\n",
			wantData: []string{"a\nb"},
		},
		{
			name:     "comments and crlf",
			input:    ": keep-alive\r\n\r\ndata: x\r\n\r\n",
			wantData: []string{"x"},
		},
		{
			name:     "trailing event without blank line",
			input:    "data: tail",
			wantData: []string{"tail"},
		},
		{
			name:     "no leading space",
			input:    "data:[DONE]\n\n",
			wantData: []string{"[DONE]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewSSEReader(strings.NewReader(tt.input))
			var gotTypes, gotData []string
			for {
				typ, data, err := r.ReadEvent()
				if err == io.EOF {
					break
				}
				if err != nil {
					t.Fatalf("ReadEvent() error = %v", err)
				}
				if typ != "" {
					gotTypes = append(gotTypes, typ)
				}
				gotData = append(gotData, string(data))
			}
			if strings.Join(gotData, "|") != strings.Join(tt.wantData, "|") {
				t.Errorf("data = %q, want %q", gotData, tt.wantData)
			}
			if strings.Join(gotTypes, "|") != strings.Join(tt.wantTypes, "|") {
				t.Errorf("types = %q, want %q", gotTypes, tt.wantTypes)
			}
		})
	}
}

func TestSSEReader_OversizedEvent(t *testing.T) {
	input := "data: " + strings.Repeat("x", MaxEventSize+1) + "\n\n"
	r := NewSSEReader(strings.NewReader(input))
	if _, _, err := r.ReadEvent(); err == nil || err == io.EOF {
		t.Fatalf("ReadEvent() error = %v, want size error", err)
	}
}
