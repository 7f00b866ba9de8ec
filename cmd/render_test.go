package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestLiveReply(t *testing.T) {
	tests := []struct {
		name      string
		fragments []string
		final     string
		want      string
	}{
		{
			name:      "streamed text ends with newline",
			fragments: []string{"Hel", "lo"},
			final:     "Hello",
			want:      "Hello\n",
		},
		{
			name:      "placeholder replaces partial text",
			fragments: []string{"par"},
			final:     "Sorry",
			want:      "par\nSorry\n",
		},
		{
			name:  "empty stream shows final",
			final: "Sorry",
			want:  "Sorry\n",
		},
		{
			name: "empty reply",
			want: "\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			reply := newLiveReply(&buf, nil)
			for _, f := range tt.fragments {
				reply.Fragment(f)
			}
			reply.Finish(tt.final)
			if got := buf.String(); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLiveReply_Rows(t *testing.T) {
	reply := &liveReply{width: 10}
	reply.text.WriteString("short\n" + strings.Repeat("x", 25) + "\n")
	// "short", 25 chars over 3 rows, trailing empty line
	if got := reply.rows(); got != 5 {
		t.Errorf("rows() = %d, want 5", got)
	}
}

func TestRenderMarkdown_NilRenderer(t *testing.T) {
	if got := renderMarkdown(nil, "# Title"); got != "# Title" {
		t.Errorf("renderMarkdown(nil) = %q", got)
	}
}

func TestNewMarkdownRenderer(t *testing.T) {
	r := newMarkdownRenderer(0)
	if r == nil {
		t.Skip("glamour renderer unavailable")
	}
	if out := renderMarkdown(r, "**bold**"); !strings.Contains(out, "bold") {
		t.Errorf("rendered output lost text: %q", out)
	}
}
