package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

const defaultWrap = 80

// newMarkdownRenderer returns nil when glamour cannot initialize
func newMarkdownRenderer(width int) *glamour.TermRenderer {
	if width <= 0 || width > 120 {
		width = defaultWrap
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return r
}

// renderMarkdown returns content unchanged if rendering fails
func renderMarkdown(r *glamour.TermRenderer, content string) string {
	if r == nil {
		return content
	}
	rendered, err := r.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// terminalWidth returns the width of w if it is a terminal, else 0
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

// liveReply echoes fragments as they stream in. When a renderer is set the raw
// text is erased at the end and replaced by the rendered markdown.
type liveReply struct {
	out      io.Writer
	width    int
	renderer *glamour.TermRenderer
	text     strings.Builder
}

func newLiveReply(out io.Writer, renderer *glamour.TermRenderer) *liveReply {
	return &liveReply{out: out, width: terminalWidth(out), renderer: renderer}
}

func (l *liveReply) Fragment(text string) {
	l.text.WriteString(text)
	_, _ = io.WriteString(l.out, text)
}

// rows estimates how many terminal rows the raw text occupies
func (l *liveReply) rows() int {
	rows := 0
	for _, line := range strings.Split(l.text.String(), "\n") {
		w := lipgloss.Width(line)
		if l.width <= 0 || w <= l.width {
			rows++
			continue
		}
		rows += (w + l.width - 1) / l.width
	}
	return rows
}

// Finish ends the streamed reply. final replaces the streamed text when they differ,
// as with the placeholder of a failed turn.
func (l *liveReply) Finish(final string) {
	streamed := l.text.String()
	switch {
	case l.renderer != nil && l.width > 0:
		if streamed != "" {
			// cursor to start of the reply, clear to end of screen
			if up := l.rows() - 1; up > 0 {
				_, _ = fmt.Fprintf(l.out, "\x1b[%dA", up)
			}
			_, _ = io.WriteString(l.out, "\r\x1b[J")
		}
		_, _ = io.WriteString(l.out, renderMarkdown(l.renderer, final))
	case streamed != final:
		if streamed != "" {
			_, _ = fmt.Fprintln(l.out)
		}
		_, _ = fmt.Fprintln(l.out, final)
	default:
		_, _ = fmt.Fprintln(l.out)
	}
}
