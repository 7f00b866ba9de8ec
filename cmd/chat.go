package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/iksnae/persona-chat/internal"
	"github.com/iksnae/persona-chat/internal/export"
)

var (
	chatPersona   string
	chatModel     string
	chatMarkdown  bool
	chatExportDir string
)

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	assistantStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true)

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation",
	Long: `Start an interactive conversation with a persona.

Replies stream in as they are generated. Press Ctrl+C during a reply to cancel it,
or at the prompt to leave. Type /help for commands.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	session, err := rt.newSession(chatPersona, chatModel)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	repl := newChatREPL(session, out, rt.cfg.TokenHeadroom)
	repl.exportDir = chatExportDir
	if width := terminalWidth(out); chatMarkdown && width > 0 {
		repl.renderer = newMarkdownRenderer(width)
	}

	line := liner.NewLiner()
	defer func() { _ = line.Close() }()
	line.SetCtrlCAborts(true)
	historyFile := chatHistoryPath()
	loadLineHistory(line, historyFile)
	defer saveLineHistory(line, historyFile)

	// Ctrl+C outside the prompt cancels the reply in flight
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)
	go func() {
		for range sigCh {
			if session.Cancel() {
				internal.LogDebug("Reply canceled by interrupt")
			}
		}
	}()

	repl.banner()
	for {
		input, err := line.Prompt(repl.prompt())
		if err != nil {
			if !errors.Is(err, liner.ErrPromptAborted) && !errors.Is(err, io.EOF) {
				return err
			}
			_, _ = fmt.Fprintln(out)
			return nil
		}
		if strings.TrimSpace(input) != "" {
			line.AppendHistory(input)
		}

		cont, err := repl.handleLine(cmd.Context(), input)
		if err != nil {
			internal.PrintError(err.Error())
		}
		if !cont {
			return nil
		}
	}
}

func chatHistoryPath() string {
	path, err := internal.DefaultConfigPath()
	if err != nil {
		return filepath.Join(os.TempDir(), "persona-chat_history")
	}
	return filepath.Join(filepath.Dir(path), "chat_history")
}

func loadLineHistory(line *liner.State, path string) {
	if f, err := os.Open(path); err == nil {
		_, _ = line.ReadHistory(f)
		_ = f.Close()
	}
}

func saveLineHistory(line *liner.State, path string) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		internal.PrintWarning(fmt.Sprintf("Could not save input history: %v", err))
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		internal.PrintWarning(fmt.Sprintf("Could not save input history: %v", err))
		return
	}
	defer func() { _ = f.Close() }()
	_, _ = line.WriteHistory(f)
}

// chatREPL interprets one line of input at a time against a session
type chatREPL struct {
	session   *internal.ConversationSession
	out       io.Writer
	headroom  int
	renderer  *glamour.TermRenderer
	exportDir string
	id        string
}

func newChatREPL(session *internal.ConversationSession, out io.Writer, headroom int) *chatREPL {
	return &chatREPL{
		session:   session,
		out:       out,
		headroom:  headroom,
		exportDir: ".",
		id:        "chat-" + time.Now().Format("20060102-150405"),
	}
}

func (c *chatREPL) banner() {
	p, m := c.session.Persona(), c.session.Model()
	_, _ = fmt.Fprintln(c.out, headerStyle.Render("💬 persona-chat"))
	_, _ = fmt.Fprintf(c.out, "Persona: %s   Model: %s   Max tokens: %s\n",
		p.Label, m.DisplayName(), formatThousands(c.session.ResponseLimit()))
	_, _ = fmt.Fprintln(c.out, dimStyle.Render("Type /help for commands, /quit to leave."))
	_, _ = fmt.Fprintln(c.out)
}

func (c *chatREPL) prompt() string {
	return "you> "
}

// handleLine runs a slash command or submits the text. It reports whether the REPL should continue.
func (c *chatREPL) handleLine(ctx context.Context, input string) (bool, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return true, nil
	}
	if strings.HasPrefix(input, "/") {
		return c.command(input)
	}
	return true, c.submit(ctx, input)
}

func (c *chatREPL) submit(ctx context.Context, text string) error {
	_, _ = fmt.Fprint(c.out, assistantStyle.Render(c.session.Persona().Label+":")+" ")

	reply := newLiveReply(c.out, c.renderer)
	msg, err := c.session.Submit(ctx, text, internal.OnFragment(reply.Fragment))
	if err != nil && !errors.Is(err, internal.ErrGatewayFailure) {
		_, _ = fmt.Fprintln(c.out)
		return errors.New(internal.UserMessage(err))
	}

	reply.Finish(msg.Content)
	if err != nil {
		_, _ = fmt.Fprintln(c.out, noticeStyle.Render(internal.UserMessage(err)))
	}
	return nil
}

func (c *chatREPL) command(input string) (bool, error) {
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(name) {
	case "/quit", "/exit", "/q":
		return false, nil
	case "/help", "/?":
		c.help()
	case "/personas":
		displayPersonas(c.out, c.session.Catalog().Personas, c.session.Persona().ID)
	case "/models":
		displayModels(c.out, c.session.Catalog().Models, c.session.Model().ID, c.headroom)
	case "/persona":
		if arg == "" {
			displayPersonas(c.out, c.session.Catalog().Personas, c.session.Persona().ID)
			return true, nil
		}
		return true, c.switchTo("persona", arg, c.session.SetPersona)
	case "/model":
		if arg == "" {
			displayModels(c.out, c.session.Catalog().Models, c.session.Model().ID, c.headroom)
			return true, nil
		}
		return true, c.switchTo("model", arg, c.session.SetModel)
	case "/custom":
		c.custom(arg)
	case "/clear":
		if err := c.session.ClearHistory(); err != nil {
			return true, err
		}
		_, _ = fmt.Fprintln(c.out, dimStyle.Render("History cleared."))
	case "/history":
		c.history()
	case "/state":
		c.state()
	case "/export":
		return true, c.export(arg)
	default:
		return true, fmt.Errorf("unknown command %s (try /help)", name)
	}
	return true, nil
}

func (c *chatREPL) switchTo(kind, id string, set func(string) error) error {
	before := len(c.session.History())
	if err := set(id); err != nil {
		return err
	}
	after := len(c.session.History())

	label := c.session.Persona().Label
	if kind == "model" {
		label = c.session.Model().DisplayName()
	}
	msg := fmt.Sprintf("Now using %s %s.", kind, label)
	if before > 0 && after == 0 {
		msg += " Conversation cleared."
	}
	_, _ = fmt.Fprintln(c.out, dimStyle.Render(msg))
	return nil
}

func (c *chatREPL) custom(prompt string) {
	if prompt == "" {
		current := c.session.CustomPrompt()
		if current == "" {
			current = "(none)"
		}
		_, _ = fmt.Fprintf(c.out, "Custom prompt: %s\n", current)
		return
	}
	c.session.SetCustomPersonaPrompt(prompt)
	_, _ = fmt.Fprintln(c.out, dimStyle.Render("Custom prompt set."))
	if !c.session.Persona().Custom {
		_, _ = fmt.Fprintln(c.out, dimStyle.Render("It applies to the custom persona; switch with /persona custom."))
	}
}

func (c *chatREPL) history() {
	messages := c.session.History()
	if len(messages) == 0 {
		_, _ = fmt.Fprintln(c.out, dimStyle.Render("No messages yet."))
		return
	}
	label := c.session.Persona().Label
	for _, m := range messages {
		who := promptStyle.Render("you:")
		if m.Role == internal.RoleAssistant {
			who = assistantStyle.Render(label + ":")
		}
		_, _ = fmt.Fprintf(c.out, "%s %s\n", who, m.Content)
	}
}

func (c *chatREPL) state() {
	p, m := c.session.Persona(), c.session.Model()
	_, _ = fmt.Fprintf(c.out, "Persona:    %s (%s)\n", p.Label, p.ID)
	_, _ = fmt.Fprintf(c.out, "Model:      %s (%s)\n", m.DisplayName(), m.ID)
	_, _ = fmt.Fprintf(c.out, "Max tokens: %s\n", formatThousands(c.session.ResponseLimit()))
	_, _ = fmt.Fprintf(c.out, "Messages:   %d\n", len(c.session.History()))
	_, _ = fmt.Fprintf(c.out, "State:      %s\n", c.session.State())
}

func (c *chatREPL) export(arg string) error {
	format, file, _ := strings.Cut(arg, " ")
	if format == "" {
		format = "md"
	}
	exporter, err := export.NewExporter(format)
	if err != nil {
		return err
	}
	transcript := c.session.Transcript(c.id)

	file = strings.TrimSpace(file)
	if file == "" {
		path, err := export.WriteFile(exporter, transcript, c.exportDir)
		if err != nil {
			return err
		}
		file = path
	} else {
		f, err := os.Create(file)
		if err != nil {
			return &internal.ExportError{Format: format, Path: file, Err: err}
		}
		defer func() { _ = f.Close() }()
		if err := exporter.Export(transcript, f); err != nil {
			return &internal.ExportError{Format: format, Path: file, Err: err}
		}
	}
	_, _ = fmt.Fprintln(c.out, dimStyle.Render(fmt.Sprintf("Exported %d message(s) to %s", len(transcript.Messages), file)))
	return nil
}

func (c *chatREPL) help() {
	_, _ = fmt.Fprintln(c.out, `Commands:
  /persona [id]        switch persona (clears the conversation)
  /model [id]          switch model (clears the conversation)
  /personas, /models   list choices
  /custom [prompt]     set or show the custom persona prompt
  /clear               clear the conversation
  /history             show the conversation
  /state               show the current selection and limits
  /export [fmt] [file] export as md, json, jsonl or yaml
  /quit                leave`)
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVarP(&chatPersona, "persona", "p", "", "Persona id (default from config)")
	chatCmd.Flags().StringVarP(&chatModel, "model", "m", "", "Model id (default from config)")
	chatCmd.Flags().BoolVar(&chatMarkdown, "markdown", true, "Render replies as markdown when stdout is a terminal")
	chatCmd.Flags().StringVar(&chatExportDir, "export-dir", ".", "Directory for /export without a file name")
}
