package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iksnae/persona-chat/internal"
)

var (
	askPersona string
	askModel   string
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question and stream the reply",
	Long: `Ask one question and stream the reply to stdout without styling.

The question is taken from the arguments, or from stdin when none are given:
  persona-chat ask --persona philosopher "What is virtue?"
  echo "Summarize TCP in one line" | persona-chat ask`,
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")
		if question == "" {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("failed to read question: %w", err)
			}
			question = string(data)
		}

		rt, err := loadRuntime()
		if err != nil {
			return err
		}
		session, err := rt.newSession(askPersona, askModel)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		streamed := false
		msg, err := session.Submit(cmd.Context(), question, internal.OnFragment(func(text string) {
			streamed = true
			_, _ = io.WriteString(out, text)
		}))
		if err != nil {
			if streamed {
				_, _ = fmt.Fprintln(out)
			}
			if errors.Is(err, internal.ErrGatewayFailure) {
				return errors.New(internal.UserMessage(err))
			}
			return err
		}
		if !strings.HasSuffix(msg.Content, "\n") {
			_, _ = fmt.Fprintln(out)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askPersona, "persona", "p", "", "Persona id (default from config)")
	askCmd.Flags().StringVarP(&askModel, "model", "m", "", "Model id (default from config)")
}
