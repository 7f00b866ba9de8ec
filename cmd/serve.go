package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iksnae/persona-chat/internal"
	"github.com/iksnae/persona-chat/internal/server"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve conversations over HTTP",
	Long: `Serve the session API over HTTP. Replies to POST /api/v1/sessions/{id}/turns
stream as Server-Sent Events. Idle sessions expire after server.session_ttl.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadRuntime()
		if err != nil {
			return err
		}
		if serveListen != "" {
			rt.cfg.Server.Listen = serveListen
		}

		announce(rt.cfg.Server.Listen, rt.client == nil)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return server.New(rt.cfg, rt.catalog, rt.gateway).ListenAndServe(ctx)
	},
}

func announce(listen string, mock bool) {
	if mock {
		internal.PrintWarning("Replies come from the offline echo gateway, not a model")
	}
	internal.PrintInfo(fmt.Sprintf("Session API at http://%s/api/v1 (Ctrl+C to stop)", listen))
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (default from config, 127.0.0.1:8080)")
}
