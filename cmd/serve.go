package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/okanon/oracle/api"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := setupApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	srv, err := api.NewServer(api.ServerConfig{
		Logger:     a.Logger,
		Assistant:  a.Assistant,
		History:    a.History,
		Pool:       a.DBPool,
		TrustProxy: a.Config.TrustProxy,
		RateBurst:  a.Config.RateBurst,
	})
	if err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = a.Config.ListenAddr
	}
	return srv.Run(ctx, addr)
}
