package cmd

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dropurl/dropurl/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the checks over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "Listen address")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	closer, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	deps := server.Deps{
		Engine:     a.engine,
		Fetcher:    a.client,
		Recorder:   a.recorder,
		Summarizer: a.summarizer,
		Logger:     slog.Default(),
	}
	if a.store != nil {
		deps.History = a.store
	}

	slog.Info("Starting server",
		"addr", cfg.Server.Addr,
		"storage", cfg.Storage.Driver,
		"summary_provider", cfg.Summary.Provider)

	return server.New(cfg.Server, deps).Run(ctx)
}
