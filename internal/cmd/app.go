package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/dropurl/dropurl/internal/audit"
	"github.com/dropurl/dropurl/internal/config"
	"github.com/dropurl/dropurl/internal/engine"
	"github.com/dropurl/dropurl/internal/fetcher"
	"github.com/dropurl/dropurl/internal/notify"
	"github.com/dropurl/dropurl/internal/storage"
	"github.com/dropurl/dropurl/internal/summarizer"
)

// app holds the engine and its collaborators for one command run
type app struct {
	cfg        *config.Config
	client     *fetcher.HTTPClient
	engine     *engine.Engine
	store      *storage.SQLStore
	summarizer summarizer.Summarizer
	recorder   *audit.Recorder
	closers    []io.Closer
}

// newApp wires the engine. Storage and its dependents are only opened
// when withStorage is set and a driver is configured.
func newApp(ctx context.Context, cfg *config.Config, withStorage bool) (*app, error) {
	a := &app{cfg: cfg}

	a.client = fetcher.NewHTTPClient(fetcher.ClientOptions{
		UserAgent:            cfg.Fetch.UserAgent,
		Timeout:              cfg.Fetch.SingleTimeout,
		MaxBodyBytes:         cfg.Fetch.MaxBodyBytes,
		MaxRedirects:         cfg.Fetch.MaxRedirects,
		Headers:              cfg.HeaderMap(),
		BlockPrivateNetworks: cfg.Fetch.BlockPrivateNetworks,
	})
	a.engine = engine.New(a.client, engine.OptionsFromConfig(cfg))

	sum, err := summarizer.New(cfg.Summary, cfg.SummaryAPIKey())
	if err != nil {
		a.Close()
		return nil, err
	}
	a.summarizer = sum

	if !withStorage || cfg.Storage.Driver == "" || cfg.Storage.Driver == "none" {
		return a, nil
	}

	store, err := storage.Open(ctx, cfg.Storage.Driver, cfg.Storage.DSN)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	a.store = store
	a.closers = append(a.closers, store)

	notifier, err := a.notifier()
	if err != nil {
		a.Close()
		return nil, err
	}

	a.recorder = &audit.Recorder{
		Store:         store,
		Summarizer:    sum,
		Notifier:      notifier,
		NotifyTimeout: cfg.Notify.Timeout,
		Logger:        slog.Default(),
	}
	return a, nil
}

func (a *app) notifier() (notify.Notifier, error) {
	var multi notify.Multi
	if a.cfg.Notify.WebhookURL != "" {
		multi = append(multi, notify.NewWebhook(a.cfg.Notify.WebhookURL, a.store, a.cfg.Notify.Timeout))
	}
	if a.cfg.Notify.RedisURL != "" {
		pub, err := notify.NewRedisPublisher(a.cfg.Notify.RedisURL, a.cfg.Notify.RedisChannel)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pub)
		multi = append(multi, pub)
	}
	if len(multi) == 0 {
		return nil, nil
	}
	return multi, nil
}

// requireStore fails when the command needs storage that is disabled
func (a *app) requireStore() error {
	if a.store == nil {
		return errors.New("storage is disabled; set --storage to sqlite or postgres")
	}
	return nil
}

// Close releases every resource, newest first
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			slog.Warn("Failed to close resource", "error", err)
		}
	}
	if a.client != nil {
		a.client.Close()
	}
}
