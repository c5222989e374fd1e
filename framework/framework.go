// Package framework wires configuration, logging, the mountebank client and
// the lifecycle event publisher for test suites and tools.
package framework

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"sync"
	"time"

	"mountebank-client/clients/events"
	"mountebank-client/clients/mountebank"
	"mountebank-client/clients/transport"
	"mountebank-client/logging"
	"mountebank-client/models"
)

const defaultPollInterval = time.Second

// Framework holds the clients and configuration a test suite needs.
type Framework struct {
	Config    *Config
	Logger    *slog.Logger
	Client    *mountebank.Client
	Publisher events.Publisher

	pollInterval time.Duration

	mu     sync.Mutex
	stored map[int]*models.Imposter
}

// NewFramework loads configPath and builds a Framework from it.
func NewFramework(configPath string) (*Framework, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load framework config: %w", err)
	}
	return New(cfg)
}

// New builds a Framework from an already validated configuration.
func New(cfg *Config) (*Framework, error) {
	logger, err := logging.FromStrings(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Events.Enabled {
		publisher, err = events.NewKafkaPublisher(events.KafkaConfig{
			Brokers: cfg.Events.Brokers,
			Topic:   cfg.Events.Topic,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create event publisher: %w", err)
		}
	}

	opts := []transport.Option{transport.WithLogger(logger)}
	if cfg.Mountebank.TimeoutInSeconds > 0 {
		opts = append(opts, transport.WithTimeout(cfg.Mountebank.Timeout()))
	}
	t := transport.NewHTTPTransport(cfg.Mountebank.AdminURL(), opts...)
	logger.Info("initializing mountebank client", "url", t.BaseURL(), "events", cfg.Events.Enabled)

	return &Framework{
		Config:       cfg,
		Logger:       logger,
		Client:       mountebank.New(t, mountebank.WithLogger(logger), mountebank.WithEventPublisher(publisher)),
		Publisher:    publisher,
		pollInterval: defaultPollInterval,
		stored:       make(map[int]*models.Imposter),
	}, nil
}

// Init waits for mountebank and snapshots the imposters it already hosts.
func (f *Framework) Init(ctx context.Context, timeout time.Duration) error {
	if err := f.WaitForMountebank(ctx, timeout); err != nil {
		return fmt.Errorf("failed to wait for Mountebank: %w", err)
	}
	if _, err := f.StoreAllImposters(ctx); err != nil {
		return fmt.Errorf("failed to store all imposters: %w", err)
	}
	return nil
}

// WaitForMountebank polls the imposter list until it answers or timeout
// elapses.
func (f *Framework) WaitForMountebank(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	f.Logger.Info("waiting for Mountebank", "url", f.Config.Mountebank.AdminURL(), "timeout", timeout)
	ticker := time.NewTicker(f.pollInterval)
	defer ticker.Stop()
	for {
		_, err := f.Client.ListImposters(ctx)
		if err == nil {
			f.Logger.Info("Mountebank is ready")
			return nil
		}
		f.Logger.Debug("Mountebank not yet ready", "error", err)

		select {
		case <-ctx.Done():
			return fmt.Errorf("timed out waiting for Mountebank to be ready: %w", err)
		case <-ticker.C:
		}
	}
}

// StoreAllImposters snapshots every hosted imposter in replayable form,
// replacing any previous snapshot.
func (f *Framework) StoreAllImposters(ctx context.Context) (map[int]*models.Imposter, error) {
	summaries, err := f.Client.ListImposters(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list imposters: %w", err)
	}

	stored := make(map[int]*models.Imposter, len(summaries))
	for _, s := range summaries {
		imp, err := f.Client.GetReplayableImposter(ctx, s.Port)
		if err != nil {
			return nil, fmt.Errorf("failed to get imposter for port %d: %w", s.Port, err)
		}
		stored[s.Port] = imp
	}

	f.mu.Lock()
	f.stored = stored
	f.mu.Unlock()
	f.Logger.Info("stored imposters", "count", len(stored))
	return maps.Clone(stored), nil
}

// StoredImposters returns the last snapshot taken by StoreAllImposters.
func (f *Framework) StoredImposters() map[int]*models.Imposter {
	f.mu.Lock()
	defer f.mu.Unlock()
	return maps.Clone(f.stored)
}

// RestoreImposter resubmits the stored definition of the imposter on port.
func (f *Framework) RestoreImposter(ctx context.Context, port int) error {
	f.mu.Lock()
	imp, found := f.stored[port]
	f.mu.Unlock()
	if !found {
		return fmt.Errorf("imposter with port %d not found in stored imposters", port)
	}
	f.Logger.Debug("restoring imposter", "port", port, "name", imp.Name)
	if _, err := f.Client.CreateImposter(ctx, imp); err != nil {
		return fmt.Errorf("failed to restore imposter on port %d: %w", port, err)
	}
	return nil
}

// Close releases the event publisher.
func (f *Framework) Close() error {
	return f.Publisher.Close()
}
