package internal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/starford/kenaz-focus/internal/focus"
	"github.com/starford/kenaz-focus/internal/generator"
	"github.com/starford/kenaz-focus/internal/kvstore"
	"github.com/starford/kenaz-focus/internal/notes"
	"github.com/starford/kenaz-focus/internal/reportcache"
	"github.com/starford/kenaz-focus/internal/storage"
)

// components is the object graph shared by the HTTP and MCP entry points.
type components struct {
	store     kvstore.Store
	notes     *notes.Source
	ctrl      *focus.Controller
	refresher *focus.Refresher
}

func (c *components) close() {
	if err := c.store.Close(); err != nil {
		slog.Warn("close store", slog.String("error", err.Error()))
	}
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// buildComponents opens the vault and the cache and restores the last report.
// onChange, if set, receives every controller snapshot.
func buildComponents(ctx context.Context, cfg *Config, logger *slog.Logger, onChange func(any)) (*components, error) {
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}

	vault, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	store, err := kvstore.Open(ctx, cfg.Store.Options())
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	gen, err := newGenerator(ctx, &cfg.Generator)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("init generator: %w", err)
	}
	params := focus.Params{
		ProviderID: cfg.Generator.ProviderID,
		ModelName:  cfg.Generator.ModelName,
		Limit:      cfg.Generator.Limit,
	}

	ctrlOpts := []focus.Option{
		focus.WithRefreshInterval(cfg.Focus.RefreshInterval),
		focus.WithLogger(logger.With(slog.String("component", "focus"))),
	}
	if onChange != nil {
		ctrlOpts = append(ctrlOpts, focus.WithOnChange(func(s focus.Snapshot) { onChange(s) }))
	}
	ctrl := focus.NewController(reportcache.New(store), gen, params, ctrlOpts...)

	if err := ctrl.Restore(ctx); err != nil {
		logger.Warn("restore cached report failed", slog.String("error", err.Error()))
	}

	src := notes.NewSource(vault, logger.With(slog.String("component", "notes")))
	refresher := focus.NewRefresher(src, ctrl, cfg.Focus.Budget, logger.With(slog.String("component", "refresher")))

	return &components{store: store, notes: src, ctrl: ctrl, refresher: refresher}, nil
}

func newGenerator(ctx context.Context, cfg *GeneratorConfig) (focus.Generator, error) {
	if cfg.Driver == GeneratorDriverOpenAI {
		return generator.NewOpenAI(ctx, generator.OpenAIConfig{
			BaseURL:     cfg.Endpoint,
			APIKey:      cfg.APIKey,
			Model:       cfg.ModelName,
			Timeout:     cfg.Timeout,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		})
	}
	return generator.NewHTTP(cfg.Endpoint, cfg.APIKey, cfg.Timeout), nil
}
