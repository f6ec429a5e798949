package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/braint-ru/catalog/internal/cache"
	"github.com/braint-ru/catalog/internal/config"
	"github.com/braint-ru/catalog/internal/content"
	"github.com/braint-ru/catalog/internal/index"
	"github.com/braint-ru/catalog/internal/logging"
	"github.com/braint-ru/catalog/internal/search"
	"github.com/braint-ru/catalog/internal/telemetry"
	"github.com/braint-ru/catalog/internal/watcher"
)

// logMode selects where a command sends its logs.
type logMode int

const (
	// logQuiet is for one-shot commands: warnings only, on stderr.
	logQuiet logMode = iota
	// logServer follows the logging section of the config.
	logServer
	// logMCP writes to the log file only; stdout belongs to JSON-RPC.
	logMCP
)

// app is the wired catalogue used by every command.
type app struct {
	cfg        *config.Config
	contentDir string
	logger     *slog.Logger
	loader     *content.Loader
	store      *index.Store
	results    *cache.Cache[[]search.Summary]
	metrics    *telemetry.QueryMetrics
	engine     *search.Engine
	cleanup    func()
}

// loadConfig resolves the configuration for the working directory and
// the directory relative content paths are resolved against.
func loadConfig() (*config.Config, string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get current directory: %w", err)
	}
	cfg, err := config.Load(cwd, configPath)
	if err != nil {
		return nil, "", err
	}

	base := cwd
	if configPath != "" {
		base = filepath.Dir(configPath)
	}
	return cfg, base, nil
}

func newApp(mode logMode) (*app, error) {
	cfg, base, err := loadConfig()
	if err != nil {
		return nil, err
	}

	cleanup, err := setupLogging(cfg, mode)
	if err != nil {
		return nil, err
	}
	logger := slog.Default()

	a := &app{
		cfg:        cfg,
		contentDir: cfg.ContentDir(base),
		logger:     logger,
		cleanup:    cleanup,
	}
	a.loader = content.NewLoader(content.NewDirSource(a.contentDir),
		content.WithExtension(cfg.Content.Extension),
		content.WithPathPrefix(cfg.Content.PathPrefix),
		content.WithLogger(logger))
	a.store = index.New(a.loader,
		index.WithTTL(cfg.IndexTTL()),
		index.WithLogger(logger))
	a.results = cache.New[[]search.Summary](
		cache.WithTTL(cfg.CacheTTL()),
		cache.WithSize(cfg.Cache.Size))
	a.metrics = telemetry.NewQueryMetrics()

	a.engine, err = search.NewEngine(a.store, a.results, engineConfig(cfg),
		search.WithMetrics(a.metrics),
		search.WithLogger(logger))
	if err != nil {
		a.Close()
		return nil, err
	}

	logger.Debug("catalog initialized",
		slog.String("content_dir", a.contentDir),
		slog.String("profile", cfg.Index.Profile),
		slog.Duration("index_ttl", cfg.IndexTTL()),
		slog.Bool("watch", cfg.WatchEnabled()))
	return a, nil
}

// Close releases the store and flushes the log file.
func (a *app) Close() {
	if a.store != nil {
		_ = a.store.Close()
	}
	if a.cleanup != nil {
		a.cleanup()
	}
}

// engineConfig converts the configured weights, which may be fractional
// in the file, to the integer points the ranker uses.
func engineConfig(cfg *config.Config) search.EngineConfig {
	def := search.DefaultWeights()
	w := cfg.Search.Weights
	return search.EngineConfig{
		DefaultLimit: cfg.Search.DefaultLimit,
		MaxLimit:     cfg.Search.MaxLimit,
		Weights: search.Weights{
			Title:    weight(w.Title, def.Title),
			Aliases:  weight(w.Aliases, def.Aliases),
			Tags:     weight(w.Tags, def.Tags),
			Category: weight(w.Category, def.Category),
			ID:       weight(w.ID, def.ID),
			Phrase:   weight(w.Phrase, def.Phrase),
		},
	}
}

func weight(v *float64, def int) int {
	if v == nil {
		return def
	}
	return int(math.Round(*v))
}

func setupLogging(cfg *config.Config, mode logMode) (func(), error) {
	if mode == logMCP {
		level := cfg.Logging.Level
		if debugMode {
			level = "debug"
		}
		return logging.SetupMCPMode(level, cfg.Logging.File)
	}

	var logCfg logging.Config
	switch {
	case debugMode:
		logCfg = logging.DebugConfig()
	case mode == logServer:
		logCfg = logging.Config{
			Level:         cfg.Logging.Level,
			Format:        cfg.Logging.Format,
			FilePath:      cfg.Logging.File,
			MaxSizeMB:     cfg.Logging.MaxSizeMB,
			MaxBackups:    cfg.Logging.MaxBackups,
			WriteToStderr: true,
		}
	default:
		logCfg = logging.DefaultConfig()
		logCfg.Level = "warn"
	}

	cleanup, err := logging.SetupDefault(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}
	return cleanup, nil
}

// runWatcher watches the content directory and invalidates the index and
// result cache on every batch of changes. It returns when ctx is done. A
// watcher that cannot start is logged and leaves the TTL as the only
// refresh path.
func (a *app) runWatcher(ctx context.Context) error {
	opts := watcher.DefaultOptions()
	opts.Extension = a.cfg.Content.Extension
	opts.DebounceWindow = a.cfg.DebounceWindow()
	opts.PollInterval = a.cfg.PollInterval()
	opts.ForcePolling = a.cfg.Watch.ForcePolling

	w, err := watcher.NewHybridWatcher(opts)
	if err != nil {
		a.logger.Warn("change watcher disabled", slog.String("error", err.Error()))
		return nil
	}

	notifier := watcher.NewNotifier(a.logger)
	notifier.Subscribe("index", a.store.Invalidate)
	notifier.Subscribe("results", a.results.FlushAll)

	go notifier.Run(ctx, w.Events())
	go func() {
		for err := range w.Errors() {
			a.logger.Warn("watcher error", slog.String("error", err.Error()))
		}
	}()

	err = w.Start(ctx, a.contentDir)
	_ = w.Stop()
	if err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Warn("change watcher stopped, relying on TTL refresh",
			slog.String("dir", a.contentDir),
			slog.String("error", err.Error()))
		<-ctx.Done()
	}
	return nil
}
