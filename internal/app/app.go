package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/five82/reportwatch/internal/config"
	"github.com/five82/reportwatch/internal/history"
	"github.com/five82/reportwatch/internal/logging"
	"github.com/five82/reportwatch/internal/prefs"
	"github.com/five82/reportwatch/internal/reports"
)

// Options configure Open.
type Options struct {
	ConfigPath  string
	PrefsPath   string // empty uses default ~/.config/reportwatch/prefs.toml
	Verbose     bool
	LogToStderr bool
}

// Env holds everything a command needs. It is built once per process by
// Open and passed explicitly; nothing here is a package-level singleton.
type Env struct {
	Config    config.Config
	Prefs     prefs.Prefs
	PrefsPath string
	Client    *reports.Client
	History   *history.Store
	Logger    *zap.Logger
}

// Open loads configuration and builds the client, logger and history store.
func Open(ctx context.Context, opts Options) (*Env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	userPrefs, prefsErr := prefs.Load(opts.PrefsPath)

	logger, err := logging.New(logging.Options{
		Path:    cfg.LogPath(),
		Verbose: opts.Verbose,
		Stderr:  opts.LogToStderr,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	if prefsErr != nil {
		logger.Warn("using default preferences", zap.Error(prefsErr))
	}

	client, err := reports.NewClient(reports.Options{
		BaseURL:        cfg.APIURL,
		Token:          cfg.APIToken,
		RequestTimeout: cfg.RequestTimeout,
		MaxRetries:     cfg.MaxRetries,
		Logger:         logger.Named("api"),
	})
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("init report client: %w", err)
	}

	store, err := history.Open(ctx, cfg.HistoryPath())
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("open history: %w", err)
	}

	return &Env{
		Config:    cfg,
		Prefs:     userPrefs,
		PrefsPath: opts.PrefsPath,
		Client:    client,
		History:   store,
		Logger:    logger,
	}, nil
}

// Close releases the history database and flushes the logger.
func (e *Env) Close() error {
	if e == nil {
		return nil
	}
	var errs []error
	if err := e.History.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close history: %w", err))
	}
	_ = e.Logger.Sync()
	return errors.Join(errs...)
}

// SavePrefs persists the current preferences.
func (e *Env) SavePrefs() error {
	return prefs.Save(e.PrefsPath, e.Prefs)
}
