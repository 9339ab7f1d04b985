package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures the settings reportwatch needs to reach the job queue.
type Config struct {
	APIURL         string
	APIToken       string
	PollInterval   time.Duration
	MaxWait        time.Duration
	RequestTimeout time.Duration
	MaxRetries     int
	StateDir       string
}

const (
	defaultConfigPath     = "~/.config/reportwatch/config.toml"
	defaultStateDir       = "~/.local/share/reportwatch"
	defaultAPIURL         = "http://127.0.0.1:8080"
	defaultPollInterval   = 2500 * time.Millisecond
	defaultMaxWait        = 2 * time.Minute
	defaultRequestTimeout = 15 * time.Second
	defaultMaxRetries     = 3

	// TokenEnv overrides api_token from the config file.
	TokenEnv = "REPORTWATCH_API_TOKEN"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIURL:         defaultAPIURL,
		PollInterval:   defaultPollInterval,
		MaxWait:        defaultMaxWait,
		RequestTimeout: defaultRequestTimeout,
		MaxRetries:     defaultMaxRetries,
		StateDir:       mustExpand(defaultStateDir),
	}
}

// Load locates and parses the config file, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg.applyEnv()
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIURL           string `toml:"api_url"`
		APIToken         string `toml:"api_token"`
		PollIntervalMS   int64  `toml:"poll_interval_ms"`
		MaxWaitMS        int64  `toml:"max_wait_ms"`
		RequestTimeoutMS int64  `toml:"request_timeout_ms"`
		MaxRetries       *int   `toml:"max_retries"`
		StateDir         string `toml:"state_dir"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIURL); v != "" {
		cfg.APIURL = v
	}
	cfg.APIToken = strings.TrimSpace(raw.APIToken)
	if raw.PollIntervalMS > 0 {
		cfg.PollInterval = time.Duration(raw.PollIntervalMS) * time.Millisecond
	}
	if raw.MaxWaitMS > 0 {
		cfg.MaxWait = time.Duration(raw.MaxWaitMS) * time.Millisecond
	}
	if raw.RequestTimeoutMS > 0 {
		cfg.RequestTimeout = time.Duration(raw.RequestTimeoutMS) * time.Millisecond
	}
	if raw.MaxRetries != nil {
		if *raw.MaxRetries < 0 {
			return Config{}, fmt.Errorf("parse config: max_retries must be >= 0, got %d", *raw.MaxRetries)
		}
		cfg.MaxRetries = *raw.MaxRetries
	}
	if v := strings.TrimSpace(raw.StateDir); v != "" {
		cfg.StateDir = mustExpand(v)
	}
	cfg.applyEnv()

	return cfg, nil
}

func (c *Config) applyEnv() {
	if token := strings.TrimSpace(os.Getenv(TokenEnv)); token != "" {
		c.APIToken = token
	}
}

// LogPath returns the path of the structured log file.
func (c Config) LogPath() string {
	return filepath.Join(c.stateDir(), "reportwatch.log")
}

// HistoryPath returns the path of the local job history database.
func (c Config) HistoryPath() string {
	return filepath.Join(c.stateDir(), "history.db")
}

func (c Config) stateDir() string {
	if strings.TrimSpace(c.StateDir) == "" {
		return mustExpand(defaultStateDir)
	}
	return c.StateDir
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
