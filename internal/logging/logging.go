// Package logging builds the zap logger used across reportwatch.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configure New.
type Options struct {
	// Path is the JSON log file. Empty disables file output.
	Path string
	// Verbose enables debug level.
	Verbose bool
	// Stderr mirrors log output to stderr. Leave it off while the TUI owns
	// the terminal.
	Stderr bool
}

// New returns a production zap logger writing JSON lines to the configured
// outputs. With no outputs it returns a no-op logger.
func New(opts Options) (*zap.Logger, error) {
	var outputs []string
	if path := strings.TrimSpace(opts.Path); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		outputs = append(outputs, path)
	}
	if opts.Stderr {
		outputs = append(outputs, "stderr")
	}
	if len(outputs) == 0 {
		return zap.NewNop(), nil
	}

	config := zap.NewProductionConfig()
	config.OutputPaths = outputs
	config.ErrorOutputPaths = []string{"stderr"}
	config.Sampling = nil
	if opts.Verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
