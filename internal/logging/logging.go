// Package logging builds the process-wide structured logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cosmossdk.io/log"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Options configures New.
type Options struct {
	Level   string
	Format  string
	File    string
	NoColor bool

	// Output is used instead of stderr when File is empty.
	Output io.Writer
}

// New creates a logger and returns a closer for its sink. Files are rotated
// at 100 MB and kept for 7 days.
func New(opts Options) (log.Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}

	var (
		w      io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
		color            = !opts.NoColor
	)
	if opts.Output != nil {
		w = opts.Output
	}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    100,
			MaxAge:     7,
			MaxBackups: 3,
		}
		w, closer, color = lj, lj, false
	}

	logOpts := []log.Option{log.LevelOption(level), log.ColorOption(color)}
	switch opts.Format {
	case "", FormatText:
	case FormatJSON:
		logOpts = append(logOpts, log.OutputJSONOption())
	default:
		return nil, nil, fmt.Errorf("invalid log format %q (must be %s or %s)", opts.Format, FormatText, FormatJSON)
	}
	return log.NewLogger(w, logOpts...), closer, nil
}

// ParseLevel parses a zerolog level name. An empty string means info.
func ParseLevel(s string) (zerolog.Level, error) {
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
