// Package logging configures the global zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the log file written inside the log directory
const FileName = "app.log"

// Options configures Setup
type Options struct {
	// Level is a zerolog level name; LOG_LEVEL overrides it
	Level string

	// Dir receives the rotating log file. Empty disables file logging.
	Dir string

	// Console is the human-readable sink (default: os.Stderr)
	Console io.Writer
}

// Setup installs the global logger and returns the log file path ("" when
// file logging is disabled). The returned closer flushes the file sink.
func Setup(opts Options) (string, io.Closer, error) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return "", nil, err
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if l, err := zerolog.ParseLevel(strings.ToLower(v)); err == nil {
			lvl = l
		}
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	writers := []io.Writer{zerolog.ConsoleWriter{Out: console, TimeFormat: "15:04:05"}}

	var path string
	var closer io.Closer = io.NopCloser(nil)
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return "", nil, fmt.Errorf("failed to create log dir: %w", err)
		}
		path = filepath.Join(opts.Dir, FileName)
		file := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    1, // megabytes
			MaxBackups: 3,
		}
		writers = append(writers, file)
		closer = file
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(lvl).
		With().Timestamp().Logger()

	return path, closer, nil
}

// ParseLevel parses a level name; empty means info
func ParseLevel(name string) (zerolog.Level, error) {
	if name == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(name))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q", name)
	}
	return lvl, nil
}

// Component returns a sub-logger tagged with the component name
func Component(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
