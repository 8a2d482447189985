package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	charmlog "github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/offlinefirst/tactile/pkg/config"
)

// Options describe how to configure a logger instance.
type Options struct {
	Level  string
	Format string
	Output io.Writer

	// File enables an additional rotating JSON log file when non-empty.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

var (
	logFiles   []*lumberjack.Logger
	logFilesMu sync.Mutex
)

// FromConfig maps the logging section of the config onto Options.
func FromConfig(cfg config.LoggingConfig, out io.Writer) Options {
	return Options{
		Level:      cfg.Level,
		Format:     cfg.Format,
		Output:     out,
		File:       cfg.File,
		MaxSizeMB:  cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAgeDays: cfg.MaxAgeDays,
	}
}

// New creates a structured logger backed by Go's slog package. The console
// format renders through charmbracelet/log; json uses the stdlib handler.
func New(opts Options) (*slog.Logger, error) {
	lvl, err := parseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	handlerOpts := slog.HandlerOptions{
		Level:       lvl,
		ReplaceAttr: replaceTimeAttr,
	}

	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "json":
		handler = slog.NewJSONHandler(out, &handlerOpts)
	case "", "console", "text":
		handler = charmlog.NewWithOptions(out, charmlog.Options{
			ReportTimestamp: true,
			TimeFormat:      time.TimeOnly,
			Level:           charmLevel(lvl),
		})
	default:
		return nil, fmt.Errorf("unsupported log format %q", opts.Format)
	}

	if file := strings.TrimSpace(opts.File); file != "" {
		sink := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		}
		registerLogFile(sink)
		handler = NewMultiHandler(handler, slog.NewJSONHandler(sink, &handlerOpts))
	}

	return slog.New(handler), nil
}

// Shutdown closes every rotating log file opened by New.
func Shutdown() error {
	logFilesMu.Lock()
	defer logFilesMu.Unlock()

	for _, f := range logFiles {
		if err := f.Close(); err != nil {
			return fmt.Errorf("close log file: %w", err)
		}
	}
	logFiles = nil
	return nil
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func registerLogFile(f *lumberjack.Logger) {
	logFilesMu.Lock()
	logFiles = append(logFiles, f)
	logFilesMu.Unlock()
}

func parseLevel(level string) (slog.Level, error) {
	normalized, err := config.NormalizeLogLevel(level)
	if err != nil {
		return 0, err
	}

	switch normalized {
	case "debug":
		return slog.LevelDebug, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, nil
	}
}

func charmLevel(lvl slog.Level) charmlog.Level {
	switch {
	case lvl <= slog.LevelDebug:
		return charmlog.DebugLevel
	case lvl <= slog.LevelInfo:
		return charmlog.InfoLevel
	case lvl <= slog.LevelWarn:
		return charmlog.WarnLevel
	default:
		return charmlog.ErrorLevel
	}
}

func replaceTimeAttr(_ []string, attr slog.Attr) slog.Attr {
	if attr.Key == slog.TimeKey && attr.Value.Kind() == slog.KindTime {
		attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(time.RFC3339Nano))
	}
	return attr
}
