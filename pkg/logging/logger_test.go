package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONLoggerWritesStructuredRecords(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "debug", Format: "json", Output: &buf})
	require.NoError(t, err)

	logger.Debug("pattern accepted", "trigger", "launchpad", "pulses", 3)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "pattern accepted", record["msg"])
	assert.Equal(t, "launchpad", record["trigger"])
	assert.EqualValues(t, 3, record["pulses"])
	_, err = time.Parse(time.RFC3339Nano, record["time"].(string))
	assert.NoError(t, err)
}

func TestNewConsoleLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Format: "console", Output: &buf})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("event queue full", "dropped", 2)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "event queue full")
	assert.Contains(t, out, "dropped")
}

func TestNewRejectsUnknownOptions(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	assert.Error(t, err)

	_, err = New(Options{Format: "xml"})
	assert.Error(t, err)
}

func TestNewWithFileMirrorsToRotatingSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tactile.log")
	var console bytes.Buffer
	logger, err := New(Options{Level: "info", Format: "console", Output: &console, File: path, MaxSizeMB: 1})
	require.NoError(t, err)

	logger.Info("feedback engine started", "source", "synthetic")
	require.NoError(t, Shutdown())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"msg":"feedback engine started"`), "file sink got %q", data)
	assert.Contains(t, console.String(), "feedback engine started")
}

type failingHandler struct{ calls int }

func (h *failingHandler) Enabled(context.Context, slog.Level) bool { return true }
func (h *failingHandler) Handle(context.Context, slog.Record) error {
	h.calls++
	return errors.New("sink closed")
}
func (h *failingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *failingHandler) WithGroup(string) slog.Handler      { return h }

func TestMultiHandlerKeepsForwardingAfterFailure(t *testing.T) {
	var buf bytes.Buffer
	broken := &failingHandler{}
	handler := NewMultiHandler(broken, slog.NewTextHandler(&buf, nil))

	err := slog.New(handler).Handler().Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "tick", 0))
	assert.Error(t, err)
	assert.Equal(t, 1, broken.calls)
	assert.Contains(t, buf.String(), "tick")
}

func TestSamplerCountsSuppressedLines(t *testing.T) {
	s := NewSampler(time.Second, 1)
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	ok, skipped := s.AllowAt(base)
	require.True(t, ok)
	assert.Zero(t, skipped)

	for i := 0; i < 3; i++ {
		ok, _ = s.AllowAt(base.Add(time.Duration(i+1) * 100 * time.Millisecond))
		assert.False(t, ok)
	}

	ok, skipped = s.AllowAt(base.Add(2 * time.Second))
	require.True(t, ok)
	assert.EqualValues(t, 3, skipped)
}

func TestNilSamplerAlwaysAllows(t *testing.T) {
	var s *Sampler
	ok, skipped := s.Allow()
	assert.True(t, ok)
	assert.Zero(t, skipped)
}
