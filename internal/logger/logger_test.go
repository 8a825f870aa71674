package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vedanthangal/sanctuary/internal/logger"
)

func TestSlogLoggerWritesFields(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := logger.NewSlogLogger(buf, logger.LogLevelDebug, time.UTC).Module("feed")

	log.Info("fallback dataset loaded",
		logger.String("version", "vedanthangal-2025.1"),
		logger.Int("records", 42),
		logger.Bool("embedded", true),
		logger.Float64("radius_km", 12.34567),
		logger.Error(errors.New("boom")))

	out := buf.String()
	assert.Contains(t, out, "level=INFO")
	assert.Contains(t, out, "module=feed")
	assert.Contains(t, out, "version=vedanthangal-2025.1")
	assert.Contains(t, out, "records=42")
	assert.Contains(t, out, "embedded=true")
	assert.Contains(t, out, "radius_km=12.346")
	assert.Contains(t, out, "error=boom")
	assert.NotContains(t, out, "time=")
}

func TestLevelFiltering(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := logger.NewSlogLogger(buf, logger.LogLevelWarn, nil)

	log.Trace("trace")
	log.Debug("debug")
	log.Info("info")
	log.Warn("warn")
	log.Error("error")

	out := buf.String()
	assert.NotContains(t, out, "msg=trace")
	assert.NotContains(t, out, "msg=debug")
	assert.NotContains(t, out, "msg=info")
	assert.Contains(t, out, "msg=warn")
	assert.Contains(t, out, "msg=error")
}

func TestTraceLevelLabel(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := logger.NewSlogLogger(buf, logger.LogLevelTrace, nil)
	log.Log(logger.LogLevelTrace, "sql query")

	assert.Contains(t, buf.String(), "level=TRACE")
}

func TestModuleNestingAndWith(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	root := logger.NewSlogLogger(buf, logger.LogLevelInfo, nil)
	store := root.Module("datastore").With(logger.String("backend", "sqlite"))
	sub := store.Module("migrate")

	sub.Info("done")
	out := buf.String()
	assert.Contains(t, out, "module=datastore.migrate")
	assert.Contains(t, out, "backend=sqlite")

	buf.Reset()
	root.Info("plain")
	assert.NotContains(t, buf.String(), "backend=")
}

func TestWithContextTraceID(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := logger.NewSlogLogger(buf, logger.LogLevelInfo, nil)

	log.WithContext(logger.WithTraceID(context.Background(), "req-123")).Info("handled")
	assert.Contains(t, buf.String(), "trace_id=req-123")

	buf.Reset()
	log.WithContext(context.Background()).Info("handled")
	assert.NotContains(t, buf.String(), "trace_id")
}

func TestCentralLoggerFileOutput(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "sanctuary.log")
	cl, err := logger.NewCentralLogger(&logger.LoggingConfig{
		DefaultLevel: "debug",
		Timezone:     "UTC",
		Console:      &logger.ConsoleOutput{Enabled: false},
		FileOutput:   &logger.FileOutput{Enabled: true, Path: path, Level: "debug"},
		ModuleLevels: map[string]string{"datastore": "error"},
	})
	require.NoError(t, err)

	cl.Module("dashboard").Debug("aggregated", logger.Int("year", 2025))
	cl.Module("datastore").Info("suppressed")
	require.NoError(t, cl.Flush())
	require.NoError(t, cl.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "aggregated", entry["msg"])
	assert.Equal(t, "dashboard", entry["module"])
	assert.InDelta(t, 2025, entry["year"], 0)
}

func TestCentralLoggerRejectsBadInput(t *testing.T) {
	t.Parallel()

	_, err := logger.NewCentralLogger(nil)
	require.Error(t, err)

	_, err = logger.NewCentralLogger(&logger.LoggingConfig{Timezone: "Mars/Olympus"})
	require.Error(t, err)
}

func TestGormAdapterLevels(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	adapter := logger.NewGormLoggerAdapter(logger.NewSlogLogger(buf, logger.LogLevelTrace, nil).Module("datastore"), 50*time.Millisecond)
	stmt := func() (string, int64) { return "SELECT * FROM sightings", 3 }

	adapter.Trace(context.Background(), time.Now(), stmt, nil)
	assert.Contains(t, buf.String(), "level=TRACE msg=statement")

	buf.Reset()
	adapter.Trace(context.Background(), time.Now(), stmt, gorm.ErrRecordNotFound)
	assert.Contains(t, buf.String(), "msg=statement", "missing rows are not failures")

	buf.Reset()
	adapter.Trace(context.Background(), time.Now(), stmt, errors.New("disk I/O error"))
	assert.Contains(t, buf.String(), `level=WARN msg="statement failed"`)

	buf.Reset()
	adapter.Trace(context.Background(), time.Now().Add(-time.Second), stmt, nil)
	assert.Contains(t, buf.String(), `msg="slow statement"`)
	assert.Contains(t, buf.String(), "threshold=50ms")
}

func TestLevelNamesAreCaseInsensitive(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := logger.NewSlogLogger(buf, logger.LogLevel("DEBUG"), nil)
	log.Debug("visible")
	assert.Contains(t, buf.String(), "msg=visible")
}
