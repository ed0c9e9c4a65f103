package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	var lines []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		lines = append(lines, entry)
	}
	return lines
}

func TestFactory(t *testing.T) {
	for tName, tCase := range map[string]func(t *testing.T, f *Factory, buf *bytes.Buffer){
		"WritesOneJSONObjectPerLine": func(t *testing.T, f *Factory, buf *bytes.Buffer) {
			logger, err := f.Configure(NewOptions().SetName("svc").SetLevel(LevelInfo).SetOutput(buf))
			require.NoError(t, err)

			logger.Info("first")
			logger.Warn("second")

			lines := decodeLines(t, buf)
			require.Len(t, lines, 2)
			assert.Equal(t, "first", lines[0]["message"])
			assert.Equal(t, "svc", lines[0]["name"])
			assert.Equal(t, "INFO", lines[0]["level"])
			assert.Equal(t, "WARNING", lines[1]["level"])
			assert.Regexp(t, `^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2},\d{3}$`, lines[0]["timestamp"])
			assert.NotContains(t, lines[0], ExceptionKey)
		},
		"IncludesExceptionForErrors": func(t *testing.T, f *Factory, buf *bytes.Buffer) {
			logger, err := f.Configure(NewOptions().SetName("svc").SetOutput(buf))
			require.NoError(t, err)

			logger.Error("request failed", Exception(errors.Wrap(errors.New("connection reset"), "reading secret")))

			lines := decodeLines(t, buf)
			require.Len(t, lines, 1)
			assert.Equal(t, "ERROR", lines[0]["level"])
			exception, ok := lines[0][ExceptionKey].(string)
			require.True(t, ok)
			assert.Contains(t, exception, "connection reset")
			assert.Contains(t, exception, "reading secret")
		},
		"NilExceptionIsOmitted": func(t *testing.T, f *Factory, buf *bytes.Buffer) {
			logger, err := f.Configure(NewOptions().SetName("svc").SetOutput(buf))
			require.NoError(t, err)

			logger.Error("no cause", Exception(nil))

			lines := decodeLines(t, buf)
			require.Len(t, lines, 1)
			assert.NotContains(t, lines[0], ExceptionKey)
		},
		"DefaultLevelIsError": func(t *testing.T, f *Factory, buf *bytes.Buffer) {
			logger, err := f.Configure(NewOptions().SetName("svc").SetOutput(buf))
			require.NoError(t, err)

			logger.Info("dropped")
			logger.Warn("dropped")
			logger.Error("kept")

			lines := decodeLines(t, buf)
			require.Len(t, lines, 1)
			assert.Equal(t, "kept", lines[0]["message"])
		},
		"CriticalIsEncoded": func(t *testing.T, f *Factory, buf *bytes.Buffer) {
			logger, err := f.Configure(NewOptions().SetName("svc").SetLevel(LevelCritical).SetOutput(buf))
			require.NoError(t, err)

			logger.Error("dropped")
			logger.DPanic("kept")

			lines := decodeLines(t, buf)
			require.Len(t, lines, 1)
			assert.Equal(t, "CRITICAL", lines[0]["level"])
		},
		"ReconfiguringDoesNotDuplicateOutput": func(t *testing.T, f *Factory, buf *bytes.Buffer) {
			first, err := f.Configure(NewOptions().SetName("svc").SetLevel(LevelInfo).SetOutput(buf))
			require.NoError(t, err)
			second, err := f.Configure(NewOptions().SetName("svc").SetLevel(LevelInfo).SetOutput(buf))
			require.NoError(t, err)
			assert.Same(t, first, second)

			second.Info("once")

			assert.Len(t, decodeLines(t, buf), 1)
		},
		"ReconfiguringUpdatesLevel": func(t *testing.T, f *Factory, buf *bytes.Buffer) {
			logger, err := f.Configure(NewOptions().SetName("svc").SetLevel(LevelError).SetOutput(buf))
			require.NoError(t, err)
			logger.Info("dropped")

			_, err = f.Configure(NewOptions().SetName("svc").SetLevel(LevelDebug))
			require.NoError(t, err)
			logger.Debug("kept")

			lines := decodeLines(t, buf)
			require.Len(t, lines, 1)
			assert.Equal(t, "kept", lines[0]["message"])

			lvl, ok := f.Level("svc")
			require.True(t, ok)
			assert.Equal(t, LevelDebug, lvl)
		},
		"DistinctNamesAreIndependent": func(t *testing.T, f *Factory, buf *bytes.Buffer) {
			var other bytes.Buffer
			a, err := f.Configure(NewOptions().SetName("a").SetLevel(LevelInfo).SetOutput(buf))
			require.NoError(t, err)
			b, err := f.Configure(NewOptions().SetName("b").SetLevel(LevelInfo).SetOutput(&other))
			require.NoError(t, err)

			a.Info("to a")
			b.Info("to b")

			aLines := decodeLines(t, buf)
			bLines := decodeLines(t, &other)
			require.Len(t, aLines, 1)
			require.Len(t, bLines, 1)
			assert.Equal(t, "a", aLines[0]["name"])
			assert.Equal(t, "b", bLines[0]["name"])
		},
		"ExtraCoresReceiveEntriesAtLoggerLevel": func(t *testing.T, f *Factory, buf *bytes.Buffer) {
			core, observed := observer.New(zapcore.DebugLevel)
			logger, err := f.Configure(NewOptions().SetName("svc").SetLevel(LevelWarning).SetOutput(buf).AddCores(core))
			require.NoError(t, err)

			logger.Info("dropped")
			logger.Warn("kept")

			require.Equal(t, 1, observed.Len())
			assert.Equal(t, "kept", observed.All()[0].Message)
			assert.Len(t, decodeLines(t, buf), 1)
		},
		"ExtraCoreLevelStillApplies": func(t *testing.T, f *Factory, buf *bytes.Buffer) {
			core, observed := observer.New(zapcore.ErrorLevel)
			logger, err := f.Configure(NewOptions().SetName("svc").SetLevel(LevelDebug).SetOutput(buf).AddCores(core))
			require.NoError(t, err)

			logger.Info("main only")
			logger.Error("both")

			assert.Equal(t, 1, observed.Len())
			assert.Len(t, decodeLines(t, buf), 2)
		},
		"LoggerLookup": func(t *testing.T, f *Factory, buf *bytes.Buffer) {
			_, ok := f.Logger("svc")
			assert.False(t, ok)

			logger, err := f.Configure(NewOptions().SetName("svc").SetOutput(buf))
			require.NoError(t, err)

			found, ok := f.Logger("svc")
			require.True(t, ok)
			assert.Same(t, logger, found)
		},
		"FailsWithoutName": func(t *testing.T, f *Factory, buf *bytes.Buffer) {
			_, err := f.Configure(NewOptions().SetOutput(buf))
			assert.Error(t, err)
		},
		"FailsWithUnknownLevel": func(t *testing.T, f *Factory, buf *bytes.Buffer) {
			_, err := f.Configure(NewOptions().SetName("svc").SetLevel("LOUD").SetOutput(buf))
			assert.Error(t, err)
			_, ok := f.Logger("svc")
			assert.False(t, ok)
		},
		"FailsWithNilOptions": func(t *testing.T, f *Factory, buf *bytes.Buffer) {
			_, err := f.Configure(nil)
			assert.Error(t, err)
		},
	} {
		t.Run(tName, func(t *testing.T) {
			var buf bytes.Buffer
			tCase(t, NewFactory(), &buf)
		})
	}
}

func TestParseLevel(t *testing.T) {
	for name, expected := range map[string]zapcore.Level{
		"DEBUG":    zapcore.DebugLevel,
		"info":     zapcore.InfoLevel,
		"WARNING":  zapcore.WarnLevel,
		"warn":     zapcore.WarnLevel,
		" error ":  zapcore.ErrorLevel,
		"CRITICAL": zapcore.DPanicLevel,
	} {
		lvl, err := ParseLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, expected, lvl, name)
	}
	_, err := ParseLevel("")
	assert.Error(t, err)
}

func TestOptionsValidate(t *testing.T) {
	t.Run("SetsDefaults", func(t *testing.T) {
		opts := NewOptions().SetName("svc")
		require.NoError(t, opts.Validate())
		assert.Equal(t, DefaultLevel, *opts.Level)
		assert.NotNil(t, opts.Output)
	})
	t.Run("AggregatesErrors", func(t *testing.T) {
		err := NewOptions().SetLevel("nope").Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "logger name")
		assert.Contains(t, err.Error(), "nope")
	})
}
