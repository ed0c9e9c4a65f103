// Package logging builds named loggers that write one JSON object per line
// with the keys timestamp, name, level and message, plus exception when an
// error is attached.
package logging

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TimestampLayout is the layout of the timestamp field.
const TimestampLayout = "2006-01-02 15:04:05,000"

// ExceptionKey is the field key used by Exception.
const ExceptionKey = "exception"

// EncoderConfig returns the JSON encoder settings shared by every logger.
func EncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		NameKey:        "name",
		LevelKey:       "level",
		MessageKey:     "message",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.TimeEncoderOfLayout(TimestampLayout),
		EncodeLevel:    encodeLevel,
		EncodeName:     zapcore.FullNameEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
}

func encodeLevel(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(levelName(l))
}

// Exception attaches an error to a log entry. The error is rendered with %+v
// so wrapped errors carry their stack trace.
func Exception(err error) zap.Field {
	if err == nil {
		return zap.Skip()
	}
	return zap.String(ExceptionKey, fmt.Sprintf("%+v", err))
}

type configured struct {
	logger *zap.Logger
	level  zap.AtomicLevel
}

// Factory owns named loggers. Configuring a name that already exists only
// changes its level, so output sinks are never attached twice.
type Factory struct {
	mu      sync.Mutex
	loggers map[string]configured
}

// NewFactory returns a factory with no loggers.
func NewFactory() *Factory {
	return &Factory{loggers: map[string]configured{}}
}

// Configure returns the logger for opts.Name, creating it on first use.
func (f *Factory) Configure(opts *Options) (*zap.Logger, error) {
	if opts == nil {
		return nil, errors.New("must specify logger options")
	}
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid logger options")
	}
	lvl, err := ParseLevel(*opts.Level)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	name := *opts.Name
	if existing, ok := f.loggers[name]; ok {
		existing.level.SetLevel(lvl)
		return existing.logger, nil
	}

	level := zap.NewAtomicLevelAt(lvl)
	cores := []zapcore.Core{zapcore.NewCore(zapcore.NewJSONEncoder(EncoderConfig()), zapcore.AddSync(opts.Output), level)}
	for _, c := range opts.Cores {
		cores = append(cores, gatedCore{Core: c, enabler: level})
	}

	logger := zap.New(zapcore.NewTee(cores...)).Named(name)
	f.loggers[name] = configured{logger: logger, level: level}

	return logger, nil
}

// Logger returns a previously configured logger.
func (f *Factory) Logger(name string) (*zap.Logger, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.loggers[name]
	return c.logger, ok
}

// Level returns the current minimum level name of a configured logger.
func (f *Factory) Level(name string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.loggers[name]
	if !ok {
		return "", false
	}
	return levelName(c.level.Level()), true
}

var defaultFactory = NewFactory()

// Configure configures a logger on the process-wide factory.
func Configure(opts *Options) (*zap.Logger, error) {
	return defaultFactory.Configure(opts)
}

// gatedCore applies the logger's minimum level to an extra sink on top of the
// sink's own level.
type gatedCore struct {
	zapcore.Core
	enabler zapcore.LevelEnabler
}

func (c gatedCore) Enabled(l zapcore.Level) bool {
	return c.enabler.Enabled(l) && c.Core.Enabled(l)
}

func (c gatedCore) With(fields []zapcore.Field) zapcore.Core {
	return gatedCore{Core: c.Core.With(fields), enabler: c.enabler}
}

func (c gatedCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.enabler.Enabled(ent.Level) {
		return ce
	}
	return c.Core.Check(ent, ce)
}
