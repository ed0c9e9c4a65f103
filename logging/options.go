package logging

import (
	"io"
	"os"
	"strings"

	"github.com/evergreen-ci/utility"
	"github.com/mongodb/grip"
	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
)

// Level names accepted by the logger, in increasing order of severity.
const (
	LevelDebug    = "DEBUG"
	LevelInfo     = "INFO"
	LevelWarning  = "WARNING"
	LevelError    = "ERROR"
	LevelCritical = "CRITICAL"
)

// DefaultLevel is the minimum level used when none is given.
const DefaultLevel = LevelError

// Options represent options to configure a named JSON logger.
type Options struct {
	// Name identifies the logger. Configuring the same name twice returns the
	// same logger.
	Name *string
	// Level is the minimum level that is written. Defaults to ERROR.
	Level *string
	// Output is where JSON lines are written. Defaults to stderr.
	Output io.Writer
	// Cores are additional sinks that receive every entry at or above Level.
	// They are only attached the first time a name is configured.
	Cores []zapcore.Core
}

// NewOptions returns new uninitialized options.
func NewOptions() *Options {
	return &Options{}
}

// SetName sets the logger name.
func (o *Options) SetName(name string) *Options {
	o.Name = &name
	return o
}

// SetLevel sets the minimum level name.
func (o *Options) SetLevel(lvl string) *Options {
	o.Level = &lvl
	return o
}

// SetOutput sets the writer that receives JSON lines.
func (o *Options) SetOutput(w io.Writer) *Options {
	o.Output = w
	return o
}

// AddCores adds extra sinks to the existing ones.
func (o *Options) AddCores(cores ...zapcore.Core) *Options {
	o.Cores = append(o.Cores, cores...)
	return o
}

// Validate checks that the name and level are valid and sets defaults where
// applicable.
func (o *Options) Validate() error {
	catcher := grip.NewBasicCatcher()
	catcher.NewWhen(utility.FromStringPtr(o.Name) == "", "must specify a logger name")
	if o.Level == nil {
		o.Level = utility.ToStringPtr(DefaultLevel)
	}
	if _, err := ParseLevel(*o.Level); err != nil {
		catcher.Add(err)
	}
	if o.Output == nil {
		o.Output = os.Stderr
	}
	return catcher.Resolve()
}

// ParseLevel converts a level name into a zap level. Names are matched
// case-insensitively and "WARN" is accepted as an alias for "WARNING".
func ParseLevel(name string) (zapcore.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case LevelDebug:
		return zapcore.DebugLevel, nil
	case LevelInfo:
		return zapcore.InfoLevel, nil
	case LevelWarning, "WARN":
		return zapcore.WarnLevel, nil
	case LevelError:
		return zapcore.ErrorLevel, nil
	case LevelCritical:
		return zapcore.DPanicLevel, nil
	default:
		return zapcore.InvalidLevel, errors.Errorf("unrecognized log level '%s'", name)
	}
}

func levelName(l zapcore.Level) string {
	switch l {
	case zapcore.DebugLevel:
		return LevelDebug
	case zapcore.InfoLevel:
		return LevelInfo
	case zapcore.WarnLevel:
		return LevelWarning
	case zapcore.ErrorLevel:
		return LevelError
	default:
		return LevelCritical
	}
}
