// Package commands implements the glueops subcommands.
package commands

import (
	"io"
	"os"
	"sort"
	"strings"

	"github.com/GlueOps/glueops/internal/config"
	"github.com/GlueOps/glueops/logging"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/level"
	"github.com/mongodb/grip/send"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
)

// LoggerName is the name of the command logger.
const LoggerName = "glueops"

func loadSettings(cfg *config.Config) (*config.Settings, error) {
	if cfg.Settings != nil {
		return cfg.Settings, nil
	}
	if err := cfg.Load(); err != nil {
		return nil, errors.Wrap(err, "loading configuration")
	}
	return cfg.Settings, nil
}

// ConfigureLogging loads the settings and points both the command logger and
// library diagnostics at the configured level.
func ConfigureLogging(cfg *config.Config, w io.Writer) error {
	settings, err := loadSettings(cfg)
	if err != nil {
		return err
	}

	logger, err := logging.Configure(logging.NewOptions().
		SetName(LoggerName).
		SetLevel(settings.Log.Level).
		SetOutput(w))
	if err != nil {
		return errors.Wrap(err, "configuring logger")
	}
	cfg.Logger = logger

	lvl, err := logging.ParseLevel(settings.Log.Level)
	if err != nil {
		return err
	}
	return errors.Wrap(grip.GetSender().SetLevel(send.LevelInfo{
		Default:   level.Info,
		Threshold: gripThreshold(lvl),
	}), "setting diagnostic log level")
}

func gripThreshold(l zapcore.Level) level.Priority {
	switch l {
	case zapcore.DebugLevel:
		return level.Debug
	case zapcore.InfoLevel:
		return level.Info
	case zapcore.WarnLevel:
		return level.Warning
	case zapcore.ErrorLevel:
		return level.Error
	default:
		return level.Critical
	}
}

// readInput reads the named file, or the command's stdin when the name is "-".
func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "" {
		return "", errors.New("must specify an input file or '-' for stdin")
	}
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", errors.Wrap(err, "reading stdin")
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "reading file '%s'", path)
	}
	return string(data), nil
}

// parseKeyValues parses arguments of the form key=value. Values may contain
// '='.
func parseKeyValues(args []string) (map[string]string, error) {
	kvs := make(map[string]string, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || k == "" {
			return nil, errors.Errorf("invalid key-value pair '%s', expected key=value", arg)
		}
		kvs[k] = v
	}
	return kvs, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
