package log

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
)

// Config controls the global logger.
type Config struct {
	Level     string           `mapstructure:"level"`  // debug | info | warn | error
	Format    string           `mapstructure:"format"` // text | json
	Appenders []AppenderConfig `mapstructure:"appenders"`
}

// AppenderConfig selects one log output. Options are appender-specific and
// decoded per type.
type AppenderConfig struct {
	Type    string                 `mapstructure:"type"` // console | file
	Options map[string]interface{} `mapstructure:"options"`
}

var root = logrus.New()

// Init configures the global logger from cfg. With no appenders configured
// a single console appender is used.
func Init(cfg Config) error {
	level, err := logrus.ParseLevel(defaultString(cfg.Level, "info"))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	root.SetLevel(level)

	switch strings.ToLower(defaultString(cfg.Format, "text")) {
	case "json":
		root.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		root.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("unsupported log format %q (must be text or json)", cfg.Format)
	}

	appenders := cfg.Appenders
	if len(appenders) == 0 {
		appenders = []AppenderConfig{{Type: "console"}}
	}

	var writers []io.Writer
	for _, a := range appenders {
		switch a.Type {
		case "console":
			writers = append(writers, os.Stdout)
		case "file":
			var fileCfg FileConfig
			if err := mapstructure.Decode(a.Options, &fileCfg); err != nil {
				return fmt.Errorf("invalid file appender options: %w", err)
			}
			if fileCfg.Filename == "" {
				return fmt.Errorf("file appender requires a filename")
			}
			writers = append(writers, newFileWriter(fileCfg))
		default:
			return fmt.Errorf("unknown appender type %q", a.Type)
		}
	}
	root.SetOutput(io.MultiWriter(writers...))
	return nil
}

// GetLogger returns the global logger.
func GetLogger() Logger {
	return &logrusLogger{entry: logrus.NewEntry(root)}
}

func defaultString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

type logrusLogger struct {
	entry *logrus.Entry
}

func (l *logrusLogger) Debug(args ...interface{})                 { l.entry.Debug(args...) }
func (l *logrusLogger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *logrusLogger) Info(args ...interface{})                  { l.entry.Info(args...) }
func (l *logrusLogger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *logrusLogger) Warn(args ...interface{})                  { l.entry.Warn(args...) }
func (l *logrusLogger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *logrusLogger) Error(args ...interface{})                 { l.entry.Error(args...) }
func (l *logrusLogger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

func (l *logrusLogger) WithField(field string, value interface{}) Logger {
	return &logrusLogger{entry: l.entry.WithField(field, value)}
}

func (l *logrusLogger) WithFields(fields map[string]interface{}) Logger {
	return &logrusLogger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

func (l *logrusLogger) WithError(err error) Logger {
	return &logrusLogger{entry: l.entry.WithError(err)}
}
