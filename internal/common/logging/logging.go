// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/weaveworks/promrus"
)

const (
	FormatText        = "text"
	FormatJSON        = "json"
	FormatCommandLine = "cli"
)

type Config struct {
	// Log level, e.g. info, debug.
	Level string `validate:"omitempty,oneof=trace debug info warn warning error fatal panic"`
	// One of text, json or cli.
	Format string `validate:"omitempty,oneof=text json cli"`
	// Count log lines per level in the log_messages_total Prometheus counter.
	Metrics bool
}

func DefaultConfig() Config {
	return Config{Level: "info", Format: FormatCommandLine}
}

// Configure applies config to the standard logger, writing to out.
func Configure(config Config, out io.Writer) error {
	level := log.InfoLevel
	if config.Level != "" {
		parsed, err := log.ParseLevel(config.Level)
		if err != nil {
			return errors.WithStack(err)
		}
		level = parsed
	}

	formatter, err := newFormatter(config.Format)
	if err != nil {
		return err
	}

	logger := log.StandardLogger()
	logger.SetOutput(out)
	logger.SetFormatter(formatter)
	logger.SetLevel(level)
	logger.ReplaceHooks(make(log.LevelHooks))

	if config.Metrics {
		hook, err := promrus.NewPrometheusHook()
		if err != nil {
			return errors.WithMessage(err, "registering log metrics")
		}
		logger.AddHook(hook)
	}
	return nil
}

// ConfigureCommandLineLogging sets up plain logging to stdout for command line tools.
func ConfigureCommandLineLogging() {
	if err := Configure(DefaultConfig(), os.Stdout); err != nil {
		log.WithError(err).Error("Error configuring logging")
	}
}

func newFormatter(format string) (log.Formatter, error) {
	switch strings.ToLower(format) {
	case FormatText:
		return &log.TextFormatter{FullTimestamp: true}, nil
	case FormatJSON:
		return &log.JSONFormatter{}, nil
	case FormatCommandLine, "":
		return &CommandLineFormatter{}, nil
	default:
		return nil, errors.Errorf("unknown log format %q, must be one of %s, %s or %s", format, FormatText, FormatJSON, FormatCommandLine)
	}
}
