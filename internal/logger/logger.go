// internal/logger/logger.go
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/awingconnect/license-server/internal/config"
)

// Setup configures the process wide logrus logger and returns it.
func Setup(cfg config.LogConfig) *logrus.Logger {
	return configure(logrus.StandardLogger(), cfg, os.Stdout)
}

func configure(log *logrus.Logger, cfg config.LogConfig, out io.Writer) *logrus.Logger {
	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	log.SetOutput(out)

	if strings.EqualFold(cfg.Format, "json") {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	if err != nil && cfg.Level != "" {
		log.WithField("level", cfg.Level).Warn("Unknown log level, falling back to info")
	}
	return log
}
