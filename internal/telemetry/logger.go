// internal/telemetry/logger.go
package telemetry

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/querylab/internal/config"
)

// NewLogger builds a logrus logger from the LOG_LEVEL / LOG_FORMAT settings.
// Unknown levels fall back to info.
func NewLogger(cfg config.LogConfig, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	if out != nil {
		logger.SetOutput(out)
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if strings.EqualFold(cfg.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}
