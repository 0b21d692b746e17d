// Package logging configures the logrus logger shared by the services.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// New returns a JSON logger writing to out (stderr when nil). Unknown levels
// fall back to info; debug also reports the caller.
func New(level string, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	if out == nil {
		out = os.Stderr
	}
	logger.Out = out

	SetLevel(logger, level)
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
	})
	return logger
}

// SetLevel applies level by name, falling back to info.
func SetLevel(logger *logrus.Logger, level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	logger.SetReportCaller(lvl >= logrus.DebugLevel)
}

// ForService tags every entry with the service name.
func ForService(logger *logrus.Logger, service string) *logrus.Entry {
	return logger.WithField("service", service)
}
