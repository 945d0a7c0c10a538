package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the service logger. JSON to stdout; raw query or
// result text is never logged anywhere in the pipeline.
func NewLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.JSONFormatter{})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)
	return log
}
