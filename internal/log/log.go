// Package log configures the process-wide logrus logger.
package log

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Setup sets the level and formatter. Output goes to stderr so that the
// extract command can keep stdout for JSON.
func Setup(level string, json bool) {
	SetupTo(os.Stderr, level, json)
}

// SetupTo is Setup with an explicit writer.
func SetupTo(w io.Writer, level string, json bool) {
	logrus.SetOutput(w)

	if json {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logrus.SetLevel(parsed)
}
