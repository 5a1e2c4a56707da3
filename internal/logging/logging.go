// Package logging configures the shared logrus logger for the CDB-MCP
// server. All log output goes to stderr: stdout carries the MCP protocol
// stream and must never receive anything else.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Setup configures the standard logger. Called once at startup, before any
// component logs.
func Setup(verbose bool) {
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
}

// WithComponent returns a logger entry tagged with the component name, so
// every line identifies which part of the server produced it.
func WithComponent(component string) *logrus.Entry {
	return logrus.WithField("component", component)
}
