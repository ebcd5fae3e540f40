package logging

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Init configures the global logrus logger.
// In production (ENVIRONMENT=production) it uses JSON output for log aggregation.
// Otherwise it uses the human-readable text formatter.
func Init() {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))

	if env == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		logrus.SetLevel(logrus.InfoLevel)
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetOutput(os.Stdout)
}

// Component returns a logger with the component field attached.
// Use this for all logging within the persistence pipeline.
func Component(name string) *logrus.Entry {
	return logrus.WithField("component", name)
}

// WithSlot returns a logger scoped to a slot and operation.
func WithSlot(logger *logrus.Entry, slotID, operationID string) *logrus.Entry {
	return logger.WithFields(logrus.Fields{
		"slot":         slotID,
		"operation_id": operationID,
	})
}
