package svcinstall

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Structured log field names
const (
	fieldService = "service"
	fieldBackend = "backend"
	fieldState   = "state"
	fieldOp      = "op"
)

// DiscardLogger returns a logger that drops every entry. Library
// components use it when no logger is configured.
func DiscardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func loggerOrDiscard(log logrus.FieldLogger) logrus.FieldLogger {
	if log == nil {
		return DiscardLogger()
	}
	return log
}
