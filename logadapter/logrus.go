// Package logadapter bridges third-party logging frameworks to the
// logging.Logger interface used throughout the SPOD pipeline.
package logadapter

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/gospod/spod/logging"
)

// LogrusLogger adapts a *logrus.Logger (or a scoped *logrus.Entry) to
// logging.Logger, for callers who already standardized on logrus.
type LogrusLogger struct {
	entry *log.Entry
}

// NewLogrusLogger wraps l in a logging.Logger. A nil l uses logrus's
// standard logger.
func NewLogrusLogger(l *log.Logger) *LogrusLogger {
	if l == nil {
		l = log.StandardLogger()
	}
	return &LogrusLogger{entry: log.NewEntry(l)}
}

func fieldsToLogrus(fields []logging.Fields) log.Fields {
	out := log.Fields{}
	for _, f := range fields {
		for k, v := range f {
			out[k] = v
		}
	}
	return out
}

func (l *LogrusLogger) Debug(msg string, fields ...logging.Fields) {
	l.entry.WithFields(fieldsToLogrus(fields)).Debug(msg)
}

func (l *LogrusLogger) Info(msg string, fields ...logging.Fields) {
	l.entry.WithFields(fieldsToLogrus(fields)).Info(msg)
}

func (l *LogrusLogger) Warn(msg string, fields ...logging.Fields) {
	l.entry.WithFields(fieldsToLogrus(fields)).Warn(msg)
}

func (l *LogrusLogger) Error(err error, msg string, fields ...logging.Fields) {
	e := l.entry.WithFields(fieldsToLogrus(fields))
	if err != nil {
		e = e.WithError(err)
	}
	e.Error(msg)
}

func (l *LogrusLogger) Fatal(err error, msg string, fields ...logging.Fields) {
	e := l.entry.WithFields(fieldsToLogrus(fields))
	if err != nil {
		e = e.WithError(err)
	}
	e.Fatal(msg)
}

func (l *LogrusLogger) WithFields(fields logging.Fields) logging.Logger {
	return &LogrusLogger{entry: l.entry.WithFields(fieldsToLogrus([]logging.Fields{fields}))}
}

func (l *LogrusLogger) WithContext(ctx context.Context) logging.Logger {
	return &LogrusLogger{entry: l.entry.WithContext(ctx)}
}

func (l *LogrusLogger) SetLevel(level logging.Level) {
	switch level {
	case logging.DebugLevel:
		l.entry.Logger.SetLevel(log.DebugLevel)
	case logging.InfoLevel:
		l.entry.Logger.SetLevel(log.InfoLevel)
	case logging.WarnLevel:
		l.entry.Logger.SetLevel(log.WarnLevel)
	case logging.ErrorLevel:
		l.entry.Logger.SetLevel(log.ErrorLevel)
	case logging.FatalLevel:
		l.entry.Logger.SetLevel(log.FatalLevel)
	}
}
