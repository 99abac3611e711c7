// Package logging provides the structured logger used across webmirror: a
// thin interface over logrus, matching the internal/log shape used across
// the retrieved crawler corpus, so the core scheduler never depends on
// logrus types directly.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the minimal surface the core package needs. Callers that don't
// care about structured logging can pass Discard().
type Logger interface {
	WithField(key string, value interface{}) Logger
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// logrusLogger adapts *logrus.Entry to Logger.
type logrusLogger struct {
	entry *logrus.Entry
}

// New builds a Logger backed by logrus, writing text-formatted entries to w
// at the given level. level accepts the same strings as logrus.ParseLevel
// ("debug", "info", "warn", "error"); an unrecognized value falls back to
// info, matching the teacher CLI's tolerant flag parsing style.
func New(w io.Writer, level string) Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	l.SetLevel(parsed)

	return &logrusLogger{entry: logrus.NewEntry(l)}
}

// Discard returns a Logger that drops everything, for callers (tests,
// library embedders) that don't want any output.
func Discard() Logger {
	return New(io.Discard, "error")
}

func (l *logrusLogger) WithField(key string, value interface{}) Logger {
	return &logrusLogger{entry: l.entry.WithField(key, value)}
}

func (l *logrusLogger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *logrusLogger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *logrusLogger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *logrusLogger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

// Stderr is a convenience default used by the CLI entry point.
func Stderr(level string) Logger {
	return New(os.Stderr, level)
}
