// Package logx is the runtime's logging façade, grounded on the
// FuncLog/Logger pattern in nabbar-golib/logger: callers never hold a
// concrete logger, they hold a FuncLog that resolves one lazily so the
// dispatcher and every communicator can share a single swappable sink.
package logx

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Logger is the minimal structured-logging surface the runtime uses.
type Logger interface {
	WithField(key string, val interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
	WithError(err error) Logger

	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})
}

// FuncLog resolves the current Logger. Components keep a FuncLog rather
// than a Logger so that replacing the sink (SetOutput, SetLevel) takes
// effect for every component without a config-reload pass.
type FuncLog func() Logger

type entry struct {
	e *logrus.Entry
}

func (l *entry) WithField(key string, val interface{}) Logger {
	return &entry{e: l.e.WithField(key, val)}
}

func (l *entry) WithFields(fields map[string]interface{}) Logger {
	return &entry{e: l.e.WithFields(fields)}
}

func (l *entry) WithError(err error) Logger {
	return &entry{e: l.e.WithError(err)}
}

func (l *entry) Debug(args ...interface{}) { l.e.Debug(args...) }
func (l *entry) Info(args ...interface{})  { l.e.Info(args...) }
func (l *entry) Warn(args ...interface{})  { l.e.Warn(args...) }
func (l *entry) Error(args ...interface{}) { l.e.Error(args...) }

// New wraps a *logrus.Logger (or logrus.StandardLogger() if nil) behind
// the Logger interface.
func New(base *logrus.Logger) Logger {
	if base == nil {
		base = logrus.StandardLogger()
	}
	return &entry{e: logrus.NewEntry(base)}
}

// Discard returns a FuncLog whose Logger writes nowhere. Useful as the
// zero-value default so components never need a nil check.
func Discard() FuncLog {
	base := logrus.New()
	base.SetOutput(io.Discard)
	l := New(base)
	return func() Logger { return l }
}

// Default returns a FuncLog backed by logrus.StandardLogger().
func Default() FuncLog {
	l := New(nil)
	return func() Logger { return l }
}
