package log

import (
	"io"
	"sync/atomic"

	"gopkg.in/Sirupsen/logrus.v0"
)

type Level uint32

// Same ordering as logrus: lower is more severe.
const (
	PanicLevel Level = iota
	FatalLevel
	ErrorLevel
	WarnLevel
	InfoLevel
	DebugLevel
)

var disabled atomic.Bool

func init() {
	logrus.SetLevel(logrus.DebugLevel)
	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
}

// Disable turns off all logging, warnings and errors included.
func Disable() { disabled.Store(true) }

// Enable undoes Disable.
func Enable() { disabled.Store(false) }

// SetOutput redirects the output of all modules.
func SetOutput(w io.Writer) { logrus.SetOutput(w) }

type Fields logrus.Fields

// Entry is like a logrus.Entry but it is cheap to build: fields are only
// evaluated if the module is enabled at the requested level.
type Entry struct {
	mod    Module
	fields [4]Fields
}

func (entry Entry) log() *logrus.Entry {
	final := logrus.StandardLogger().WithField("_mod", entry.mod.String())
	for _, f := range entry.fields {
		if f != nil {
			final = final.WithFields(logrus.Fields(f))
		}
	}
	return final
}

func (entry Entry) WithFields(fields Fields) Entry {
	for idx := range entry.fields {
		if entry.fields[idx] == nil {
			entry.fields[idx] = fields
			return entry
		}
	}
	return entry
}

func (entry Entry) WithField(key string, value any) Entry {
	return entry.WithFields(Fields{key: value})
}

func (entry Entry) Debugf(format string, args ...any) {
	if entry.mod.Enabled(DebugLevel) {
		entry.log().Debugf(format, args...)
	}
}

func (entry Entry) Infof(format string, args ...any) {
	if entry.mod.Enabled(InfoLevel) {
		entry.log().Infof(format, args...)
	}
}

func (entry Entry) Warnf(format string, args ...any) {
	if entry.mod.Enabled(WarnLevel) {
		entry.log().Warnf(format, args...)
	}
}

func (entry Entry) Errorf(format string, args ...any) {
	if entry.mod.Enabled(ErrorLevel) {
		entry.log().Errorf(format, args...)
	}
}

func (entry Entry) Fatalf(format string, args ...any) {
	if entry.mod.Enabled(FatalLevel) {
		entry.log().Fatalf(format, args...)
	}
}
