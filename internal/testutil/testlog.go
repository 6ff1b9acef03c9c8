// Package testlog records logx output for assertions in tests.
package testlog

import (
	"sync"

	"service-dispatch/internal/logx"
)

// Entry is one recorded log call.
type Entry struct {
	Level  string
	Msg    string
	Fields []logx.Field
}

// Field returns the value of the last field named key.
func (e Entry) Field(key string) (any, bool) {
	for i := len(e.Fields) - 1; i >= 0; i-- {
		if e.Fields[i].Key == key {
			return e.Fields[i].Value, true
		}
	}
	return nil, false
}

// Recorder collects entries from every logger it hands out.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// New returns an empty Recorder.
func New() *Recorder { return &Recorder{} }

// Logger returns a logx.Logger writing into r.
func (r *Recorder) Logger() logx.Logger {
	return &logger{r: r}
}

// Entries returns a copy of the recorded entries.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// Has reports whether any entry carries msg.
func (r *Recorder) Has(msg string) bool {
	for _, e := range r.Entries() {
		if e.Msg == msg {
			return true
		}
	}
	return false
}

// Level returns the entries logged at level.
func (r *Recorder) Level(level string) []Entry {
	var out []Entry
	for _, e := range r.Entries() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

type logger struct {
	r    *Recorder
	base []logx.Field
}

func (l *logger) record(level, msg string, fields []logx.Field) {
	all := make([]logx.Field, 0, len(l.base)+len(fields))
	all = append(all, l.base...)
	all = append(all, fields...)

	l.r.mu.Lock()
	l.r.entries = append(l.r.entries, Entry{Level: level, Msg: msg, Fields: all})
	l.r.mu.Unlock()
}

func (l *logger) Debug(msg string, f ...logx.Field) { l.record("debug", msg, f) }
func (l *logger) Info(msg string, f ...logx.Field)  { l.record("info", msg, f) }
func (l *logger) Warn(msg string, f ...logx.Field)  { l.record("warn", msg, f) }
func (l *logger) Error(msg string, f ...logx.Field) { l.record("error", msg, f) }
func (l *logger) Sync() error                       { return nil }

func (l *logger) With(f ...logx.Field) logx.Logger {
	base := make([]logx.Field, 0, len(l.base)+len(f))
	base = append(base, l.base...)
	base = append(base, f...)
	return &logger{r: l.r, base: base}
}
