// Package errsink collects the diagnostics produced while reading or writing a Kolab object.
package errsink

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Severity orders diagnostics, Debug being the least severe.
type Severity int

const (
	Debug Severity = iota
	Warning
	Error
	Critical
)

func (s Severity) String() string {
	switch s {
	case Debug:
		return "debug"
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Critical:
		return "critical"
	}
	return "severity(" + strconv.Itoa(int(s)) + ")"
}

// logLevel maps a severity onto the zerolog level it is logged at.
func (s Severity) logLevel() zerolog.Level {
	switch s {
	case Debug:
		return zerolog.DebugLevel
	case Warning:
		return zerolog.WarnLevel
	case Error:
		return zerolog.ErrorLevel
	}
	return zerolog.ErrorLevel
}

// Entry is a single recorded diagnostic.
type Entry struct {
	Severity Severity
	Message  string
	Location string // file:line of the reporting call.
}

func (e Entry) String() string {
	return fmt.Sprintf("%s: %s (%s)", e.Severity, e.Message, e.Location)
}

// Sink accumulates diagnostics for one top-level operation. Entry points clear it before they
// start, callers inspect Worst or ErrorOccurred afterwards. A nil *Sink only logs.
type Sink struct {
	mu      sync.Mutex
	entries []Entry
	worst   Severity
	logger  zerolog.Logger
}

// New returns an empty sink logging through the global zerolog logger.
func New() *Sink {
	return NewWithLogger(log.With().Str("module", "kolab").Logger())
}

// NewWithLogger returns an empty sink logging through l.
func NewWithLogger(l zerolog.Logger) *Sink {
	return &Sink{logger: l}
}

// Clear drops every recorded entry.
func (s *Sink) Clear() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	s.worst = Debug
}

// Add records a diagnostic at the given severity.
func (s *Sink) Add(sev Severity, format string, args ...interface{}) {
	s.add(sev, caller(2), fmt.Sprintf(format, args...))
}

// Debugf records a Debug entry.
func (s *Sink) Debugf(format string, args ...interface{}) {
	s.add(Debug, caller(2), fmt.Sprintf(format, args...))
}

// Warnf records a Warning entry.
func (s *Sink) Warnf(format string, args ...interface{}) {
	s.add(Warning, caller(2), fmt.Sprintf(format, args...))
}

// Errorf records an Error entry.
func (s *Sink) Errorf(format string, args ...interface{}) {
	s.add(Error, caller(2), fmt.Sprintf(format, args...))
}

// Criticalf records a Critical entry.
func (s *Sink) Criticalf(format string, args ...interface{}) {
	s.add(Critical, caller(2), fmt.Sprintf(format, args...))
}

func (s *Sink) add(sev Severity, location, msg string) {
	logger := log.Logger
	if s != nil {
		logger = s.logger
	}
	ev := logger.WithLevel(sev.logLevel()).Str("location", location)
	if sev == Critical {
		ev = ev.Bool("critical", true)
	}
	ev.Msg(msg)
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) == 0 || sev > s.worst {
		s.worst = sev
	}
	s.entries = append(s.entries, Entry{Severity: sev, Message: msg, Location: location})
}

// Merge copies every entry of other into s, preserving order. Used to pull the diagnostics of
// a nested codec into the operation's sink.
func (s *Sink) Merge(other *Sink) {
	if s == nil || other == nil || s == other {
		return
	}
	entries := other.Entries()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		if len(s.entries) == 0 || e.Severity > s.worst {
			s.worst = e.Severity
		}
		s.entries = append(s.entries, e)
	}
}

// Entries returns a copy of the recorded entries.
func (s *Sink) Entries() []Entry {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.entries...)
}

// Len returns the number of recorded entries.
func (s *Sink) Len() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Worst returns the highest severity recorded since the last Clear, Debug when empty.
func (s *Sink) Worst() Severity {
	if s == nil {
		return Debug
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.worst
}

// ErrorOccurred reports whether an Error or Critical entry was recorded.
func (s *Sink) ErrorOccurred() bool {
	return s.Len() > 0 && s.Worst() >= Error
}

// Err returns the first entry of the worst severity as an error, if that severity is Error or
// above.
func (s *Sink) Err() error {
	if !s.ErrorOccurred() {
		return nil
	}
	worst := s.Worst()
	for _, e := range s.Entries() {
		if e.Severity == worst {
			return &EntryError{Entry: e}
		}
	}
	return nil
}

// EntryError wraps a sink entry as an error value.
type EntryError struct {
	Entry Entry
}

func (e *EntryError) Error() string {
	return e.Entry.Severity.String() + ": " + e.Entry.Message
}

func caller(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	return filepath.Base(file) + ":" + strconv.Itoa(line)
}
