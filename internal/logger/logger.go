// Package logger is the central log for the emulator. Entries are tagged,
// consecutive duplicates are collapsed into a repeat count and only the most
// recent entries are kept.
package logger

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// maximum number of entries kept by the central logger
const maxCentral = 256

// Entry is one line of the log. Count is how many times in a row the same
// tag and detail were logged.
type Entry struct {
	Timestamp time.Time
	Tag       string
	Detail    string
	Count     int
}

func (e Entry) String() string {
	if e.Count <= 1 {
		return e.Tag + ": " + e.Detail + "\n"
	}
	return fmt.Sprintf("%s: %s [%d times]\n", e.Tag, e.Detail, e.Count)
}

// Permission decides whether a caller may add entries to the log. Components
// that are constructed many times in tests carry a Permission so that they
// can be muted without touching the central logger.
type Permission interface {
	AllowLogging() bool
}

type allow bool

func (a allow) AllowLogging() bool { return bool(a) }

// Allow is a Permission that always permits logging.
const Allow = allow(true)

// Deny is a Permission that never permits logging.
const Deny = allow(false)

// Logger is a bounded, tagged log.
type Logger struct {
	mu         sync.Mutex
	maxEntries int
	entries    []Entry
	echo       io.Writer
}

// New creates a logger holding at most maxEntries entries.
func New(maxEntries int) *Logger {
	if maxEntries <= 0 {
		maxEntries = maxCentral
	}
	return &Logger{
		maxEntries: maxEntries,
		entries:    make([]Entry, 0, maxEntries),
	}
}

// Log adds an entry. Newlines are stripped from both tag and detail.
func (l *Logger) Log(perm Permission, tag, detail string) {
	if perm != nil && !perm.AllowLogging() {
		return
	}

	tag = strings.ReplaceAll(tag, "\n", "")
	detail = strings.ReplaceAll(detail, "\n", "")

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if n := len(l.entries); n > 0 && l.entries[n-1].Tag == tag && l.entries[n-1].Detail == detail {
		l.entries[n-1].Count++
		l.entries[n-1].Timestamp = now
	} else {
		l.entries = append(l.entries, Entry{Timestamp: now, Tag: tag, Detail: detail, Count: 1})
	}

	if len(l.entries) > l.maxEntries {
		l.entries = l.entries[len(l.entries)-l.maxEntries:]
	}

	if l.echo != nil {
		io.WriteString(l.echo, l.entries[len(l.entries)-1].String())
	}
}

// Logf is Log with a format string.
func (l *Logger) Logf(perm Permission, tag, format string, args ...interface{}) {
	l.Log(perm, tag, fmt.Sprintf(format, args...))
}

// SetEcho mirrors every new entry to w. A nil writer turns echoing off.
func (l *Logger) SetEcho(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.echo = w
}

// Clear removes all entries.
func (l *Logger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = l.entries[:0]
}

// Write writes every entry to output. Returns false if the log is empty.
func (l *Logger) Write(output io.Writer) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) == 0 {
		return false
	}
	for _, e := range l.entries {
		io.WriteString(output, e.String())
	}
	return true
}

// Tail writes the last number entries to output.
func (l *Logger) Tail(output io.Writer, number int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if number > len(l.entries) {
		number = len(l.entries)
	}
	for _, e := range l.entries[len(l.entries)-number:] {
		io.WriteString(output, e.String())
	}
}

// Entries returns a copy of the current entries.
func (l *Logger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	c := make([]Entry, len(l.entries))
	copy(c, l.entries)
	return c
}

// the central logger used by the package level functions
var central = New(maxCentral)

// Log adds an entry to the central logger.
func Log(perm Permission, tag, detail string) {
	central.Log(perm, tag, detail)
}

// Logf adds a formatted entry to the central logger.
func Logf(perm Permission, tag, format string, args ...interface{}) {
	central.Logf(perm, tag, format, args...)
}

// SetEcho mirrors central log entries to w.
func SetEcho(w io.Writer) {
	central.SetEcho(w)
}

// Clear empties the central logger.
func Clear() {
	central.Clear()
}

// Write writes the central log to output.
func Write(output io.Writer) bool {
	return central.Write(output)
}

// Tail writes the last number entries of the central log to output.
func Tail(output io.Writer, number int) {
	central.Tail(output, number)
}

// Central returns the central logger.
func Central() *Logger {
	return central
}
