// Package diagnostic provides leveled logging and a helper for turning a
// byte-offset span from a parsed source file into a file:line:column
// location, in the style of a compiler frontend's diagnostic log.
package diagnostic

import (
	"fmt"
	"io"
	"sort"
	"sync"
)

// Level controls which messages a Log accepts.
type Level int8

const (
	LevelSilent Level = iota
	LevelError
	LevelWarn
	LevelInfo
)

// Kind classifies a diagnostic for downstream filtering (e.g. the driver
// tagging AutoGenerated messages as debug-only).
type Kind string

const (
	KindConfigInvalid   Kind = "config_invalid"
	KindResolveFailure  Kind = "resolve_failure"
	KindParseFailure    Kind = "parse_failure"
	KindAutoGenerated   Kind = "auto_generated"
	KindIOFailure       Kind = "io_failure"
	KindWatchdog        Kind = "watchdog"
	KindDeadlockWarning Kind = "deadlock_warning"
)

// Location pinpoints a diagnostic in a source file.
type Location struct {
	File   string
	Line   int // 1-based
	Column int // 1-based
}

func (l Location) String() string {
	if l.File == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Msg is one diagnostic message.
type Msg struct {
	Level    Level
	Kind     Kind
	Text     string
	Location *Location
}

func (m Msg) String() string {
	if m.Location != nil {
		return fmt.Sprintf("%s: %s", m.Location.String(), m.Text)
	}
	return m.Text
}

// Sink receives messages as they are logged. Implementations must be safe
// for concurrent use.
type Sink interface {
	Log(Msg)
}

// WriterSink renders messages as lines to an io.Writer.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink wraps w as a Sink.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) Log(m Msg) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.w, levelPrefix(m.Level)+m.String())
}

func levelPrefix(l Level) string {
	switch l {
	case LevelError:
		return "error: "
	case LevelWarn:
		return "warning: "
	case LevelInfo:
		return "note: "
	default:
		return ""
	}
}

// Log is a leveled logger over a pluggable Sink. Safe for concurrent use.
type Log struct {
	mu    sync.Mutex
	level Level
	sink  Sink
	msgs  []Msg
}

// New returns a Log that forwards messages at or below level to sink, and
// also retains them for later inspection via Messages.
func New(level Level, sink Sink) *Log {
	return &Log{level: level, sink: sink}
}

func (l *Log) emit(m Msg) {
	l.mu.Lock()
	l.msgs = append(l.msgs, m)
	l.mu.Unlock()
	if m.Level <= l.level && l.sink != nil {
		l.sink.Log(m)
	}
}

// Info logs an informational message.
func (l *Log) Info(kind Kind, text string, loc *Location) {
	l.emit(Msg{Level: LevelInfo, Kind: kind, Text: text, Location: loc})
}

// Warn logs a warning.
func (l *Log) Warn(kind Kind, text string, loc *Location) {
	l.emit(Msg{Level: LevelWarn, Kind: kind, Text: text, Location: loc})
}

// Error logs an error-level diagnostic.
func (l *Log) Error(kind Kind, text string, loc *Location) {
	l.emit(Msg{Level: LevelError, Kind: kind, Text: text, Location: loc})
}

// Messages returns every message logged so far, in emission order.
func (l *Log) Messages() []Msg {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Msg(nil), l.msgs...)
}

// SortedByLocation returns msgs sorted by file then line then column, with
// location-less messages last. Useful for deterministic test assertions and
// stable report output.
func SortedByLocation(msgs []Msg) []Msg {
	sorted := append([]Msg(nil), msgs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		li, lj := sorted[i].Location, sorted[j].Location
		if li == nil || lj == nil {
			return lj == nil && li != nil
		}
		if li.File != lj.File {
			return li.File < lj.File
		}
		if li.Line != lj.Line {
			return li.Line < lj.Line
		}
		return li.Column < lj.Column
	})
	return sorted
}

// SourceLocator turns byte offsets in one source file's content into
// 1-based line:column locations, without retaining the parsed AST.
type SourceLocator struct {
	file        string
	lineOffsets []int // byte offset of the start of each line
}

// NewSourceLocator builds a locator over content, the raw bytes of file.
func NewSourceLocator(file string, content []byte) *SourceLocator {
	offsets := []int{0}
	for i, b := range content {
		if b == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return &SourceLocator{file: file, lineOffsets: offsets}
}

// Locate converts a byte offset into a Location. Offsets past the end of the
// content clamp to the last known line.
func (s *SourceLocator) Locate(byteOffset int) Location {
	line := sort.Search(len(s.lineOffsets), func(i int) bool {
		return s.lineOffsets[i] > byteOffset
	}) - 1
	if line < 0 {
		line = 0
	}
	col := byteOffset - s.lineOffsets[line] + 1
	return Location{File: s.file, Line: line + 1, Column: col}
}
