// Package output provides interleaving-safe sinks for command output.
// Concurrent plan members each write through their own Member channel, and
// every sink guarantees that unrelated members' bytes never interleave
// within a line: output is either streamed under a lock, line-buffered
// with a per-member prefix, or fully buffered and flushed atomically when
// the member finishes.
package output

import (
	"bytes"
	"io"
	"sync"

	"github.com/gookit/color"
)

// Sink hands out per-member output channels over a shared destination.
type Sink interface {
	// Member opens an output channel for one plan member. The label is
	// used by prefixing sinks to attribute lines.
	Member(label string) Member
}

// Member is the output channel of a single plan member. Close must be
// called exactly once, when the member finishes, to flush anything
// buffered.
type Member interface {
	Stdout() io.Writer
	Stderr() io.Writer
	Close() error
}

// Mode selects a sink implementation by name.
type Mode string

const (
	// ModeStream writes output through as it arrives, serialized per
	// write call.
	ModeStream Mode = "stream"
	// ModePrefix line-buffers each member and prefixes every line with
	// the member's label.
	ModePrefix Mode = "prefix"
	// ModeBuffer holds each member's output until it completes, then
	// flushes it in one piece.
	ModeBuffer Mode = "buffer"
)

// NewSink builds the sink for mode over the given writers. Unknown modes
// fall back to prefixing, the default for mixed concurrent output.
func NewSink(mode Mode, stdout, stderr io.Writer) Sink {
	switch mode {
	case ModeStream:
		return NewStreamSink(stdout, stderr)
	case ModeBuffer:
		return NewBufferSink(stdout, stderr)
	default:
		return NewPrefixSink(stdout, stderr)
	}
}

// lockedWriter serializes writes from multiple members onto one writer.
type lockedWriter struct {
	mu *sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// StreamSink passes output straight through, serializing individual
// write calls. Suited to sequential execution where only one member
// writes at a time.
type StreamSink struct {
	mu     sync.Mutex
	stdout io.Writer
	stderr io.Writer
}

// NewStreamSink creates a pass-through sink over stdout/stderr.
func NewStreamSink(stdout, stderr io.Writer) *StreamSink {
	return &StreamSink{stdout: stdout, stderr: stderr}
}

// Member implements Sink.
func (s *StreamSink) Member(label string) Member {
	return &streamMember{
		stdout: &lockedWriter{mu: &s.mu, w: s.stdout},
		stderr: &lockedWriter{mu: &s.mu, w: s.stderr},
	}
}

type streamMember struct {
	stdout io.Writer
	stderr io.Writer
}

func (m *streamMember) Stdout() io.Writer { return m.stdout }
func (m *streamMember) Stderr() io.Writer { return m.stderr }
func (m *streamMember) Close() error      { return nil }

// palette cycles the colors used for member prefixes.
var palette = []color.Color{
	color.FgCyan,
	color.FgGreen,
	color.FgMagenta,
	color.FgYellow,
	color.FgBlue,
	color.FgRed,
}

// PrefixSink line-buffers each member and writes whole lines, each
// prefixed with the member's colored label, onto the shared writers.
type PrefixSink struct {
	mu     sync.Mutex
	stdout io.Writer
	stderr io.Writer
	next   int
}

// NewPrefixSink creates a line-prefixing sink over stdout/stderr.
func NewPrefixSink(stdout, stderr io.Writer) *PrefixSink {
	return &PrefixSink{stdout: stdout, stderr: stderr}
}

// Member implements Sink.
func (s *PrefixSink) Member(label string) Member {
	s.mu.Lock()
	c := palette[s.next%len(palette)]
	s.next++
	s.mu.Unlock()

	prefix := c.Render(label+" |") + " "
	return &prefixMember{
		stdout: &lineWriter{mu: &s.mu, w: s.stdout, prefix: prefix},
		stderr: &lineWriter{mu: &s.mu, w: s.stderr, prefix: prefix},
	}
}

type prefixMember struct {
	stdout *lineWriter
	stderr *lineWriter
}

func (m *prefixMember) Stdout() io.Writer { return m.stdout }
func (m *prefixMember) Stderr() io.Writer { return m.stderr }

func (m *prefixMember) Close() error {
	if err := m.stdout.flush(); err != nil {
		return err
	}
	return m.stderr.flush()
}

// lineWriter buffers partial lines per member and emits only complete,
// prefixed lines under the shared lock.
type lineWriter struct {
	mu     *sync.Mutex
	w      io.Writer
	prefix string
	buf    bytes.Buffer
}

func (l *lineWriter) Write(p []byte) (int, error) {
	n := len(p)
	l.buf.Write(p)
	for {
		line, err := l.buf.ReadString('\n')
		if err != nil {
			// Partial line: keep it buffered until the newline arrives.
			l.buf.WriteString(line)
			break
		}
		if werr := l.emit(line); werr != nil {
			return n, werr
		}
	}
	return n, nil
}

func (l *lineWriter) flush() error {
	if l.buf.Len() == 0 {
		return nil
	}
	line := l.buf.String() + "\n"
	l.buf.Reset()
	return l.emit(line)
}

func (l *lineWriter) emit(line string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := io.WriteString(l.w, l.prefix+line)
	return err
}

// BufferSink captures each member's output in full and flushes it
// atomically when the member closes, so one member's output appears as a
// single uninterrupted block.
type BufferSink struct {
	mu     sync.Mutex
	stdout io.Writer
	stderr io.Writer
}

// NewBufferSink creates a flush-at-completion sink over stdout/stderr.
func NewBufferSink(stdout, stderr io.Writer) *BufferSink {
	return &BufferSink{stdout: stdout, stderr: stderr}
}

// Member implements Sink.
func (s *BufferSink) Member(label string) Member {
	return &bufferMember{sink: s}
}

type bufferMember struct {
	sink   *BufferSink
	stdout bytes.Buffer
	stderr bytes.Buffer
}

func (m *bufferMember) Stdout() io.Writer { return &m.stdout }
func (m *bufferMember) Stderr() io.Writer { return &m.stderr }

func (m *bufferMember) Close() error {
	m.sink.mu.Lock()
	defer m.sink.mu.Unlock()
	if m.stdout.Len() > 0 {
		if _, err := m.sink.stdout.Write(m.stdout.Bytes()); err != nil {
			return err
		}
	}
	if m.stderr.Len() > 0 {
		if _, err := m.sink.stderr.Write(m.stderr.Bytes()); err != nil {
			return err
		}
	}
	return nil
}
