package flushio

import (
	"bytes"
	"fmt"
	"io"
)

// Latch writes through a WriteFlusher until the first error, which it keeps;
// all later writes are dropped. This lets a long sequence of small writes be
// checked once, at Flush.
type Latch struct {
	out   WriteFlusher
	err   error
	lines int
}

// NewLatch returns a Latch writing to w through NewWriteFlusher.
func NewLatch(w io.Writer) *Latch {
	return &Latch{out: NewWriteFlusher(w)}
}

// Err returns the first error encountered, if any.
func (l *Latch) Err() error { return l.err }

// Lines returns how many line feeds have been written.
func (l *Latch) Lines() int { return l.lines }

func (l *Latch) Write(p []byte) (int, error) {
	if l.err != nil {
		return 0, l.err
	}
	n, err := l.out.Write(p)
	l.lines += bytes.Count(p[:n], []byte{'\n'})
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	l.err = err
	return n, err
}

// WriteString writes s.
func (l *Latch) WriteString(s string) (int, error) {
	return l.Write([]byte(s))
}

// Printf writes a formatted string.
func (l *Latch) Printf(format string, args ...interface{}) {
	if l.err == nil {
		fmt.Fprintf(l, format, args...)
	}
}

// Flush flushes the underlying writer, returning the first error from any
// write or from flushing.
func (l *Latch) Flush() error {
	if l.err != nil {
		return l.err
	}
	l.err = l.out.Flush()
	return l.err
}
