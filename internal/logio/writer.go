package logio

import (
	"bytes"
	"sync"
)

// Writer implements an io.Writer around a formatted logging function, such as
// a Logger.Leveledf or testing.T.Logf.
type Writer struct {
	Logf func(string, ...interface{})

	// Prefix is prepended to every line logged.
	Prefix string

	mu  sync.Mutex
	buf bytes.Buffer
}

// Write writes the given bytes into an internal buffer, then flushes any
// completed lines through Logf. This is all done while holding a lock, so that
// writing is safe from multiple goroutines.
func (lw *Writer) Write(p []byte) (n int, err error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	lw.buf.Write(p)
	lw.flushLines(false)
	return len(p), nil
}

// Close flushes any final partial line.
func (lw *Writer) Close() error {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	lw.flushLines(true)
	return nil
}

func (lw *Writer) flushLines(all bool) {
	for lw.buf.Len() > 0 {
		i := bytes.IndexByte(lw.buf.Bytes(), '\n')
		if i >= 0 {
			lw.logf(lw.buf.Next(i))
			lw.buf.Next(1)
		} else if all {
			lw.logf(lw.buf.Next(lw.buf.Len()))
		} else {
			break
		}
	}
}

func (lw *Writer) logf(line []byte) {
	line = bytes.TrimSuffix(line, []byte{'\r'})
	if lw.Logf != nil {
		lw.Logf("%s%s", lw.Prefix, line)
	}
}
