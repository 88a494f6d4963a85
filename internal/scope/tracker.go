// Package scope tracks loop nesting during a single left-to-right scan,
// assigning every loop a unique path of per-depth occurrence indices.
package scope

import "errors"

// ErrUnderflow is returned by Close when no loop is open.
var ErrUnderflow = errors.New("scope underflow")

// Tracker holds the path of the open scopes and, for each depth up to and
// including the innermost, how many scopes have been opened there so far. The
// zero value is ready to use.
type Tracker struct {
	path   []uint
	counts []uint
}

// Depth returns the number of currently open scopes.
func (tr *Tracker) Depth() int { return len(tr.path) }

// Open enters a new scope, returning its path. The returned slice is owned by
// the caller.
func (tr *Tracker) Open() []uint {
	d := len(tr.path)
	if len(tr.counts) <= d {
		tr.counts = append(tr.counts, 0)
	}
	tr.path = append(tr.path, tr.counts[d])
	tr.counts[d]++
	tr.counts = append(tr.counts[:d+1], 0)
	path := make([]uint, len(tr.path))
	copy(path, tr.path)
	return path
}

// Close leaves the innermost scope.
func (tr *Tracker) Close() error {
	d := len(tr.path) - 1
	if d < 0 {
		return ErrUnderflow
	}
	tr.path = tr.path[:d]
	tr.counts = tr.counts[:d+1]
	return nil
}
