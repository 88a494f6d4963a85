package asmsim

import (
	"bytes"
	"io"
	"io/ioutil"

	"github.com/jcorbin/gobfc/internal/flushio"
)

// Option customizes a Machine.
type Option interface{ apply(m *Machine) }

// DefaultStackSize is how much memory below the initial stack pointer a
// program may use.
const DefaultStackSize = 1 << 20

var defaults = []Option{
	withInput(bytes.NewReader(nil)),
	withOutput(ioutil.Discard),
	stackSizeOption(DefaultStackSize),
}

func (m *Machine) apply(opts ...Option) {
	for _, opt := range defaults {
		opt.apply(m)
	}
	for _, opt := range opts {
		if opt != nil {
			opt.apply(m)
		}
	}
}

// WithInput sets what the read system call reads from.
func WithInput(r io.Reader) Option { return withInput(r) }

// WithOutput sets where the write system call writes to.
func WithOutput(w io.Writer) Option { return withOutput(w) }

// WithLogf sets a function to trace every step through.
func WithLogf(logfn func(mess string, args ...interface{})) Option { return withLogfn(logfn) }

// WithStepLimit halts the machine with ErrStepLimit after n instructions;
// zero means no limit.
func WithStepLimit(n int) Option { return stepLimitOption(n) }

// WithStackSize sets how many bytes below the initial stack pointer may be
// accessed; anything else faults.
func WithStackSize(n uint) Option { return stackSizeOption(n) }

type inputOption struct{ io.Reader }
type outputOption struct{ io.Writer }
type withLogfn func(mess string, args ...interface{})
type stepLimitOption int
type stackSizeOption uint

func withInput(r io.Reader) inputOption   { return inputOption{r} }
func withOutput(w io.Writer) outputOption { return outputOption{w} }

func (i inputOption) apply(m *Machine)     { m.in = i.Reader }
func (logfn withLogfn) apply(m *Machine)   { m.logfn = logfn }
func (n stepLimitOption) apply(m *Machine) { m.stepLimit = int(n) }
func (n stackSizeOption) apply(m *Machine) { m.stackSize = uint(n) }

func (o outputOption) apply(m *Machine) {
	if m.out != nil {
		m.out.Flush()
	}
	m.out = flushio.NewWriteFlusher(o.Writer)
}
