package asmsim_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jcorbin/gobfc/internal/asmsim"
	"github.com/jcorbin/gobfc/internal/logio"
)

var sprintf = fmt.Sprintf

type simTestCases []simTestCase

func (sts simTestCases) run(t *testing.T) {
	for _, st := range sts {
		if !t.Run(st.name, st.run) {
			return
		}
	}
}

func simTest(name string) (st simTestCase) {
	st.name = name
	return st
}

type simTestCase struct {
	name    string
	source  []string
	opts    []asmsim.Option
	expect  []func(t *testing.T, m *asmsim.Machine)
	timeout time.Duration
	wantErr error
	fault   bool
}

func (st simTestCase) withSource(lines ...string) simTestCase {
	st.source = append(st.source, lines...)
	return st
}

func (st simTestCase) withOptions(opts ...asmsim.Option) simTestCase {
	st.opts = append(st.opts, opts...)
	return st
}

func (st simTestCase) withInput(input string) simTestCase {
	return st.withOptions(asmsim.WithInput(strings.NewReader(input)))
}

func (st simTestCase) withTimeout(timeout time.Duration) simTestCase {
	st.timeout = timeout
	return st
}

func (st simTestCase) expectError(err error) simTestCase {
	st.wantErr = err
	return st
}

func (st simTestCase) expectFault() simTestCase {
	st.fault = true
	return st
}

func (st simTestCase) expectStatus(status int) simTestCase {
	st.expect = append(st.expect, func(t *testing.T, m *asmsim.Machine) {
		assert.True(t, m.Exited(), "expected program to exit")
		assert.Equal(t, status, m.ExitStatus(), "expected exit status")
	})
	return st
}

func (st simTestCase) expectSteps(steps int) simTestCase {
	st.expect = append(st.expect, func(t *testing.T, m *asmsim.Machine) {
		assert.Equal(t, steps, m.Steps(), "expected step count")
	})
	return st
}

func (st simTestCase) expectReg(name string, value uint64) simTestCase {
	st.expect = append(st.expect, func(t *testing.T, m *asmsim.Machine) {
		val, ok := m.Reg(name)
		assert.True(t, ok, "expected register %v to exist", name)
		assert.Equal(t, value, val, "expected %v value", name)
	})
	return st
}

func (st simTestCase) expectOutput(output string) simTestCase {
	var out strings.Builder
	st.opts = append(st.opts, asmsim.WithOutput(&out))
	st.expect = append(st.expect, func(t *testing.T, m *asmsim.Machine) {
		assert.Equal(t, output, out.String(), "expected output")
	})
	return st
}

func (st simTestCase) run(t *testing.T) {
	const defaultTimeout = time.Second
	timeout := st.timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	prog, err := asmsim.Assemble(strings.NewReader(strings.Join(st.source, "\n")))
	if !assert.NoError(t, err, "unexpected assemble error") {
		return
	}

	trace := &logio.Writer{Logf: t.Logf}
	defer trace.Close()
	opts := st.opts
	if testing.Verbose() {
		opts = append(opts[:len(opts):len(opts)], asmsim.WithLogf(func(mess string, args ...interface{}) {
			fmt.Fprintf(trace, mess+"\n", args...)
		}))
	}
	m := asmsim.New(prog, opts...)
	err = m.Run(ctx)

	switch {
	case st.fault:
		var fe *asmsim.FaultError
		assert.True(t, errors.As(err, &fe), "expected fault, got %v", err)
	case st.wantErr != nil:
		assert.True(t, errors.Is(err, st.wantErr), "expected error: %v\ngot: %+v", st.wantErr, err)
	default:
		assert.NoError(t, err, "unexpected run error")
	}

	if !t.Failed() {
		for _, expect := range st.expect {
			expect(t, m)
		}
	}
}
