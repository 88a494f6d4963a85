package asmsim

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jcorbin/gobfc/internal/flushio"
	"github.com/jcorbin/gobfc/internal/mem"
	"github.com/jcorbin/gobfc/internal/panicerr"
	"github.com/jcorbin/gobfc/internal/runeio"
)

// StackTop is the initial stack pointer; the stack grows down from it.
const StackTop = 0x7ff00000

// System call numbers and error returns.
const (
	sysRead  = 0
	sysWrite = 1
	sysExit  = 60

	errnoBADF   = 9
	errnoNOSYS  = 38
	maxTransfer = 1 << 16
)

// ErrStepLimit is returned when a machine runs for more steps than allowed.
var ErrStepLimit = errors.New("step limit exceeded")

// FaultError reports an instruction that could not be executed, such as a
// memory access outside of the stack.
type FaultError struct {
	Line  int
	Instr string
	Err   error
}

func (fe *FaultError) Error() string {
	if fe.Instr == "" {
		return fmt.Sprintf("fault: %v", fe.Err)
	}
	return fmt.Sprintf("fault at line %d %q: %v", fe.Line, fe.Instr, fe.Err)
}

func (fe *FaultError) Unwrap() error { return fe.Err }

var errRanOff = errors.New("ran off the end of the program")

// Machine runs a Program.
type Machine struct {
	prog *Program

	regs [numRegs]uint64
	zf   bool
	pc   int
	mem  mem.Bytes

	in        io.Reader
	out       flushio.WriteFlusher
	logfn     func(mess string, args ...interface{})
	stepLimit int
	stackSize uint

	steps  int
	exited bool
	status int
}

// New creates a machine ready to run prog from its entry point.
func New(prog *Program, opts ...Option) *Machine {
	m := Machine{prog: prog}
	m.apply(opts...)
	m.mem.Limit = StackTop
	m.mem.Floor = StackTop - m.stackSize
	m.regs[rsp] = StackTop
	m.pc = prog.labels[prog.Entry]
	return &m
}

// Run executes until the program exits, faults, exceeds any step limit, or
// ctx is done. A program exiting with a non-zero status is not an error; see
// ExitStatus.
func (m *Machine) Run(ctx context.Context) error {
	err := panicerr.Recover("asmsim", func() error {
		return m.run(ctx)
	})
	var halt haltError
	if errors.As(err, &halt) {
		err = halt.error
	}
	return err
}

// Exited reports whether the program made the exit system call.
func (m *Machine) Exited() bool { return m.exited }

// ExitStatus returns the status passed to exit.
func (m *Machine) ExitStatus() int { return m.status }

// Steps returns how many instructions have been executed.
func (m *Machine) Steps() int { return m.steps }

// Reg returns the value of a named register, like "rdi" or "al".
func (m *Machine) Reg(name string) (uint64, bool) {
	reg, ok := registers[name]
	if !ok {
		return 0, false
	}
	return m.regs[reg.id] & sizeMask(reg.size), true
}

// Load reads n bytes of memory starting at addr.
func (m *Machine) Load(addr uint, n int) ([]byte, error) {
	buf := make([]byte, n)
	err := m.mem.LoadInto(addr, buf)
	return buf, err
}

func (m *Machine) run(ctx context.Context) error {
	for {
		if m.steps%1024 == 0 {
			if err := ctx.Err(); err != nil {
				m.halt(err)
			}
		}
		if m.stepLimit > 0 && m.steps >= m.stepLimit {
			m.halt(ErrStepLimit)
		}
		if m.pc < 0 || m.pc >= len(m.prog.instrs) {
			m.halt(&FaultError{Err: errRanOff})
		}
		in := &m.prog.instrs[m.pc]
		m.pc++
		m.steps++
		m.logf(">", "%v: %v", in.line, in.text)
		m.exec(in)
	}
}

func (m *Machine) exec(in *instr) {
	switch in.op {
	case opMov:
		m.put(in, in.args[1], m.get(in, in.args[0]))

	case opAdd:
		v := (m.get(in, in.args[1]) + m.get(in, in.args[0])) & sizeMask(in.size)
		m.put(in, in.args[1], v)
		m.zf = v == 0

	case opSub:
		v := (m.get(in, in.args[1]) - m.get(in, in.args[0])) & sizeMask(in.size)
		m.put(in, in.args[1], v)
		m.zf = v == 0

	case opCmp:
		v := (m.get(in, in.args[1]) - m.get(in, in.args[0])) & sizeMask(in.size)
		m.zf = v == 0

	case opPush:
		v := m.get(in, in.args[0])
		m.regs[rsp] -= 8
		if err := m.mem.StorUint64(uint(m.regs[rsp]), v); err != nil {
			m.fault(in, err)
		}

	case opPop:
		v, err := m.mem.LoadUint64(uint(m.regs[rsp]))
		if err != nil {
			m.fault(in, err)
		}
		m.regs[rsp] += 8
		m.put(in, in.args[0], v)

	case opJe:
		if m.zf {
			m.jump(in.args[0])
		}

	case opJne:
		if !m.zf {
			m.jump(in.args[0])
		}

	case opJmp:
		m.jump(in.args[0])

	case opSyscall:
		m.syscall(in)

	default:
		m.fault(in, fmt.Errorf("invalid opcode %v", in.op))
	}
}

func (m *Machine) jump(target operand) {
	m.pc = m.prog.labels[target.label]
}

func (m *Machine) get(in *instr, arg operand) uint64 {
	mask := sizeMask(in.size)
	switch arg.kind {
	case immOperand:
		return uint64(arg.imm) & mask
	case regOperand:
		return m.regs[arg.reg.id] & mask
	case memOperand:
		addr := m.addr(arg)
		if in.size == 1 {
			b, err := m.mem.Load(addr)
			if err != nil {
				m.fault(in, err)
			}
			return uint64(b)
		}
		v, err := m.mem.LoadUint64(addr)
		if err != nil {
			m.fault(in, err)
		}
		return v
	}
	m.fault(in, fmt.Errorf("cannot load from operand kind %v", arg.kind))
	return 0
}

func (m *Machine) put(in *instr, arg operand, v uint64) {
	switch arg.kind {
	case regOperand:
		if in.size == 1 {
			m.regs[arg.reg.id] = m.regs[arg.reg.id]&^0xff | v&0xff
		} else {
			m.regs[arg.reg.id] = v
		}
		return
	case memOperand:
		var err error
		if in.size == 1 {
			err = m.mem.Stor(m.addr(arg), byte(v))
		} else {
			err = m.mem.StorUint64(m.addr(arg), v)
		}
		if err != nil {
			m.fault(in, err)
		}
		return
	}
	m.fault(in, fmt.Errorf("cannot store to operand kind %v", arg.kind))
}

func (m *Machine) addr(arg operand) uint {
	return uint(m.regs[arg.reg.id] + uint64(arg.imm))
}

func (m *Machine) syscall(in *instr) {
	ret := m.regs[rax]
	switch m.regs[rax] {
	case sysRead:
		ret = m.sysRead(in, m.regs[rdi], m.regs[rsi], m.regs[rdx])
	case sysWrite:
		ret = m.sysWrite(in, m.regs[rdi], m.regs[rsi], m.regs[rdx])
	case sysExit:
		m.exited = true
		m.status = int(m.regs[rdi] & 0xff)
		m.logf("#", "exit %v", m.status)
		m.halt(nil)
	default:
		ret = errno(errnoNOSYS)
	}
	m.regs[rax] = ret
	m.regs[rcx] = uint64(m.pc)
}

func (m *Machine) sysRead(in *instr, fd, buf, count uint64) uint64 {
	if fd != 0 {
		return errno(errnoBADF)
	}
	if count > maxTransfer {
		count = maxTransfer
	}
	if count == 0 {
		return 0
	}
	if err := m.out.Flush(); err != nil {
		m.halt(err)
	}

	p := make([]byte, count)
	n, err := m.in.Read(p)
	for n == 0 && err == nil {
		n, err = m.in.Read(p)
	}
	if err != nil && err != io.EOF {
		m.halt(fmt.Errorf("read: %w", err))
	}
	if serr := m.mem.Stor(uint(buf), p[:n]...); serr != nil {
		m.fault(in, serr)
	}
	m.logf("#", "read %v", runeio.BytesName(p[:n]))
	return uint64(n)
}

func (m *Machine) sysWrite(in *instr, fd, buf, count uint64) uint64 {
	if fd != 1 {
		return errno(errnoBADF)
	}
	if count > maxTransfer {
		count = maxTransfer
	}
	p, err := m.Load(uint(buf), int(count))
	if err != nil {
		m.fault(in, err)
	}
	m.logf("#", "write %v", runeio.BytesName(p))
	if _, err := m.out.Write(p); err != nil {
		m.halt(fmt.Errorf("write: %w", err))
	}
	return count
}

func (m *Machine) fault(in *instr, err error) {
	m.halt(&FaultError{in.line, in.text, err})
}

func (m *Machine) halt(err error) {
	// ignore any panics while trying to flush output
	func() {
		defer func() { recover() }()
		if m.out != nil {
			if ferr := m.out.Flush(); err == nil {
				err = ferr
			}
		}
	}()
	if err != nil {
		m.logf("#", "halt error: %v", err)
	}
	panic(haltError{err})
}

func (m *Machine) logf(mark, mess string, args ...interface{}) {
	if m.logfn != nil {
		m.logfn(mark+" "+mess, args...)
	}
}

type haltError struct{ error }

func (err haltError) Error() string {
	if err.error != nil {
		return fmt.Sprintf("halted: %v", err.error)
	}
	return "halted"
}

func (err haltError) Unwrap() error { return err.error }

func sizeMask(size int) uint64 {
	if size == 1 {
		return 0xff
	}
	return ^uint64(0)
}

func errno(n int) uint64 { return uint64(-int64(n)) }

// Exec assembles the text read from r and runs it to completion.
func Exec(ctx context.Context, r io.Reader, opts ...Option) (*Machine, error) {
	prog, err := Assemble(r)
	if err != nil {
		return nil, err
	}
	m := New(prog, opts...)
	return m, m.Run(ctx)
}
