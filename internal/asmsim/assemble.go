// Package asmsim executes the subset of x86-64 GNU assembler text that the
// code generator emits, so that compiled programs can be run and checked
// without an assembler, a linker, or an x86-64 host.
//
// Supported are the mov, add, sub and cmp instructions in byte and quad
// sizes, pushq and popq, the je, jne and jmp branches, and the read, write
// and exit system calls. Operands may be immediates, registers among rax,
// rcx, rdx, rsi, rdi and rsp (with their low bytes), register indirect
// memory, and labels.
package asmsim

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Errors wrapped by SyntaxError.
var (
	ErrUnknownInstruction = errors.New("unknown instruction")
	ErrUnknownDirective   = errors.New("unknown directive")
	ErrBadOperand         = errors.New("bad operand")
	ErrUndefinedLabel     = errors.New("undefined label")
	ErrDuplicateLabel     = errors.New("duplicate label")
	ErrNoEntry            = errors.New("no entry point")
)

// SyntaxError reports a line of assembly that could not be understood.
type SyntaxError struct {
	Line int
	Text string
	Err  error
}

func (se *SyntaxError) Error() string {
	if se.Line == 0 {
		return se.Err.Error()
	}
	return fmt.Sprintf("line %d: %v in %q", se.Line, se.Err, se.Text)
}

func (se *SyntaxError) Unwrap() error { return se.Err }

// Program is assembled code ready to run in a Machine.
type Program struct {
	// Entry names the label execution starts at.
	Entry string

	instrs []instr
	labels map[string]int
}

// Len returns the number of instructions.
func (prog *Program) Len() int { return len(prog.instrs) }

// Labels returns the number of labels defined.
func (prog *Program) Labels() int { return len(prog.labels) }

type opcode uint8

const (
	opMov opcode = iota + 1
	opAdd
	opSub
	opCmp
	opPush
	opPop
	opJe
	opJne
	opJmp
	opSyscall
)

var sizedOps = map[string]opcode{
	"mov": opMov,
	"add": opAdd,
	"sub": opSub,
	"cmp": opCmp,
}

var plainOps = map[string]opcode{
	"pushq":   opPush,
	"popq":    opPop,
	"je":      opJe,
	"jz":      opJe,
	"jne":     opJne,
	"jnz":     opJne,
	"jmp":     opJmp,
	"syscall": opSyscall,
}

type instr struct {
	line int
	text string
	op   opcode
	size int
	args []operand
}

func (in instr) String() string { return in.text }

type operandKind uint8

const (
	immOperand operandKind = iota + 1
	regOperand
	memOperand
	labelOperand
)

type operand struct {
	kind  operandKind
	reg   register
	imm   int64
	label string
}

// Assemble reads assembly text, resolving labels.
func Assemble(r io.Reader) (*Program, error) {
	var as assembler
	as.prog.labels = make(map[string]int)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		as.line++
		if err := as.parseLine(sc.Text()); err != nil {
			return nil, &SyntaxError{as.line, strings.TrimSpace(sc.Text()), err}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if err := as.resolve(); err != nil {
		return nil, err
	}
	return &as.prog, nil
}

type assembler struct {
	prog Program
	line int
}

func (as *assembler) parseLine(text string) error {
	if i := strings.IndexByte(text, '#'); i >= 0 {
		text = text[:i]
	}
	text = strings.TrimSpace(text)

	for {
		i := strings.IndexByte(text, ':')
		if i < 0 || !isSymbol(text[:i]) {
			break
		}
		name := text[:i]
		if _, defined := as.prog.labels[name]; defined {
			return fmt.Errorf("%w %q", ErrDuplicateLabel, name)
		}
		as.prog.labels[name] = len(as.prog.instrs)
		text = strings.TrimSpace(text[i+1:])
	}

	switch {
	case text == "":
		return nil
	case text[0] == '.':
		return as.directive(text)
	default:
		return as.instruction(text)
	}
}

func (as *assembler) directive(text string) error {
	name, arg := splitField(text)
	switch name {
	case ".text":
	case ".section":
		if arg != ".text" {
			return fmt.Errorf("%w: only .text is supported, not %q", ErrUnknownDirective, arg)
		}
	case ".global", ".globl":
		if !isSymbol(arg) {
			return fmt.Errorf("%w %q", ErrBadOperand, arg)
		}
		as.prog.Entry = arg
	default:
		return fmt.Errorf("%w %v", ErrUnknownDirective, name)
	}
	return nil
}

func (as *assembler) instruction(text string) error {
	mnem, rest := splitField(text)
	in := instr{line: as.line, text: text}

	if op, ok := plainOps[mnem]; ok {
		in.op = op
		in.size = 8
	} else if n := len(mnem) - 1; n > 0 && sizedOps[mnem[:n]] != 0 {
		in.op = sizedOps[mnem[:n]]
		switch mnem[n] {
		case 'b':
			in.size = 1
		case 'q':
			in.size = 8
		default:
			return fmt.Errorf("%w %v", ErrUnknownInstruction, mnem)
		}
	} else {
		return fmt.Errorf("%w %v", ErrUnknownInstruction, mnem)
	}

	if rest != "" {
		for _, field := range strings.Split(rest, ",") {
			arg, err := parseOperand(strings.TrimSpace(field))
			if err != nil {
				return err
			}
			in.args = append(in.args, arg)
		}
	}
	if err := in.check(); err != nil {
		return err
	}
	as.prog.instrs = append(as.prog.instrs, in)
	return nil
}

func (as *assembler) resolve() error {
	for _, in := range as.prog.instrs {
		for _, arg := range in.args {
			if arg.kind != labelOperand {
				continue
			}
			if _, defined := as.prog.labels[arg.label]; !defined {
				return &SyntaxError{in.line, in.text, fmt.Errorf("%w %q", ErrUndefinedLabel, arg.label)}
			}
		}
	}
	if as.prog.Entry == "" {
		as.prog.Entry = "_start"
	}
	if _, defined := as.prog.labels[as.prog.Entry]; !defined {
		return &SyntaxError{Err: fmt.Errorf("%w %q", ErrNoEntry, as.prog.Entry)}
	}
	return nil
}

// check validates operand count, kinds and sizes.
func (in instr) check() error {
	want := 2
	switch in.op {
	case opPush, opPop, opJe, opJne, opJmp:
		want = 1
	case opSyscall:
		want = 0
	}
	if len(in.args) != want {
		return fmt.Errorf("%w: %v takes %d operands, got %d", ErrBadOperand, in.op, want, len(in.args))
	}

	for _, arg := range in.args {
		if arg.kind == regOperand && arg.reg.size != in.size {
			return fmt.Errorf("%w: register %v is not %d bytes", ErrBadOperand, arg.reg, in.size)
		}
	}

	switch in.op {
	case opJe, opJne, opJmp:
		if in.args[0].kind != labelOperand {
			return fmt.Errorf("%w: branch target must be a label", ErrBadOperand)
		}
	case opPush:
		if in.args[0].kind != regOperand && in.args[0].kind != immOperand {
			return fmt.Errorf("%w: push takes a register or immediate", ErrBadOperand)
		}
	case opPop:
		if in.args[0].kind != regOperand {
			return fmt.Errorf("%w: pop takes a register", ErrBadOperand)
		}
	case opMov, opAdd, opSub, opCmp:
		src, dst := in.args[0], in.args[1]
		if src.kind == labelOperand || dst.kind == labelOperand {
			return fmt.Errorf("%w: labels are only branch targets", ErrBadOperand)
		}
		if dst.kind == immOperand {
			return fmt.Errorf("%w: destination may not be immediate", ErrBadOperand)
		}
		if src.kind == memOperand && dst.kind == memOperand {
			return fmt.Errorf("%w: at most one memory operand", ErrBadOperand)
		}
	}
	return nil
}

func (op opcode) String() string {
	switch op {
	case opMov:
		return "mov"
	case opAdd:
		return "add"
	case opSub:
		return "sub"
	case opCmp:
		return "cmp"
	case opPush:
		return "push"
	case opPop:
		return "pop"
	case opJe:
		return "je"
	case opJne:
		return "jne"
	case opJmp:
		return "jmp"
	case opSyscall:
		return "syscall"
	}
	return fmt.Sprintf("opcode(%d)", uint8(op))
}

func parseOperand(s string) (arg operand, err error) {
	switch {
	case s == "":
		return arg, fmt.Errorf("%w: empty", ErrBadOperand)

	case s[0] == '$':
		arg.kind = immOperand
		arg.imm, err = strconv.ParseInt(s[1:], 0, 64)
		if err != nil {
			return arg, fmt.Errorf("%w %q: %v", ErrBadOperand, s, err)
		}

	case s[0] == '%':
		arg.kind = regOperand
		reg, ok := registers[s[1:]]
		if !ok {
			return arg, fmt.Errorf("%w: unknown register %q", ErrBadOperand, s)
		}
		arg.reg = reg

	case strings.HasSuffix(s, ")"):
		i := strings.IndexByte(s, '(')
		if i < 0 {
			return arg, fmt.Errorf("%w %q", ErrBadOperand, s)
		}
		arg.kind = memOperand
		if disp := s[:i]; disp != "" {
			arg.imm, err = strconv.ParseInt(disp, 0, 64)
			if err != nil {
				return arg, fmt.Errorf("%w %q: %v", ErrBadOperand, s, err)
			}
		}
		base := s[i+1 : len(s)-1]
		reg, ok := registers[strings.TrimPrefix(base, "%")]
		if !ok || !strings.HasPrefix(base, "%") || reg.size != 8 {
			return arg, fmt.Errorf("%w: bad base register in %q", ErrBadOperand, s)
		}
		arg.reg = reg

	case isSymbol(s):
		arg.kind = labelOperand
		arg.label = s

	default:
		return arg, fmt.Errorf("%w %q", ErrBadOperand, s)
	}
	return arg, nil
}

func splitField(s string) (head, tail string) {
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i], strings.TrimSpace(s[i+1:])
	}
	return s, ""
}

func isSymbol(s string) bool {
	if s == "" || ('0' <= s[0] && s[0] <= '9') {
		return false
	}
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		case c == '_', c == '.', c == '$':
		default:
			return false
		}
	}
	return true
}
