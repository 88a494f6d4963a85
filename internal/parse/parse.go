// Package parse builds the loop tree of a program from its source bytes.
package parse

import (
	"errors"
	"fmt"
	"io"

	"github.com/jcorbin/gobfc/internal/fileinput"
	"github.com/jcorbin/gobfc/internal/ir"
	"github.com/jcorbin/gobfc/internal/label"
	"github.com/jcorbin/gobfc/internal/scope"
)

// Operators lists the bytes that mean something; all others are comments.
const Operators = "+-<>[].,"

// IsOperator reports whether c is one of Operators.
func IsOperator(c byte) bool {
	switch c {
	case '+', '-', '<', '>', '[', ']', '.', ',':
		return true
	}
	return false
}

// ErrUnmatchedBracket is matched by any BracketError.
var ErrUnmatchedBracket = errors.New("unmatched bracket")

// BracketError reports a ']' with no open loop (Closing), or a '[' that was
// never closed before the end of input.
type BracketError struct {
	Loc     fileinput.Location
	Closing bool
}

func (be *BracketError) Error() string {
	if be.Closing {
		return fmt.Sprintf("%v: unmatched ']'", be.Loc)
	}
	return fmt.Sprintf("%v: unclosed '['", be.Loc)
}

// Is allows errors.Is(err, ErrUnmatchedBracket).
func (be *BracketError) Is(target error) bool { return target == ErrUnmatchedBracket }

// Parse reads r to its end, returning the compacted program.
//
// Errors are a BracketError, a label encoding error for nesting too deep to
// name, or whatever error reading r produced.
func Parse(r io.Reader, opts ...Option) (ir.Program, error) {
	var p parser
	p.in = fileinput.New(r)
	for _, opt := range opts {
		if opt != nil {
			opt.apply(&p)
		}
	}
	return p.parse()
}

// Option customizes Parse.
type Option interface{ apply(p *parser) }

// WithName sets the source name used in locations.
func WithName(name string) Option { return nameOption(name) }

// WithLogf sets a trace logging function.
func WithLogf(logf func(mess string, args ...interface{})) Option { return logfOption(logf) }

type nameOption string
type logfOption func(mess string, args ...interface{})

func (name nameOption) apply(p *parser) { p.in.Name = string(name) }
func (logf logfOption) apply(p *parser) { p.logfn = logf }

type parser struct {
	in     *fileinput.Input
	scopes scope.Tracker
	stack  []frame
	logfn  func(mess string, args ...interface{})
}

// frame is a sequence under construction; loop is nil for the top level.
type frame struct {
	ir.Builder
	loop *ir.Loop
}

func (p *parser) parse() (ir.Program, error) {
	p.stack = append(p.stack[:0], frame{})
	for {
		c, err := p.in.ReadByte()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		if !IsOperator(c) {
			continue
		}

		src := ir.Source{Loc: p.in.Last, Text: string(c)}
		top := &p.stack[len(p.stack)-1]
		switch c {
		case '>':
			top.Add(ir.Move{Delta: 1, Src: src})
		case '<':
			top.Add(ir.Move{Delta: -1, Src: src})
		case '+':
			top.Add(ir.Modify{Delta: 1, Src: src})
		case '-':
			top.Add(ir.Modify{Delta: -1, Src: src})
		case '.':
			top.Add(ir.Write{Src: src})
		case ',':
			top.Add(ir.Read{Src: src})
		case '[':
			if err := p.open(src); err != nil {
				return nil, err
			}
		case ']':
			if err := p.close(src); err != nil {
				return nil, err
			}
		}
	}

	if p.scopes.Depth() > 0 {
		return nil, &BracketError{Loc: p.stack[len(p.stack)-1].loop.Open.Loc}
	}
	return p.stack[0].Program(), nil
}

func (p *parser) open(src ir.Source) error {
	path := p.scopes.Open()
	name, err := label.Encode(path)
	if err != nil {
		return fmt.Errorf("%v: %w", src.Loc, err)
	}
	p.logf("open %v %q", src.Loc, name)
	p.stack = append(p.stack, frame{loop: &ir.Loop{Label: name, Open: src}})
	return nil
}

func (p *parser) close(src ir.Source) error {
	if err := p.scopes.Close(); err != nil {
		return &BracketError{Loc: src.Loc, Closing: true}
	}
	i := len(p.stack) - 1
	done := p.stack[i]
	p.stack = p.stack[:i]

	lo := done.loop
	lo.Body = done.Program()
	lo.Close = src
	p.logf("close %v %q", src.Loc, lo.Label)
	p.stack[i-1].Add(lo)
	return nil
}

func (p *parser) logf(mess string, args ...interface{}) {
	if p.logfn != nil {
		p.logfn(mess, args...)
	}
}
