// Package compiler drives a whole compilation: it reads source, parses and
// compacts it, then generates assembly.
package compiler

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/jcorbin/gobfc/internal/codegen"
	"github.com/jcorbin/gobfc/internal/ir"
	"github.com/jcorbin/gobfc/internal/panicerr"
	"github.com/jcorbin/gobfc/internal/parse"
)

// ErrEmptyInput is returned for source holding no operators at all.
var ErrEmptyInput = errors.New("empty input: no operators")

// IOError wraps an error from reading the source ("read") or writing the
// assembly ("write").
type IOError struct {
	Op  string
	Err error
}

func (ioe *IOError) Error() string { return fmt.Sprintf("%v: %v", ioe.Op, ioe.Err) }
func (ioe *IOError) Unwrap() error { return ioe.Err }

// Result describes a successful compilation.
type Result struct {
	Program ir.Program
	Stats   codegen.Stats
}

// Compile reads source from r and writes its assembly to out. Nothing is
// written to out unless the source parsed.
func Compile(r io.Reader, out io.Writer, opts ...Option) (res Result, err error) {
	cfg := New(opts...)
	if err := cfg.Validate(); err != nil {
		return res, err
	}
	if cfg.Name == "" {
		if named, ok := r.(interface{ Name() string }); ok {
			cfg.Name = named.Name()
		}
	}

	src := &sourceReader{r: r}
	rest, err := lookahead(src)
	if err != nil {
		return res, err
	}

	res.Program, err = parse.Parse(rest,
		parse.WithName(cfg.Name),
		parse.WithLogf(cfg.Logf))
	if src.err != nil && errors.Is(err, src.err) {
		return res, &IOError{"read", err}
	} else if err != nil {
		return res, err
	}
	res.Program = ir.Compact(res.Program)
	cfg.logf("parsed %v ops from %q", ir.Count(res.Program), cfg.Name)

	res.Stats, err = codegen.Generate(res.Program, cfg.Config, out)
	if err != nil && !panicerr.IsPanic(err) {
		err = &IOError{"write", err}
	}
	if err == nil {
		cfg.logf("generated %v lines, skipped %v vacuous loops", res.Stats.Lines, res.Stats.Vacuous)
	}
	return res, err
}

// lookahead reads until the first operator, failing with ErrEmptyInput if
// there is none, then returns a reader that replays everything read.
func lookahead(src *sourceReader) (io.Reader, error) {
	var seen []byte
	var buf [4096]byte
	for {
		n, err := src.Read(buf[:])
		seen = append(seen, buf[:n]...)
		for _, c := range buf[:n] {
			if parse.IsOperator(c) {
				return io.MultiReader(bytes.NewReader(seen), src), nil
			}
		}
		if err == io.EOF {
			return nil, ErrEmptyInput
		} else if err != nil {
			return nil, &IOError{"read", err}
		}
	}
}

// sourceReader remembers the first read error, so that it can be told apart
// from errors the parser makes.
type sourceReader struct {
	r   io.Reader
	err error
}

func (sr *sourceReader) Read(p []byte) (int, error) {
	n, err := sr.r.Read(p)
	if err != nil && err != io.EOF && sr.err == nil {
		sr.err = err
	}
	return n, err
}
