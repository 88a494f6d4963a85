package main

import (
	"context"
	"errors"
	"io"

	"github.com/jcorbin/gobfc/internal/logio"
	"github.com/jcorbin/gobfc/internal/pipeline"
	"github.com/jcorbin/gobfc/internal/toolchain"
)

var errStdoutObject = errors.New("only assembly may be written to stdout, -o - requires -S")

// build compiles the named source into the configured output: assembly under
// -S, an object under -c, otherwise a linked executable.
func (a *app) build(ctx context.Context, name string) (rerr error) {
	o := &a.opts
	if o.output == "-" && !o.asmOnly {
		return errStdoutObject
	}

	src, copts, err := a.openSource(name)
	if err != nil {
		return err
	}
	defer src.Close()

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	produce := func(ctx context.Context, w io.Writer) error {
		return a.compile(src, w, copts)
	}

	if o.asmOnly && o.output == "-" {
		return produce(ctx, a.stdout)
	}

	a.markPartial(o.output)
	defer func() {
		if rerr != nil {
			a.removePartial()
		} else {
			a.keepPartial(o.output)
		}
	}()

	if o.asmOnly {
		return pipeline.ToFile(ctx, o.output, produce)
	}
	return a.assemble(ctx, produce)
}

// assemble pipes produced assembly through the toolchain into the output.
func (a *app) assemble(ctx context.Context, produce pipeline.Producer) error {
	o := &a.opts
	asLog := &logio.Writer{Logf: a.log.Leveledf("as")}
	ldLog := &logio.Writer{Logf: a.log.Leveledf("ld")}
	defer asLog.Close()
	defer ldLog.Close()

	b := toolchain.Build{
		Assembler: toolchain.Assembler{
			Path:   o.asPath,
			Debug:  o.debug,
			Stderr: asLog,
			Logf:   a.log.Tracef,
		},
		Linker: toolchain.Linker{
			Path:   o.ldPath,
			Stderr: ldLog,
			Logf:   a.log.Tracef,
		},
		Link:   !o.noLink,
		Output: o.output,
	}
	a.log.Tracef("building %q", o.output)
	return pipeline.Run(ctx, produce, b.Consume)
}
