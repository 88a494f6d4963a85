// Package codegen translates a program into x86-64 GNU assembler text.
//
// The generated program keeps its tape on the stack, holding the cursor in
// %rdi, and talks to the kernel directly through read, write and exit system
// calls; it needs no C runtime, only as and ld.
package codegen

import (
	"fmt"
	"io"

	"github.com/jcorbin/gobfc/internal/flushio"
	"github.com/jcorbin/gobfc/internal/ir"
	"github.com/jcorbin/gobfc/internal/panicerr"
)

// Defect is panicked when the generator is handed a program that no parse
// could have produced; Generate recovers it into an error.
type Defect string

func (d Defect) Error() string { return fmt.Sprintf("codegen defect: %s", string(d)) }

// Generate writes the assembly for p to out, returning counts of what it
// generated.
//
// Errors are a configuration error from cfg.Validate, the first error that
// writing out produced, or a recovered Defect.
func Generate(p ir.Program, cfg Config, out io.Writer) (Stats, error) {
	if err := cfg.Validate(); err != nil {
		return Stats{}, err
	}
	g := generator{
		cfg: cfg,
		out: flushio.NewLatch(out),
		vac: vacuity{enabled: cfg.DeadLoops, known: true},
	}
	err := panicerr.Recover("codegen", func() error {
		g.prologue()
		g.program(p)
		g.epilogue()
		return g.out.Flush()
	})
	g.stats.Lines = g.out.Lines()
	return g.stats, err
}

type generator struct {
	cfg   Config
	out   *flushio.Latch
	vac   vacuity
	stats Stats
}

func (g *generator) program(p ir.Program) {
	for _, o := range p {
		g.op(o)
	}
}

func (g *generator) op(o ir.Op) {
	switch o := o.(type) {
	case ir.Move:
		g.comment(o.Src)
		g.move(o.Delta)
		g.stats.Moves++

	case ir.Modify:
		g.comment(o.Src)
		g.modify(o.Delta)
		g.stats.Modifies++

	case ir.Write:
		g.comment(o.Src)
		g.out.WriteString(writeTemplate)
		g.stats.Writes++

	case ir.Read:
		g.comment(o.Src)
		g.read()
		g.stats.Reads++

	case *ir.Loop:
		if o == nil {
			panic(Defect("nil loop"))
		}
		if g.vac.skip(o) {
			g.skip(o)
		} else {
			g.loop(o)
		}

	default:
		panic(Defect(fmt.Sprintf("unknown op type %T", o)))
	}
	g.vac.after(o)
}

func (g *generator) move(delta int) {
	switch {
	case delta > 0:
		g.out.Printf(addCursorTemplate, delta)
	case delta < 0:
		g.out.Printf(subCursorTemplate, -delta)
	default:
		panic(Defect("zero move"))
	}
}

func (g *generator) modify(delta int) {
	if delta != ir.NormalizeCell(delta) {
		panic(Defect(fmt.Sprintf("unnormalized modify %+d", delta)))
	}
	switch {
	case delta > 0:
		g.out.Printf(addCellTemplate, delta)
	case delta < 0:
		g.out.Printf(subCellTemplate, -delta)
	default:
		panic(Defect("zero modify"))
	}
}

func (g *generator) read() {
	switch g.cfg.EOF {
	case EOFZero:
		g.out.Printf(presetCellTemplate, 0)
	case EOFNegative:
		g.out.Printf(presetCellTemplate, ir.CellMod-1)
	}
	g.out.WriteString(readTemplate)
}

func (g *generator) loop(lo *ir.Loop) {
	if lo.Label == "" {
		panic(Defect("unlabeled loop"))
	}
	g.comment(lo.Open)
	g.out.Printf(loopOpenTemplate, lo.Label)
	g.vac.enter()
	g.program(lo.Body)
	g.comment(lo.Close)
	g.out.Printf(loopCloseTemplate, lo.Label)
	g.stats.Loops++
}

// skip accounts for a loop that is never entered, without emitting it.
func (g *generator) skip(lo *ir.Loop) {
	n := ir.Count(lo.Body)
	if g.cfg.Debug {
		g.out.Printf("# %v [...] vacuous, %d ops skipped\n", lo.Open.Loc, n)
	}
	g.stats.Vacuous++
	g.stats.SkippedOps += n
}

func (g *generator) comment(src ir.Source) {
	if g.cfg.Debug {
		g.out.Printf("# %v\n", src)
	}
}

func (g *generator) prologue() {
	size := g.cfg.TapeSize
	g.out.WriteString(headerTemplate)
	g.out.Printf(tapeTemplate, size, size, size/2)
}

func (g *generator) epilogue() {
	g.out.WriteString(exitTemplate)
}
