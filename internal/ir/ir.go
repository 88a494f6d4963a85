// Package ir defines the tree of operations that the parser builds and the
// code generator consumes.
package ir

import (
	"fmt"

	"github.com/jcorbin/gobfc/internal/fileinput"
)

// CellMod is the modulus of cell arithmetic.
const CellMod = 256

// Op is one of Move, Modify, Write, Read, or *Loop.
type Op interface {
	op()
	Source() Source
}

// Program is an ordered sequence of operations; a Loop body is also a
// Program.
type Program []Op

// Source records the operator characters an op was built from, and the
// location of the first of them.
type Source struct {
	Loc  fileinput.Location
	Text string
}

func (src Source) String() string {
	if src.Loc.Line == 0 {
		return src.Text
	}
	return fmt.Sprintf("%v %v", src.Loc, src.Text)
}

// Move shifts the cursor by Delta cells.
type Move struct {
	Delta int
	Src   Source
}

// Modify adds Delta to the cell under the cursor, modulo CellMod.
type Modify struct {
	Delta int
	Src   Source
}

// Write outputs the cell under the cursor.
type Write struct{ Src Source }

// Read inputs one byte into the cell under the cursor.
type Read struct{ Src Source }

// Loop repeats Body while the cell under the cursor is non-zero.
type Loop struct {
	Label string
	Body  Program

	Open, Close Source

	// Fenced is set when a run that cancelled out to nothing was elided
	// directly before the loop; such a loop is never assumed to be entered
	// with a zero cell.
	Fenced bool
}

func (Move) op()   {}
func (Modify) op() {}
func (Write) op()  {}
func (Read) op()   {}
func (*Loop) op()  {}

// Source returns the op's provenance.
func (o Move) Source() Source   { return o.Src }
func (o Modify) Source() Source { return o.Src }
func (o Write) Source() Source  { return o.Src }
func (o Read) Source() Source   { return o.Src }
func (lo *Loop) Source() Source { return lo.Open }

// NormalizeCell reduces a cell delta into the range (-CellMod/2, CellMod/2].
func NormalizeCell(delta int) int {
	delta %= CellMod
	if delta < 0 {
		delta += CellMod
	}
	if delta > CellMod/2 {
		delta -= CellMod
	}
	return delta
}

// Count returns the number of ops in p, including all nested loop bodies.
func Count(p Program) (n int) {
	for _, o := range p {
		n++
		if lo, ok := o.(*Loop); ok {
			n += Count(lo.Body)
		}
	}
	return n
}

// Walk calls f for every op in p in program order, descending into each loop
// body right after visiting the loop itself. Walk stops if f returns false.
func Walk(p Program, f func(o Op, depth int) bool) bool {
	return walk(p, 0, f)
}

func walk(p Program, depth int, f func(o Op, depth int) bool) bool {
	for _, o := range p {
		if !f(o, depth) {
			return false
		}
		if lo, ok := o.(*Loop); ok {
			if !walk(lo.Body, depth+1, f) {
				return false
			}
		}
	}
	return true
}
