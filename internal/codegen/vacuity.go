package codegen

import "github.com/jcorbin/gobfc/internal/ir"

// vacuity tracks whether the current cell is provably zero, so that loops
// which can never be entered may be skipped.
//
// The cell is known zero at program start, since the tape starts zeroed, and
// right after any loop, since loops only exit on a zero cell. Any other op
// forgets it, even a Move whose destination was never touched.
type vacuity struct {
	enabled bool
	known   bool
}

func (v *vacuity) skip(lo *ir.Loop) bool {
	return v.enabled && v.known && !lo.Fenced
}

// enter forgets at the top of a loop body, which only runs on a non-zero cell.
func (v *vacuity) enter() { v.known = false }

func (v *vacuity) after(o ir.Op) {
	_, v.known = o.(*ir.Loop)
}
