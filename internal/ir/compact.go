package ir

// Builder accumulates a Program one op at a time, compacting as it goes: a
// run of adjacent Move ops, or of adjacent Modify ops, becomes one op with the
// summed delta. A run summing to zero is dropped, and fences any loop that
// directly follows it. The zero value is ready to use.
type Builder struct {
	out   Program
	run   Op
	fence bool
}

// Add appends o, merging it into the pending run if it continues one. Loop
// bodies are taken as given.
func (b *Builder) Add(o Op) {
	switch lo := o.(type) {
	case Move, Modify:
		if !sameKind(b.run, o) {
			b.flush()
			b.resume(o)
		}
		b.extend(o)

	case *Loop:
		b.flush()
		lo.Fenced = lo.Fenced || b.fence
		b.emit(lo)

	default:
		b.flush()
		b.emit(o)
	}
}

// Program flushes any pending run and returns the ops built so far.
func (b *Builder) Program() Program {
	b.flush()
	return b.out
}

// resume takes a trailing op of the same kind as o back off the output, when
// only a dropped run separates it from o.
func (b *Builder) resume(o Op) {
	if b.run != nil || !b.fence {
		return
	}
	if i := len(b.out) - 1; i >= 0 && sameKind(b.out[i], o) {
		b.run = b.out[i]
		b.out = b.out[:i]
	}
}

func (b *Builder) extend(o Op) {
	switch o := o.(type) {
	case Move:
		if run, ok := b.run.(Move); ok {
			run.Delta += o.Delta
			run.Src.Text += o.Src.Text
			b.run = run
			return
		}
	case Modify:
		if run, ok := b.run.(Modify); ok {
			run.Delta += o.Delta
			run.Src.Text += o.Src.Text
			b.run = run
			return
		}
	}
	b.run = o
}

func (b *Builder) flush() {
	switch run := b.run.(type) {
	case nil:
		return
	case Move:
		if run.Delta == 0 {
			b.fence = true
		} else {
			b.emit(run)
		}
	case Modify:
		if run.Delta = NormalizeCell(run.Delta); run.Delta == 0 {
			b.fence = true
		} else {
			b.emit(run)
		}
	}
	b.run = nil
}

func (b *Builder) emit(o Op) {
	b.out = append(b.out, o)
	b.fence = false
}

func sameKind(a, b Op) bool {
	switch a.(type) {
	case Move:
		_, ok := b.(Move)
		return ok
	case Modify:
		_, ok := b.(Modify)
		return ok
	}
	return false
}

// Compact rewrites p through a Builder, recursing into loop bodies. The
// result has no mergeable runs left, so Compact is idempotent. The parser
// builds through the same Builder, so compacting its output changes nothing.
// p is not modified.
func Compact(p Program) Program {
	var b Builder
	for _, o := range p {
		if lo, ok := o.(*Loop); ok {
			cp := *lo
			cp.Body = Compact(lo.Body)
			o = &cp
		}
		b.Add(o)
	}
	return b.Program()
}
