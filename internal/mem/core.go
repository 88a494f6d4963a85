// Package mem provides sparse paged memory, allocating pages only where
// something has been stored.
package mem

import "fmt"

// PagedCore provides functionality common to any paged memory model.
type PagedCore struct {
	// PageSize specifies the length for newly allocated pages.
	PageSize uint

	// Floor and Limit bound the valid address window [Floor, Limit); any
	// access reaching outside of it fails with a BoundsError. A zero Limit
	// leaves the window open above.
	Floor uint
	Limit uint

	bases []uint
	sizes []uint
}

// BoundsError indicates that a memory access reached outside the valid
// address window.
type BoundsError struct {
	Op   string
	Addr uint
	Size uint
}

func (be BoundsError) Error() string {
	if be.Size > 1 {
		return fmt.Sprintf("%v of %v bytes @%#x out of bounds", be.Op, be.Size, be.Addr)
	}
	return fmt.Sprintf("%v @%#x out of bounds", be.Op, be.Addr)
}

// checkBounds validates access to n addresses starting at addr.
func (m *PagedCore) checkBounds(op string, addr, n uint) error {
	end := addr + n
	if addr < m.Floor || end < addr || (m.Limit != 0 && end > m.Limit) {
		return BoundsError{op, addr, n}
	}
	return nil
}

// findPage returns the index of the last page based at or below addr, or 0
// if there is none.
func (m *PagedCore) findPage(addr uint) int {
	i, j := 0, len(m.bases)
	for i < j {
		h := int(uint(i+j)>>1) + 1
		if h < len(m.bases) && m.bases[h] <= addr {
			i = h
		} else {
			j = h - 1
		}
	}
	return i
}

// allocPage returns the page at index id if it holds addr, or else inserts a
// new page there, sized to not overlap either neighbor.
func (m *PagedCore) allocPage(id int, addr uint) (base, size uint, isNew bool) {
	if id == len(m.bases) {
		base = addr / m.PageSize * m.PageSize
		size = m.PageSize
		if last := len(m.bases) - 1; last >= 0 {
			if end := m.bases[last] + m.sizes[last]; base < end {
				size -= end - base
				base = end
			}
		}
		m.bases = append(m.bases, base)
		m.sizes = append(m.sizes, size)
		return base, size, true
	}

	next := m.bases[id]
	if addr >= next {
		return next, m.sizes[id], false
	}

	base = addr / m.PageSize * m.PageSize
	size = m.PageSize
	if gap := next - base; size > gap {
		size = gap
	}
	m.bases = append(m.bases, 0)
	m.sizes = append(m.sizes, 0)
	copy(m.bases[id+1:], m.bases[id:])
	copy(m.sizes[id+1:], m.sizes[id:])
	m.bases[id] = base
	m.sizes[id] = size
	return base, size, true
}
