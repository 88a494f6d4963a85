package mem

import "encoding/binary"

// DefaultBytesPageSize provides a default for Bytes.PageSize.
const DefaultBytesPageSize = 4096

// Bytes implements a byte addressed paged memory; unallocated addresses read
// as zero.
type Bytes struct {
	PagedCore
	pages [][]byte
}

// Pages returns how many pages have been allocated.
func (m *Bytes) Pages() int { return len(m.pages) }

// Load returns the byte at addr.
func (m *Bytes) Load(addr uint) (byte, error) {
	var buf [1]byte
	err := m.LoadInto(addr, buf[:])
	return buf[0], err
}

// LoadInto reads len(buf) bytes starting at addr, zeroing any part of buf
// that falls on unallocated pages. No partial load is done when the access is
// out of bounds.
func (m *Bytes) LoadInto(addr uint, buf []byte) error {
	if err := m.checkBounds("load", addr, uint(len(buf))); err != nil {
		return err
	}
	end := addr + uint(len(buf))

	for id := m.findPage(addr); addr < end && id < len(m.bases); id++ {
		base := m.bases[id]
		if base >= end {
			break
		}

		if gap := int(base) - int(addr); gap > 0 {
			for i := range buf[:gap] {
				buf[i] = 0
			}
			buf = buf[gap:]
			addr = base
		}

		page := m.pages[id]
		if skip := addr - base; skip > 0 {
			if skip >= uint(len(page)) {
				continue
			}
			page = page[skip:]
		}

		n := copy(buf, page)
		buf = buf[n:]
		addr += uint(n)
	}

	for i := range buf {
		buf[i] = 0
	}
	return nil
}

// Stor stores values starting at addr, allocating pages as needed. No
// partial store is done when the access is out of bounds.
func (m *Bytes) Stor(addr uint, values ...byte) error {
	if err := m.checkBounds("stor", addr, uint(len(values))); err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}
	if m.PageSize == 0 {
		m.PageSize = DefaultBytesPageSize
	}

	end := addr + uint(len(values))
	for id := m.findPage(addr); addr < end; id++ {
		base, size, page := m.allocPage(id, addr)
		if skip := addr - base; skip > 0 {
			if skip >= size {
				continue
			}
			page = page[skip:]
		}
		n := copy(page, values)
		values = values[n:]
		addr += uint(n)
	}
	return nil
}

// LoadUint64 loads a little endian 64-bit word from addr.
func (m *Bytes) LoadUint64(addr uint) (uint64, error) {
	var buf [8]byte
	if err := m.LoadInto(addr, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// StorUint64 stores val as a little endian 64-bit word at addr.
func (m *Bytes) StorUint64(addr uint, val uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], val)
	return m.Stor(addr, buf[:]...)
}

func (m *Bytes) allocPage(id int, addr uint) (base, size uint, page []byte) {
	base, size, isNew := m.PagedCore.allocPage(id, addr)
	if !isNew {
		return base, size, m.pages[id]
	}
	page = make([]byte, size)
	if id == len(m.pages) {
		m.pages = append(m.pages, page)
	} else {
		m.pages = append(m.pages, nil)
		copy(m.pages[id+1:], m.pages[id:])
		m.pages[id] = page
	}
	return base, size, page
}
