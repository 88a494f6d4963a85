// Package fileinput reads source bytes while tracking where each one came
// from, for error messages and provenance comments.
package fileinput

import (
	"bufio"
	"fmt"
	"io"
)

// Location names a position in an Input file; Line and Col count from 1.
type Location struct {
	Name string
	Line int
	Col  int
}

func (loc Location) String() string {
	if loc.Name == "" {
		return fmt.Sprintf("%v:%v", loc.Line, loc.Col)
	}
	return fmt.Sprintf("%v:%v:%v", loc.Name, loc.Line, loc.Col)
}

// Input implements sequential byte reading from a single stream, tracking the
// Location of the last byte read.
type Input struct {
	br   io.ByteReader
	Name string
	Last Location
	next Location
}

// New returns an Input reading from r. If r implements Name() string, as
// *os.File does, that name is used unless overridden by setting Name.
func New(r io.Reader) *Input {
	in := &Input{br: byteReader(r)}
	in.Name = nameOf(r)
	return in
}

// ReadByte reads the next byte, updating Last to its location.
func (in *Input) ReadByte() (byte, error) {
	if in.next.Line == 0 {
		in.next = Location{Name: in.Name, Line: 1, Col: 1}
	}
	b, err := in.br.ReadByte()
	if err != nil {
		return 0, err
	}
	in.Last = in.next
	if b == '\n' {
		in.next.Line++
		in.next.Col = 1
	} else {
		in.next.Col++
	}
	return b, nil
}

func byteReader(r io.Reader) io.ByteReader {
	if br, ok := r.(io.ByteReader); ok {
		return br
	}
	return bufio.NewReader(r)
}

func nameOf(obj interface{}) string {
	if nom, ok := obj.(interface{ Name() string }); ok {
		return nom.Name()
	}
	return ""
}
