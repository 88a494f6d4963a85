// Package label encodes loop scope paths into assembler-safe identifiers.
package label

import (
	"errors"
	"fmt"
)

// MaxLen bounds the length of an encoded label, and so the nesting depth and
// per-depth loop count that can be compiled.
const MaxLen = 128

// Alphabet holds the digits used by Encode; every one is legal inside a GNU
// assembler symbol name.
//
// Final digits of a path component come from the first half, continuation
// digits from the second half, which keeps concatenated components from ever
// running together.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789._"

const (
	digitBits = 5
	digitBase = 1 << digitBits
	digitMask = digitBase - 1
)

// ErrOverflow is matched by any OverflowError.
var ErrOverflow = errors.New("label encoding overflow")

// OverflowError reports a scope path whose label would exceed MaxLen.
type OverflowError struct {
	Path []uint
}

func (oe *OverflowError) Error() string {
	return fmt.Sprintf("label for scope path of depth %v needs more than %v bytes",
		len(oe.Path), MaxLen)
}

// Is allows errors.Is(err, ErrOverflow).
func (oe *OverflowError) Is(target error) bool { return target == ErrOverflow }

// Encode returns the label for a scope path: the digits of each component,
// least significant first, concatenated without separator.
func Encode(path []uint) (string, error) {
	var buf [MaxLen]byte
	n := 0
	for _, val := range path {
		for {
			if n >= len(buf) {
				return "", &OverflowError{Path: path}
			}
			digit := val & digitMask
			val >>= digitBits
			if val == 0 {
				buf[n] = Alphabet[digit]
				n++
				break
			}
			buf[n] = Alphabet[digitBase+digit]
			n++
		}
	}
	return string(buf[:n]), nil
}
