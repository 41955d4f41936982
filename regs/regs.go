// Package regs provides access to a block of 32-bit memory mapped registers.
//
// Registers are addressed by their byte offset from the start of the block.
// Nothing in this package locks, callers serialize access to a register
// block themselves.
package regs

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// Offset is the byte offset of a register inside its block.
type Offset uint32

func (off Offset) String() string {
	return fmt.Sprintf("%#04x", uint32(off))
}

// Bus loads and stores 32-bit registers of a single register block.
// Implementations must never fail, memory mapped I/O is assumed valid for the
// lifetime of the block.
type Bus interface {
	Load(off Offset) uint32
	Store(off Offset, v uint32)
}

// File wraps a Bus with read-modify-write helpers.
type File struct {
	Bus
}

func (f File) Read(off Offset) uint32 {
	return f.Load(off)
}

func (f File) Write(off Offset, v uint32) {
	f.Store(off, v)
}

// SetBits replaces the bits selected by mask with the corresponding bits of v.
func (f File) SetBits(off Offset, mask, v uint32) {
	f.Store(off, f.Load(off)&^mask|v&mask)
}

// Field is a bit-field of Width bits starting at bit Shift.
type Field[T constraints.Unsigned] struct {
	Shift, Width uint8
}

func (f Field[T]) Mask() uint32 {
	return (1<<f.Width - 1) << f.Shift
}

// Encode places v in the field.  Bits of v not fitting into the field are
// dropped.
func (f Field[T]) Encode(v T) uint32 {
	return uint32(v) << f.Shift & f.Mask()
}

func (f Field[T]) Decode(r uint32) T {
	return T((r & f.Mask()) >> f.Shift)
}

// Max returns the largest value the field can hold.
func (f Field[T]) Max() uint32 {
	return 1<<f.Width - 1
}

// Fits reports whether v can be encoded without truncation.
func (f Field[T]) Fits(v T) bool {
	return uint64(v) <= uint64(f.Max())
}

// FitsInt reports whether the non-negative int v can be encoded without
// truncation.
func (f Field[T]) FitsInt(v int) bool {
	return v >= 0 && uint64(v) <= uint64(f.Max())
}

// Bits converts a set of typed flags to their raw register value.
func Bits[T ~uint32](flags ...T) (v uint32) {
	for _, f := range flags {
		v |= uint32(f)
	}
	return
}
