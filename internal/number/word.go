// Package number implements the ones'-complement machine words and the
// octal and scaled decimal literal encoding.
package number

import (
	"errors"
	"fmt"
)

// Word widths in bits, including the sign bit.
const (
	SingleBits = 15
	DoubleBits = 30

	SingleMask = 1<<SingleBits - 1
	DoubleMask = 1<<DoubleBits - 1
)

var (
	ErrSyntax   = errors.New("invalid numeric literal")
	ErrRange    = errors.New("value out of range")
	ErrOverflow = errors.New("arithmetic overflow")
)

// Word is a ones'-complement integer of 15 or 30 bits. The most significant
// bit is the sign, negation is the bitwise complement.
type Word struct {
	value uint32
	bits  uint
}

func mask(bits uint) uint32 {
	return 1<<bits - 1
}

// New returns a word of the given width that contains the raw bits of value.
func New(value int, bits uint) Word {
	return Word{
		value: uint32(value) & mask(bits),
		bits:  bits,
	}
}

// Single returns a single precision word containing the raw bits of value.
func Single(value int) Word {
	return New(value, SingleBits)
}

// Double returns a double precision word containing the raw bits of value.
func Double(value int) Word {
	return New(value, DoubleBits)
}

// FromInt encodes a signed integer as ones'-complement word.
func FromInt(value int, bits uint) Word {
	if value < 0 {
		return New(-value, bits).Complement()
	}
	return New(value, bits)
}

// Join combines the high and low single precision words to a double word.
func Join(high, low Word) Word {
	return Word{
		value: high.value<<SingleBits | low.value,
		bits:  DoubleBits,
	}
}

// Value returns the raw bits of the word.
func (w Word) Value() int {
	return int(w.value)
}

// Bits returns the width of the word.
func (w Word) Bits() uint {
	return w.bits
}

// Negative returns whether the sign bit is set, this includes -0.
func (w Word) Negative() bool {
	return w.value>>(w.bits-1)&1 == 1
}

// Int returns the signed value of the word, -0 is returned as 0.
func (w Word) Int() int {
	if w.Negative() {
		return -int(^w.value & mask(w.bits))
	}
	return int(w.value)
}

// Complement returns the bitwise complement, which is the negated value.
func (w Word) Complement() Word {
	return Word{
		value: ^w.value & mask(w.bits),
		bits:  w.bits,
	}
}

// Add returns the ones'-complement sum of both words. A sum exceeding the
// magnitude range is wrapped with an end-around carry; the returned flag
// reports a sum that is still out of range after the correction.
// The width of the receiver defines the width of the result.
func (w Word) Add(other Word) (Word, bool) {
	limit := 1<<(w.bits-1) - 1
	sum := w.Int() + other.Int()

	switch {
	case sum > limit:
		sum -= limit
	case sum < -limit:
		sum += limit
	}

	overflow := sum > limit || sum < -limit
	return FromInt(sum, w.bits), overflow
}

// Sub returns the ones'-complement difference of both words.
func (w Word) Sub(other Word) (Word, bool) {
	return w.Add(other.Complement())
}

// Increment adds one to the word.
func (w Word) Increment() (Word, bool) {
	return w.Add(New(1, w.bits))
}

// Decrement subtracts one from the word.
func (w Word) Decrement() (Word, bool) {
	return w.Sub(New(1, w.bits))
}

// Split returns the high and low single precision words of a double word.
func (w Word) Split() (Word, Word) {
	return Single(int(w.value >> SingleBits)), Single(int(w.value))
}

func (w Word) String() string {
	if w.bits == DoubleBits {
		return fmt.Sprintf("%010o", w.value)
	}
	return fmt.Sprintf("%05o", w.value)
}

// Sum returns the ones'-complement sum of all single precision values.
func Sum(values []int) (Word, bool) {
	sum := Single(0)
	var overflow bool
	for _, v := range values {
		var o bool
		sum, o = sum.Add(Single(v))
		overflow = overflow || o
	}
	return sum, overflow
}
