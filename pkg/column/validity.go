// Package column implements the columnar engine's dtype-homogeneous
// value vector plus validity bitmap, and the arithmetic/comparison/
// filter/fill/reindex kernels over it. Validity storage is grounded on
// nebula's BoolColumn bit-packing (pkg/columnar/types.go) but swaps the
// hand-rolled uint64 words for apache/arrow-go/v18's arrow/bitutil,
// since nebula already depends on apache/arrow-go/v18 elsewhere
// (pkg/formats/columnar/arrow_impl.go) and bitutil is the ecosystem's
// standard bit-packed validity buffer.
package column

import (
	"github.com/apache/arrow-go/v18/arrow/bitutil"
)

// ValidityMask is a packed bit sequence of length n; bit i = 1 iff row
// i is valid (not missing).
type ValidityMask struct {
	bits []byte
	n    int
}

// NewValidityMask returns a mask of length n with every bit set to
// valid.
func NewValidityMask(n int) *ValidityMask {
	m := &ValidityMask{
		bits: make([]byte, bitutil.BytesForBits(int64(n))),
		n:    n,
	}
	for i := 0; i < n; i++ {
		bitutil.SetBit(m.bits, i)
	}
	return m
}

// NewValidityMaskFromBools builds a mask from a bool slice where true
// means valid.
func NewValidityMaskFromBools(valid []bool) *ValidityMask {
	m := &ValidityMask{
		bits: make([]byte, bitutil.BytesForBits(int64(len(valid)))),
		n:    len(valid),
	}
	for i, v := range valid {
		if v {
			bitutil.SetBit(m.bits, i)
		}
	}
	return m
}

// Len returns the mask's bit-length.
func (m *ValidityMask) Len() int { return m.n }

// IsValid reports whether row i is valid.
func (m *ValidityMask) IsValid(i int) bool {
	return bitutil.BitIsSet(m.bits, i)
}

// Set marks row i as valid/invalid.
func (m *ValidityMask) Set(i int, valid bool) {
	if valid {
		bitutil.SetBit(m.bits, i)
	} else {
		bitutil.ClearBit(m.bits, i)
	}
}

// CountValid returns the number of valid (set) bits.
func (m *ValidityMask) CountValid() int {
	return bitutil.CountSetBits(m.bits, 0, m.n)
}

// CountInvalid returns the number of invalid (unset) bits.
func (m *ValidityMask) CountInvalid() int {
	return m.n - m.CountValid()
}

// Slice returns a new mask covering rows [start, end).
func (m *ValidityMask) Slice(start, end int) *ValidityMask {
	out := NewValidityMask(end - start)
	for i := start; i < end; i++ {
		out.Set(i-start, m.IsValid(i))
	}
	return out
}

// Take returns a new mask gathering positions (nil position = missing).
func (m *ValidityMask) Take(positions []*int) *ValidityMask {
	out := NewValidityMask(len(positions))
	for i, pos := range positions {
		if pos == nil {
			out.Set(i, false)
		} else {
			out.Set(i, m.IsValid(*pos))
		}
	}
	return out
}
