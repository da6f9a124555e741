// Package arena provides bump-pointer allocation for groupby/join
// intermediates, backed by an arrow/memory.Allocator instead of raw
// []byte chunks. It adapts the teacher's pkg/pool.ArenaPool/Arena
// (large pre-allocated chunks served to smaller allocations, reclaimed
// all at once via Reset) into typed AllocInt64/AllocFloat64 views used
// by groupby's dense fast path and join's build/probe phase.
package arena

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

const (
	int64Size   = 8
	float64Size = 8
)

// Arena is a single bump-pointer buffer carved out of an
// arrow/memory.Allocator. Memory allocated from it cannot be
// individually freed; call Release to return the whole buffer at once.
type Arena struct {
	alloc  memory.Allocator
	buf    []byte
	offset int
}

// New allocates an Arena of capacityBytes from alloc.
func New(alloc memory.Allocator, capacityBytes int) *Arena {
	return &Arena{alloc: alloc, buf: alloc.Allocate(capacityBytes)}
}

// Remaining reports the number of unused bytes in the arena.
func (a *Arena) Remaining() int { return len(a.buf) - a.offset }

// AllocInt64 carves n int64 slots out of the arena's backing buffer.
// The caller must have already confirmed Remaining() has enough room;
// AllocInt64 panics on overflow the same way a slice re-slice would.
func (a *Arena) AllocInt64(n int) []int64 {
	byteLen := n * int64Size
	start := a.offset
	a.offset += byteLen
	raw := a.buf[start:a.offset]
	return arrow.Int64Traits.CastFromBytes(raw)
}

// AllocFloat64 carves n float64 slots out of the arena's backing buffer.
func (a *Arena) AllocFloat64(n int) []float64 {
	byteLen := n * float64Size
	start := a.offset
	a.offset += byteLen
	raw := a.buf[start:a.offset]
	return arrow.Float64Traits.CastFromBytes(raw)
}

// Reset rewinds the bump pointer, making all previously allocated
// slices from this arena unsafe to use again.
func (a *Arena) Reset() { a.offset = 0 }

// Release returns the backing buffer to the allocator.
func (a *Arena) Release() {
	a.alloc.Free(a.buf)
	a.buf = nil
}

// EstimateBytes returns the byte footprint of n int64/float64 accumulator
// slots plus a same-length ordering vector of ints, the shape groupby's
// budget check (spec.md §4.5 step 2) needs before choosing arena vs.
// heap.
func EstimateBytes(n int) int64 {
	return int64(n) * (int64Size + int64Size)
}
