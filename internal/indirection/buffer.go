// Package indirection implements the table of input offsets that pooling and
// convolution microkernels walk instead of computing addresses themselves.
//
// Each slot holds an element offset into a caller-owned input slice. The table
// tracks its logical length separately from its capacity: it only ever grows,
// so a smaller request after a larger one reuses the same backing storage.
package indirection

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is returned by the checked accessor for a slot past Len.
var ErrOutOfRange = errors.New("indirection slot out of range")

// Buffer is an owned, growable table of input offsets.
//
// A Buffer is not safe for concurrent mutation.
type Buffer struct {
	alloc      Allocator
	slots      []int // len is the logical length, cap the capacity
	generation int   // bumped whenever the backing storage moves
}

// New creates an empty Buffer backed by alloc. A nil alloc uses the heap.
func New(alloc Allocator) *Buffer {
	if alloc == nil {
		alloc = HeapAllocator{}
	}
	return &Buffer{alloc: alloc}
}

// Len returns the logical number of slots.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.slots)
}

// Cap returns the number of slots the backing storage holds.
func (b *Buffer) Cap() int {
	if b == nil {
		return 0
	}
	return cap(b.slots)
}

// Generation identifies the current backing storage. It changes only when
// Resize had to reallocate.
func (b *Buffer) Generation() int {
	if b == nil {
		return 0
	}
	return b.generation
}

// Resize sets the logical length to n, reallocating if n exceeds the
// capacity. Existing slot values are preserved. On failure the Buffer is
// left unchanged.
func (b *Buffer) Resize(n int) error {
	if n < 0 {
		return fmt.Errorf("negative indirection size %d", n)
	}
	if n <= cap(b.slots) {
		b.slots = b.slots[:n]
		return nil
	}

	grown, err := b.alloc.Grow(b.slots, n)
	if err != nil {
		return err
	}
	if len(grown) != n {
		return fmt.Errorf("allocator returned %d slots, want %d", len(grown), n)
	}
	b.slots = grown
	b.generation++
	return nil
}

// At returns the offset stored in slot i.
func (b *Buffer) At(i int) (int, error) {
	if b == nil || i < 0 || i >= len(b.slots) {
		return 0, fmt.Errorf("%w: slot %d, length %d", ErrOutOfRange, i, b.Len())
	}
	return b.slots[i], nil
}

// Set stores offset in slot i.
func (b *Buffer) Set(i, offset int) error {
	if b == nil || i < 0 || i >= len(b.slots) {
		return fmt.Errorf("%w: slot %d, length %d", ErrOutOfRange, i, b.Len())
	}
	b.slots[i] = offset
	return nil
}

// Slots exposes the logical slots for builders and kernels. The slice aliases
// the Buffer and is invalidated by the next Resize that reallocates.
func (b *Buffer) Slots() []int {
	if b == nil {
		return nil
	}
	return b.slots
}

// Release drops the backing storage. Calling Release on a nil or already
// released Buffer is a no-op.
func (b *Buffer) Release() {
	if b == nil {
		return
	}
	if b.slots != nil {
		b.alloc.Free(b.slots)
	}
	b.slots = nil
}
