package indirection

import (
	"errors"
	"fmt"
)

// ErrAllocation is returned when an Allocator cannot supply the requested slots.
var ErrAllocation = errors.New("indirection allocation failed")

// Allocator supplies, grows, and frees indirection storage.
type Allocator interface {
	// Grow returns storage of length n holding a copy of old. It may reuse
	// old's backing array when the capacity allows.
	Grow(old []int, n int) ([]int, error)
	// Free is told that storage is no longer used.
	Free(s []int)
}

// HeapAllocator allocates from the Go heap. A positive MaxEntries caps every
// allocation; larger requests fail with ErrAllocation.
type HeapAllocator struct {
	MaxEntries int
}

// Grow implements Allocator.
func (a HeapAllocator) Grow(old []int, n int) ([]int, error) {
	if a.MaxEntries > 0 && n > a.MaxEntries {
		return nil, fmt.Errorf("%w: %d entries requested, limit %d", ErrAllocation, n, a.MaxEntries)
	}
	if n <= cap(old) {
		return old[:n], nil
	}
	grown := make([]int, n)
	copy(grown, old)
	return grown, nil
}

// Free implements Allocator. The garbage collector reclaims heap storage.
func (HeapAllocator) Free([]int) {}
