package amqp

import (
	"sync/atomic"
	"unsafe"
)

// Allocator accounts for the memory a Message holds: the Message structure
// itself, the backing storage of a list body, and each copied data buffer.
//
// Alloc is called before memory is taken and may refuse it, in which case
// the operation fails with ErrOutOfMemory and leaves the Message unchanged.
// Every successful Alloc is eventually matched by a Free of the same size.
//
// An Allocator shared between Messages must be safe for concurrent use.
type Allocator interface {
	Alloc(size int) error
	Free(size int)
}

// HeapAllocator never refuses an allocation. It is the default Allocator.
type HeapAllocator struct{}

func (HeapAllocator) Alloc(int) error { return nil }
func (HeapAllocator) Free(int)        {}

// LimitAllocator refuses allocations that would take the total in use
// above a fixed number of bytes. It can be shared by any number of Messages
// to bound the memory held by a pipeline.
type LimitAllocator struct {
	limit int64
	inUse atomic.Int64
}

// NewLimitAllocator returns an allocator with a budget of limit bytes.
func NewLimitAllocator(limit int64) *LimitAllocator {
	return &LimitAllocator{limit: limit}
}

func (a *LimitAllocator) Alloc(size int) error {
	for {
		cur := a.inUse.Load()
		next := cur + int64(size)
		if next > a.limit {
			return errorWrapf(ErrOutOfMemory, "allocating %d bytes (%d of %d in use)", size, cur, a.limit)
		}
		if a.inUse.CompareAndSwap(cur, next) {
			return nil
		}
	}
}

func (a *LimitAllocator) Free(size int) {
	a.inUse.Add(-int64(size))
}

// InUse returns the number of bytes currently allocated.
func (a *LimitAllocator) InUse() int64 {
	return a.inUse.Load()
}

// sizes reported to the Allocator
var (
	messageSize  = int(unsafe.Sizeof(Message{}))
	dataElemSize = int(unsafe.Sizeof([]byte(nil)))
	valueElem    = int(unsafe.Sizeof(Value(nil)))
)

// grow returns items with room for at least one more element, reserving
// the new backing storage from a and releasing the old. items is returned
// unchanged if a refuses the allocation.
func grow[E any](a Allocator, items []E, elemSize int) ([]E, error) {
	if len(items) < cap(items) {
		return items, nil
	}

	newCap := 2 * cap(items)
	if newCap == 0 {
		newCap = 1
	}

	if err := a.Alloc(newCap * elemSize); err != nil {
		return items, errorWrapf(ErrOutOfMemory, "growing body list to %d: %v", newCap, err)
	}

	grown := make([]E, len(items), newCap)
	copy(grown, items)
	if cap(items) > 0 {
		a.Free(cap(items) * elemSize)
	}
	return grown, nil
}
