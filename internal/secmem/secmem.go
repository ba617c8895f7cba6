package secmem

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/awnumar/memguard"

	"github.com/illarion/xmrkeys/internal/crypto"
)

// ErrAllocation is returned when a secret buffer cannot be allocated
var ErrAllocation = crypto.ErrAllocation

// Buffer is a secret-bearing byte buffer with an explicit lifetime
type Buffer interface {
	// Bytes returns the backing slice. It is nil after Destroy.
	Bytes() []byte
	// Destroy zero-fills and releases the buffer.
	Destroy()
}

// Allocator hands out secret buffers
type Allocator interface {
	Alloc(size int) (Buffer, error)
}

// Default returns the process-wide default allocator
func Default() Allocator {
	return LockedAllocator{}
}

// Purge destroys every live locked buffer. Call it only on process exit.
func Purge() {
	purged.Store(true)
	memguard.Purge()
}

// ErrPurged means memguard hit an unrecoverable mapping failure and wiped every
// locked buffer in the process. Nothing allocated before it can be trusted.
var ErrPurged = fmt.Errorf("%w: locked memory was purged", ErrAllocation)

var purged atomic.Bool

// Purged reports whether locked memory has been purged
func Purged() bool {
	return purged.Load()
}

// LockedAllocator allocates memguard locked buffers. Allocations are counted
// against the process lock limit so that running out of lockable memory fails
// the one call instead of reaching memguard's purge-and-panic path.
type LockedAllocator struct {
	budget *lockBudget // nil uses the process budget
}

func newLockedAllocator(limit int64) LockedAllocator {
	return LockedAllocator{budget: &lockBudget{limit: limit}}
}

func (a LockedAllocator) pool() *lockBudget {
	if a.budget != nil {
		return a.budget
	}
	processBudgetOnce.Do(func() {
		limit := lockLimit()
		if limit >= 0 {
			limit -= reservedPages * int64(pageSize)
			if limit < 0 {
				limit = 0
			}
		}
		processBudget = &lockBudget{limit: limit}
	})
	return processBudget
}

// Alloc allocates a locked buffer of size bytes.
//
// A mapping failure inside memguard has already purged every locked buffer
// in the process by the time it panics. It is reported as ErrPurged, every
// later Alloc fails with ErrPurged, and reading a surviving buffer panics.
func (a LockedAllocator) Alloc(size int) (buf Buffer, err error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: invalid size %d", ErrAllocation, size)
	}
	if purged.Load() {
		return nil, ErrPurged
	}

	budget := a.pool()
	locked := pageRound(size)
	if !budget.reserve(locked) {
		return nil, fmt.Errorf("%w: locked memory limit reached", ErrAllocation)
	}

	defer func() {
		if r := recover(); r != nil {
			purged.Store(true)
			budget.release(locked)
			buf = nil
			err = fmt.Errorf("%w: %v", ErrPurged, r)
		}
	}()

	lb := memguard.NewBuffer(size)
	return &lockedBuffer{lb: lb, budget: budget, locked: locked}, nil
}

// Capacity reports how many more calls, each holding one buffer of every
// given size at once, fit in the lock limit
func (a LockedAllocator) Capacity(sizes ...int) int {
	var per int64
	for _, size := range sizes {
		per += pageRound(size)
	}
	return a.pool().capacity(per)
}

type lockedBuffer struct {
	once      sync.Once
	destroyed atomic.Bool
	lb        *memguard.LockedBuffer
	budget    *lockBudget
	locked    int64
}

// Bytes panics with ErrPurged if the buffer was wiped by a purge rather than
// by its own Destroy
func (b *lockedBuffer) Bytes() []byte {
	if b.destroyed.Load() {
		return nil
	}
	if purged.Load() {
		panic(ErrPurged)
	}
	return b.lb.Bytes()
}

func (b *lockedBuffer) Destroy() {
	b.once.Do(func() {
		b.destroyed.Store(true)
		b.lb.Destroy()
		b.budget.release(b.locked)
	})
}

// HeapAllocator allocates ordinary Go heap buffers that are wiped on Destroy
type HeapAllocator struct{}

// Alloc allocates a heap buffer of size bytes
func (HeapAllocator) Alloc(size int) (Buffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: invalid size %d", ErrAllocation, size)
	}
	return NewHeapBuffer(make([]byte, size)), nil
}

// HeapBuffer wraps a caller-provided slice. Destroy wipes the slice in place.
type HeapBuffer struct {
	mu  sync.Mutex
	buf []byte
}

// NewHeapBuffer takes ownership of b
func NewHeapBuffer(b []byte) *HeapBuffer {
	return &HeapBuffer{buf: b}
}

func (b *HeapBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf
}

func (b *HeapBuffer) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.buf == nil {
		return
	}
	crypto.ClearBytes(b.buf)
	b.buf = nil
}
