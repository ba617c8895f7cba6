package secmem

import (
	"math"
	"os"
	"sync"
)

// memguard keeps a few single-page locked buffers of its own
const reservedPages = 4

var (
	pageSize = os.Getpagesize()

	processBudget     *lockBudget
	processBudgetOnce sync.Once
)

// pageRound returns the bytes memguard locks for a buffer of size bytes
func pageRound(size int) int64 {
	p := int64(pageSize)
	return (int64(size) + p - 1) / p * p
}

// lockBudget tracks locked bytes against a limit. A negative limit is unbounded.
type lockBudget struct {
	mu    sync.Mutex
	limit int64
	used  int64
}

func (b *lockBudget) reserve(n int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.limit >= 0 && b.used+n > b.limit {
		return false
	}
	b.used += n
	return true
}

func (b *lockBudget) release(n int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.used -= n
	if b.used < 0 {
		b.used = 0
	}
}

func (b *lockBudget) capacity(per int64) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.limit < 0 || per <= 0 {
		return math.MaxInt
	}
	free := b.limit - b.used
	if free <= 0 {
		return 0
	}
	if n := free / per; n < math.MaxInt {
		return int(n)
	}
	return math.MaxInt
}
