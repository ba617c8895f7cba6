// Package secmem allocates buffers for secret material.
//
// Every buffer handed out by an Allocator must be released with Destroy,
// which overwrites the contents with zeros before the memory is returned.
// Destroy is idempotent so deferred and explicit releases can be mixed.
//
// The default allocator uses memguard locked buffers (mlock'd pages with guard
// pages, excluded from core dumps). HeapAllocator is a plain Go heap fallback
// for platforms where locking memory is not permitted.
//
// Locked allocations are counted against RLIMIT_MEMLOCK, so exhausting the
// limit fails only the allocation that crossed it. A mapping failure inside
// memguard is different: memguard wipes every locked buffer before it panics,
// so it is reported as ErrPurged and poisons the allocator for the rest of the
// process.
package secmem
