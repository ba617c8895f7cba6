package core

import (
	"bytes"
	"sync"
	"testing"

	"github.com/illarion/xmrkeys/internal/format"
	"github.com/illarion/xmrkeys/internal/secmem"
	"github.com/illarion/xmrkeys/internal/wallettest"
)

// recordingAllocator hands out heap buffers and keeps a reference to their
// backing arrays so tests can inspect the memory after Destroy.
type recordingAllocator struct {
	mu      sync.Mutex
	backing [][]byte
	fail    int // fail the n-th allocation (1-based); 0 never fails
}

func (a *recordingAllocator) Alloc(size int) (secmem.Buffer, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.fail > 0 && len(a.backing)+1 == a.fail {
		a.backing = append(a.backing, nil)
		return nil, secmem.ErrAllocation
	}

	b := make([]byte, size)
	a.backing = append(a.backing, b)
	return secmem.NewHeapBuffer(b), nil
}

func (a *recordingAllocator) allocations() [][]byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([][]byte(nil), a.backing...)
}

// assertWiped fails if any recorded buffer other than keep holds a non-zero byte
func (a *recordingAllocator) assertWiped(t *testing.T, keep []byte) {
	t.Helper()
	for i, b := range a.allocations() {
		if len(b) == 0 {
			continue
		}
		if len(keep) > 0 && &b[0] == &keep[0] {
			continue
		}
		if !bytes.Equal(b, make([]byte, len(b))) {
			t.Errorf("Allocation %d (%d bytes) not wiped", i, len(b))
		}
	}
}

func sealV1(t *testing.T, payload []byte, password string) []byte {
	t.Helper()
	raw, err := wallettest.Seal(payload, []byte(password), wallettest.Options{Version: format.V1})
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	return raw
}

func sealV2(t *testing.T, payload []byte, password string) []byte {
	t.Helper()
	raw, err := wallettest.Seal(payload, []byte(password), wallettest.Options{Version: format.V2})
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	return raw
}
