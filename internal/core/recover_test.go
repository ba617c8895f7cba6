package core

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/illarion/xmrkeys/internal/secmem"
	"github.com/illarion/xmrkeys/internal/wallettest"
)

func candidates(words ...string) [][]byte {
	out := make([][]byte, len(words))
	for i, w := range words {
		out[i] = []byte(w)
	}
	return out
}

func TestRecover_FindsPassword(t *testing.T) {
	payload := wallettest.FixedPayload(32)
	raw := sealV2(t, payload, "hunter2")
	list := candidates("password", "123456", "letmein", "hunter2", "qwerty", "monero")

	for _, workers := range []int{1, 3, 16} {
		result, err := Recover(context.Background(), raw, list, RecoverConfig{
			Workers: workers,
			Options: []Option{WithAllocator(&recordingAllocator{})},
		})
		if err != nil {
			t.Fatalf("workers=%d: Recover failed: %v", workers, err)
		}

		if result.Index != 3 {
			t.Errorf("workers=%d: Index = %d, want 3", workers, result.Index)
		}
		if !bytes.Equal(result.Plaintext.Bytes(), payload) {
			t.Errorf("workers=%d: plaintext mismatch", workers)
		}
		if result.Tried < 1 || result.Tried > len(list) {
			t.Errorf("workers=%d: Tried = %d", workers, result.Tried)
		}
		result.Plaintext.Destroy()
	}
}

func TestRecover_NoMatch(t *testing.T) {
	raw := sealV2(t, wallettest.FixedPayload(32), "unguessable")
	list := candidates("a", "b", "c", "d", "e")

	var mu sync.Mutex
	var reports []int
	alloc := &recordingAllocator{}

	_, err := Recover(context.Background(), raw, list, RecoverConfig{
		Workers: 2,
		Progress: func(done int) {
			mu.Lock()
			reports = append(reports, done)
			mu.Unlock()
		},
		Options: []Option{WithAllocator(alloc)},
	})
	if !errors.Is(err, ErrNoCandidateMatched) {
		t.Fatalf("Expected ErrNoCandidateMatched, got %v", err)
	}

	if len(reports) == 0 || reports[len(reports)-1] != len(list) {
		t.Errorf("Final progress = %v, want %d", reports, len(list))
	}
	for i := 1; i < len(reports); i++ {
		if reports[i] <= reports[i-1] {
			t.Errorf("Progress went backwards: %v", reports)
		}
	}

	alloc.assertWiped(t, nil)
}

func TestRecover_StartSkipsTriedCandidates(t *testing.T) {
	raw := sealV2(t, wallettest.FixedPayload(32), "first")
	list := candidates("first", "second", "third")

	_, err := Recover(context.Background(), raw, list, RecoverConfig{
		Start:   1,
		Options: []Option{WithAllocator(&recordingAllocator{})},
	})
	if !errors.Is(err, ErrNoCandidateMatched) {
		t.Errorf("Expected ErrNoCandidateMatched when skipping the match, got %v", err)
	}

	_, err = Recover(context.Background(), raw, list, RecoverConfig{Start: 10})
	if !errors.Is(err, ErrNoCandidateMatched) {
		t.Errorf("Expected ErrNoCandidateMatched for start past end, got %v", err)
	}
}

func TestRecover_StructuralErrorFailsFast(t *testing.T) {
	alloc := &recordingAllocator{}

	_, err := Recover(context.Background(), []byte("definitely not a wallet"), candidates("x"), RecoverConfig{
		Options: []Option{WithAllocator(alloc)},
	})
	if !IsStructural(err) {
		t.Errorf("Expected structural error, got %v", err)
	}
	if len(alloc.allocations()) != 0 {
		t.Error("Structural failure allocated secret buffers")
	}
}

func TestRecover_CancelledContext(t *testing.T) {
	raw := sealV2(t, wallettest.FixedPayload(32), "pw")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Recover(ctx, raw, candidates("a", "pw"), RecoverConfig{
		Options: []Option{WithAllocator(&recordingAllocator{})},
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestRecover_FatalErrorStops(t *testing.T) {
	raw := sealV2(t, wallettest.FixedPayload(32), "pw")

	_, err := Recover(context.Background(), raw, candidates("a", "b", "pw"), RecoverConfig{
		Workers: 1,
		Options: []Option{WithAllocator(&recordingAllocator{fail: 1})},
	})
	if !errors.Is(err, ErrAllocation) {
		t.Errorf("Expected ErrAllocation, got %v", err)
	}
}

func TestProgressTracker_Contiguous(t *testing.T) {
	var reports []int
	p := newProgressTracker(2, func(n int) { reports = append(reports, n) })

	p.done(4)
	p.done(3)
	if len(reports) != 0 {
		t.Fatalf("Reported before index 2 finished: %v", reports)
	}

	p.done(2)
	p.done(6)
	p.done(5)

	want := []int{5, 7}
	if len(reports) != len(want) || reports[0] != want[0] || reports[1] != want[1] {
		t.Errorf("Reports = %v, want %v", reports, want)
	}
}

func TestRecover_LowestMatchingIndexWins(t *testing.T) {
	payload := wallettest.FixedPayload(16)
	raw := sealV2(t, payload, "dup")
	list := candidates("a", "b", "dup", "c", "dup", "d", "dup", "e")

	// Random delays after key derivation let higher indices finish first
	var mu sync.Mutex
	rng := rand.New(rand.NewSource(1))
	jitter := func(s Stage) {
		if s != StageKeyDerived {
			return
		}
		mu.Lock()
		d := time.Duration(rng.Intn(20)) * time.Millisecond
		mu.Unlock()
		time.Sleep(d)
	}

	for round := 0; round < 10; round++ {
		result, err := Recover(context.Background(), raw, list, RecoverConfig{
			Workers: len(list),
			Options: []Option{WithAllocator(&recordingAllocator{}), WithStageHook(jitter)},
		})
		if err != nil {
			t.Fatalf("Round %d: Recover failed: %v", round, err)
		}
		if result.Index != 2 {
			t.Errorf("Round %d: Index = %d, want 2", round, result.Index)
		}
		result.Plaintext.Destroy()
	}
}

// limitedAllocator reports a fixed capacity and records peak live buffers
type limitedAllocator struct {
	recordingAllocator
	capacity int

	mu   sync.Mutex
	live int
	peak int
}

func (a *limitedAllocator) Capacity(sizes ...int) int {
	return a.capacity
}

func (a *limitedAllocator) Alloc(size int) (secmem.Buffer, error) {
	buf, err := a.recordingAllocator.Alloc(size)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	a.live++
	if a.live > a.peak {
		a.peak = a.live
	}
	a.mu.Unlock()
	return &countedBuffer{Buffer: buf, owner: a}, nil
}

type countedBuffer struct {
	secmem.Buffer
	owner *limitedAllocator
	once  sync.Once
}

func (b *countedBuffer) Destroy() {
	b.once.Do(func() {
		b.owner.mu.Lock()
		b.owner.live--
		b.owner.mu.Unlock()
	})
	b.Buffer.Destroy()
}

func TestRecover_WorkersBoundedByAllocatorCapacity(t *testing.T) {
	raw := sealV2(t, wallettest.FixedPayload(32), "unguessable")
	list := candidates("a", "b", "c", "d", "e", "f", "g", "h")

	for _, capacity := range []int{0, 1, 2} {
		alloc := &limitedAllocator{capacity: capacity}
		_, err := Recover(context.Background(), raw, list, RecoverConfig{
			Workers: len(list),
			Options: []Option{WithAllocator(alloc)},
		})
		if !errors.Is(err, ErrNoCandidateMatched) {
			t.Fatalf("capacity=%d: expected ErrNoCandidateMatched, got %v", capacity, err)
		}

		// two buffers per attempt, at least one attempt at a time
		limit := 2 * max(capacity, 1)
		if alloc.peak > limit {
			t.Errorf("capacity=%d: peak live buffers = %d, want at most %d", capacity, alloc.peak, limit)
		}
		alloc.assertWiped(t, nil)
	}
}
