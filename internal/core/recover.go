package core

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/illarion/xmrkeys/internal/crypto"
	"github.com/illarion/xmrkeys/internal/format"
	"github.com/illarion/xmrkeys/internal/secmem"
)

// RecoverConfig controls a candidate password search
type RecoverConfig struct {
	// Workers is the number of concurrent decryption attempts. Defaults to
	// the number of CPUs.
	Workers int
	// Start skips candidates with a lower index, e.g. when resuming.
	Start int
	// Progress receives the number of leading candidates that are finished.
	// Calls are serialized and the value never decreases.
	Progress func(done int)
	Options  []Option
}

// RecoverResult describes the candidate that decrypted the wallet
type RecoverResult struct {
	Index     int
	Plaintext *Plaintext
	Tried     int
}

// Recover tries each candidate password against walletBytes and returns the
// lowest-index candidate that decrypts it. Every attempt is a full, independent
// decryption; attempts share only the parsed header. A match cancels attempts
// on higher indices while lower ones run to completion.
func Recover(ctx context.Context, walletBytes []byte, candidates [][]byte, cfg RecoverConfig) (*RecoverResult, error) {
	o := newOptions(cfg.Options)

	wf, err := format.Parse(walletBytes, o.limits)
	if err != nil {
		return nil, err
	}

	start := cfg.Start
	if start < 0 {
		start = 0
	}
	if start >= len(candidates) {
		return nil, ErrNoCandidateMatched
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if remaining := len(candidates) - start; workers > remaining {
		workers = remaining
	}
	// each attempt holds a key and a plaintext buffer at the same time
	if l, ok := o.alloc.(capacityLimiter); ok {
		if c := l.Capacity(crypto.KeySize, len(wf.Ciphertext)); c < workers {
			workers = max(c, 1)
		}
	}

	searchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		tried atomic.Int64
		wg    sync.WaitGroup
	)
	s := newSearch(len(candidates))
	tracker := newProgressTracker(start, cfg.Progress)
	jobs := make(chan int)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				attemptCtx, ok := s.begin(searchCtx, idx)
				if !ok {
					continue
				}
				pt, err := decryptParsed(attemptCtx, wf, candidates[idx], o)
				s.end(idx)

				switch {
				case err == nil:
					tried.Add(1)
					tracker.done(idx)
					s.match(idx, pt)
				case errors.Is(err, ErrAuthFailed):
					tried.Add(1)
					tracker.done(idx)
				case attemptCtx.Err() != nil:
					// superseded by a lower match or cancelled
				default:
					s.fail(err)
					cancel()
				}
			}
		}()
	}

feed:
	for i := start; i < len(candidates); i++ {
		if i > s.lowest() {
			break
		}
		select {
		case jobs <- i:
		case <-searchCtx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if s.winner != nil && secmem.Purged() {
		s.winner.Plaintext.Destroy()
		return nil, secmem.ErrPurged
	}
	if s.winner != nil {
		s.winner.Tried = int(tried.Load())
		return s.winner, nil
	}
	if s.fatal != nil {
		return nil, s.fatal
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, ErrNoCandidateMatched
}

// capacityLimiter is implemented by allocators drawing from a bounded pool
type capacityLimiter interface {
	Capacity(sizes ...int) int
}

// search holds the shared state of one Recover call
type search struct {
	mu       sync.Mutex
	best     int // lowest matching index, len(candidates) while none
	winner   *RecoverResult
	fatal    error
	inflight map[int]context.CancelFunc
}

func newSearch(n int) *search {
	return &search{best: n, inflight: make(map[int]context.CancelFunc)}
}

func (s *search) lowest() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.best
}

// begin registers an attempt on idx. It reports false when a lower index has
// already matched.
func (s *search) begin(ctx context.Context, idx int) (context.Context, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx > s.best {
		return nil, false
	}
	attemptCtx, cancel := context.WithCancel(ctx)
	s.inflight[idx] = cancel
	return attemptCtx, true
}

func (s *search) end(idx int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cancel, ok := s.inflight[idx]; ok {
		cancel()
		delete(s.inflight, idx)
	}
}

// match keeps the lowest matching index and cancels attempts above it
func (s *search) match(idx int, pt *Plaintext) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx >= s.best {
		pt.Destroy()
		return
	}
	if s.winner != nil {
		s.winner.Plaintext.Destroy()
	}
	s.winner = &RecoverResult{Index: idx, Plaintext: pt}
	s.best = idx

	for i, cancel := range s.inflight {
		if i > idx {
			cancel()
		}
	}
}

func (s *search) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fatal == nil {
		s.fatal = err
	}
}

// progressTracker turns out-of-order completions into a contiguous count
type progressTracker struct {
	mu      sync.Mutex
	next    int
	pending map[int]struct{}
	report  func(int)
}

func newProgressTracker(start int, report func(int)) *progressTracker {
	return &progressTracker{
		next:    start,
		pending: make(map[int]struct{}),
		report:  report,
	}
}

func (p *progressTracker) done(idx int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pending[idx] = struct{}{}
	advanced := false
	for {
		if _, ok := p.pending[p.next]; !ok {
			break
		}
		delete(p.pending, p.next)
		p.next++
		advanced = true
	}

	if advanced && p.report != nil {
		p.report(p.next)
	}
}
