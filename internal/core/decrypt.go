package core

import (
	"context"
	"fmt"

	"github.com/illarion/xmrkeys/internal/crypto"
	"github.com/illarion/xmrkeys/internal/format"
	"github.com/illarion/xmrkeys/internal/secmem"
)

// Stage is a step of a single decryption call
type Stage int

const (
	StageStart Stage = iota
	StageParsed
	StageKeyDerived
	StageDecrypted
	StageVerified
)

func (s Stage) String() string {
	switch s {
	case StageStart:
		return "start"
	case StageParsed:
		return "parsed"
	case StageKeyDerived:
		return "key-derived"
	case StageDecrypted:
		return "decrypted"
	case StageVerified:
		return "verified"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

type options struct {
	alloc   secmem.Allocator
	limits  format.Limits
	onStage func(Stage)
}

// Option configures DecryptWallet and Recover
type Option func(*options)

// WithAllocator sets the allocator used for the derived key and plaintext
func WithAllocator(a secmem.Allocator) Option {
	return func(o *options) {
		o.alloc = a
	}
}

// WithLimits bounds the KDF costs a wallet header may request
func WithLimits(l format.Limits) Option {
	return func(o *options) {
		o.limits = l
	}
}

// WithStageHook calls fn each time a call completes a stage
func WithStageHook(fn func(Stage)) Option {
	return func(o *options) {
		o.onStage = fn
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		alloc:  secmem.Default(),
		limits: format.DefaultLimits(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *options) enter(s Stage) {
	if o.onStage != nil {
		o.onStage(s)
	}
}

// Plaintext is decrypted wallet key material owned by the caller.
// Destroy must be called once the data is no longer needed.
type Plaintext struct {
	buf secmem.Buffer
}

// Bytes returns the decrypted data. The slice is invalid after Destroy.
// It panics with secmem.ErrPurged if locked memory was purged while the
// plaintext was live.
func (p *Plaintext) Bytes() []byte {
	if p == nil || p.buf == nil {
		return nil
	}
	return p.buf.Bytes()
}

// Len returns the plaintext length
func (p *Plaintext) Len() int {
	return len(p.Bytes())
}

// Destroy zero-fills and releases the plaintext. Safe to call more than once.
func (p *Plaintext) Destroy() {
	if p == nil || p.buf == nil {
		return
	}
	p.buf.Destroy()
}

// DecryptWallet decrypts a wallet keys file with password.
//
// On success the caller owns the returned Plaintext. On failure no plaintext
// is returned and every secret buffer allocated by the call has been wiped.
// Errors match one of the sentinels in this package via errors.Is, or the
// context error if ctx was cancelled between stages.
func DecryptWallet(ctx context.Context, walletBytes, password []byte, opts ...Option) (*Plaintext, error) {
	o := newOptions(opts)
	o.enter(StageStart)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	wf, err := format.Parse(walletBytes, o.limits)
	if err != nil {
		return nil, err
	}
	o.enter(StageParsed)

	return decryptParsed(ctx, wf, password, o)
}

// decryptParsed runs key derivation, decryption and verification for an
// already parsed file. Buffers are released by deferred calls so panics and
// early returns wipe them too.
func decryptParsed(ctx context.Context, wf *format.WalletFile, password []byte, o *options) (*Plaintext, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key, err := o.alloc.Alloc(crypto.KeySize)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate key: %w", err)
	}
	defer key.Destroy()

	if err := wf.KDF.DeriveKey(password, key.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	o.enter(StageKeyDerived)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	buf, err := o.alloc.Alloc(len(wf.Ciphertext))
	if err != nil {
		return nil, fmt.Errorf("failed to allocate plaintext: %w", err)
	}
	owned := false
	defer func() {
		if !owned {
			buf.Destroy()
		}
	}()

	if err := crypto.Decrypt(wf.Variant.Cipher, key.Bytes(), wf.Nonce, buf.Bytes(), wf.Ciphertext); err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	o.enter(StageDecrypted)

	if err := crypto.VerifyTag(wf.Variant.TagScope, buf.Bytes(), key.Bytes(), wf.Tag); err != nil {
		return nil, err
	}
	o.enter(StageVerified)

	owned = true
	return &Plaintext{buf: buf}, nil
}

// Inspect parses walletBytes and returns its header summary. It needs no
// password and does no cryptographic work.
func Inspect(walletBytes []byte, opts ...Option) (format.Info, error) {
	o := newOptions(opts)
	wf, err := format.Parse(walletBytes, o.limits)
	if err != nil {
		return format.Info{}, err
	}
	return wf.Describe(), nil
}
