package format

import (
	"fmt"

	"github.com/illarion/xmrkeys/internal/crypto"
)

const (
	Magic = "XMRWKEYS"

	MagicSize        = len(Magic)
	PrefixSize       = MagicSize + 1 // magic + version byte
	MinCiphertextLen = 1
	TagSize          = crypto.TagSize

	Argon2SaltSize = 16
)

// Version identifies a container layout
type Version uint8

const (
	V1 Version = 1
	V2 Version = 2
)

// KDFKind selects the password hashing scheme
type KDFKind uint8

const (
	KDFScrypt KDFKind = iota + 1
	KDFArgon2id
)

func (k KDFKind) String() string {
	switch k {
	case KDFScrypt:
		return "scrypt"
	case KDFArgon2id:
		return "argon2id"
	default:
		return fmt.Sprintf("kdf(%d)", uint8(k))
	}
}

// Variant carries every version-specific parameter. Downstream components
// dispatch on the Variant resolved by Parse and never re-read the header.
type Variant struct {
	Version   Version
	HeaderLen int // total header length including magic and version
	KDF       KDFKind
	Cipher    crypto.CipherKind
	TagScope  crypto.TagScope
}

// MinFileLen is the smallest file accepted for this variant
func (v Variant) MinFileLen() int {
	return v.HeaderLen + MinCiphertextLen + TagSize
}

var variants = map[Version]Variant{
	V1: {
		Version:   V1,
		HeaderLen: PrefixSize + crypto.ChaCha8NonceSize,
		KDF:       KDFScrypt,
		Cipher:    crypto.CipherChaCha8,
		TagScope:  crypto.TagPlaintext,
	},
	V2: {
		Version:   V2,
		HeaderLen: PrefixSize + 4 + 4 + 1 + Argon2SaltSize + crypto.CipherXChaCha20.NonceSize(),
		KDF:       KDFArgon2id,
		Cipher:    crypto.CipherXChaCha20,
		TagScope:  crypto.TagPlaintextKey,
	},
}

// MinKnownLen is the shortest header plus tag over every known version.
// Anything shorter cannot be a wallet keys file of any version.
var MinKnownLen = func() int {
	n := 0
	for _, v := range variants {
		if l := v.HeaderLen + TagSize; n == 0 || l < n {
			n = l
		}
	}
	return n
}()

// Lookup returns the variant for version
func Lookup(version Version) (Variant, bool) {
	v, ok := variants[version]
	return v, ok
}

// Limits bounds the costs a file header may request
type Limits struct {
	MaxArgon2MemoryKiB uint32
	MaxArgon2Time      uint32
	MaxArgon2Threads   uint8
}

// DefaultLimits allow up to 1 GiB of Argon2 memory
func DefaultLimits() Limits {
	return Limits{
		MaxArgon2MemoryKiB: 1 << 20,
		MaxArgon2Time:      16,
		MaxArgon2Threads:   64,
	}
}

// WalletFile is a parsed view over a wallet keys file. All byte fields are
// sub-slices of the buffer passed to Parse.
type WalletFile struct {
	Variant    Variant
	Nonce      []byte
	KDF        crypto.KeyDeriver
	Ciphertext []byte
	Tag        []byte
}

// Info is a non-secret summary of a wallet file header
type Info struct {
	Version       Version
	KDF           string
	Cipher        string
	TagScope      string
	HeaderLen     int
	CiphertextLen int
	TagLen        int
}

// Describe summarizes the parsed header
func (w *WalletFile) Describe() Info {
	return Info{
		Version:       w.Variant.Version,
		KDF:           w.KDF.String(),
		Cipher:        w.Variant.Cipher.String(),
		TagScope:      w.Variant.TagScope.String(),
		HeaderLen:     w.Variant.HeaderLen,
		CiphertextLen: len(w.Ciphertext),
		TagLen:        len(w.Tag),
	}
}
