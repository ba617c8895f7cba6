package crypto

import (
	"encoding/binary"
	"fmt"
	"math/bits"
)

const (
	chachaBlockSize  = 64
	ChaCha8NonceSize = 8
)

// "expand 32-byte k"
var sigma = [4]uint32{0x61707865, 0x3320646e, 0x79622d32, 0x6b206574}

// MoneroChaCha is the original djb ChaCha layout used by Monero wallets:
// a 64-bit block counter in words 12-13 and a 64-bit nonce in words 14-15.
// golang.org/x/crypto/chacha20 only implements the IETF and XChaCha layouts
// with 20 rounds, so the reduced-round variant lives here.
type MoneroChaCha struct {
	input   [16]uint32
	rounds  int
	counter uint64
	block   [chachaBlockSize]byte
	used    int
}

// NewChaCha8 returns a ChaCha8 stream keyed with a 32-byte key and 8-byte nonce
func NewChaCha8(key, nonce []byte) (*MoneroChaCha, error) {
	return newMoneroChaCha(8, key, nonce)
}

func newMoneroChaCha(rounds int, key, nonce []byte) (*MoneroChaCha, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: %d", ErrKeySize, len(key))
	}
	if len(nonce) != ChaCha8NonceSize {
		return nil, fmt.Errorf("%w: %d", ErrNonceSize, len(nonce))
	}

	c := &MoneroChaCha{rounds: rounds, used: chachaBlockSize}
	copy(c.input[0:4], sigma[:])
	for i := 0; i < 8; i++ {
		c.input[4+i] = binary.LittleEndian.Uint32(key[i*4:])
	}
	c.input[14] = binary.LittleEndian.Uint32(nonce[0:4])
	c.input[15] = binary.LittleEndian.Uint32(nonce[4:8])

	return c, nil
}

// XORKeyStream XORs each byte in src with the keystream and writes the result
// to dst. dst and src must overlap entirely or not at all.
func (c *MoneroChaCha) XORKeyStream(dst, src []byte) {
	if len(dst) < len(src) {
		panic("chacha8: output smaller than input")
	}

	for i := range src {
		if c.used == chachaBlockSize {
			c.nextBlock()
		}
		dst[i] = src[i] ^ c.block[c.used]
		c.used++
	}
}

// Wipe clears the key schedule and any buffered keystream
func (c *MoneroChaCha) Wipe() {
	clear(c.input[:])
	ClearBytes(c.block[:])
	c.counter = 0
	c.used = chachaBlockSize
}

func (c *MoneroChaCha) nextBlock() {
	c.input[12] = uint32(c.counter)
	c.input[13] = uint32(c.counter >> 32)

	x := c.input
	for i := 0; i < c.rounds; i += 2 {
		// column round
		quarterRound(&x, 0, 4, 8, 12)
		quarterRound(&x, 1, 5, 9, 13)
		quarterRound(&x, 2, 6, 10, 14)
		quarterRound(&x, 3, 7, 11, 15)
		// diagonal round
		quarterRound(&x, 0, 5, 10, 15)
		quarterRound(&x, 1, 6, 11, 12)
		quarterRound(&x, 2, 7, 8, 13)
		quarterRound(&x, 3, 4, 9, 14)
	}

	for i := range x {
		binary.LittleEndian.PutUint32(c.block[i*4:], x[i]+c.input[i])
		x[i] = 0
	}

	c.counter++
	c.used = 0
}

func quarterRound(x *[16]uint32, a, b, c, d int) {
	x[a] += x[b]
	x[d] = bits.RotateLeft32(x[d]^x[a], 16)
	x[c] += x[d]
	x[b] = bits.RotateLeft32(x[b]^x[c], 12)
	x[a] += x[b]
	x[d] = bits.RotateLeft32(x[d]^x[a], 8)
	x[c] += x[d]
	x[b] = bits.RotateLeft32(x[b]^x[c], 7)
}
