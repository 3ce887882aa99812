// Package blockcrypt recovers the plaintext of a licence barcode payload by
// applying the issuer's RSA public key to each fixed-size block.
package blockcrypt

import (
	"fmt"
	"log/slog"
	"math/big"

	"golang.org/x/sync/errgroup"
)

// Key is an RSA public key. Decryption here means raising each block to
// the public exponent.
type Key struct {
	Modulus  *big.Int
	Exponent *big.Int
}

// Validate checks that the key can be used on blocks of size bytes.
func (k Key) Validate(size int) error {
	if k.Modulus == nil || k.Modulus.Cmp(big.NewInt(1)) <= 0 {
		return &CryptoError{Block: -1, Reason: "modulus must be greater than one"}
	}
	if k.Exponent == nil || k.Exponent.Sign() < 0 {
		return &CryptoError{Block: -1, Reason: "exponent must not be negative"}
	}
	if size > 0 && k.Modulus.BitLen() > size*8 {
		return &CryptoError{Block: -1, Reason: fmt.Sprintf("modulus is %d bits, wider than a %d byte block", k.Modulus.BitLen(), size)}
	}
	return nil
}

// Layout describes how a payload is cut up.
type Layout struct {
	HeaderSize  int
	BlockSize   int
	BlockCount  int
	TrailerSize int
}

// DefaultLayout is the 720 byte licence payload: a 6 byte header, five
// 128 byte blocks and a 74 byte trailer block.
var DefaultLayout = Layout{
	HeaderSize:  6,
	BlockSize:   128,
	BlockCount:  5,
	TrailerSize: 74,
}

// TotalSize is the exact payload length in bytes.
func (l Layout) TotalSize() int {
	return l.HeaderSize + l.BlockSize*l.BlockCount + l.TrailerSize
}

// PlaintextSize is the length of the concatenated decrypted blocks.
func (l Layout) PlaintextSize() int {
	return l.BlockSize * l.BlockCount
}

// Plaintext is the result of opening one payload.
type Plaintext struct {
	Header  []byte
	Data    []byte // decrypted blocks, in order
	Trailer []byte // nil unless a trailer key was supplied
}

// Cryptor opens payloads cut according to Layout. The zero value is not
// usable; use NewCryptor or set Layout.
type Cryptor struct {
	Layout   Layout
	Parallel bool
}

func NewCryptor(parallel bool) Cryptor {
	return Cryptor{Layout: DefaultLayout, Parallel: parallel}
}

// Decrypt opens a hex payload in the default layout with key and returns
// the concatenated decrypted blocks.
func Decrypt(hexString string, key Key) ([]byte, error) {
	pt, err := NewCryptor(false).OpenHex(hexString, key, nil)
	if err != nil {
		return nil, err
	}
	return pt.Data, nil
}

// OpenHex cleans hexString and opens it. See Open.
func (c Cryptor) OpenHex(hexString string, blockKey Key, trailerKey *Key) (*Plaintext, error) {
	data, err := HexToBytes(hexString, c.Layout.TotalSize())
	if err != nil {
		return nil, err
	}
	return c.Open(data, blockKey, trailerKey)
}

// Open decrypts every block of data with blockKey. The header is copied
// through as is. The trailer is decrypted only when trailerKey is set.
func (c Cryptor) Open(data []byte, blockKey Key, trailerKey *Key) (*Plaintext, error) {
	l := c.Layout
	if len(data) != l.TotalSize() {
		return nil, &InvalidInputError{Length: len(data) * 2, Expected: l.TotalSize() * 2, Reason: "unexpected payload length"}
	}
	if err := blockKey.Validate(l.BlockSize); err != nil {
		return nil, err
	}
	if trailerKey != nil {
		if err := trailerKey.Validate(l.TrailerSize); err != nil {
			return nil, err
		}
	}

	pt := &Plaintext{
		Header: append([]byte(nil), data[:l.HeaderSize]...),
		Data:   make([]byte, l.PlaintextSize()),
	}

	blocks := data[l.HeaderSize : l.HeaderSize+l.PlaintextSize()]
	decryptAt := func(i int) error {
		block := blocks[i*l.BlockSize : (i+1)*l.BlockSize]
		out, err := DecryptBlock(block, blockKey)
		if err != nil {
			return &CryptoError{Block: i, Reason: "block decryption failed", Err: err}
		}
		copy(pt.Data[i*l.BlockSize:], out)
		return nil
	}

	if c.Parallel {
		var g errgroup.Group
		for i := range l.BlockCount {
			g.Go(func() error { return decryptAt(i) })
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i := range l.BlockCount {
			if err := decryptAt(i); err != nil {
				return nil, err
			}
		}
	}

	if trailerKey != nil && l.TrailerSize > 0 {
		trailer := data[l.HeaderSize+l.PlaintextSize():]
		out, err := DecryptBlock(trailer, *trailerKey)
		if err != nil {
			return nil, &CryptoError{Block: l.BlockCount, Reason: "trailer decryption failed", Err: err}
		}
		pt.Trailer = out
	}

	slog.Debug("payload decrypted", "blocks", l.BlockCount, "plaintext_size", len(pt.Data), "trailer", pt.Trailer != nil, "parallel", c.Parallel)
	return pt, nil
}

// DecryptBlock computes block^e mod n and returns it with the width of
// block.
func DecryptBlock(block []byte, key Key) ([]byte, error) {
	output, err := ModPow(BytesToBigInt(block), key.Exponent, key.Modulus)
	if err != nil {
		return nil, err
	}
	return BigIntToBytes(output, len(block))
}
