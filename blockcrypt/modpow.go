package blockcrypt

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	errNegativeExponent = errors.New("negative exponent")
	errInvalidModulus   = errors.New("modulus must be positive")
)

// ModPow computes base^exp mod mod with binary exponentiation, walking the
// exponent from its least significant bit. A modulus of one yields zero.
func ModPow(base, exp, mod *big.Int) (*big.Int, error) {
	if mod == nil || mod.Sign() <= 0 {
		return nil, errInvalidModulus
	}
	if exp == nil || exp.Sign() < 0 {
		return nil, errNegativeExponent
	}
	if mod.Cmp(big.NewInt(1)) == 0 {
		return new(big.Int), nil
	}

	result := big.NewInt(1)
	b := new(big.Int).Mod(base, mod)
	for i := 0; i < exp.BitLen(); i++ {
		if exp.Bit(i) == 1 {
			result.Mul(result, b)
			result.Mod(result, mod)
		}
		b.Mul(b, b)
		b.Mod(b, mod)
	}
	return result, nil
}

// BytesToBigInt reads b as a big-endian unsigned integer.
func BytesToBigInt(b []byte) *big.Int {
	return new(big.Int).SetBytes(b)
}

// BigIntToBytes writes x big-endian into exactly size bytes, padding with
// leading zeros.
func BigIntToBytes(x *big.Int, size int) ([]byte, error) {
	if x.Sign() < 0 {
		return nil, fmt.Errorf("negative value cannot be encoded")
	}
	if (x.BitLen()+7)/8 > size {
		return nil, fmt.Errorf("value needs %d bytes, only %d available", (x.BitLen()+7)/8, size)
	}
	out := make([]byte, size)
	x.FillBytes(out)
	return out, nil
}
