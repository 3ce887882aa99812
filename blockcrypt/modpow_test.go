package blockcrypt

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModPowMatchesExp(t *testing.T) {
	tests := []struct {
		name           string
		base, exp, mod int64
	}{
		{"textbook rsa", 65, 17, 3233},
		{"zero exponent", 123, 0, 3233},
		{"zero base", 0, 5, 3233},
		{"base larger than modulus", 5000, 3, 3233},
		{"base equal to modulus", 3233, 7, 3233},
		{"even modulus", 7, 100, 1024},
		{"exponent one", 42, 1, 97},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ModPow(big.NewInt(tt.base), big.NewInt(tt.exp), big.NewInt(tt.mod))
			require.NoError(t, err)
			want := new(big.Int).Exp(big.NewInt(tt.base), big.NewInt(tt.exp), big.NewInt(tt.mod))
			require.Equal(t, 0, want.Cmp(got), "got %s want %s", got, want)
		})
	}
}

func TestModPowSweep(t *testing.T) {
	mod := big.NewInt(2047)
	for b := int64(0); b < 64; b++ {
		for e := int64(0); e < 64; e++ {
			got, err := ModPow(big.NewInt(b), big.NewInt(e), mod)
			require.NoError(t, err)
			want := new(big.Int).Exp(big.NewInt(b), big.NewInt(e), mod)
			require.Equal(t, 0, want.Cmp(got), "base %d exp %d", b, e)
		}
	}
}

func TestModPowLargeKey(t *testing.T) {
	key := mustKey(t, v2BlockModulus, v2BlockExponent)
	base := new(big.Int).Lsh(big.NewInt(0xDEADBEEF), 900)

	got, err := ModPow(base, key.Exponent, key.Modulus)
	require.NoError(t, err)
	require.Equal(t, 0, new(big.Int).Exp(base, key.Exponent, key.Modulus).Cmp(got))
}

func TestModPowModulusOne(t *testing.T) {
	got, err := ModPow(big.NewInt(12345), big.NewInt(3), big.NewInt(1))
	require.NoError(t, err)
	require.Equal(t, 0, got.Sign())
}

func TestModPowRejectsBadArguments(t *testing.T) {
	_, err := ModPow(big.NewInt(2), big.NewInt(3), big.NewInt(0))
	require.Error(t, err)
	_, err = ModPow(big.NewInt(2), big.NewInt(3), big.NewInt(-7))
	require.Error(t, err)
	_, err = ModPow(big.NewInt(2), big.NewInt(3), nil)
	require.Error(t, err)
	_, err = ModPow(big.NewInt(2), big.NewInt(-1), big.NewInt(7))
	require.Error(t, err)
}

func TestBigIntToBytes(t *testing.T) {
	t.Run("small values are left padded", func(t *testing.T) {
		x := new(big.Int).Lsh(big.NewInt(1), 119)
		out, err := BigIntToBytes(x, 128)
		require.NoError(t, err)
		require.Len(t, out, 128)
		require.Equal(t, byte(0x80), out[113])
		for _, b := range out[:113] {
			require.Zero(t, b)
		}
	})

	t.Run("zero", func(t *testing.T) {
		out, err := BigIntToBytes(new(big.Int), 4)
		require.NoError(t, err)
		require.Equal(t, []byte{0, 0, 0, 0}, out)
	})

	t.Run("exact width", func(t *testing.T) {
		out, err := BigIntToBytes(big.NewInt(0x01020304), 4)
		require.NoError(t, err)
		require.Equal(t, []byte{1, 2, 3, 4}, out)
	})

	t.Run("too wide", func(t *testing.T) {
		_, err := BigIntToBytes(big.NewInt(0x0102030405), 4)
		require.Error(t, err)
	})

	t.Run("negative", func(t *testing.T) {
		_, err := BigIntToBytes(big.NewInt(-1), 4)
		require.Error(t, err)
	})
}

func TestBytesToBigInt(t *testing.T) {
	require.Equal(t, int64(0x0102), BytesToBigInt([]byte{0, 0, 1, 2}).Int64())
	require.Equal(t, 0, BytesToBigInt(nil).Sign())
}
