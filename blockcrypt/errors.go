package blockcrypt

import "fmt"

// InvalidInputError is returned when the ciphertext text cannot be used,
// before any block is touched.
type InvalidInputError struct {
	Length   int // cleaned hex length
	Expected int // expected hex length
	Reason   string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s (got %d hex characters, expected %d)", e.Reason, e.Length, e.Expected)
}

// CryptoError reports invalid key material or a block whose arithmetic
// could not be completed. Block is -1 when the key itself is at fault.
type CryptoError struct {
	Block  int
	Reason string
	Err    error
}

func (e *CryptoError) Error() string {
	msg := "crypto error"
	if e.Block >= 0 {
		msg = fmt.Sprintf("crypto error in block %d", e.Block)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CryptoError) Unwrap() error {
	return e.Err
}
