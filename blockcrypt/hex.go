package blockcrypt

import (
	"strings"

	"github.com/gmrtd/gmrtd/utils"
)

// CleanHex drops every character outside [0-9A-Fa-f].
func CleanHex(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
			return r
		}
		return -1
	}, s)
}

// HexToBytes cleans s and converts it to exactly expected bytes.
func HexToBytes(s string, expected int) ([]byte, error) {
	clean := CleanHex(s)
	if len(clean)%2 != 0 {
		return nil, &InvalidInputError{Length: len(clean), Expected: expected * 2, Reason: "odd number of hex digits"}
	}
	if len(clean)/2 != expected {
		return nil, &InvalidInputError{Length: len(clean), Expected: expected * 2, Reason: "unexpected payload length"}
	}
	// clean is even length and hex only, so the conversion cannot fail
	return utils.HexToBytes(clean), nil
}
