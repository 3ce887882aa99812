package sadl

import (
	"fmt"
	"time"
)

// absentNibble as the first nibble of a date means the date is not set.
const absentNibble = 0xA

// dateNibbles is the width of a present date: YYYYMMDD.
const dateNibbles = 8

// toNibbles splits every byte into its high and low nibble.
func toNibbles(data []byte) []byte {
	out := make([]byte, 0, len(data)*2)
	for _, b := range data {
		out = append(out, (b>>4)&0x0F, b&0x0F)
	}
	return out
}

// isValidDigits checks that every nibble is a decimal digit.
func isValidDigits(nibbles []byte) bool {
	for _, n := range nibbles {
		if n > 9 {
			return false
		}
	}
	return true
}

// nibbleDateWidth returns how many nibbles the date starting at nibbles[0]
// takes up.
func nibbleDateWidth(nibbles []byte) int {
	if len(nibbles) > 0 && nibbles[0] == absentNibble {
		return 1
	}
	return dateNibbles
}

// parseNibbleDate converts a YYYYMMDD nibble sequence to a Date. A single
// absent nibble yields the zero Date.
func parseNibbleDate(nibbles []byte) (Date, error) {
	if len(nibbles) == 1 && nibbles[0] == absentNibble {
		return Date{}, nil
	}
	if len(nibbles) != dateNibbles {
		return Date{}, fmt.Errorf("invalid date length: %d nibbles", len(nibbles))
	}
	if !isValidDigits(nibbles) {
		return Date{}, fmt.Errorf("invalid date: contains non-decimal nibble in %x", nibbles)
	}
	year := digitsValue(nibbles[0:4])
	month := digitsValue(nibbles[4:6])
	day := digitsValue(nibbles[6:8])
	return validDate(year, month, day)
}

// validDate rejects dates that time.Date would normalise, such as 31 April,
// and 0001/01/01, which would read back as an absent date.
func validDate(year, month, day int) (Date, error) {
	if month < 1 || month > 12 {
		return Date{}, fmt.Errorf("invalid month %02d", month)
	}
	d := NewDate(year, time.Month(month), day)
	if d.IsZero() {
		return Date{}, fmt.Errorf("invalid date %04d/%02d/%02d: reserved for absent dates", year, month, day)
	}
	if d.Year() != year || int(d.Month()) != month || d.Day() != day {
		return Date{}, fmt.Errorf("invalid day %02d for %04d/%02d", day, year, month)
	}
	return d, nil
}

func digitsValue(digits []byte) int {
	v := 0
	for _, n := range digits {
		v = v*10 + int(n)
	}
	return v
}

// parseNibbleCode renders a run of decimal nibbles as text, e.g. "01".
func parseNibbleCode(nibbles []byte, width int) (string, error) {
	if len(nibbles) != width {
		return "", fmt.Errorf("invalid code length: %d nibbles, expected %d", len(nibbles), width)
	}
	if !isValidDigits(nibbles) {
		return "", fmt.Errorf("invalid code: contains non-decimal nibble in %x", nibbles)
	}
	code := make([]byte, len(nibbles))
	for i, n := range nibbles {
		code[i] = '0' + n
	}
	return string(code), nil
}
