package document

import (
	"strings"
	"time"
)

func BoolToYesNo(value bool) string {
	if value {
		return "Yes"
	}
	return "No"
}

// IsOlderThan reports whether someone born on dob has reached the given
// age at now. A zero dob is never old enough.
func IsOlderThan(dob time.Time, years int, now time.Time) bool {
	if dob.IsZero() {
		return false
	}
	return !dob.After(now.AddDate(-years, 0, 0))
}

// JoinCodes renders a list of licence codes as a single attribute value.
func JoinCodes(codes []string) string {
	return strings.Join(codes, ",")
}
