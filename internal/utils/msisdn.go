package utils

import (
	"fmt"
	"strings"
)

const (
	minMSISDNDigits = 9
	maxMSISDNDigits = 15
)

// CanonicalMSISDN strips formatting and international prefixes so the same
// subscriber always compares equal: "+224 600-000-001" and "00224600000001"
// both become "224600000001".
func CanonicalMSISDN(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = strings.NewReplacer(" ", "", "-", "", ".", "", "(", "", ")", "").Replace(s)
	s = strings.TrimPrefix(s, "+")
	if strings.HasPrefix(s, "00") {
		s = s[2:]
	}

	if len(s) < minMSISDNDigits || len(s) > maxMSISDNDigits {
		return "", fmt.Errorf("msisdn must have %d to %d digits, got %q", minMSISDNDigits, maxMSISDNDigits, raw)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("msisdn contains non-digit characters: %q", raw)
		}
	}
	return s, nil
}
