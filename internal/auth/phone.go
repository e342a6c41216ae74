package auth

import "strings"

const (
	countryCode     = "971"
	minMobileDigits = 8
	maxMobileDigits = 15
)

// NormalizeMobile keeps the digits of raw and prefixes the UAE country code
// unless it is already present. Applying it twice gives the same result.
func NormalizeMobile(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return ""
	}
	if strings.HasPrefix(digits, countryCode) {
		return "+" + digits
	}
	return "+" + countryCode + digits
}

// ValidMobile reports whether a normalized number is a plausible E.164 value.
func ValidMobile(normalized string) bool {
	digits, ok := strings.CutPrefix(normalized, "+")
	if !ok {
		return false
	}
	return len(digits) >= minMobileDigits && len(digits) <= maxMobileDigits
}

func validCode(code string) bool {
	if len(code) != codeLength {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
