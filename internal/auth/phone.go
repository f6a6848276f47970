package auth

import "strings"

// NormalizeMobile canonicalizes a submitted mobile identifier: a bare 10-digit
// number gains the country prefix, anything else passes through unchanged.
func NormalizeMobile(mobile, countryPrefix string) string {
	mobile = strings.TrimSpace(mobile)
	if len(mobile) == 10 && isAllDigits(mobile) {
		return countryPrefix + mobile
	}
	return mobile
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
