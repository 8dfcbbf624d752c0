package utils

import (
	"regexp"
	"strings"
)

var nonDigitRegex = regexp.MustCompile(`[^0-9]`)

// NormalizePhoneNG converts local Nigerian phone formats into E.164
// (+234...) as expected by the SMS provider.
func NormalizePhoneNG(phone string) string {
	p := strings.TrimSpace(phone)
	hadPlus := strings.HasPrefix(p, "+")
	p = nonDigitRegex.ReplaceAllString(p, "")

	switch {
	case strings.HasPrefix(p, "234"):
		return "+" + p
	case strings.HasPrefix(p, "0") && len(p) == 11:
		return "+234" + p[1:]
	case hadPlus:
		return "+" + p
	default:
		return p
	}
}

func StrPtr(s string) *string {
	return &s
}

func PtrString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
