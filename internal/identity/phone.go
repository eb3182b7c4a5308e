package identity

import "strings"

const DefaultCountryCode = "+84"

var phoneStripper = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", "\t", "")

// FormatPhoneE164 normalizes a phone number to E.164, assuming
// DefaultCountryCode for local numbers. An empty input stays empty.
//
//	0901234567   -> +84901234567
//	84901234567  -> +84901234567
//	+84901234567 -> +84901234567
func FormatPhoneE164(phone string) string {
	p := phoneStripper.Replace(strings.TrimSpace(phone))
	switch {
	case p == "":
		return ""
	case strings.HasPrefix(p, "+"):
		return p
	case strings.HasPrefix(p, "84") && len(p) > 10:
		return "+" + p
	case strings.HasPrefix(p, "0"):
		return DefaultCountryCode + p[1:]
	}
	return DefaultCountryCode + p
}

// ValidPhone reports whether an E.164 number has a plausible shape.
func ValidPhone(e164 string) bool {
	if len(e164) < 8 || len(e164) > 16 || e164[0] != '+' {
		return false
	}
	for _, r := range e164[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
