package validate

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reEmail    = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reUsername = regexp.MustCompile(`^[A-Za-z0-9_.]{3,32}$`)
	reID       = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	reSKU      = regexp.MustCompile(`^[A-Z0-9-]{3,32}$`)
	reAction   = regexp.MustCompile(`^[a-z0-9_|-]+(\.[a-z0-9_|-]+)*$`)
	// Sri Lankan numbers: +94 or 0, then nine digits.
	rePhone   = regexp.MustCompile(`^(\+94|0)[0-9]{9}$`)
	reLicense = regexp.MustCompile(`^[A-Z][0-9]{7}$`)
)

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 80 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// Username trims and lowercases before matching.
func Username(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	return s, reUsername.MatchString(s)
}

func Phone(s string) (string, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	return s, rePhone.MatchString(s)
}

func SKU(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	return s, reSKU.MatchString(s)
}

func License(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	return s, reLicense.MatchString(s)
}

// Qty parses a cart quantity, clamped to [1,50].
func Qty(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	if n > 50 {
		return 50
	}
	return n
}

// ID validates a simple resource identifier.
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// Action accepts a dotted log action name such as "orders.status".
func Action(s string) bool { return len(s) <= 64 && reAction.MatchString(s) }

// Name validates a displayable name with a reasonable max length.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 80 {
		return "", false
	}
	return s, true
}

// Amount accepts a non-negative number such as a price or a stock count.
func Amount(v float64) bool { return v >= 0 && v < 1e9 }

// Percent accepts values in [0,100].
func Percent(v float64) bool { return v >= 0 && v <= 100 }

// Password enforces length and character classes for new passwords.
func Password(s string) bool {
	l := len(s)
	if l < 8 || l > 64 {
		return false
	}
	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z':
			hasLower = true
		case 'A' <= r && r <= 'Z':
			hasUpper = true
		case '0' <= r && r <= '9':
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	return hasLower && hasUpper && hasDigit && hasSymbol
}
