// Package phone normalizes Indian (+91) phone numbers between what a person
// types, what the dashboard displays and what the backend stores.
package phone

import (
	"regexp"
	"strings"
)

const (
	// Default is the display value of an empty phone field
	Default     = "+91 "
	Prefix      = "+91"
	CountryCode = "91"
	Digits      = 10
)

// Validation messages, in priority order
const (
	MsgOnlyNumbers = "Only numbers allowed."
	MsgRequired    = "Phone number is required."
	MsgInvalid     = "Enter a valid 10-digit Indian phone number."
)

// allowedInput accepts ASCII digits, plus and any Unicode space
var allowedInput = regexp.MustCompile(`^[\d+\s\v\p{Z}\x{FEFF}]*$`)

// ValidationError reports why a phone value was rejected
type ValidationError struct {
	Value   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func stripNonDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// national keeps at most ten national digits, dropping a leading country code
func national(digits string) string {
	if strings.HasPrefix(digits, CountryCode) {
		digits = digits[len(CountryCode):]
	}
	if len(digits) > Digits {
		digits = digits[:Digits]
	}
	return digits
}

// DigitsOnly returns up to ten national digits of v
func DigitsOnly(v string) string {
	return national(stripNonDigits(v))
}

// FormatDisplay renders v as "+91 " followed by up to ten national digits.
// It is idempotent.
func FormatDisplay(v string) string {
	digits := strings.TrimLeft(stripNonDigits(v), "0")
	if digits == "" {
		return Default
	}
	return Default + national(digits)
}

// ToWireFormat converts a display value to the form the backend stores
func ToWireFormat(display string) string {
	digits := stripNonDigits(display)
	switch {
	case len(digits) == Digits:
		return Prefix + digits
	case len(digits) == Digits+len(CountryCode) && strings.HasPrefix(digits, CountryCode):
		return "+" + digits
	}
	trimmed := strings.TrimSpace(display)
	if strings.HasPrefix(trimmed, "+") {
		return trimmed
	}
	return Prefix + digits
}

// IsValid reports whether v holds a complete national or +91 number
func IsValid(v string) bool {
	digits := stripNonDigits(v)
	return len(digits) == Digits ||
		(len(digits) == Digits+len(CountryCode) && strings.HasPrefix(digits, CountryCode))
}

// ErrorMessage returns the first failing check for v, or "" when v is valid
func ErrorMessage(v string) string {
	if !allowedInput.MatchString(v) {
		return MsgOnlyNumbers
	}
	if stripNonDigits(v) == "" {
		return MsgRequired
	}
	if !IsValid(v) {
		return MsgInvalid
	}
	return ""
}

// Normalize validates v and returns its wire form
func Normalize(v string) (string, error) {
	if msg := ErrorMessage(v); msg != "" {
		return "", &ValidationError{Value: v, Message: msg}
	}
	return ToWireFormat(v), nil
}
