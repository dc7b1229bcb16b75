package password

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Denylist of passwords seen constantly in credential-stuffing lists.
// Matched case-insensitively after trimming.
var trivialPasswords = map[string]struct{}{
	"password":    {},
	"password123": {},
	"123456":      {},
	"123456789":   {},
	"qwerty":      {},
	"qwerty123":   {},
	"11111111":    {},
}

// Validate applies the registration password policy. Length is measured
// in runes, not bytes, so multi-byte characters count once.
func (c Config) Validate(password string) error {
	switch n := utf8.RuneCountInString(password); {
	case n < c.Policy.MinLength:
		return ErrPasswordTooShort
	case n > c.Policy.MaxLength:
		return ErrPasswordTooLong
	}

	if c.Policy.RejectVeryWeak && isTrivial(password) {
		return ErrWeakPassword
	}
	return nil
}

// isTrivial catches only the obviously guessable cases. It is not a
// strength estimator; length and the denylist do most of the work.
func isTrivial(pw string) bool {
	s := strings.TrimSpace(pw)
	if s == "" {
		return true
	}
	if singleRepeatedRune(s) {
		return true
	}
	if digitsOnly(s) && utf8.RuneCountInString(s) < 12 {
		// PIN-like.
		return true
	}
	_, listed := trivialPasswords[strings.ToLower(s)]
	return listed
}

func singleRepeatedRune(s string) bool {
	first, size := utf8.DecodeRuneInString(s)
	for _, r := range s[size:] {
		if r != first {
			return false
		}
	}
	return true
}

func digitsOnly(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
