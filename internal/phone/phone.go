// Package phone canonicalizes caller numbers into the keys every matcher joins on.
package phone

import "strings"

// Key is a canonical numeric phone number: digits only, no leading zeros,
// with a North American country code removed.
type Key string

// formatting characters removed before a value is classified.
var stripper = strings.NewReplacer("(", "", ")", "", "-", "", ".", "", " ", "", "+", "", "\u00a0", "")

// Normalize canonicalizes raw into a Key. It reports false when raw is not
// a number at all ("", "(blank)", "Anonymous", free text); such values must
// never be used as join keys.
func Normalize(raw string) (Key, bool) {
	s := strings.TrimSpace(raw)
	// Spreadsheet readers render whole numbers stored as floats with a ".0" tail.
	s = strings.TrimSuffix(s, ".0")
	s = stripper.Replace(s)
	if s == "" {
		return "", false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", false
		}
	}

	s = strings.TrimLeft(s, "0")
	if len(s) == 11 && s[0] == '1' {
		s = strings.TrimLeft(s[1:], "0")
	}
	if s == "" {
		s = "0"
	}
	return Key(s), true
}

// MustNormalize returns the canonical form of raw when it is numeric and raw
// itself (trimmed) otherwise. It is used for display columns.
func MustNormalize(raw string) string {
	if k, ok := Normalize(raw); ok {
		return string(k)
	}
	return strings.TrimSpace(raw)
}

// IsNumeric reports whether raw normalizes to a Key.
func IsNumeric(raw string) bool {
	_, ok := Normalize(raw)
	return ok
}

// AreaCode returns the first three digits of a ten digit key.
func (k Key) AreaCode() string {
	if len(k) != 10 {
		return ""
	}
	return string(k[:3])
}

func (k Key) String() string { return string(k) }
