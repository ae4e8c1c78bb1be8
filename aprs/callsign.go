package aprs

import (
	"regexp"
	"strings"
)

var (
	callsignPattern = regexp.MustCompile(`^[A-Z0-9]{1,6}(-(0|[1-9]|1[0-5]))?$`)
	tocallPattern   = regexp.MustCompile(`^[A-Z0-9]{1,6}(-[A-Z0-9]{1,2})?$`)
)

// ValidCallsign reports whether s is a well-formed amateur callsign:
// 1-6 alphanumerics with at least one letter, optional -SSID in 0..15.
// Case-insensitive.
func ValidCallsign(s string) bool {
	s = strings.ToUpper(s)
	if !callsignPattern.MatchString(s) {
		return false
	}
	base, _, _ := strings.Cut(s, "-")
	return strings.IndexFunc(base, func(r rune) bool {
		return r >= 'A' && r <= 'Z'
	}) >= 0
}

// ValidTocall accepts destination fields, which may be tocalls like APRS or
// APZ123 as well as real callsigns.
func ValidTocall(s string) bool {
	return tocallPattern.MatchString(strings.ToUpper(s))
}

// NormalizeCallsign upper-cases a callsign into its canonical form.
func NormalizeCallsign(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// BaseCallsign strips the SSID suffix and any used-hop marker.
func BaseCallsign(s string) string {
	s = strings.TrimSuffix(NormalizeCallsign(s), "*")
	base, _, _ := strings.Cut(s, "-")
	return base
}
