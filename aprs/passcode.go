package aprs

import "strings"

// Passcode computes the published APRS-IS passcode for a callsign. The SSID
// does not participate.
func Passcode(callsign string) int {
	call := strings.ToUpper(strings.Split(callsign, "-")[0])
	hash := 0x73e2
	high := true
	for _, c := range call {
		if high {
			hash ^= int(c) << 8
		} else {
			hash ^= int(c)
		}
		high = !high
	}
	return hash & 0x7fff
}
