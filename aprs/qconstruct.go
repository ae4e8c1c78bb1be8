package aprs

import "strings"

// The q-constructs APRS-IS defines. Anything else starting with 'q' in a
// path is malformed and gets stripped on ingest.
var qConstructs = map[string]bool{
	"qAC": true, "qAX": true, "qAU": true,
	"qAo": true, "qAO": true, "qAS": true,
	"qAr": true, "qAR": true, "qAZ": true,
}

const (
	QVerified   = "qAC"
	QUnverified = "qAX"
	QUdp        = "qAU"
	QServer     = "qAS"
	QRfGate     = "qAR"
)

func IsQConstruct(el string) bool {
	return qConstructs[el]
}

// HasQConstruct reports whether any path element is a q-construct,
// well-formed or not.
func HasQConstruct(path []string) bool {
	for _, el := range path {
		if strings.HasPrefix(el, "q") {
			return true
		}
	}
	return false
}

// SanitizePath drops malformed q-construct elements, keeping the legal ones
// and everything else untouched.
func SanitizePath(path []string) []string {
	out := path[:0:0]
	for _, el := range path {
		if strings.HasPrefix(el, "q") && !IsQConstruct(el) {
			continue
		}
		out = append(out, el)
	}
	return out
}

// AppendQConstruct tags a packet path with its provenance, q element plus
// the server callsign.
func AppendQConstruct(path []string, q, serverCall string) []string {
	return append(append(path[:len(path):len(path)], q), serverCall)
}

// StripForRF removes every q-construct (and its trailing server call) and
// the TCPIP* marker, preparing an IS-origin path for RF transmission.
func StripForRF(path []string) []string {
	out := path[:0:0]
	skipNext := false
	for _, el := range path {
		if skipNext {
			skipNext = false
			continue
		}
		if strings.HasPrefix(el, "q") {
			skipNext = true
			continue
		}
		if el == "TCPIP*" || el == "TCPIP" {
			continue
		}
		out = append(out, el)
	}
	return out
}
