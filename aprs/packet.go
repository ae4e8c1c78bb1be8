// Package aprs implements the textual APRS (TNC2) packet codec: parsing,
// re-encoding, callsign validation, position extraction, q-constructs and
// the APRS-IS filter language.
package aprs

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidFormat   = errors.New("line has no ':' separator")
	ErrInvalidHeader   = errors.New("header has no '>' or empty destination")
	ErrInvalidCallsign = errors.New("invalid callsign")
	ErrInvalidPath     = errors.New("path has more than 8 elements")
)

type PacketType int

const (
	TypeUnknown PacketType = iota
	TypePositionNoTS
	TypePositionWithTS
	TypePositionWithTSMsg
	TypePositionCompressed
	TypeMessage
	TypeBulletin
	TypeStatus
	TypeObject
	TypeItem
	TypeMicE
	TypeWeather
	TypeTelemetry
	TypeQuery
	TypeUserDefined
	TypeThirdParty
	TypeRawGPS
)

var typeNames = map[PacketType]string{
	TypeUnknown:            "unknown",
	TypePositionNoTS:       "position",
	TypePositionWithTS:     "position_ts",
	TypePositionWithTSMsg:  "position_ts_msg",
	TypePositionCompressed: "position_compressed",
	TypeMessage:            "message",
	TypeBulletin:           "bulletin",
	TypeStatus:             "status",
	TypeObject:             "object",
	TypeItem:               "item",
	TypeMicE:               "mic_e",
	TypeWeather:            "weather",
	TypeTelemetry:          "telemetry",
	TypeQuery:              "query",
	TypeUserDefined:        "user_defined",
	TypeThirdParty:         "third_party",
	TypeRawGPS:             "raw_gps",
}

func (t PacketType) String() string {
	return typeNames[t]
}

// IsPosition reports whether packets of this type can carry a position.
func (t PacketType) IsPosition() bool {
	switch t {
	case TypePositionNoTS, TypePositionWithTS, TypePositionWithTSMsg,
		TypePositionCompressed, TypeObject, TypeItem, TypeMicE:
		return true
	}
	return false
}

// Packet is one APRS frame in TNC2 text form. Data bytes are preserved
// verbatim from the wire; Heard is the server-assigned arrival time.
type Packet struct {
	Source      string
	Destination string
	Path        []string
	Data        []byte
	Type        PacketType
	Heard       time.Time
}

// ParsePacket parses one TNC2 line, SOURCE>DEST[,PATH...]:DATA. The trailing
// CRLF is trimmed; everything after the first ':' is kept byte for byte.
func ParsePacket(line string) (*Packet, error) {
	line = strings.TrimRight(line, "\r\n")
	colon := strings.IndexByte(line, ':')
	if colon < 0 {
		return nil, ErrInvalidFormat
	}
	header := line[:colon]
	data := []byte(line[colon+1:])

	gt := strings.IndexByte(header, '>')
	if gt < 0 {
		return nil, ErrInvalidHeader
	}
	source := header[:gt]
	rest := strings.Split(header[gt+1:], ",")
	dest := rest[0]
	if dest == "" {
		return nil, ErrInvalidHeader
	}
	if !ValidCallsign(source) {
		return nil, ErrInvalidCallsign
	}
	if !ValidTocall(dest) {
		return nil, ErrInvalidCallsign
	}
	var path []string
	if len(rest) > 1 {
		path = rest[1:]
		if len(path) > 8 {
			return nil, ErrInvalidPath
		}
	}

	return &Packet{
		Source:      source,
		Destination: dest,
		Path:        path,
		Data:        data,
		Type:        TypeOf(data),
	}, nil
}

// TypeOf classifies the information field by its first byte.
func TypeOf(data []byte) PacketType {
	if len(data) == 0 {
		return TypeUnknown
	}
	switch data[0] {
	case '!', '=':
		if compressedBody(data) {
			return TypePositionCompressed
		}
		return TypePositionNoTS
	case '/':
		return TypePositionWithTS
	case '@':
		return TypePositionWithTSMsg
	case ':':
		if len(data) >= 4 && string(data[1:4]) == "BLN" {
			return TypeBulletin
		}
		return TypeMessage
	case '>':
		return TypeStatus
	case ';':
		return TypeObject
	case ')':
		return TypeItem
	case 0x1c, 0x1d, '`', '\'':
		return TypeMicE
	case '_':
		return TypeWeather
	case 'T':
		return TypeTelemetry
	case '?':
		return TypeQuery
	case '{':
		return TypeUserDefined
	case '}':
		return TypeThirdParty
	case '$':
		return TypeRawGPS
	}
	return TypeUnknown
}

// compressedBody detects the base-91 form: the byte after the type
// indicator is a symbol-table id rather than a latitude digit.
func compressedBody(data []byte) bool {
	if len(data) < 14 {
		return false
	}
	c := data[1]
	return c == '/' || c == '\\' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'j')
}

// String re-encodes the packet in canonical TNC2 form. Round-trips byte
// identically with ParsePacket.
func (p *Packet) String() string {
	var sb strings.Builder
	sb.WriteString(p.Source)
	sb.WriteByte('>')
	sb.WriteString(p.Destination)
	for _, el := range p.Path {
		sb.WriteByte(',')
		sb.WriteString(el)
	}
	sb.WriteByte(':')
	sb.Write(p.Data)
	return sb.String()
}

// Clone returns a copy whose path and data can be rewritten independently.
func (p *Packet) Clone() *Packet {
	q := *p
	q.Path = append([]string(nil), p.Path...)
	q.Data = append([]byte(nil), p.Data...)
	return &q
}

// Addressee returns the recipient of a message packet,
// :ADDRESSEE:text, with padding spaces removed.
func (p *Packet) Addressee() (string, bool) {
	if (p.Type != TypeMessage && p.Type != TypeBulletin) || len(p.Data) < 11 {
		return "", false
	}
	if p.Data[0] != ':' || p.Data[10] != ':' {
		return "", false
	}
	return strings.TrimRight(string(p.Data[1:10]), " "), true
}

// UsedHops counts path elements already consumed (marked '*').
func UsedHops(path []string) int {
	n := 0
	for _, el := range path {
		if strings.HasSuffix(el, "*") {
			n++
		}
	}
	return n
}
