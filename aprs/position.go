package aprs

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Position is a decoded location plus the display symbol.
type Position struct {
	Lat    float64
	Lon    float64
	Table  byte
	Symbol byte
}

// uncompressedPattern matches DDMM.mmN<table>DDDMM.mmW<symbol>. Spaces in
// the minute fields are position ambiguity.
var uncompressedPattern = regexp.MustCompile(
	`^(\d{2})([0-9 ]{2}\.[0-9 ]{2})([NnSs])` +
		`([\x21-\x7e])` +
		`(\d{3})([0-9 ]{2}\.[0-9 ]{2})([EeWw])` +
		`([\x21-\x7e])`)

// Position decodes the location carried by a position-class packet.
// Returns false for packet types without one, or when the body does not
// parse. Mic-E destination-field encoding is not decoded.
func (p *Packet) Position() (Position, bool) {
	if !p.Type.IsPosition() {
		return Position{}, false
	}
	body := p.Data
	switch p.Type {
	case TypePositionNoTS, TypePositionCompressed:
		body = body[1:]
	case TypePositionWithTS, TypePositionWithTSMsg:
		if len(body) < 8 {
			return Position{}, false
		}
		body = body[8:] // indicator + 7 char timestamp
	case TypeObject:
		// ;NNNNNNNNN*TTTTTTT then a plain position body
		if len(body) < 18 || (body[10] != '*' && body[10] != '_') {
			return Position{}, false
		}
		body = body[18:]
	case TypeItem:
		// )NAME! or )NAME_ with the name 3-9 chars
		i := strings.IndexAny(string(body[1:]), "!_")
		if i < 3 || i > 9 {
			return Position{}, false
		}
		body = body[i+2:]
	default:
		return Position{}, false
	}
	if len(body) == 0 {
		return Position{}, false
	}
	if body[0] >= '0' && body[0] <= '9' {
		return parseUncompressed(body)
	}
	return parseCompressed(body)
}

func parseUncompressed(body []byte) (Position, bool) {
	m := uncompressedPattern.FindStringSubmatch(string(body))
	if m == nil {
		return Position{}, false
	}
	lat, err := parseDegMin(m[1], m[2], m[3] == "S" || m[3] == "s")
	if err != nil {
		return Position{}, false
	}
	lon, err := parseDegMin(m[5], m[6], m[7] == "W" || m[7] == "w")
	if err != nil {
		return Position{}, false
	}
	return Position{Lat: lat, Lon: lon, Table: m[4][0], Symbol: m[8][0]}, true
}

func parseDegMin(degStr, minStr string, negate bool) (float64, error) {
	// each ambiguity space is read as the digit 5
	minStr = strings.ReplaceAll(minStr, " ", "5")
	deg, err := strconv.ParseFloat(degStr, 64)
	if err != nil {
		return 0, err
	}
	min, err := strconv.ParseFloat(minStr, 64)
	if err != nil {
		return 0, err
	}
	v := deg + min/60.0
	if negate {
		v = -v
	}
	return v, nil
}

// parseCompressed decodes the base-91 form: table byte, 4 latitude bytes,
// 4 longitude bytes, symbol byte.
func parseCompressed(body []byte) (Position, bool) {
	if len(body) < 10 {
		return Position{}, false
	}
	latV, ok1 := base91(body[1:5])
	lonV, ok2 := base91(body[5:9])
	if !ok1 || !ok2 {
		return Position{}, false
	}
	lat := 90.0 - float64(latV)/380926.0
	lon := -180.0 + float64(lonV)/190463.0
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Position{}, false
	}
	return Position{Lat: lat, Lon: lon, Table: body[0], Symbol: body[9]}, true
}

func base91(b []byte) (int, bool) {
	v := 0
	for _, c := range b {
		if c < 33 || c > 123 {
			return 0, false
		}
		v = v*91 + int(c-33)
	}
	return v, true
}

// FormatUncompressed renders lat/lon in the DDMM.mm form used when this
// station originates a position report.
func FormatUncompressed(lat, lon float64, table, symbol byte) string {
	latH, lonH := byte('N'), byte('E')
	if lat < 0 {
		lat, latH = -lat, 'S'
	}
	if lon < 0 {
		lon, lonH = -lon, 'W'
	}
	latDeg := int(lat)
	lonDeg := int(lon)
	latMin := (lat - float64(latDeg)) * 60
	lonMin := (lon - float64(lonDeg)) * 60
	return fmt.Sprintf("%02d%05.2f%c%c%03d%05.2f%c%c",
		latDeg, latMin, latH, table, lonDeg, lonMin, lonH, symbol)
}
