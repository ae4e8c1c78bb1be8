package impl

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gmcintire/aprstx-nerves/aprs"
)

const (
	ax25ControlUI   byte = 0x03
	ax25PIDNoLayer3 byte = 0xF0
	ax25UsedBit     byte = 0x80 // H bit: this digipeater hop has been used
	ax25LastBit     byte = 0x01
)

var errShortFrame = errors.New("ax.25 frame too short")

// EncodeAX25 builds a UI frame from a packet: destination, source, up to
// eight digipeater addresses, control/PID, then the information field.
func EncodeAX25(p *aprs.Packet) ([]byte, error) {
	if len(p.Path) > 8 {
		return nil, fmt.Errorf("path of %d elements does not fit ax.25", len(p.Path))
	}
	out := make([]byte, 0, 16+7*len(p.Path)+2+len(p.Data))
	dest, err := encodeAddress(p.Destination, false, false)
	if err != nil {
		return nil, err
	}
	src, err := encodeAddress(p.Source, false, len(p.Path) == 0)
	if err != nil {
		return nil, err
	}
	out = append(out, dest...)
	out = append(out, src...)
	for i, el := range p.Path {
		used := strings.HasSuffix(el, "*")
		addr, err := encodeAddress(strings.TrimSuffix(el, "*"), used, i == len(p.Path)-1)
		if err != nil {
			return nil, err
		}
		out = append(out, addr...)
	}
	out = append(out, ax25ControlUI, ax25PIDNoLayer3)
	return append(out, p.Data...), nil
}

func encodeAddress(call string, used, last bool) ([]byte, error) {
	base, ssidStr, _ := strings.Cut(strings.ToUpper(call), "-")
	if len(base) == 0 || len(base) > 6 {
		return nil, fmt.Errorf("callsign %q does not fit an ax.25 address", call)
	}
	ssid := 0
	if ssidStr != "" {
		v, err := strconv.Atoi(ssidStr)
		if err != nil || v < 0 || v > 15 {
			return nil, fmt.Errorf("ssid %q out of range", ssidStr)
		}
		ssid = v
	}
	addr := make([]byte, 7)
	for i := 0; i < 6; i++ {
		c := byte(' ')
		if i < len(base) {
			c = base[i]
		}
		addr[i] = c << 1
	}
	addr[6] = byte(ssid&0x0F)<<1 | 0x60
	if used {
		addr[6] |= ax25UsedBit
	}
	if last {
		addr[6] |= ax25LastBit
	}
	return addr, nil
}

// DecodeAX25 parses a UI frame back into a packet. Digipeater hops with the
// H bit set come back with the '*' suffix.
func DecodeAX25(frame []byte) (*aprs.Packet, error) {
	if len(frame) < 16 {
		return nil, errShortFrame
	}
	dest, _, err := decodeAddress(frame[0:7])
	if err != nil {
		return nil, err
	}
	src, last, err := decodeAddress(frame[7:14])
	if err != nil {
		return nil, err
	}
	var path []string
	off := 14
	for !last {
		if off+7 > len(frame) {
			return nil, errShortFrame
		}
		var hop string
		hop, last, err = decodeAddress(frame[off : off+7])
		if err != nil {
			return nil, err
		}
		if frame[off+6]&ax25UsedBit != 0 {
			hop += "*"
		}
		path = append(path, hop)
		off += 7
		if len(path) > 8 {
			return nil, errors.New("ax.25 address chain too long")
		}
	}
	if off+2 > len(frame) {
		return nil, errShortFrame
	}
	if frame[off] != ax25ControlUI {
		return nil, fmt.Errorf("not a UI frame (control 0x%02X)", frame[off])
	}
	// PID is accepted leniently, some TNCs send other values
	data := frame[off+2:]
	return &aprs.Packet{
		Source:      src,
		Destination: dest,
		Path:        path,
		Data:        append([]byte(nil), data...),
		Type:        aprs.TypeOf(data),
	}, nil
}

func decodeAddress(addr []byte) (string, bool, error) {
	var sb strings.Builder
	for i := 0; i < 6; i++ {
		c := addr[i] >> 1
		if c == ' ' {
			break
		}
		if c < '0' || c > 'Z' {
			return "", false, fmt.Errorf("invalid address byte 0x%02X", addr[i])
		}
		sb.WriteByte(c)
	}
	if sb.Len() == 0 {
		return "", false, errors.New("empty ax.25 address")
	}
	ssid := int(addr[6]>>1) & 0x0F
	call := sb.String()
	if ssid > 0 {
		call = fmt.Sprintf("%s-%d", call, ssid)
	}
	return call, addr[6]&ax25LastBit != 0, nil
}
