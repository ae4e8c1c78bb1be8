package impl

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/gmcintire/aprstx-nerves/aprs"
	"github.com/gmcintire/aprstx-nerves/state"
)

// UDPIngest accepts one-shot packet submissions: a literal TNC2 line, a
// KISS data frame, or a JSON object. Anything invalid is dropped silently.
type UDPIngest struct {
	// Inbound delivers a parsed UDP submission to the coordinator.
	Inbound func(e *state.Env, p *aprs.Packet)

	conn *net.UDPConn
}

type udpSubmission struct {
	Source      string   `json:"source"`
	Destination string   `json:"destination,omitempty"`
	Path        []string `json:"path,omitempty"`
	Data        string   `json:"data"`
}

func (u *UDPIngest) Init(s *state.State) error {
	cfg := s.Config().UDP
	if !cfg.Enabled {
		return nil
	}
	addr := &net.UDPAddr{Port: cfg.Port}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("udp listen: %w", err)
	}
	u.conn = conn
	s.Log.Info("udp listening", "port", cfg.Port)
	go u.readLoop(s.Env)
	return nil
}

func (u *UDPIngest) Cleanup(s *state.State) error {
	if u.conn != nil {
		u.conn.Close()
	}
	return nil
}

func (u *UDPIngest) readLoop(e *state.Env) {
	buf := make([]byte, 2048)
	for e.Context.Err() == nil {
		n, _, err := u.conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		pkt, err := parseDatagram(buf[:n])
		if err != nil {
			e.Log.Debug("udp datagram rejected", "err", err)
			continue
		}
		pkt.Heard = time.Now()
		u.Inbound(e, pkt)
	}
}

func parseDatagram(data []byte) (*aprs.Packet, error) {
	switch {
	case len(data) == 0:
		return nil, fmt.Errorf("empty datagram")
	case data[0] == FEND:
		dec := NewKissDecoder(bytes.NewReader(data))
		frame, err := dec.ReadFrame()
		if err != nil {
			return nil, fmt.Errorf("kiss datagram: %w", err)
		}
		if !IsDataFrame(frame) {
			return nil, fmt.Errorf("kiss datagram is not a data frame")
		}
		return DecodeAX25(frame[1:])
	case data[0] == '{':
		var sub udpSubmission
		if err := json.Unmarshal(data, &sub); err != nil {
			return nil, fmt.Errorf("json datagram: %w", err)
		}
		if sub.Destination == "" {
			sub.Destination = "APRS"
		}
		line := fmt.Sprintf("%s>%s", sub.Source, sub.Destination)
		for _, el := range sub.Path {
			line += "," + el
		}
		return aprs.ParsePacket(line + ":" + sub.Data)
	default:
		return aprs.ParsePacket(string(bytes.TrimRight(data, "\r\n")))
	}
}
