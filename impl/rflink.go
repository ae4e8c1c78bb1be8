package impl

import (
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"go.bug.st/serial"

	"github.com/gmcintire/aprstx-nerves/aprs"
	"github.com/gmcintire/aprstx-nerves/state"
)

// RFManager owns every configured KISS interface. Each port runs a reader
// goroutine feeding Inbound and a writer goroutine draining its queue.
type RFManager struct {
	// Inbound delivers a parsed RF packet to the coordinator pipeline.
	Inbound func(e *state.Env, p *aprs.Packet, port string)

	ports []*rfPort
}

type rfPort struct {
	cfg  state.RFCfg
	conn io.ReadWriteCloser
	out  chan []byte
}

func (m *RFManager) Init(s *state.State) error {
	for _, cfg := range s.Config().RF {
		port := &rfPort{cfg: cfg, out: make(chan []byte, state.WriteQueueDepth)}
		m.ports = append(m.ports, port)
		go m.runPort(s.Env, port)
	}
	if len(m.ports) > 0 {
		s.Log.Info("rf interfaces up", "count", len(m.ports))
	}
	return nil
}

func (m *RFManager) Cleanup(s *state.State) error {
	for _, p := range m.ports {
		if p.conn != nil {
			p.conn.Close()
		}
	}
	return nil
}

func (m *RFManager) runPort(e *state.Env, port *rfPort) {
	for e.Context.Err() == nil {
		conn, err := openDevice(port.cfg)
		if err != nil {
			e.Log.Warn("rf open failed", "port", port.cfg.Name, "err", err)
			select {
			case <-time.After(state.DefaultReconnect):
			case <-e.Context.Done():
				return
			}
			continue
		}
		port.conn = conn
		e.Log.Info("rf connected", "port", port.cfg.Name, "device", port.cfg.Device)

		done := make(chan struct{})
		go port.writeLoop(e, conn, done)
		m.readLoop(e, port, conn)
		conn.Close()
		close(done)
	}
}

func openDevice(cfg state.RFCfg) (io.ReadWriteCloser, error) {
	if strings.Contains(cfg.Device, ":") {
		return net.DialTimeout("tcp", cfg.Device, state.DialTimeout)
	}
	baud := cfg.Baud
	if baud == 0 {
		baud = 9600
	}
	p, err := serial.Open(cfg.Device, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", cfg.Device, err)
	}
	return p, nil
}

func (m *RFManager) readLoop(e *state.Env, port *rfPort, conn io.Reader) {
	dec := NewKissDecoder(conn)
	for {
		frame, err := dec.ReadFrame()
		if err != nil {
			if e.Context.Err() == nil {
				e.Log.Warn("rf read failed", "port", port.cfg.Name, "err", err)
			}
			return
		}
		if !IsDataFrame(frame) {
			continue
		}
		pkt, err := DecodeAX25(frame[1:])
		if err != nil {
			e.Log.Debug("rf frame rejected", "port", port.cfg.Name, "err", err)
			continue
		}
		pkt.Heard = time.Now()
		m.Inbound(e, pkt, port.cfg.Name)
	}
}

func (p *rfPort) writeLoop(e *state.Env, conn io.Writer, done chan struct{}) {
	for {
		select {
		case frame := <-p.out:
			if _, err := conn.Write(frame); err != nil {
				e.Log.Warn("rf write failed", "port", p.cfg.Name, "err", err)
				return
			}
		case <-done:
			return
		case <-e.Context.Done():
			return
		}
	}
}

// Broadcast transmits one packet on every RF interface. Runs on the main
// loop; enqueueing never blocks, a full port drops the frame.
func (m *RFManager) Broadcast(s *state.State, p *aprs.Packet) {
	if len(m.ports) == 0 {
		return
	}
	payload, err := EncodeAX25(p)
	if err != nil {
		s.Log.Error("ax.25 encode failed", "packet", p.String(), "err", err)
		return
	}
	for _, port := range m.ports {
		frame := KissDataFrame(byte(port.cfg.Port), payload)
		select {
		case port.out <- frame:
			s.Stats.RfTx++
		default:
			s.Log.Warn("rf queue full, frame dropped", "port", port.cfg.Name)
		}
	}
}
