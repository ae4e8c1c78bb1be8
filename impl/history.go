package impl

import (
	"time"

	"github.com/gmcintire/aprstx-nerves/aprs"
	"github.com/gmcintire/aprstx-nerves/state"
)

// History is the bounded ring of recently admitted packets, used to replay
// traffic to freshly logged-in clients.
type History struct {
	buf  []*aprs.Packet
	head int // next write position
	full bool
}

func (h *History) Init(s *state.State) error {
	h.buf = make([]*aprs.Packet, state.HistorySize)
	return nil
}

func (h *History) Cleanup(s *state.State) error {
	return nil
}

func (h *History) Record(p *aprs.Packet) {
	h.buf[h.head] = p
	h.head++
	if h.head == len(h.buf) {
		h.head = 0
		h.full = true
	}
}

func (h *History) Len() int {
	if h.full {
		return len(h.buf)
	}
	return h.head
}

// Query returns up to limit matching packets recorded after since, oldest
// first. The most recent matches win when more than limit qualify.
func (h *History) Query(filters []aprs.Filter, since time.Time, limit int) []*aprs.Packet {
	n := h.Len()
	start := 0
	if h.full {
		start = h.head
	}
	var out []*aprs.Packet
	for i := 0; i < n; i++ {
		p := h.buf[(start+i)%len(h.buf)]
		if !p.Heard.After(since) {
			continue
		}
		if !aprs.MatchAny(filters, p) {
			continue
		}
		out = append(out, p)
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}
