package core

import (
	"github.com/gmcintire/aprstx-nerves/aprs"
	"github.com/gmcintire/aprstx-nerves/impl"
	"github.com/gmcintire/aprstx-nerves/state"
)

// The coordinator pipelines. One function per packet origin, all running
// on the main loop, so every policy engine sees packets serialized.

// handleRF processes a packet received on a KISS interface: heard
// tracking, digipeating, gating to APRS-IS, then admission.
func handleRF(s *state.State, p *aprs.Packet, port string) error {
	s.Stats.RfRx++

	gate := impl.Get[*impl.RFGate](s)
	gate.NoteHeard(p)

	// the digipeater runs before the duplicate gate: it keeps its own
	// window, and a duplicate arrival is what cancels a viscous hold
	res := impl.Get[*impl.Digipeater](s).Consider(s, p)
	switch res.Action {
	case impl.ActionRepeat:
		s.Stats.Digipeated++
		impl.Get[*impl.RFManager](s).Broadcast(s, res.Packet)
	case impl.ActionDrop:
		if res.Reason != impl.ReasonDisabled && res.Reason != impl.ReasonNoMatch {
			s.Log.Debug("digipeat drop", "reason", res.Reason, "source", p.Source, "port", port)
		}
	}

	dup := impl.Get[*impl.DupFilter](s)
	if dup.IsDuplicate(p) {
		s.Stats.Dropped++
		return nil
	}
	dup.Record(p)

	if out, reason := gate.GateToIS(s, p); reason == impl.ReasonNone {
		isc := impl.Get[*impl.ISClient](s)
		isc.Send(s.Env, out)
		s.Stats.IsTx++
		s.Stats.GatedToIs++
	} else if reason != impl.ReasonDisabled {
		s.Log.Debug("rf->is drop", "reason", reason, "source", p.Source)
	}

	admit(s, p, nil)
	return nil
}

// handleIS processes a packet from the APRS-IS uplink.
func handleIS(p *aprs.Packet) func(*state.State) error {
	return func(s *state.State) error {
		s.Stats.IsRx++
		p.Path = aprs.SanitizePath(p.Path)

		dup := impl.Get[*impl.DupFilter](s)
		if dup.IsDuplicate(p) {
			s.Stats.Dropped++
			return nil
		}
		dup.Record(p)

		gate := impl.Get[*impl.RFGate](s)
		if out, reason := gate.GateToRF(s, p); reason == impl.ReasonNone {
			impl.Get[*impl.RFManager](s).Broadcast(s, out)
			s.Stats.GatedToRf++
		} else if reason != impl.ReasonDisabled {
			s.Log.Debug("is->rf drop", "reason", reason, "source", p.Source)
		}

		admit(s, p, nil)
		return nil
	}
}

// handleClient processes a line submitted by a logged-in downstream
// client. The packet is stamped with the client's provenance q-construct
// before it enters the bus.
func handleClient(s *state.State, p *aprs.Packet, sess *impl.Session) error {
	s.Stats.ClientRx++
	p.Path = aprs.SanitizePath(p.Path)
	if !aprs.HasQConstruct(p.Path) {
		q := aprs.QUnverified
		if sess.Verified {
			q = aprs.QVerified
		}
		p.Path = aprs.AppendQConstruct(p.Path, q, s.ServerCall())
	}

	dup := impl.Get[*impl.DupFilter](s)
	if dup.IsDuplicate(p) {
		s.Stats.Dropped++
		return nil
	}
	dup.Record(p)

	admit(s, p, sess)
	forwardToIS(s, p)
	return nil
}

// handleUDP processes a one-shot UDP submission, tagged qAU.
func handleUDP(p *aprs.Packet) func(*state.State) error {
	return func(s *state.State) error {
		s.Stats.UdpRx++
		p.Path = aprs.SanitizePath(p.Path)
		if !aprs.HasQConstruct(p.Path) {
			p.Path = aprs.AppendQConstruct(p.Path, aprs.QUdp, s.ServerCall())
		}

		dup := impl.Get[*impl.DupFilter](s)
		if dup.IsDuplicate(p) {
			s.Stats.Dropped++
			return nil
		}
		dup.Record(p)

		admit(s, p, nil)
		forwardToIS(s, p)
		return nil
	}
}

// admit appends an accepted packet to the history ring and fans it out to
// downstream clients.
func admit(s *state.State, p *aprs.Packet, except *impl.Session) {
	impl.Get[*impl.History](s).Record(p)
	impl.Get[*impl.Broker](s).Broadcast(s, p, except)
}

func forwardToIS(s *state.State, p *aprs.Packet) {
	isc := impl.Get[*impl.ISClient](s)
	if !isc.Connected() {
		return
	}
	isc.Send(s.Env, p)
	s.Stats.IsTx++
}
