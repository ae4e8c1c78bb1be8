package impl

import (
	"time"

	"github.com/gmcintire/aprstx-nerves/aprs"
	"github.com/gmcintire/aprstx-nerves/state"
)

// BeaconDest is the tocall used for self-originated packets.
const BeaconDest = "APRS"

// Beacon periodically announces this station: a position report when a
// fixed location is configured, a status packet otherwise.
type Beacon struct{}

func (b *Beacon) Init(s *state.State) error {
	cfg := s.Config().Beacon
	if !cfg.Enabled {
		return nil
	}
	s.RepeatTask(b.emit, cfg.Interval())
	return nil
}

func (b *Beacon) Cleanup(s *state.State) error {
	return nil
}

func (b *Beacon) emit(s *state.State) error {
	cfg := s.Config()
	pkt := BuildBeacon(cfg)
	pkt.Heard = time.Now()

	Get[*RFManager](s).Broadcast(s, pkt)
	if cfg.Beacon.ToIs {
		isc := Get[*ISClient](s)
		if isc.Connected() {
			isc.Send(s.Env, pkt)
			s.Stats.IsTx++
		}
	}
	s.Log.Debug("beacon sent", "data", string(pkt.Data))
	return nil
}

// BuildBeacon constructs the announcement packet for the current config.
func BuildBeacon(cfg *state.Config) *aprs.Packet {
	st := cfg.Station
	var data string
	if st.HasPosition() {
		table, symbol := byte('/'), byte('#')
		if len(st.Symbol) == 2 {
			table, symbol = st.Symbol[0], st.Symbol[1]
		}
		data = "!" + aprs.FormatUncompressed(st.Lat, st.Lon, table, symbol) + cfg.Beacon.Comment
	} else {
		data = ">" + cfg.Beacon.Comment + " (no fix)"
	}
	return &aprs.Packet{
		Source:      st.Call(),
		Destination: BeaconDest,
		Data:        []byte(data),
		Type:        aprs.TypeOf([]byte(data)),
	}
}
