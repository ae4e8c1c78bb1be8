package impl

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/gmcintire/aprstx-nerves/aprs"
	"github.com/gmcintire/aprstx-nerves/state"
)

// RFGate is the policy engine between RF and APRS-IS. It also owns the
// heard-station table that IS->RF reachability checks consult.
type RFGate struct {
	gatedIs       *ttlcache.Cache[string, time.Time]
	gatedRf       *ttlcache.Cache[string, time.Time]
	heardDirect   *ttlcache.Cache[string, time.Time]
	heardIndirect *ttlcache.Cache[string, time.Time]
	emissions     []time.Time // IS->RF transmissions inside the rate window
}

func (g *RFGate) Init(s *state.State) error {
	g.gatedIs = ttlcache.New[string, time.Time](
		ttlcache.WithTTL[string, time.Time](state.GateDedupWindow),
		ttlcache.WithDisableTouchOnHit[string, time.Time](),
	)
	g.gatedRf = ttlcache.New[string, time.Time](
		ttlcache.WithTTL[string, time.Time](state.GateDedupWindow),
		ttlcache.WithDisableTouchOnHit[string, time.Time](),
	)
	g.heardDirect = ttlcache.New[string, time.Time](
		ttlcache.WithTTL[string, time.Time](state.HeardWindow),
	)
	g.heardIndirect = ttlcache.New[string, time.Time](
		ttlcache.WithTTL[string, time.Time](state.HeardWindow),
	)
	go g.gatedIs.Start()
	go g.gatedRf.Start()
	go g.heardDirect.Start()
	go g.heardIndirect.Start()
	return nil
}

func (g *RFGate) Cleanup(s *state.State) error {
	g.gatedIs.Stop()
	g.gatedRf.Stop()
	g.heardDirect.Stop()
	g.heardIndirect.Stop()
	return nil
}

// NoteHeard records an RF reception. Direct means the packet reached us
// without an intermediate used hop.
func (g *RFGate) NoteHeard(p *aprs.Packet) {
	call := aprs.NormalizeCallsign(p.Source)
	if aprs.UsedHops(p.Path) == 0 {
		g.heardDirect.Set(call, time.Now(), ttlcache.DefaultTTL)
	} else {
		g.heardIndirect.Set(call, time.Now(), ttlcache.DefaultTTL)
	}
}

func (g *RFGate) HeardAny(call string) bool {
	call = aprs.NormalizeCallsign(call)
	return g.heardDirect.Has(call) || g.heardIndirect.Has(call)
}

func (g *RFGate) HeardDirect(call string) bool {
	return g.heardDirect.Has(aprs.NormalizeCallsign(call))
}

// GateToIS decides whether an RF packet is forwarded to APRS-IS. On success
// the returned copy carries the qAR construct.
func (g *RFGate) GateToIS(s *state.State, p *aprs.Packet) (*aprs.Packet, Reason) {
	cfg := s.Config()
	gc := cfg.Gate
	if !gc.RfToIs {
		return nil, ReasonDisabled
	}

	fp := Fingerprint(p)
	if g.gatedIs.Has(fp) {
		return nil, ReasonDuplicate
	}

	for _, el := range p.Path {
		if strings.HasPrefix(el, "q") || el == "TCPIP*" || el == "NOGATE" || el == "RFONLY" {
			return nil, ReasonPath
		}
	}
	if p.Type == aprs.TypeThirdParty {
		return nil, ReasonThirdParty
	}
	if gc.LocalRangeKm > 0 && cfg.Station.HasPosition() {
		// packets without a position count as local
		if pos, ok := p.Position(); ok {
			d := aprs.Haversine(cfg.Station.Lat, cfg.Station.Lon, pos.Lat, pos.Lon)
			if d > gc.LocalRangeKm {
				return nil, ReasonOutOfRange
			}
		}
	}
	if !typeGated(gc, p.Type) {
		return nil, ReasonFiltered
	}

	g.gatedIs.Set(fp, time.Now(), ttlcache.DefaultTTL)
	out := p.Clone()
	out.Path = aprs.AppendQConstruct(out.Path, aprs.QRfGate, cfg.Station.Call())
	return out, ReasonNone
}

// GateToRF decides whether an IS packet is transmitted on RF. On success
// the returned copy has q-constructs and TCPIP* stripped.
func (g *RFGate) GateToRF(s *state.State, p *aprs.Packet) (*aprs.Packet, Reason) {
	cfg := s.Config()
	gc := cfg.Gate
	if !gc.IsToRf {
		return nil, ReasonDisabled
	}

	fp := Fingerprint(p)
	if g.gatedRf.Has(fp) {
		return nil, ReasonDuplicate
	}

	now := time.Now()
	g.emissions = pruneWindow(g.emissions, now.Add(-state.RateLimitWindow))
	if len(g.emissions) >= gc.MaxRfRate {
		return nil, ReasonRate
	}

	if !g.reachable(gc.IsToRfType, p) {
		return nil, ReasonNotHeard
	}

	out := p.Clone()
	out.Path = aprs.StripForRF(out.Path)
	if hopBudget(out.Path) > gc.MaxHopsToRf {
		return nil, ReasonHopBudget
	}

	g.gatedRf.Set(fp, now, ttlcache.DefaultTTL)
	g.emissions = append(g.emissions, now)
	return out, ReasonNone
}

func (g *RFGate) reachable(mode state.IsToRfMode, p *aprs.Packet) bool {
	switch mode {
	case state.IsToRfAll:
		return true
	case state.IsToRfMessageOnly:
		if len(p.Data) > 0 && p.Data[0] == ':' {
			return true
		}
		addr, ok := p.Addressee()
		return ok && g.HeardAny(addr)
	case state.IsToRfHeard:
		if g.HeardAny(p.Source) || g.HeardAny(p.Destination) {
			return true
		}
		addr, ok := p.Addressee()
		return ok && g.HeardAny(addr)
	}
	return false
}

func typeGated(gc state.GateCfg, t aprs.PacketType) bool {
	switch t {
	case aprs.TypeMessage, aprs.TypeBulletin:
		return gc.Messages
	case aprs.TypePositionNoTS, aprs.TypePositionWithTS, aprs.TypePositionWithTSMsg,
		aprs.TypePositionCompressed, aprs.TypeMicE:
		return gc.Positions
	case aprs.TypeWeather:
		return gc.Weather
	case aprs.TypeTelemetry:
		return gc.Telemetry
	case aprs.TypeObject, aprs.TypeItem:
		return gc.Objects
	}
	return true
}

func pruneWindow(ts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(ts) && ts[i].Before(cutoff) {
		i++
	}
	return ts[i:]
}

var widePattern = regexp.MustCompile(`^WIDE[1-7]-([1-7])$`)

// hopBudget sums the RF hops an unused path still requests: the remaining N
// of a WIDEn-N, one for anything else.
func hopBudget(path []string) int {
	n := 0
	for _, el := range path {
		if strings.HasSuffix(el, "*") {
			continue
		}
		if m := widePattern.FindStringSubmatch(el); m != nil {
			rem, _ := strconv.Atoi(m[1])
			n += rem
		} else {
			n++
		}
	}
	return n
}
