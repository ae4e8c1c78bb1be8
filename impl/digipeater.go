package impl

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/jellydator/ttlcache/v3"

	"github.com/gmcintire/aprstx-nerves/aprs"
	"github.com/gmcintire/aprstx-nerves/state"
)

type DigiAction int

const (
	ActionDrop DigiAction = iota
	ActionRepeat
	ActionDefer
)

type DigiResult struct {
	Action DigiAction
	Packet *aprs.Packet
	Reason Reason
}

var floodPattern = regexp.MustCompile(`^(WIDE|TRACE)([1-7])-([1-7])$`)

// Digipeater decides whether an RF packet is retransmitted and with what
// path. All methods run on the main loop.
type Digipeater struct {
	recent   *ttlcache.Cache[string, string] // fingerprint -> source, dedup window
	flood    *ttlcache.Cache[uint64, string] // emission log for per-source flood counting
	floodSeq atomic.Uint64
	viscous  map[string]*aprs.Packet // fingerprint -> rewritten packet awaiting the timer
}

func (d *Digipeater) Init(s *state.State) error {
	cfg := s.Config().Digipeater
	d.recent = ttlcache.New[string, string](
		ttlcache.WithTTL[string, string](cfg.DedupWindow()),
		ttlcache.WithDisableTouchOnHit[string, string](),
	)
	d.flood = ttlcache.New[uint64, string](
		ttlcache.WithTTL[uint64, string](cfg.FloodWindow()),
		ttlcache.WithDisableTouchOnHit[uint64, string](),
	)
	d.viscous = make(map[string]*aprs.Packet)
	go d.recent.Start()
	go d.flood.Start()
	return nil
}

func (d *Digipeater) Cleanup(s *state.State) error {
	d.recent.Stop()
	d.flood.Stop()
	return nil
}

// Consider runs the decision pipeline for one RF packet. On ActionRepeat
// the caller transmits Result.Packet; ActionDefer means the packet is
// parked in the viscous queue and will be transmitted by the timer unless a
// second copy cancels it.
func (d *Digipeater) Consider(s *state.State, p *aprs.Packet) DigiResult {
	cfg := s.Config()
	dc := cfg.Digipeater
	if !dc.Enabled {
		return DigiResult{Action: ActionDrop, Reason: ReasonDisabled}
	}

	fp := Fingerprint(p)
	if d.recent.Has(fp) {
		return DigiResult{Action: ActionDrop, Reason: ReasonDuplicate}
	}

	if d.sourceFlooding(p.Source, dc.MaxFloodRate) {
		return DigiResult{Action: ActionDrop, Reason: ReasonFlooding}
	}

	src := aprs.NormalizeCallsign(p.Source)
	if slices.Contains(dc.Blacklist, src) {
		return DigiResult{Action: ActionDrop, Reason: ReasonACL}
	}
	if len(dc.Whitelist) > 0 && !slices.Contains(dc.Whitelist, src) {
		return DigiResult{Action: ActionDrop, Reason: ReasonACL}
	}

	if dc.DropWeather && p.Type == aprs.TypeWeather {
		return DigiResult{Action: ActionDrop, Reason: ReasonFiltered}
	}
	if dc.DropTelemetry && p.Type == aprs.TypeTelemetry {
		return DigiResult{Action: ActionDrop, Reason: ReasonFiltered}
	}

	out, reason := d.rewrite(cfg, p)
	if reason != ReasonNone {
		return DigiResult{Action: ActionDrop, Reason: reason}
	}

	if dc.ViscousDelay() > 0 && p.Type.IsPosition() {
		if _, queued := d.viscous[fp]; queued {
			// another digi repeated it first and we heard that copy
			delete(d.viscous, fp)
			return DigiResult{Action: ActionDrop, Reason: ReasonViscous}
		}
		d.viscous[fp] = out
		s.ScheduleTask(func(s *state.State) error {
			return d.fireViscous(s, fp)
		}, dc.ViscousDelay())
		return DigiResult{Action: ActionDefer}
	}

	d.recordEmission(fp, p.Source)
	return DigiResult{Action: ActionRepeat, Packet: out}
}

func (d *Digipeater) fireViscous(s *state.State, fp string) error {
	out, ok := d.viscous[fp]
	if !ok {
		return nil
	}
	delete(d.viscous, fp)
	d.recordEmission(fp, out.Source)
	s.Stats.Digipeated++
	Get[*RFManager](s).Broadcast(s, out)
	return nil
}

func (d *Digipeater) recordEmission(fp, source string) {
	d.recent.Set(fp, source, ttlcache.DefaultTTL)
	d.flood.Set(d.floodSeq.Add(1), source, ttlcache.DefaultTTL)
}

func (d *Digipeater) sourceFlooding(source string, limit int) bool {
	n := 0
	for _, item := range d.flood.Items() {
		if item.Value() == source {
			n++
		}
	}
	return n > limit
}

// rewrite finds the digipeat point and applies the hop rules.
func (d *Digipeater) rewrite(cfg *state.Config, p *aprs.Packet) (*aprs.Packet, Reason) {
	dc := cfg.Digipeater
	own := cfg.Station.Call()

	idx := -1
	var kind hopKind
	var total, remaining int
	for i, el := range p.Path {
		if strings.HasSuffix(el, "*") {
			continue
		}
		kind, total, remaining = d.classify(cfg, el)
		if kind != hopNone {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ReasonNoMatch
	}

	out := p.Clone()
	used := own + "*"
	switch kind {
	case hopSelf, hopAlias:
		out.Path[idx] = used
	case hopWide:
		name := floodName(out.Path[idx])
		switch {
		case dc.FillIn:
			// fill-in digis answer WIDE1-1 only
			out.Path[idx] = name + "1*"
			out.Path = slices.Insert(out.Path, idx, used)
		case remaining > 1 && dc.Preemptive:
			out.Path[idx] = decremented(name, total, remaining)
			out.Path = slices.Insert(out.Path, idx, used)
		case remaining > 1:
			out.Path[idx] = decremented(name, total, remaining)
		case dc.Preemptive:
			out.Path[idx] = fmt.Sprintf("%s%d*", name, total)
			out.Path = slices.Insert(out.Path, idx, used)
		default:
			out.Path[idx] = fmt.Sprintf("%s%d*", name, total)
		}
	case hopTrace:
		name := floodName(out.Path[idx])
		if remaining > 1 {
			out.Path[idx] = decremented(name, total, remaining)
		} else {
			out.Path[idx] = fmt.Sprintf("%s%d*", name, total)
		}
		out.Path = slices.Insert(out.Path, idx, used)
	}

	if len(out.Path) > 8 {
		return nil, ReasonPath
	}
	if aprs.UsedHops(out.Path) > dc.MaxHops || floodTooDeep(out.Path, dc.MaxHops) {
		return nil, ReasonMaxHops
	}
	return out, ReasonNone
}

type hopKind int

const (
	hopNone hopKind = iota
	hopSelf
	hopAlias
	hopWide
	hopTrace
)

func (d *Digipeater) classify(cfg *state.Config, el string) (hopKind, int, int) {
	dc := cfg.Digipeater
	call := aprs.NormalizeCallsign(el)
	if call == aprs.NormalizeCallsign(cfg.Station.Call()) ||
		call == aprs.NormalizeCallsign(cfg.Station.Callsign) {
		return hopSelf, 0, 0
	}
	if slices.ContainsFunc(dc.Aliases, func(a string) bool {
		return aprs.NormalizeCallsign(a) == call
	}) {
		return hopAlias, 0, 0
	}
	m := floodPattern.FindStringSubmatch(call)
	if m == nil {
		return hopNone, 0, 0
	}
	total, _ := strconv.Atoi(m[2])
	remaining, _ := strconv.Atoi(m[3])
	if remaining > total {
		return hopNone, 0, 0
	}
	if m[1] == "TRACE" {
		return hopTrace, total, remaining
	}
	if dc.FillIn && !(total == 1 && remaining == 1) {
		return hopNone, 0, 0
	}
	return hopWide, total, remaining
}

func floodName(el string) string {
	if strings.HasPrefix(el, "TRACE") {
		return "TRACE"
	}
	return "WIDE"
}

func decremented(name string, total, remaining int) string {
	return fmt.Sprintf("%s%d-%d", name, total, remaining-1)
}

// floodTooDeep traps paths whose WIDEn-N/TRACEn-N asks for more total hops
// than this digi allows. A WIDE7-7 packet is squashed right after its first
// rewrite, however many hops it has actually spent.
func floodTooDeep(path []string, maxHops int) bool {
	for _, el := range path {
		if m := floodPattern.FindStringSubmatch(strings.TrimSuffix(el, "*")); m != nil {
			if total, _ := strconv.Atoi(m[2]); total > maxHops {
				return true
			}
		}
	}
	return false
}
