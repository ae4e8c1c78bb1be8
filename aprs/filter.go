package aprs

import (
	"strconv"
	"strings"
)

// Filter is one element of an APRS-IS filter expression. A client's filter
// list matches a packet when any element does.
type Filter interface {
	Match(p *Packet) bool
}

// MatchAny applies OR semantics across a filter list. An empty list means
// match-all.
func MatchAny(fs []Filter, p *Packet) bool {
	if len(fs) == 0 {
		return true
	}
	for _, f := range fs {
		if f.Match(p) {
			return true
		}
	}
	return false
}

// ParseFilters tokenizes a filter string like "r/35/-106/100 p/N0 t/pm".
// Unknown or malformed tokens are dropped silently.
func ParseFilters(s string) []Filter {
	var out []Filter
	for _, tok := range strings.Fields(s) {
		kind, rest, ok := strings.Cut(tok, "/")
		if !ok {
			continue
		}
		args := strings.Split(rest, "/")
		switch kind {
		case "r":
			if len(args) != 3 {
				continue
			}
			lat, err1 := strconv.ParseFloat(args[0], 64)
			lon, err2 := strconv.ParseFloat(args[1], 64)
			km, err3 := strconv.ParseFloat(args[2], 64)
			if err1 != nil || err2 != nil || err3 != nil {
				continue
			}
			out = append(out, RangeFilter{Lat: lat, Lon: lon, Km: km})
		case "p":
			out = append(out, PrefixFilter(nonEmpty(args)))
		case "b":
			out = append(out, BudlistFilter(nonEmpty(args)))
		case "t":
			out = append(out, parseTypeFilter(rest))
		case "s":
			out = append(out, SymbolFilter(strings.Join(args, "")))
		case "o":
			out = append(out, ObjectFilter(nonEmpty(args)))
		}
	}
	return out
}

func nonEmpty(args []string) []string {
	out := args[:0:0]
	for _, a := range args {
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

// RangeFilter matches packets whose position is within Km of a point.
// Packets without a position never match.
type RangeFilter struct {
	Lat, Lon, Km float64
}

func (f RangeFilter) Match(p *Packet) bool {
	pos, ok := p.Position()
	if !ok {
		return false
	}
	return Haversine(f.Lat, f.Lon, pos.Lat, pos.Lon) <= f.Km
}

// PrefixFilter matches on case-sensitive source-callsign prefixes.
type PrefixFilter []string

func (f PrefixFilter) Match(p *Packet) bool {
	for _, pre := range f {
		if strings.HasPrefix(p.Source, pre) {
			return true
		}
	}
	return false
}

// BudlistFilter matches an exact callsign against source, destination or
// any path element.
type BudlistFilter []string

func (f BudlistFilter) Match(p *Packet) bool {
	for _, call := range f {
		if p.Source == call || p.Destination == call {
			return true
		}
		for _, el := range p.Path {
			if strings.TrimSuffix(el, "*") == call {
				return true
			}
		}
	}
	return false
}

// TypeFilter matches on packet classes, one flag per t/ character.
type TypeFilter map[PacketType]bool

func parseTypeFilter(chars string) TypeFilter {
	f := make(TypeFilter)
	add := func(ts ...PacketType) {
		for _, t := range ts {
			f[t] = true
		}
	}
	for _, c := range chars {
		switch c {
		case 'p':
			add(TypePositionNoTS, TypePositionWithTS, TypePositionWithTSMsg,
				TypePositionCompressed, TypeMicE)
		case 'o':
			add(TypeObject)
		case 'i':
			add(TypeItem)
		case 'm':
			add(TypeMessage)
		case 'q':
			add(TypeQuery)
		case 's':
			add(TypeStatus)
		case 't':
			add(TypeTelemetry)
		case 'w':
			add(TypeWeather)
		case 'n':
			add(TypeBulletin)
		case 'u':
			add(TypeUserDefined)
		}
	}
	return f
}

func (f TypeFilter) Match(p *Packet) bool {
	return f[p.Type]
}

// SymbolFilter matches the symbol code of position-class packets.
type SymbolFilter string

func (f SymbolFilter) Match(p *Packet) bool {
	pos, ok := p.Position()
	if !ok {
		return false
	}
	return strings.IndexByte(string(f), pos.Symbol) >= 0
}

// ObjectFilter matches object and item names exactly.
type ObjectFilter []string

func (f ObjectFilter) Match(p *Packet) bool {
	name, ok := p.ObjectName()
	if !ok {
		return false
	}
	for _, n := range f {
		if n == name {
			return true
		}
	}
	return false
}

// ObjectName extracts the name of an object or item report.
func (p *Packet) ObjectName() (string, bool) {
	switch p.Type {
	case TypeObject:
		if len(p.Data) < 11 {
			return "", false
		}
		return strings.TrimRight(string(p.Data[1:10]), " "), true
	case TypeItem:
		i := strings.IndexAny(string(p.Data[1:]), "!_")
		if i < 3 || i > 9 {
			return "", false
		}
		return string(p.Data[1 : i+1]), true
	}
	return "", false
}
