package impl

import (
	"slices"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/gmcintire/aprstx-nerves/aprs"
	"github.com/gmcintire/aprstx-nerves/state"
)

// ACL handles connection-time allow/deny plus temporary flood bans. Bans
// expire through the cache TTL.
type ACL struct {
	bans *ttlcache.Cache[string, time.Time]
}

func (a *ACL) Init(s *state.State) error {
	a.bans = ttlcache.New[string, time.Time](
		ttlcache.WithTTL[string, time.Time](s.Config().ACL.BanDuration()),
		ttlcache.WithDisableTouchOnHit[string, time.Time](),
	)
	go a.bans.Start()
	return nil
}

func (a *ACL) Cleanup(s *state.State) error {
	a.bans.Stop()
	return nil
}

// AllowConnect is checked at accept time (with an empty callsign) and again
// after login.
func (a *ACL) AllowConnect(s *state.State, ip, callsign string) bool {
	cfg := s.Config().ACL
	callsign = aprs.NormalizeCallsign(callsign)
	if a.bans.Has(ip) || (callsign != "" && a.bans.Has(callsign)) {
		return false
	}
	if slices.Contains(cfg.Blacklist, ip) || (callsign != "" && slices.Contains(cfg.Blacklist, callsign)) {
		return false
	}
	if len(cfg.Whitelist) > 0 {
		if slices.Contains(cfg.Whitelist, ip) {
			return true
		}
		return callsign != "" && slices.Contains(cfg.Whitelist, callsign)
	}
	return true
}

// Ban blocks the given keys (IP or normalized callsign) until the ban TTL
// runs out.
func (a *ACL) Ban(keys ...string) {
	now := time.Now()
	for _, k := range keys {
		if k == "" {
			continue
		}
		a.bans.Set(k, now, ttlcache.DefaultTTL)
	}
}

// FloodLimits returns the per-client packet and byte budgets for one flood
// window, zero meaning unlimited.
func FloodLimits(s *state.State) (int, int) {
	cfg := s.Config().ACL
	return cfg.FloodPackets, cfg.FloodBytes
}
