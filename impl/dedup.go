package impl

import (
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/gmcintire/aprstx-nerves/aprs"
	"github.com/gmcintire/aprstx-nerves/state"
)

// DupFilter is the sliding-window duplicate detector shared by every
// inbound pipeline. Keyed by source + md5(data); the cache TTL is the
// dedup window, so eviction replaces a manual sweep.
type DupFilter struct {
	seen *ttlcache.Cache[string, time.Time]
}

func (d *DupFilter) Init(s *state.State) error {
	d.seen = ttlcache.New[string, time.Time](
		ttlcache.WithTTL[string, time.Time](s.Config().Digipeater.DedupWindow()),
		ttlcache.WithDisableTouchOnHit[string, time.Time](),
	)
	go d.seen.Start()
	return nil
}

func (d *DupFilter) Cleanup(s *state.State) error {
	d.seen.Stop()
	return nil
}

func (d *DupFilter) IsDuplicate(p *aprs.Packet) bool {
	return d.seen.Has(Fingerprint(p))
}

func (d *DupFilter) Record(p *aprs.Packet) {
	d.seen.Set(Fingerprint(p), time.Now(), ttlcache.DefaultTTL)
}
