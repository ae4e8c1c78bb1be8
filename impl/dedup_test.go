package impl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gmcintire/aprstx-nerves/state"
)

func TestDupFilter_Window(t *testing.T) {
	s, _ := newTestState(t, func(cfg *state.Config) {
		cfg.Digipeater.DedupWindowMs = 100
	})
	d := install(t, s, &DupFilter{})

	p := testPacket(t, "N0CALL>APRS:>hello")
	assert.False(t, d.IsDuplicate(p))
	d.Record(p)
	assert.True(t, d.IsDuplicate(p))

	// a different payload from the same source is not a duplicate
	q := testPacket(t, "N0CALL>APRS:>other")
	assert.False(t, d.IsDuplicate(q))

	// a rewritten path with identical data still collides
	r := testPacket(t, "N0CALL>APRS,DIGI*,WIDE1-1:>hello")
	assert.True(t, d.IsDuplicate(r))

	// eviction after the window
	assert.Eventually(t, func() bool {
		return !d.IsDuplicate(p)
	}, time.Second, 20*time.Millisecond)
}

func TestDupFilter_DistinctSources(t *testing.T) {
	s, _ := newTestState(t, nil)
	d := install(t, s, &DupFilter{})

	d.Record(testPacket(t, "N0CALL>APRS:>hello"))
	assert.False(t, d.IsDuplicate(testPacket(t, "W1AW>APRS:>hello")))
}
