package impl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmcintire/aprstx-nerves/state"
)

func gateState(t *testing.T, mut func(cfg *state.Config)) (*state.State, *RFGate) {
	s, _ := newTestState(t, func(cfg *state.Config) {
		cfg.Station.Callsign = "GW"
		cfg.Station.SSID = 10
		cfg.Gate.IsToRf = true
		cfg.Gate.IsToRfType = state.IsToRfAll
		if mut != nil {
			mut(cfg)
		}
	})
	return s, install(t, s, &RFGate{})
}

func TestGateToIS_AppendsQAR(t *testing.T) {
	s, g := gateState(t, nil)

	p := testPacket(t, "N0CALL>APRS,WIDE1*:!3553.50N/10602.50W>")
	out, reason := g.GateToIS(s, p)
	require.Equal(t, ReasonNone, reason)
	assert.Equal(t, []string{"WIDE1*", "qAR", "GW-10"}, out.Path)
	// the original is untouched
	assert.Equal(t, []string{"WIDE1*"}, p.Path)
}

func TestGateToIS_Duplicate(t *testing.T) {
	s, g := gateState(t, nil)

	p := testPacket(t, "N0CALL>APRS,WIDE1*:!3553.50N/10602.50W>")
	_, reason := g.GateToIS(s, p)
	require.Equal(t, ReasonNone, reason)
	_, reason = g.GateToIS(s, p)
	assert.Equal(t, ReasonDuplicate, reason)
}

func TestGateToIS_PathHygiene(t *testing.T) {
	s, g := gateState(t, nil)

	for _, line := range []string{
		"N0CALL>APRS,NOGATE:>status",
		"N0CALL>APRS,RFONLY:>status",
		"N0CALL>APRS,TCPIP*:>status",
		"N0CALL>APRS,qAR,OTHER:>status",
	} {
		_, reason := g.GateToIS(s, testPacket(t, line))
		assert.Equal(t, ReasonPath, reason, line)
	}
}

func TestGateToIS_ThirdParty(t *testing.T) {
	s, g := gateState(t, nil)
	_, reason := g.GateToIS(s, testPacket(t, "N0CALL>APRS:}W1AW>APRS,TCPIP*:>inner"))
	assert.Equal(t, ReasonThirdParty, reason)
}

func TestGateToIS_LocalRange(t *testing.T) {
	s, g := gateState(t, func(cfg *state.Config) {
		cfg.Station.Lat = 35.89
		cfg.Station.Lon = -106.04
		cfg.Gate.LocalRangeKm = 50
	})

	// nearby position passes
	_, reason := g.GateToIS(s, testPacket(t, "N0CALL>APRS:!3553.50N/10602.50W>"))
	assert.Equal(t, ReasonNone, reason)

	// Sydney does not
	_, reason = g.GateToIS(s, testPacket(t, "VK2ABC>APRS:!3357.00S/15112.00E>"))
	assert.Equal(t, ReasonOutOfRange, reason)

	// packets without a position count as local
	_, reason = g.GateToIS(s, testPacket(t, "W1AW>APRS:>no position"))
	assert.Equal(t, ReasonNone, reason)
}

func TestGateToIS_TypeFilter(t *testing.T) {
	s, g := gateState(t, func(cfg *state.Config) {
		cfg.Gate.Weather = false
	})
	_, reason := g.GateToIS(s, testPacket(t, "N0CALL>APRS:_10090556c220s004g005t077"))
	assert.Equal(t, ReasonFiltered, reason)
}

func TestGateToIS_Disabled(t *testing.T) {
	s, g := gateState(t, func(cfg *state.Config) {
		cfg.Gate.RfToIs = false
	})
	_, reason := g.GateToIS(s, testPacket(t, "N0CALL>APRS:>status"))
	assert.Equal(t, ReasonDisabled, reason)
}

func TestGateToRF_StripsQConstructs(t *testing.T) {
	s, g := gateState(t, nil)
	g.NoteHeard(testPacket(t, "KC0ABC>APRS:>direct"))

	p := testPacket(t, "N0CALL>APRS,WIDE2-1,qAC,SRV::KC0ABC   :hello")
	out, reason := g.GateToRF(s, p)
	require.Equal(t, ReasonNone, reason)
	assert.Equal(t, []string{"WIDE2-1"}, out.Path)
}

func TestGateToRF_RateLimit(t *testing.T) {
	s, g := gateState(t, func(cfg *state.Config) {
		cfg.Gate.MaxRfRate = 2
	})
	for i := 0; i < 2; i++ {
		p := testPacket(t, "N0CALL>APRS::KC0ABC   :hello")
		p.Data = append(p.Data, byte('0'+i))
		_, reason := g.GateToRF(s, p)
		require.Equal(t, ReasonNone, reason, "packet %d", i)
	}
	_, reason := g.GateToRF(s, testPacket(t, "N0CALL>APRS::KC0ABC   :enough"))
	assert.Equal(t, ReasonRate, reason)
}

func TestGateToRF_HopBudget(t *testing.T) {
	s, g := gateState(t, func(cfg *state.Config) {
		cfg.Gate.MaxHopsToRf = 2
	})
	_, reason := g.GateToRF(s, testPacket(t, "N0CALL>APRS,WIDE3-3:>status"))
	assert.Equal(t, ReasonHopBudget, reason)

	_, reason = g.GateToRF(s, testPacket(t, "W1AW>APRS,WIDE2-2:>status"))
	assert.Equal(t, ReasonNone, reason)
}

func TestGateToRF_HeardMode(t *testing.T) {
	s, g := gateState(t, func(cfg *state.Config) {
		cfg.Gate.IsToRfType = state.IsToRfHeard
	})

	_, reason := g.GateToRF(s, testPacket(t, "N0CALL>APRS:>status"))
	assert.Equal(t, ReasonNotHeard, reason)

	g.NoteHeard(testPacket(t, "N0CALL>APRS:>now on rf"))
	_, reason = g.GateToRF(s, testPacket(t, "N0CALL>APRS:>status again"))
	assert.Equal(t, ReasonNone, reason)
}

func TestGateToRF_MessageOnlyMode(t *testing.T) {
	s, g := gateState(t, func(cfg *state.Config) {
		cfg.Gate.IsToRfType = state.IsToRfMessageOnly
	})

	_, reason := g.GateToRF(s, testPacket(t, "N0CALL>APRS:>not a message"))
	assert.Equal(t, ReasonNotHeard, reason)

	_, reason = g.GateToRF(s, testPacket(t, "N0CALL>APRS::KC0ABC   :hello"))
	assert.Equal(t, ReasonNone, reason)
}

func TestGateToRF_Disabled(t *testing.T) {
	s, g := gateState(t, func(cfg *state.Config) {
		cfg.Gate.IsToRf = false
	})
	_, reason := g.GateToRF(s, testPacket(t, "N0CALL>APRS:>status"))
	assert.Equal(t, ReasonDisabled, reason)
}

func TestHeardTracking_DirectVsIndirect(t *testing.T) {
	_, g := gateState(t, nil)

	g.NoteHeard(testPacket(t, "N0CALL>APRS,WIDE1-1:>no used hops"))
	assert.True(t, g.HeardDirect("N0CALL"))

	g.NoteHeard(testPacket(t, "KC0ABC>APRS,DIGI*,WIDE1-1:>repeated"))
	assert.True(t, g.HeardAny("KC0ABC"))
	assert.False(t, g.HeardDirect("KC0ABC"))
}
