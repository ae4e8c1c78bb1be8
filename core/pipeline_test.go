package core

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmcintire/aprstx-nerves/aprs"
	"github.com/gmcintire/aprstx-nerves/impl"
	"github.com/gmcintire/aprstx-nerves/state"
)

// pipelineState wires the full module set with every network surface
// disabled, so the coordinator paths can be driven directly.
func pipelineState(t *testing.T, mut func(cfg *state.Config)) *state.State {
	t.Helper()
	cfg := state.DefaultConfig()
	cfg.Station.Callsign = "GW"
	cfg.Station.SSID = 10
	cfg.Server.Enabled = false
	cfg.AprsIs.Enabled = false
	cfg.UDP.Enabled = false
	cfg.Beacon.Enabled = false
	if mut != nil {
		mut(cfg)
	}
	ctx, cancel := context.WithCancelCause(context.Background())
	dispatch := make(chan func(*state.State) error, state.DispatchDepth)
	env := &state.Env{
		Context:         ctx,
		Cancel:          cancel,
		DispatchChannel: dispatch,
		Log:             slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	env.SwapConfig(cfg)
	s := &state.State{Env: env, Modules: make(map[string]state.Module)}
	require.NoError(t, initModules(s))
	t.Cleanup(func() {
		cancel(context.Canceled)
		for _, m := range s.Modules {
			_ = m.Cleanup(s)
		}
	})
	return s
}

func parse(t *testing.T, line string) *aprs.Packet {
	t.Helper()
	p, err := aprs.ParsePacket(line)
	require.NoError(t, err)
	p.Heard = time.Now()
	return p
}

func TestHandleClient_TagsProvenance(t *testing.T) {
	s := pipelineState(t, nil)

	p := parse(t, "N0CALL>APRS,TCPIP*:>from a client")
	require.NoError(t, handleClient(s, p, &impl.Session{Verified: false}))
	assert.Equal(t, []string{"TCPIP*", "qAX", "GW-10"}, p.Path)
	assert.Equal(t, uint64(1), s.Stats.ClientRx)

	q := parse(t, "W1AW>APRS,TCPIP*:>verified client")
	require.NoError(t, handleClient(s, q, &impl.Session{Verified: true}))
	assert.Equal(t, []string{"TCPIP*", "qAC", "GW-10"}, q.Path)

	// both landed in history
	assert.Equal(t, 2, impl.Get[*impl.History](s).Len())
}

func TestHandleClient_KeepsExistingQConstruct(t *testing.T) {
	s := pipelineState(t, nil)

	p := parse(t, "N0CALL>APRS,qAR,OTHER:>already tagged")
	require.NoError(t, handleClient(s, p, &impl.Session{}))
	assert.Equal(t, []string{"qAR", "OTHER"}, p.Path)
}

func TestHandleClient_DuplicateDropped(t *testing.T) {
	s := pipelineState(t, nil)

	require.NoError(t, handleClient(s, parse(t, "N0CALL>APRS:>once"), &impl.Session{}))
	require.NoError(t, handleClient(s, parse(t, "N0CALL>APRS:>once"), &impl.Session{}))
	assert.Equal(t, uint64(1), s.Stats.Dropped)
	assert.Equal(t, 1, impl.Get[*impl.History](s).Len())
}

func TestHandleRF_DigipeatsAndRecords(t *testing.T) {
	s := pipelineState(t, nil)

	p := parse(t, "N0CALL>APRS,WIDE2-2:!3553.50N/10602.50W>")
	require.NoError(t, handleRF(s, p, "vhf"))

	assert.Equal(t, uint64(1), s.Stats.RfRx)
	assert.Equal(t, uint64(1), s.Stats.Digipeated)
	assert.Equal(t, uint64(1), s.Stats.GatedToIs)
	assert.True(t, impl.Get[*impl.RFGate](s).HeardDirect("N0CALL"))
	assert.Equal(t, 1, impl.Get[*impl.History](s).Len())
}

func TestHandleIS_SanitizesAndGates(t *testing.T) {
	s := pipelineState(t, func(cfg *state.Config) {
		cfg.Gate.IsToRf = true
		cfg.Gate.IsToRfType = state.IsToRfAll
	})

	p := parse(t, "N0CALL>APRS,WIDE2-1,qAC,SRV:>inbound from is")
	require.NoError(t, handleIS(p)(s))

	assert.Equal(t, uint64(1), s.Stats.IsRx)
	assert.Equal(t, uint64(1), s.Stats.GatedToRf)
	assert.Equal(t, 1, impl.Get[*impl.History](s).Len())
}

func TestHandleUDP_TagsQAU(t *testing.T) {
	s := pipelineState(t, nil)

	p := parse(t, "N0CALL>APRS:>udp submission")
	require.NoError(t, handleUDP(p)(s))
	assert.Equal(t, []string{"qAU", "GW-10"}, p.Path)
	assert.Equal(t, uint64(1), s.Stats.UdpRx)
}
