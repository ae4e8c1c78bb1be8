package impl

import (
	"context"
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/gmcintire/aprstx-nerves/aprs"
	"github.com/gmcintire/aprstx-nerves/state"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// newTestState builds a State with defaults, an open dispatch channel and a
// discarded logger. Modules register through install; the returned channel
// is the receiving end of the dispatch queue so tests can play main loop.
func newTestState(t *testing.T, mut func(cfg *state.Config)) (*state.State, chan func(*state.State) error) {
	t.Helper()
	cfg := state.DefaultConfig()
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
	t.Cleanup(func() {
		cancel(context.Canceled)
		for _, m := range s.Modules {
			_ = m.Cleanup(s)
		}
	})
	return s, dispatch
}

func install[T state.Module](t *testing.T, s *state.State, m T) T {
	t.Helper()
	s.Modules[reflect.TypeOf(m).String()] = m
	if err := m.Init(s); err != nil {
		t.Fatalf("init %T: %v", m, err)
	}
	return m
}

// drainDispatch runs queued dispatch functions until the timeout passes,
// reporting whether any ran.
func drainDispatch(t *testing.T, s *state.State, dispatch chan func(*state.State) error, timeout time.Duration) bool {
	t.Helper()
	deadline := time.After(timeout)
	ran := false
	for {
		select {
		case f := <-dispatch:
			if err := f(s); err != nil {
				t.Fatalf("dispatch error: %v", err)
			}
			ran = true
		case <-deadline:
			return ran
		}
	}
}

func testPacket(t *testing.T, line string) *aprs.Packet {
	t.Helper()
	p, err := aprs.ParsePacket(line)
	if err != nil {
		t.Fatalf("parse %q: %v", line, err)
	}
	p.Heard = time.Now()
	return p
}
