package state

import (
	"context"
	"log/slog"
	"sync/atomic"
)

type Module interface {
	Init(s *State) error
	Cleanup(s *State) error
}

// State access must be done only on a single Goroutine
type State struct {
	*Env
	Modules map[string]Module
	Stats   Stats
}

// Env can be read from any Goroutine
type Env struct {
	DispatchChannel chan<- func(s *State) error
	Context         context.Context
	Cancel          context.CancelCauseFunc
	Log             *slog.Logger

	cfg atomic.Pointer[Config]
}

// Config returns the current configuration snapshot. Hot paths read the
// snapshot without synchronization; a reload swaps the whole pointer.
func (e *Env) Config() *Config {
	return e.cfg.Load()
}

func (e *Env) SwapConfig(c *Config) {
	e.cfg.Store(c)
}

// ServerCall is the callsign-SSID this station identifies as on the wire.
func (e *Env) ServerCall() string {
	return e.Config().Station.Call()
}

// Stats are the coordinator's packet counters. Owned by the main loop,
// read elsewhere only through a DispatchWait snapshot.
type Stats struct {
	RfRx        uint64
	RfTx        uint64
	IsRx        uint64
	IsTx        uint64
	ClientRx    uint64
	UdpRx       uint64
	Digipeated  uint64
	GatedToRf   uint64
	GatedToIs   uint64
	Dropped     uint64
	ParseErrors uint64
}

// Snapshot reads the stats counters from off the main loop.
func (e *Env) Snapshot() (Stats, error) {
	res, err := e.DispatchWait(func(s *State) (any, error) {
		return s.Stats, nil
	})
	if err != nil {
		return Stats{}, err
	}
	return res.(Stats), nil
}
