package core

import (
	"context"
	"reflect"
	"time"

	"github.com/gmcintire/aprstx-nerves/aprs"
	"github.com/gmcintire/aprstx-nerves/impl"
	"github.com/gmcintire/aprstx-nerves/state"
)

// initModules builds every module and wires the edge modules' inbound
// sinks into the coordinator pipeline. Children never hold a reference
// back to the coordinator, only these typed sinks.
func initModules(s *state.State) error {
	modules := []state.Module{
		&impl.DupFilter{},
		&impl.RFGate{},
		&impl.History{},
		&impl.ACL{},
		&impl.Digipeater{},
		&impl.RFManager{
			Inbound: func(e *state.Env, p *aprs.Packet, port string) {
				e.Dispatch(func(s *state.State) error {
					return handleRF(s, p, port)
				})
			},
		},
		&impl.ISClient{
			Inbound: func(e *state.Env, p *aprs.Packet) {
				e.Dispatch(handleIS(p))
			},
		},
		&impl.Broker{
			Inbound: handleClient,
		},
		&impl.UDPIngest{
			Inbound: func(e *state.Env, p *aprs.Packet) {
				e.Dispatch(handleUDP(p))
			},
		},
		&impl.Beacon{},
	}

	for _, module := range modules {
		s.Modules[reflect.TypeOf(module).String()] = module
		if err := module.Init(s); err != nil {
			return err
		}
	}

	s.RepeatTask(logStats, 5*time.Minute)
	return nil
}

func logStats(s *state.State) error {
	st := s.Stats
	s.Log.Info("traffic",
		"rf_rx", st.RfRx, "rf_tx", st.RfTx,
		"is_rx", st.IsRx, "is_tx", st.IsTx,
		"client_rx", st.ClientRx, "udp_rx", st.UdpRx,
		"digipeated", st.Digipeated,
		"gated_to_rf", st.GatedToRf, "gated_to_is", st.GatedToIs,
		"dropped", st.Dropped, "parse_errors", st.ParseErrors,
		"clients", impl.Get[*impl.Broker](s).Clients())
	return nil
}

func MainLoop(s *state.State, dispatch <-chan func(*state.State) error) error {
	s.Log.Debug("started main loop")
	for {
		select {
		case fun := <-dispatch:
			start := time.Now()
			err := fun(s)
			if err != nil {
				s.Log.Error("error occurred during dispatch", "error", err)
				s.Cancel(err)
			}
			elapsed := time.Since(start)
			if elapsed > state.SlowDispatch {
				s.Log.Warn("dispatch took a long time!", "elapsed", elapsed)
			}
		case <-s.Context.Done():
			goto endLoop
		}
	}
endLoop:
	s.Log.Info("stopped main loop", "reason", context.Cause(s.Context).Error())
	cleanup(s)
	return nil
}

func cleanup(s *state.State) {
	s.Log.Info("cleaning up modules")
	for moduleName, module := range s.Modules {
		err := module.Cleanup(s)
		if err != nil {
			s.Log.Error("error occurred during cleanup", "module", moduleName, "error", err)
		}
	}
	s.Cancel(context.Canceled)
}
