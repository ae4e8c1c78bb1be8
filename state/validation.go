package state

import (
	"fmt"
	"slices"

	"github.com/gmcintire/aprstx-nerves/aprs"
)

func CallsignValidator(s string) error {
	if !aprs.ValidCallsign(s) {
		return fmt.Errorf("%s is not a valid callsign", s)
	}
	return nil
}

func PortValidator(p int) error {
	if p < 1 || p > 65535 {
		return fmt.Errorf("port %d out of range", p)
	}
	return nil
}

func ConfigValidator(cfg *Config) error {
	if err := CallsignValidator(cfg.Station.Call()); err != nil {
		return err
	}
	if cfg.Station.SSID < 0 || cfg.Station.SSID > 15 {
		return fmt.Errorf("station ssid %d out of range", cfg.Station.SSID)
	}
	if cfg.Server.Enabled {
		if err := PortValidator(cfg.Server.Port); err != nil {
			return err
		}
		if cfg.Server.MaxClients <= 0 {
			return fmt.Errorf("server.max_clients must be positive")
		}
	}
	if cfg.Digipeater.Enabled {
		d := cfg.Digipeater
		if d.MaxHops < 1 || d.MaxHops > 8 {
			return fmt.Errorf("digipeater.max_hops %d out of range", d.MaxHops)
		}
		if d.DedupWindowMs <= 0 || d.FloodWindowMs <= 0 {
			return fmt.Errorf("digipeater windows must be positive")
		}
		if d.MaxFloodRate <= 0 {
			return fmt.Errorf("digipeater.max_flood_rate must be positive")
		}
		for _, call := range slices.Concat(d.Blacklist, d.Whitelist) {
			if err := CallsignValidator(call); err != nil {
				return err
			}
		}
	}
	if cfg.Gate.IsToRf {
		switch cfg.Gate.IsToRfType {
		case IsToRfAll, IsToRfHeard, IsToRfMessageOnly:
		default:
			return fmt.Errorf("gate.is_to_rf_type %q is not one of all, heard, message_only", cfg.Gate.IsToRfType)
		}
		if cfg.Gate.MaxRfRate <= 0 {
			return fmt.Errorf("gate.max_rf_rate must be positive")
		}
		if cfg.Gate.MaxHopsToRf < 0 {
			return fmt.Errorf("gate.max_hops_to_rf must not be negative")
		}
	}
	if cfg.AprsIs.Enabled {
		if cfg.AprsIs.Server == "" {
			return fmt.Errorf("aprsis.server must be set")
		}
		if err := PortValidator(cfg.AprsIs.Port); err != nil {
			return err
		}
	}
	for _, rf := range cfg.RF {
		if rf.Name == "" || rf.Device == "" {
			return fmt.Errorf("rf interface needs both name and device")
		}
		if rf.Port < 0 || rf.Port > 15 {
			return fmt.Errorf("rf %s: kiss port %d out of range", rf.Name, rf.Port)
		}
	}
	if cfg.UDP.Enabled {
		if err := PortValidator(cfg.UDP.Port); err != nil {
			return err
		}
	}
	if len(cfg.Station.Symbol) != 0 && len(cfg.Station.Symbol) != 2 {
		return fmt.Errorf("station.symbol must be two characters (table + code)")
	}
	return nil
}
