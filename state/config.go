package state

import (
	"fmt"
	"time"
)

// StationCfg identifies the station itself. Lat/Lon of 0,0 means no fixed
// position is configured; the beacon falls back to a status packet and the
// gate's local-range check is disabled.
type StationCfg struct {
	Callsign string  `yaml:"callsign"`
	SSID     int     `yaml:"ssid,omitempty"`
	Lat      float64 `yaml:"lat,omitempty"`
	Lon      float64 `yaml:"lon,omitempty"`
	Symbol   string  `yaml:"symbol,omitempty"` // two chars: table + code
	Comment  string  `yaml:"comment,omitempty"`
}

// Call returns the callsign-SSID form used on the wire.
func (c StationCfg) Call() string {
	if c.SSID > 0 {
		return fmt.Sprintf("%s-%d", c.Callsign, c.SSID)
	}
	return c.Callsign
}

func (c StationCfg) HasPosition() bool {
	return c.Lat != 0 || c.Lon != 0
}

type ServerCfg struct {
	Enabled    bool   `yaml:"enabled"`
	Port       int    `yaml:"port"`
	MaxClients int    `yaml:"max_clients"`
	ID         string `yaml:"id,omitempty"` // server id in logresp, defaults to station call
}

type DigiCfg struct {
	Enabled       bool     `yaml:"enabled"`
	Aliases       []string `yaml:"aliases,omitempty"`
	MaxHops       int      `yaml:"max_hops"`
	DedupWindowMs int      `yaml:"dedup_window_ms"`
	FloodWindowMs int      `yaml:"flood_window_ms"`
	MaxFloodRate  int      `yaml:"max_flood_rate"`
	ViscousMs     int      `yaml:"viscous_delay_ms,omitempty"`
	FillIn        bool     `yaml:"fill_in,omitempty"`
	Preemptive    bool     `yaml:"preemptive,omitempty"`
	Blacklist     []string `yaml:"blacklist,omitempty"`
	Whitelist     []string `yaml:"whitelist,omitempty"`
	DropWeather   bool     `yaml:"drop_weather,omitempty"`
	DropTelemetry bool     `yaml:"drop_telemetry,omitempty"`
}

func (c DigiCfg) DedupWindow() time.Duration {
	return time.Duration(c.DedupWindowMs) * time.Millisecond
}

func (c DigiCfg) FloodWindow() time.Duration {
	return time.Duration(c.FloodWindowMs) * time.Millisecond
}

func (c DigiCfg) ViscousDelay() time.Duration {
	return time.Duration(c.ViscousMs) * time.Millisecond
}

// IsToRfMode selects which IS-origin packets are reachable over RF.
type IsToRfMode string

const (
	IsToRfAll         IsToRfMode = "all"
	IsToRfHeard       IsToRfMode = "heard"
	IsToRfMessageOnly IsToRfMode = "message_only"
)

type GateCfg struct {
	RfToIs       bool       `yaml:"rf_to_is"`
	IsToRf       bool       `yaml:"is_to_rf"`
	IsToRfType   IsToRfMode `yaml:"is_to_rf_type,omitempty"`
	LocalRangeKm float64    `yaml:"local_range_km,omitempty"` // 0 disables the range check
	MaxRfRate    int        `yaml:"max_rf_rate"`              // IS->RF emissions per minute
	MaxHopsToRf  int        `yaml:"max_hops_to_rf"`
	Messages     bool       `yaml:"messages"`
	Positions    bool       `yaml:"positions"`
	Weather      bool       `yaml:"weather"`
	Telemetry    bool       `yaml:"telemetry"`
	Objects      bool       `yaml:"objects"`
}

type AprsIsCfg struct {
	Enabled    bool   `yaml:"enabled"`
	Server     string `yaml:"server"`
	Port       int    `yaml:"port"`
	Passcode   int    `yaml:"passcode"`
	Filter     string `yaml:"filter,omitempty"`
	Software   string `yaml:"software,omitempty"`
	Version    string `yaml:"version,omitempty"`
	ReconnectS int    `yaml:"reconnect_s,omitempty"`
	KeepaliveS int    `yaml:"keepalive_s,omitempty"`
}

func (c AprsIsCfg) Reconnect() time.Duration {
	if c.ReconnectS <= 0 {
		return DefaultReconnect
	}
	return time.Duration(c.ReconnectS) * time.Second
}

func (c AprsIsCfg) Keepalive() time.Duration {
	if c.KeepaliveS <= 0 {
		return DefaultKeepalive
	}
	return time.Duration(c.KeepaliveS) * time.Second
}

// RFCfg describes one KISS interface. A device containing ':' is dialed as
// TCP, anything else is opened as a serial port.
type RFCfg struct {
	Name   string `yaml:"name"`
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud,omitempty"`
	Port   int    `yaml:"port,omitempty"` // KISS port number (high nibble of the type byte)
}

type UDPCfg struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type ACLCfg struct {
	Blacklist    []string `yaml:"blacklist,omitempty"` // IPs or callsigns
	Whitelist    []string `yaml:"whitelist,omitempty"`
	FloodPackets int      `yaml:"flood_packets,omitempty"` // per 60s, 0 disables
	FloodBytes   int      `yaml:"flood_bytes,omitempty"`
	BanS         int      `yaml:"ban_s,omitempty"`
}

func (c ACLCfg) BanDuration() time.Duration {
	if c.BanS <= 0 {
		return DefaultBanDuration
	}
	return time.Duration(c.BanS) * time.Second
}

type BeaconCfg struct {
	Enabled   bool   `yaml:"enabled"`
	IntervalS int    `yaml:"interval_s"`
	Comment   string `yaml:"comment,omitempty"`
	ToIs      bool   `yaml:"to_is,omitempty"`
}

func (c BeaconCfg) Interval() time.Duration {
	if c.IntervalS <= 0 {
		return DefaultBeaconInterval
	}
	return time.Duration(c.IntervalS) * time.Second
}

type Config struct {
	Station    StationCfg `yaml:"station"`
	Server     ServerCfg  `yaml:"server"`
	Digipeater DigiCfg    `yaml:"digipeater"`
	Gate       GateCfg    `yaml:"gate"`
	AprsIs     AprsIsCfg  `yaml:"aprsis"`
	RF         []RFCfg    `yaml:"rf,omitempty"`
	UDP        UDPCfg     `yaml:"udp"`
	ACL        ACLCfg     `yaml:"acl"`
	Beacon     BeaconCfg  `yaml:"beacon"`
	LogPath    string     `yaml:"log_path,omitempty"`
}

// DefaultConfig is the starting point written by `aprstx new` and the base
// that a loaded file overlays.
func DefaultConfig() *Config {
	return &Config{
		Station: StationCfg{
			Callsign: "N0CALL",
			Symbol:   "/#",
		},
		Server: ServerCfg{
			Enabled:    true,
			Port:       14580,
			MaxClients: 50,
		},
		Digipeater: DigiCfg{
			Enabled:       true,
			Aliases:       []string{"WIDE"},
			MaxHops:       2,
			DedupWindowMs: 30_000,
			FloodWindowMs: 60_000,
			MaxFloodRate:  10,
			ViscousMs:     0,
			FillIn:        false,
			Preemptive:    false,
		},
		Gate: GateCfg{
			RfToIs:      true,
			IsToRf:      false,
			IsToRfType:  IsToRfMessageOnly,
			MaxRfRate:   6,
			MaxHopsToRf: 2,
			Messages:    true,
			Positions:   true,
			Weather:     true,
			Telemetry:   true,
			Objects:     true,
		},
		AprsIs: AprsIsCfg{
			Server:   "rotate.aprs2.net",
			Port:     14580,
			Passcode: -1,
			Software: AgentName,
			Version:  AgentVersion,
		},
		UDP: UDPCfg{Port: 8093},
		ACL: ACLCfg{
			FloodPackets: 120,
			FloodBytes:   32 * 1024,
		},
		Beacon: BeaconCfg{
			IntervalS: 1200,
			Comment:   AgentName + " gateway",
		},
	}
}
