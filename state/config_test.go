package state

import (
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_Valid(t *testing.T) {
	assert.NoError(t, ConfigValidator(DefaultConfig()))
}

func TestConfig_YamlOverlay(t *testing.T) {
	doc := `
station:
  callsign: KI5ABC
  ssid: 10
  lat: 35.89
  lon: -106.04
digipeater:
  enabled: true
  viscous_delay_ms: 5000
gate:
  rf_to_is: true
  is_to_rf: true
  is_to_rf_type: heard
rf:
  - name: vhf
    device: /dev/ttyUSB0
    baud: 9600
`
	cfg := DefaultConfig()
	require.NoError(t, yaml.Unmarshal([]byte(doc), cfg))
	require.NoError(t, ConfigValidator(cfg))

	assert.Equal(t, "KI5ABC-10", cfg.Station.Call())
	assert.True(t, cfg.Station.HasPosition())
	assert.Equal(t, 5000, cfg.Digipeater.ViscousMs)
	assert.Equal(t, IsToRfHeard, cfg.Gate.IsToRfType)
	// untouched defaults survive the overlay
	assert.Equal(t, 2, cfg.Digipeater.MaxHops)
	assert.Equal(t, 14580, cfg.Server.Port)
	require.Len(t, cfg.RF, 1)
	assert.Equal(t, "/dev/ttyUSB0", cfg.RF[0].Device)
}

func TestConfigValidator_Rejections(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*Config)
	}{
		{"bad callsign", func(c *Config) { c.Station.Callsign = "12345" }},
		{"ssid range", func(c *Config) { c.Station.SSID = 16 }},
		{"server port", func(c *Config) { c.Server.Port = 0 }},
		{"max clients", func(c *Config) { c.Server.MaxClients = 0 }},
		{"max hops", func(c *Config) { c.Digipeater.MaxHops = 9 }},
		{"flood rate", func(c *Config) { c.Digipeater.MaxFloodRate = 0 }},
		{"blacklist call", func(c *Config) { c.Digipeater.Blacklist = []string{"???"} }},
		{"gate mode", func(c *Config) { c.Gate.IsToRf = true; c.Gate.IsToRfType = "sometimes" }},
		{"is server", func(c *Config) { c.AprsIs.Enabled = true; c.AprsIs.Server = "" }},
		{"rf device", func(c *Config) { c.RF = []RFCfg{{Name: "vhf"}} }},
		{"kiss port", func(c *Config) { c.RF = []RFCfg{{Name: "vhf", Device: "d", Port: 16}} }},
		{"udp port", func(c *Config) { c.UDP.Enabled = true; c.UDP.Port = -1 }},
		{"symbol", func(c *Config) { c.Station.Symbol = "/" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mut(cfg)
			assert.Error(t, ConfigValidator(cfg))
		})
	}
}

func TestStationCall(t *testing.T) {
	assert.Equal(t, "N0CALL", StationCfg{Callsign: "N0CALL"}.Call())
	assert.Equal(t, "N0CALL-9", StationCfg{Callsign: "N0CALL", SSID: 9}.Call())
}
