package state

import "time"

const (
	AgentName    = "aprstx"
	AgentVersion = "1.0.0"
)

var (
	// APRS-IS client
	DefaultKeepalive = time.Second * 60
	DefaultReconnect = time.Second * 30
	MaxReconnect     = time.Minute * 5
	DialTimeout      = time.Second * 10
	// a connection silent for this many keepalive intervals is considered dead
	SilenceFactor = 3

	// downstream server
	LoginDeadline   = time.Second * 30
	WriteQueueDepth = 64
	ReplayLimit     = 100
	ReplayPacing    = time.Millisecond * 5
	MaxLineBytes    = 512

	// packet plane
	HeardWindow        = time.Second * 600
	HistorySize        = 10_000
	GateDedupWindow    = time.Second * 30
	RateLimitWindow    = time.Minute
	DefaultBanDuration = time.Second * 300
	FloodWindow        = time.Minute

	DefaultBeaconInterval = time.Minute * 20

	// dispatch loop
	DispatchDepth = 128
	SlowDispatch  = time.Millisecond * 50
)
