package impl

import (
	"net"
	"sync/atomic"
	"time"

	"github.com/gmcintire/aprstx-nerves/aprs"
	"github.com/gmcintire/aprstx-nerves/state"
)

// Session is one downstream client connection. Identity fields are written
// on the main loop during login and read there afterwards; the reader and
// writer goroutines touch only the connection and the queue.
type Session struct {
	ID          uint64
	RemoteIP    string
	Callsign    string
	Verified    bool
	Authed      bool
	Filters     []aprs.Filter
	HasFilter   bool
	ConnectedAt time.Time

	conn   net.Conn
	out    chan []byte
	closed atomic.Bool

	// rolling flood window, maintained by the broker on the main loop
	winStart time.Time
	winPkts  int
	winBytes int
}

func newSession(id uint64, conn net.Conn) *Session {
	ip, _, _ := net.SplitHostPort(conn.RemoteAddr().String())
	return &Session{
		ID:          id,
		RemoteIP:    ip,
		ConnectedAt: time.Now(),
		conn:        conn,
		out:         make(chan []byte, state.WriteQueueDepth),
	}
}

// Enqueue hands a line to the writer without blocking. Reports false when
// the queue is full, which the broker treats as a dead client.
func (c *Session) Enqueue(line []byte) bool {
	if c.closed.Load() {
		return false
	}
	select {
	case c.out <- line:
		return true
	default:
		return false
	}
}

func (c *Session) Close() {
	if c.closed.CompareAndSwap(false, true) {
		c.conn.Close()
	}
}

func (c *Session) writeLoop(e *state.Env) {
	for {
		select {
		case line := <-c.out:
			c.conn.SetWriteDeadline(time.Now().Add(state.DialTimeout))
			if _, err := c.conn.Write(line); err != nil {
				c.Close()
				return
			}
		case <-e.Context.Done():
			c.Close()
			return
		}
	}
}

// noteTraffic advances the rolling flood counters and reports whether the
// client exceeded either budget.
func (c *Session) noteTraffic(now time.Time, size, maxPkts, maxBytes int) bool {
	if now.Sub(c.winStart) > state.FloodWindow {
		c.winStart = now
		c.winPkts = 0
		c.winBytes = 0
	}
	c.winPkts++
	c.winBytes += size
	if maxPkts > 0 && c.winPkts > maxPkts {
		return true
	}
	return maxBytes > 0 && c.winBytes > maxBytes
}
