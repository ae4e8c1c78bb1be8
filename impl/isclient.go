package impl

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/gmcintire/aprstx-nerves/aprs"
	"github.com/gmcintire/aprstx-nerves/state"
)

type isStatus int32

const (
	isDisconnected isStatus = iota
	isConnecting
	isConnected
)

// ISClient is the persistent connection to an APRS-IS server: login,
// keepalive, auto-reconnect with backoff, line parsing.
type ISClient struct {
	// Inbound delivers a parsed IS-origin packet to the coordinator.
	Inbound func(e *state.Env, p *aprs.Packet)

	status   atomic.Int32
	verified atomic.Bool
	lastRead atomic.Int64
	out      chan string
	conn     atomic.Pointer[net.TCPConn]
}

func (c *ISClient) Init(s *state.State) error {
	c.out = make(chan string, state.WriteQueueDepth)
	if !s.Config().AprsIs.Enabled {
		return nil
	}
	go c.run(s.Env)
	s.RepeatTask(c.watchdog, s.Config().AprsIs.Keepalive())
	return nil
}

func (c *ISClient) Cleanup(s *state.State) error {
	if conn := c.conn.Load(); conn != nil {
		conn.Close()
	}
	return nil
}

func (c *ISClient) Connected() bool {
	return isStatus(c.status.Load()) == isConnected
}

func (c *ISClient) Verified() bool {
	return c.verified.Load()
}

// Send queues one packet for APRS-IS. Dropped with a warning when the
// uplink is down.
func (c *ISClient) Send(e *state.Env, p *aprs.Packet) {
	if !c.Connected() {
		e.Log.Warn("aprs-is not connected, packet dropped", "source", p.Source)
		return
	}
	select {
	case c.out <- p.String() + "\r\n":
	default:
		e.Log.Warn("aprs-is send queue full, packet dropped", "source", p.Source)
	}
}

func (c *ISClient) setStatus(e *state.Env, st isStatus) {
	if isStatus(c.status.Swap(int32(st))) == st {
		return
	}
	switch st {
	case isConnected:
		e.Log.Info("aprs-is connected")
	case isConnecting:
		e.Log.Debug("aprs-is connecting")
	case isDisconnected:
		e.Log.Warn("aprs-is disconnected")
	}
}

func (c *ISClient) run(e *state.Env) {
	cfg := e.Config().AprsIs
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = cfg.Reconnect()
	bo.MaxInterval = state.MaxReconnect
	bo.MaxElapsedTime = 0

	for e.Context.Err() == nil {
		c.setStatus(e, isConnecting)
		start := time.Now()
		err := c.session(e)
		c.setStatus(e, isDisconnected)
		if e.Context.Err() != nil {
			return
		}
		if time.Since(start) > time.Minute {
			bo.Reset()
		}
		if err != nil {
			e.Log.Warn("aprs-is session ended", "err", err)
		}
		select {
		case <-time.After(bo.NextBackOff()):
		case <-e.Context.Done():
			return
		}
	}
}

// session dials, logs in and pumps lines until the connection dies.
// Hostname resolution happens per attempt.
func (c *ISClient) session(e *state.Env) error {
	cfg := e.Config().AprsIs
	addr := fmt.Sprintf("%s:%d", cfg.Server, cfg.Port)
	raw, err := net.DialTimeout("tcp", addr, state.DialTimeout)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	conn := raw.(*net.TCPConn)
	conn.SetKeepAlive(true)
	c.conn.Store(conn)
	defer func() {
		c.conn.Store(nil)
		conn.Close()
	}()

	login := loginLine(e.Config())
	if _, err := conn.Write([]byte(login)); err != nil {
		return fmt.Errorf("login write: %w", err)
	}

	done := make(chan struct{})
	defer close(done)
	go c.writeLoop(e, conn, done)

	c.lastRead.Store(time.Now().UnixNano())
	c.setStatus(e, isConnected)

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, state.MaxLineBytes), state.MaxLineBytes)
	for scanner.Scan() {
		c.lastRead.Store(time.Now().UnixNano())
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		if line[0] == '#' {
			if strings.Contains(line, "logresp") {
				c.verified.Store(strings.Contains(line, " verified"))
				e.Log.Info("aprs-is login", "response", line)
			}
			continue
		}
		pkt, err := aprs.ParsePacket(line)
		if err != nil {
			e.Log.Debug("aprs-is line rejected", "err", err, "line", line)
			continue
		}
		pkt.Heard = time.Now()
		c.Inbound(e, pkt)
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return fmt.Errorf("server closed the connection")
}

func loginLine(cfg *state.Config) string {
	is := cfg.AprsIs
	line := fmt.Sprintf("user %s pass %d vers %s %s",
		cfg.Station.Call(), is.Passcode, is.Software, is.Version)
	if is.Filter != "" {
		line += " filter " + is.Filter
	}
	return line + "\r\n"
}

func (c *ISClient) writeLoop(e *state.Env, conn net.Conn, done chan struct{}) {
	keepalive := time.NewTicker(e.Config().AprsIs.Keepalive())
	defer keepalive.Stop()
	for {
		select {
		case line := <-c.out:
			if _, err := conn.Write([]byte(line)); err != nil {
				conn.Close()
				return
			}
		case <-keepalive.C:
			if _, err := fmt.Fprintf(conn, "# %s keepalive\r\n", state.AgentName); err != nil {
				conn.Close()
				return
			}
		case <-done:
			return
		case <-e.Context.Done():
			return
		}
	}
}

// watchdog forces a reconnect when the uplink has been silent too long.
func (c *ISClient) watchdog(s *state.State) error {
	if !c.Connected() {
		return nil
	}
	silence := time.Since(time.Unix(0, c.lastRead.Load()))
	if silence > time.Duration(state.SilenceFactor)*s.Config().AprsIs.Keepalive() {
		s.Log.Warn("aprs-is silent, forcing reconnect", "silence", silence)
		if conn := c.conn.Load(); conn != nil {
			conn.Close()
		}
	}
	return nil
}
