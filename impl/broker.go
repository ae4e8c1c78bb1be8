package impl

import (
	"bufio"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gmcintire/aprstx-nerves/aprs"
	"github.com/gmcintire/aprstx-nerves/state"
)

// loginPattern matches `user CALL pass PASS vers SW VER [filter F]`. The
// filter argument may itself contain spaces.
var loginPattern = regexp.MustCompile(
	`^user\s+(\S+)\s+pass\s+(-?\d+)\s+vers\s+(\S+)\s+(\S+)(?:\s+filter\s+(.+))?$`)

// Broker accepts downstream APRS-IS style clients, authenticates them and
// fans admitted packets out to matching filters. Session bookkeeping lives
// on the main loop.
type Broker struct {
	// Inbound delivers a packet submitted by a logged-in client.
	Inbound func(s *state.State, p *aprs.Packet, sess *Session) error

	listener net.Listener
	sessions map[uint64]*Session
	nextID   uint64
}

func (b *Broker) Init(s *state.State) error {
	b.sessions = make(map[uint64]*Session)
	cfg := s.Config().Server
	if !cfg.Enabled {
		return nil
	}
	lc := net.ListenConfig{}
	ln, err := lc.Listen(s.Context, "tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return fmt.Errorf("server listen: %w", err)
	}
	b.listener = ln
	s.Log.Info("server listening", "port", cfg.Port)
	go b.acceptLoop(s.Env)
	return nil
}

func (b *Broker) Cleanup(s *state.State) error {
	if b.listener != nil {
		b.listener.Close()
	}
	for _, sess := range b.sessions {
		sess.Close()
	}
	return nil
}

func (b *Broker) acceptLoop(e *state.Env) {
	for e.Context.Err() == nil {
		conn, err := b.listener.Accept()
		if err != nil {
			if e.Context.Err() == nil {
				e.Log.Warn("accept failed", "err", err)
			}
			return
		}
		e.Dispatch(func(s *state.State) error {
			return b.admit(s, conn)
		})
	}
}

func (b *Broker) admit(s *state.State, conn net.Conn) error {
	sess := newSession(b.nextID, conn)
	b.nextID++

	acl := Get[*ACL](s)
	if !acl.AllowConnect(s, sess.RemoteIP, "") {
		s.Log.Debug("connection refused by acl", "ip", sess.RemoteIP)
		conn.Close()
		return nil
	}
	if len(b.sessions) >= s.Config().Server.MaxClients {
		s.Log.Warn("client limit reached, connection refused", "ip", sess.RemoteIP)
		conn.Close()
		return nil
	}

	b.sessions[sess.ID] = sess
	go sess.writeLoop(s.Env)
	sess.Enqueue([]byte(fmt.Sprintf("# %s %s\r\n", state.AgentName, state.AgentVersion)))
	go b.readLoop(s.Env, sess)
	return nil
}

func (b *Broker) drop(s *state.State, sess *Session) {
	sess.Close()
	delete(b.sessions, sess.ID)
}

func (b *Broker) readLoop(e *state.Env, sess *Session) {
	defer e.Dispatch(func(s *state.State) error {
		b.drop(s, sess)
		return nil
	})

	sess.conn.SetReadDeadline(time.Now().Add(state.LoginDeadline))
	scanner := bufio.NewScanner(sess.conn)
	scanner.Buffer(make([]byte, state.MaxLineBytes), state.MaxLineBytes)

	loggedIn := false
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" || line[0] == '#' {
			continue
		}
		if !loggedIn {
			ok, err := e.DispatchWait(func(s *state.State) (any, error) {
				return b.login(s, sess, line), nil
			})
			if err != nil || !ok.(bool) {
				// give the writer a moment to flush the rejection line
				time.Sleep(100 * time.Millisecond)
				return
			}
			loggedIn = true
			sess.conn.SetReadDeadline(time.Time{})
			continue
		}
		b.submit(e, sess, line)
	}
}

// login handles the first client line. Returns false to drop the
// connection.
func (b *Broker) login(s *state.State, sess *Session, line string) bool {
	serverID := s.Config().Server.ID
	if serverID == "" {
		serverID = s.ServerCall()
	}
	m := loginPattern.FindStringSubmatch(line)
	if m == nil {
		sess.Enqueue([]byte("# invalid login, expected: user CALL pass PASS vers SW VER\r\n"))
		return false
	}
	call := aprs.NormalizeCallsign(m[1])
	if !aprs.ValidCallsign(call) {
		sess.Enqueue([]byte(fmt.Sprintf("# logresp %s invalid, server %s\r\n", m[1], serverID)))
		return false
	}
	if !Get[*ACL](s).AllowConnect(s, sess.RemoteIP, call) {
		sess.Enqueue([]byte(fmt.Sprintf("# logresp %s denied, server %s\r\n", call, serverID)))
		return false
	}

	// passcode verification is advisory: a mismatch only leaves the client
	// unverified, so its packets carry qAX instead of qAC
	pass, _ := strconv.Atoi(m[2])
	sess.Callsign = call
	sess.Verified = pass != -1 && pass == aprs.Passcode(call)
	sess.Authed = true
	if m[5] != "" {
		sess.Filters = aprs.ParseFilters(m[5])
		sess.HasFilter = true
	}

	status := "unverified"
	if sess.Verified {
		status = "verified"
	}
	sess.Enqueue([]byte(fmt.Sprintf("# logresp %s %s, server %s\r\n", call, status, serverID)))
	s.Log.Info("client logged in", "call", call, "status", status, "software", m[3]+" "+m[4])

	if sess.HasFilter {
		b.replay(s, sess)
	}
	return true
}

// replay sends the recent history matching the client's filter, paced so a
// burst does not trip anything downstream.
func (b *Broker) replay(s *state.State, sess *Session) {
	matches := Get[*History](s).Query(sess.Filters, time.Time{}, state.ReplayLimit)
	if len(matches) == 0 {
		return
	}
	lines := make([][]byte, 0, len(matches))
	for _, p := range matches {
		lines = append(lines, []byte(p.String()+"\r\n"))
	}
	go func() {
		for _, line := range lines {
			if !sess.Enqueue(line) {
				return
			}
			time.Sleep(state.ReplayPacing)
		}
	}()
}

// submit parses a post-login client line and hands it to the coordinator.
func (b *Broker) submit(e *state.Env, sess *Session, line string) {
	e.Dispatch(func(s *state.State) error {
		maxPkts, maxBytes := FloodLimits(s)
		if sess.noteTraffic(time.Now(), len(line), maxPkts, maxBytes) {
			s.Log.Warn("client flooding, banned", "call", sess.Callsign, "ip", sess.RemoteIP)
			Get[*ACL](s).Ban(sess.RemoteIP, sess.Callsign)
			b.drop(s, sess)
			return nil
		}
		pkt, err := aprs.ParsePacket(line)
		if err != nil {
			s.Stats.ParseErrors++
			s.Log.Debug("client line rejected", "call", sess.Callsign, "err", err)
			return nil
		}
		pkt.Heard = time.Now()
		return b.Inbound(s, pkt, sess)
	})
}

// Broadcast fans a packet out to every authenticated client whose filter
// matches, except the one it came from. A client that cannot keep up is
// disconnected.
func (b *Broker) Broadcast(s *state.State, p *aprs.Packet, except *Session) {
	line := []byte(p.String() + "\r\n")
	for _, sess := range b.sessions {
		if !sess.Authed || sess == except {
			continue
		}
		if !aprs.MatchAny(sess.Filters, p) {
			continue
		}
		if !sess.Enqueue(line) {
			s.Log.Warn("client queue overflow, disconnecting", "call", sess.Callsign)
			b.drop(s, sess)
		}
	}
}

// Clients returns how many sessions are connected.
func (b *Broker) Clients() int {
	return len(b.sessions)
}
