// Package state holds the shared backend state lazyvolet's listener,
// supervisor and join strategies all read and mutate: what lifecycle the
// backend is in, when it was last active, and what the status prober
// discovered about it.
package state

import (
	"time"

	"github.com/dragonium-labs/lazyvolet/mc"
	"github.com/dragonium-labs/lazyvolet/notify"
)

// Lifecycle mirrors the backend process's supervised state machine.
type Lifecycle int

const (
	Stopped Lifecycle = iota
	Starting
	Started
	Stopping
	Crashed
	Frozen
)

func (l Lifecycle) String() string {
	switch l {
	case Stopped:
		return "stopped"
	case Starting:
		return "starting"
	case Started:
		return "started"
	case Stopping:
		return "stopping"
	case Crashed:
		return "crashed"
	case Frozen:
		return "frozen"
	default:
		return "unknown"
	}
}

// Discovered is what the status prober learned by logging into the
// backend once, stored so join strategies and the status responder don't
// each have to probe it themselves.
type Discovered struct {
	ProtocolVersion      int
	Bucket               mc.Bucket
	CompressionThreshold int
	JoinGame             mc.RawPlayPacket
	HasJoinGame          bool
	ForgeModList         [][]byte
	MaxPlayers           int
}

// LiveStatus is the backend's own status-response fields, as last seen by
// the supervisor's idle-monitor poll. The status responder uses this for
// `motd.from_server` and to report a real max-player count instead of a
// guess while the backend is actually reachable.
type LiveStatus struct {
	Online      int
	Max         int
	Description string
	Favicon     string
}

type getReq struct {
	resp chan snapshot
}

type snapshot struct {
	lifecycle       Lifecycle
	pid             int
	hasPID          bool
	lastActive      time.Time
	discovered      Discovered
	hasDiscovered   bool
	keepOnlineUntil time.Time
	liveStatus      LiveStatus
	hasLiveStatus   bool
	forceOnline     bool
}

// Server is the single owner of a backend's shared state: one goroutine
// serializes every read and write over channels, the way
// worker.BackendWorker owns its own state in the teacher.
type Server struct {
	getCh           chan getReq
	setLifecycleCh  chan Lifecycle
	setPIDCh        chan int
	clearPIDCh      chan struct{}
	touchCh         chan struct{}
	setDiscoveredCh chan Discovered
	keepOnlineCh    chan time.Duration
	setLiveStatusCh chan LiveStatus
	forceOnlineCh   chan bool
	closeCh         chan struct{}

	lifecycleNotify notify.Notifier[Lifecycle]
}

// New starts a Server's owning goroutine and returns a handle to it.
func New() *Server {
	s := &Server{
		getCh:           make(chan getReq),
		setLifecycleCh:  make(chan Lifecycle),
		setPIDCh:        make(chan int),
		clearPIDCh:      make(chan struct{}),
		touchCh:         make(chan struct{}),
		setDiscoveredCh: make(chan Discovered),
		keepOnlineCh:    make(chan time.Duration),
		setLiveStatusCh: make(chan LiveStatus),
		forceOnlineCh:   make(chan bool),
		closeCh:         make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Server) run() {
	var snap snapshot
	snap.lifecycle = Stopped

	for {
		select {
		case req := <-s.getCh:
			req.resp <- snap
		case lc := <-s.setLifecycleCh:
			if lc != snap.lifecycle {
				snap.lifecycle = lc
				if lc == Started {
					snap.lastActive = now()
				}
				s.lifecycleNotify.Publish(lc)
			}
		case pid := <-s.setPIDCh:
			snap.pid = pid
			snap.hasPID = true
		case <-s.clearPIDCh:
			snap.hasPID = false
			snap.pid = 0
		case <-s.touchCh:
			snap.lastActive = now()
		case d := <-s.setDiscoveredCh:
			snap.discovered = d
			snap.hasDiscovered = true
		case ls := <-s.setLiveStatusCh:
			snap.liveStatus = ls
			snap.hasLiveStatus = true
		case fo := <-s.forceOnlineCh:
			snap.forceOnline = fo
		case d := <-s.keepOnlineCh:
			until := now().Add(d)
			if until.After(snap.keepOnlineUntil) {
				snap.keepOnlineUntil = until
			}
		case <-s.closeCh:
			return
		}
	}
}

func now() time.Time { return time.Now() }

func (s *Server) snapshot() snapshot {
	req := getReq{resp: make(chan snapshot, 1)}
	s.getCh <- req
	return <-req.resp
}

// Lifecycle returns the backend's current lifecycle state.
func (s *Server) Lifecycle() Lifecycle {
	return s.snapshot().lifecycle
}

// SetLifecycle transitions to a new lifecycle state, publishing the
// change to any subscriber.
func (s *Server) SetLifecycle(lc Lifecycle) {
	s.setLifecycleCh <- lc
}

// Subscribe returns a channel of lifecycle changes and a cancel func.
func (s *Server) Subscribe() (<-chan Lifecycle, func()) {
	return s.lifecycleNotify.Subscribe()
}

// PID returns the supervised process's PID, if one is running.
func (s *Server) PID() (int, bool) {
	snap := s.snapshot()
	return snap.pid, snap.hasPID
}

func (s *Server) SetPID(pid int) { s.setPIDCh <- pid }
func (s *Server) ClearPID()      { s.clearPIDCh <- struct{}{} }

// Touch records activity, resetting the idle timer the supervisor's
// monitor uses to decide when to sleep the backend.
func (s *Server) Touch() { s.touchCh <- struct{}{} }

// LastActive returns the last time Touch or a Started transition
// happened.
func (s *Server) LastActive() time.Time {
	return s.snapshot().lastActive
}

// KeepOnlineFor extends the minimum-online-time grace period by d from
// now, taking the later of the existing and new deadlines.
func (s *Server) KeepOnlineFor(d time.Duration) { s.keepOnlineCh <- d }

// KeptOnlineUntil reports the current minimum-online-time deadline.
func (s *Server) KeptOnlineUntil() time.Time {
	return s.snapshot().keepOnlineUntil
}

// SetDiscovered stores what the status prober learned about the backend.
func (s *Server) SetDiscovered(d Discovered) { s.setDiscoveredCh <- d }

// Discovered returns the last probed backend info, if any.
func (s *Server) Discovered() (Discovered, bool) {
	snap := s.snapshot()
	return snap.discovered, snap.hasDiscovered
}

// SetLiveStatus records the backend's own status-response fields, as
// last observed by the idle monitor's poll.
func (s *Server) SetLiveStatus(ls LiveStatus) { s.setLiveStatusCh <- ls }

// LiveStatus returns the last polled backend status, if any.
func (s *Server) LiveStatus() (LiveStatus, bool) {
	snap := s.snapshot()
	return snap.liveStatus, snap.hasLiveStatus
}

// SetForceOnline latches or releases the force-online override: while
// latched, ShouldSleep never reports true regardless of how long the
// backend has been idle. Set by external triggers the idle monitor
// can't otherwise see, e.g. a player observed only through an RCON
// "list" check rather than the proxy's own accept path.
func (s *Server) SetForceOnline(forced bool) { s.forceOnlineCh <- forced }

// ForceOnline reports whether the force-online latch is currently set.
func (s *Server) ForceOnline() bool {
	return s.snapshot().forceOnline
}

// ShouldSleep reports whether the backend has been idle long enough to
// stop, given the configured idle timeout. A backend inside its
// minimum-online-time grace period, or with the force-online latch set,
// is never put to sleep.
func (s *Server) ShouldSleep(idleTimeout time.Duration) bool {
	snap := s.snapshot()
	if snap.lifecycle != Started {
		return false
	}
	if snap.forceOnline {
		return false
	}
	if now().Before(snap.keepOnlineUntil) {
		return false
	}
	return now().Sub(snap.lastActive) >= idleTimeout
}

// Close stops the owning goroutine. Not safe to call concurrently with
// any other method.
func (s *Server) Close() { close(s.closeCh) }
