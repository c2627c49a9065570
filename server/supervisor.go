// Package server supervises the backend Minecraft server process: starts
// and stops it, watches it for crashes, freezes it instead of stopping
// when configured, and polls its status port to drive the idle timer.
// Grounded on original_source/src/server.rs's Server/State machine and
// original_source/src/monitor.rs's poll loop, built the way the teacher
// structures a single-owner channel actor (worker/backend.go).
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/dragonium-labs/lazyvolet/config"
	"github.com/dragonium-labs/lazyvolet/metrics"
	"github.com/dragonium-labs/lazyvolet/probe"
	"github.com/dragonium-labs/lazyvolet/rcon"
	"github.com/dragonium-labs/lazyvolet/state"
)

// rconCooldown is the minimum time between RCON stop attempts. Vanilla's
// RCON implementation is flaky enough under load that retrying too
// eagerly just makes things worse.
const rconCooldown = 15 * time.Second

// Logf is how the supervisor reports backend output and its own
// diagnostics; logging/ supplies an implementation tagged with a
// subsystem prefix.
type Logf func(format string, args ...any)

// Supervisor owns the backend child process and the state.Server that
// describes it.
type Supervisor struct {
	cfg   config.Config
	state *state.Server
	logf  Logf

	mu           sync.Mutex
	proc         *os.Process
	rconLastStop time.Time

	doneCh chan struct{}
}

// setLifecycle transitions state and records the transition, the one
// choke point every lifecycle change in this package goes through so
// metrics never drift out of sync with state.Server.
func (s *Supervisor) setLifecycle(lc state.Lifecycle) {
	s.state.SetLifecycle(lc)
	metrics.RecordLifecycleTransition(lc.String())
}

// New builds a Supervisor. It does not start the backend; call Wake.
func New(cfg config.Config, st *state.Server, logf Logf) *Supervisor {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Supervisor{cfg: cfg, state: st, logf: logf, doneCh: make(chan struct{})}
}

// Wake starts the backend if it's stopped, or unfreezes it if frozen.
// Returns false if the backend was already starting/started/stopping.
func (s *Supervisor) Wake() bool {
	switch s.state.Lifecycle() {
	case state.Frozen:
		s.mu.Lock()
		proc := s.proc
		s.mu.Unlock()
		if err := unfreeze(proc); err != nil {
			s.logf("failed to unfreeze server: %v", err)
			return false
		}
		s.setLifecycle(state.Started)
		return true

	case state.Stopped:
		s.setLifecycle(state.Starting)
		go s.runProcess()
		s.scheduleStartTimeout()
		if s.cfg.Server.ProbeOnStart {
			go s.probeOnStart()
		}
		return true

	default:
		return false
	}
}

// probeOnStart runs a one-shot login probe once the backend reaches
// Started, populating state.Discovered so join.Lobby has a JoinGame
// packet to replay. Failures are logged, not fatal: Hold and Kick don't
// need Discovered at all.
func (s *Supervisor) probeOnStart() {
	if err := probe.Run(context.Background(), s.cfg, s.state); err != nil {
		s.logf("probe failed: %v", err)
	}
}

func (s *Supervisor) runProcess() {
	if s.cfg.Advanced.RewriteServerProperties {
		if err := rewriteServerProperties(s.cfg); err != nil {
			s.logf("failed to rewrite server.properties: %v", err)
		}
	}

	result := spawn(s.cfg.Server.Command, s.cfg.Server.Directory, s.logf, func(proc *os.Process) {
		s.mu.Lock()
		s.proc = proc
		s.mu.Unlock()
		s.state.SetPID(proc.Pid)
	})

	s.mu.Lock()
	s.proc = nil
	s.mu.Unlock()
	s.state.ClearPID()

	wasStarted := s.state.Lifecycle() == state.Started
	s.setLifecycle(state.Stopped)

	if result.err != nil {
		s.logf("server process ended: %v", result.err)
	}

	if result.crashed && wasStarted && s.cfg.Server.WakeOnCrash {
		s.logf("server crashed, restarting")
		s.Wake()
	}
}

// RequestStop asks the backend to shut down, trying freeze, then RCON,
// then SIGTERM, in that priority order, and finally escalating to
// SIGKILL after the configured stop timeout. Returns once a stop method
// has been attempted (not once the process has actually exited).
func (s *Supervisor) RequestStop(ctx context.Context) error {
	if s.cfg.Server.FreezeProcess && freezeSupported {
		s.mu.Lock()
		proc := s.proc
		s.mu.Unlock()
		if err := freeze(proc); err == nil {
			s.setLifecycle(state.Frozen)
			return nil
		}
	}

	s.setLifecycle(state.Stopping)

	if s.cfg.RCON.Enabled {
		if err := s.stopViaRCON(ctx); err == nil {
			s.scheduleKill()
			return nil
		} else {
			s.logf("rcon stop failed: %v", err)
		}
	}

	s.mu.Lock()
	proc := s.proc
	s.mu.Unlock()
	if err := terminate(proc); err != nil {
		return fmt.Errorf("server: no stop method available: %w", err)
	}
	s.scheduleKill()
	return nil
}

func (s *Supervisor) stopViaRCON(ctx context.Context) error {
	s.mu.Lock()
	cooledDown := time.Since(s.rconLastStop) >= rconCooldown
	s.mu.Unlock()
	if !cooledDown {
		return errors.New("rcon in cooldown")
	}

	client, err := rcon.Dial(ctx, s.rconAddr(), s.cfg.RCON.Password, s.cfg.RCON.SendProxyV2, nil)
	if err != nil {
		return err
	}
	defer client.Close()

	if _, err := client.Cmd("stop"); err != nil {
		return err
	}

	s.mu.Lock()
	s.rconLastStop = time.Now()
	s.mu.Unlock()
	return nil
}

// scheduleStartTimeout force-kills a backend that fails to reach Started
// within cfg.Server.StartTimeoutDuration(), mirroring
// original_source/src/server.rs's kill_at deadline for the Starting
// state. Without this, a misconfigured server.command (or a backend
// that never opens its status port) leaves lifecycle stuck at Starting
// forever, since Wake only starts a backend from Stopped. Only a
// successful status poll in tick moves Starting to Started; RCON is not
// used to detect a finished start.
func (s *Supervisor) scheduleStartTimeout() {
	timeout := s.cfg.Server.StartTimeoutDuration()
	if timeout <= 0 {
		return
	}
	go func() {
		select {
		case <-time.After(timeout):
		case <-s.doneCh:
			return
		}
		if s.state.Lifecycle() != state.Starting {
			return
		}
		s.logf("server failed to start within %s, giving up", timeout)
		s.setLifecycle(state.Stopping)
		s.mu.Lock()
		proc := s.proc
		s.mu.Unlock()
		forceKill(proc)
	}()
}

func (s *Supervisor) scheduleKill() {
	timeout := s.cfg.Server.StopTimeoutDuration()
	if timeout <= 0 {
		return
	}
	go func() {
		select {
		case <-time.After(timeout):
		case <-s.doneCh:
			return
		}
		if s.state.Lifecycle() != state.Stopping {
			return
		}
		s.mu.Lock()
		proc := s.proc
		s.mu.Unlock()
		s.logf("stop timed out, force killing server")
		forceKill(proc)
	}()
}

// rconAddr is the backend's RCON endpoint: its host with the configured
// RCON port, shared by both the stop path and the monitor's player
// check so there's one place that builds it.
func (s *Supervisor) rconAddr() string {
	return net.JoinHostPort(hostOf(s.cfg.Server.Address), strconv.Itoa(s.cfg.RCON.Port))
}

func hostOf(addr string) string {
	h, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return h
}

// RunMonitor polls the backend's status port every pingInterval, feeding
// what it learns into state and sleeping the backend once idle. It runs
// until ctx is cancelled.
func (s *Supervisor) RunMonitor(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Supervisor) tick(ctx context.Context) {
	status, ok := pollStatus(s.cfg.Server.Address, s.cfg.Public.Protocol)

	switch s.state.Lifecycle() {
	case state.Stopped, state.Starting:
		if ok {
			s.setLifecycle(state.Started)
			s.state.KeepOnlineFor(s.cfg.Time.MinimumOnlineTimeDuration())
		}
	case state.Started:
		if !ok {
			s.setLifecycle(state.Stopped)
			return
		}
	default:
		return
	}

	if ok {
		s.state.SetLiveStatus(state.LiveStatus{
			Online:      status.online,
			Max:         status.max,
			Description: status.description,
			Favicon:     status.favicon,
		})
		if status.online > 0 {
			s.state.Touch()
		}
	}

	if s.state.Lifecycle() == state.Started && s.cfg.RCON.Enabled {
		if n, rok := pollRCONPlayers(s.rconAddr(), s.cfg.RCON.Password, s.cfg.RCON.SendProxyV2); rok {
			s.state.SetForceOnline(n > 0)
			if n > 0 {
				s.state.Touch()
			}
		}
	}

	if s.state.Lifecycle() == state.Started && s.state.ShouldSleep(s.cfg.Time.SleepAfterDuration()) {
		s.logf("server has been idle, sleeping")
		if err := s.RequestStop(ctx); err != nil {
			s.logf("failed to stop idle server: %v", err)
		}
	}
}

// Close stops any pending kill-escalation timers. It does not stop the
// backend process itself.
func (s *Supervisor) Close() { close(s.doneCh) }
