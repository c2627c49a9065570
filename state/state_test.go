package state

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/dragonium-labs/lazyvolet/mc"
)

func TestLifecycleDefaultsToStopped(t *testing.T) {
	s := New()
	defer s.Close()

	if got := s.Lifecycle(); got != Stopped {
		t.Errorf("got %v, want Stopped", got)
	}
}

func TestSetLifecyclePublishesToSubscribers(t *testing.T) {
	s := New()
	defer s.Close()

	ch, cancel := s.Subscribe()
	defer cancel()

	s.SetLifecycle(Starting)
	if got := <-ch; got != Starting {
		t.Errorf("got %v, want Starting", got)
	}

	s.SetLifecycle(Started)
	if got := <-ch; got != Started {
		t.Errorf("got %v, want Started", got)
	}
}

func TestPIDRoundTrip(t *testing.T) {
	s := New()
	defer s.Close()

	if _, ok := s.PID(); ok {
		t.Error("expected no PID before SetPID")
	}

	s.SetPID(1234)
	pid, ok := s.PID()
	if !ok || pid != 1234 {
		t.Errorf("got (%d, %v), want (1234, true)", pid, ok)
	}

	s.ClearPID()
	if _, ok := s.PID(); ok {
		t.Error("expected no PID after ClearPID")
	}
}

func TestShouldSleepRespectsLifecycleAndGrace(t *testing.T) {
	s := New()
	defer s.Close()

	if s.ShouldSleep(time.Millisecond) {
		t.Error("a Stopped backend should never be reported as should-sleep")
	}

	s.SetLifecycle(Started)
	s.KeepOnlineFor(50 * time.Millisecond)

	if s.ShouldSleep(time.Nanosecond) {
		t.Error("backend inside its keep-online grace period must not sleep")
	}

	time.Sleep(60 * time.Millisecond)
	if !s.ShouldSleep(time.Nanosecond) {
		t.Error("idle backend past its grace period should sleep")
	}
}

func TestDiscoveredRoundTrip(t *testing.T) {
	s := New()
	defer s.Close()

	if _, ok := s.Discovered(); ok {
		t.Error("expected no Discovered before SetDiscovered")
	}

	d := Discovered{
		ProtocolVersion:      759,
		Bucket:               mc.BucketCurrent,
		CompressionThreshold: 256,
		MaxPlayers:           20,
	}
	s.SetDiscovered(d)

	got, ok := s.Discovered()
	if !ok || got.ProtocolVersion != d.ProtocolVersion || got.Bucket != d.Bucket ||
		got.CompressionThreshold != d.CompressionThreshold || got.MaxPlayers != d.MaxPlayers {
		t.Errorf("got (%+v, %v), want (%+v, true)", got, ok, d)
	}
}

func TestForceOnlineOverridesIdleTimeout(t *testing.T) {
	s := New()
	defer s.Close()

	s.SetLifecycle(Started)

	if s.ForceOnline() {
		t.Error("expected ForceOnline to default to false")
	}

	s.SetForceOnline(true)
	if !s.ForceOnline() {
		t.Error("expected ForceOnline to report true after SetForceOnline(true)")
	}
	if s.ShouldSleep(time.Nanosecond) {
		t.Error("a force-online backend must never be reported as should-sleep")
	}

	s.SetForceOnline(false)
	if s.ShouldSleep(time.Millisecond) != false {
		// lastActive was just set by the Started transition above, so a
		// millisecond idle timeout hasn't elapsed yet.
		t.Error("releasing the latch should fall back to the normal idle check")
	}
}

func TestLiveStatusRoundTrip(t *testing.T) {
	s := New()
	defer s.Close()

	if _, ok := s.LiveStatus(); ok {
		t.Error("expected no LiveStatus before SetLiveStatus")
	}

	want := LiveStatus{Online: 3, Max: 20, Description: "hub", Favicon: "data:image/png;base64,abc"}
	s.SetLiveStatus(want)

	got, ok := s.LiveStatus()
	if !ok {
		t.Fatal("expected LiveStatus after SetLiveStatus")
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LiveStatus mismatch (-want +got):\n%s", diff)
	}
}

func TestTouchResetsLastActive(t *testing.T) {
	s := New()
	defer s.Close()

	before := s.LastActive()
	time.Sleep(time.Millisecond)
	s.Touch()
	after := s.LastActive()

	if !after.After(before) {
		t.Errorf("expected LastActive to advance, before=%v after=%v", before, after)
	}
}
