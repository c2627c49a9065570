package join

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dragonium-labs/lazyvolet/config"
	"github.com/dragonium-labs/lazyvolet/state"
)

func TestHoldPassesWhenServerNotStarting(t *testing.T) {
	sess, _ := pipedSession(t)
	cfg := config.Default()
	srv := state.New()
	defer srv.Close()

	result, err := Hold(context.Background(), cfg, srv, sess)
	if err != nil {
		t.Fatal(err)
	}
	if result != Passed {
		t.Errorf("result = %v, want Passed", result)
	}
}

func TestHoldConsumesOnceServerStarts(t *testing.T) {
	// Hold relays to cfg.Server.Address once Started, so a backend has to
	// accept that connection; closing it right away ends the relay.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		conn.Close()
	}()

	sess, _ := pipedSession(t)
	cfg := config.Default()
	cfg.Server.Address = ln.Addr().String()
	cfg.Join.Hold.Timeout = 5
	srv := state.New()
	defer srv.Close()
	srv.SetLifecycle(state.Starting)

	done := make(chan Result, 1)
	go func() {
		result, err := Hold(context.Background(), cfg, srv, sess)
		if err != nil {
			t.Error(err)
		}
		done <- result
	}()

	time.Sleep(50 * time.Millisecond)
	srv.SetLifecycle(state.Started)

	select {
	case result := <-done:
		if result != Consumed {
			t.Errorf("result = %v, want Consumed", result)
		}
	case <-time.After(time.Second):
		t.Fatal("Hold did not return")
	}
}

func TestHoldTimesOut(t *testing.T) {
	sess, _ := pipedSession(t)
	cfg := config.Default()
	cfg.Join.Hold.Timeout = 0
	srv := state.New()
	defer srv.Close()
	srv.SetLifecycle(state.Starting)

	result, err := Hold(context.Background(), cfg, srv, sess)
	if err != nil {
		t.Fatal(err)
	}
	if result != Passed {
		t.Errorf("result = %v, want Passed", result)
	}
}
