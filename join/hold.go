package join

import (
	"context"
	"time"

	"github.com/dragonium-labs/lazyvolet/config"
	"github.com/dragonium-labs/lazyvolet/state"
)

// Hold blocks the client while the backend starts, sending nothing and
// relying on the client's own TCP send buffer as backpressure. Once the
// backend reaches Started it relays the held connection itself, the same
// way original_source/src/join/hold.rs's occupy() calls
// service::server::route_proxy_queue on success rather than handing
// control back to its caller; Hold only returns Passed (never relays) if
// the server was never starting, stopped/crashed instead, or the client's
// patience (hold.timeout) ran out first.
func Hold(ctx context.Context, cfg config.Config, srv *state.Server, sess *Session) (Result, error) {
	if srv.Lifecycle() != state.Starting {
		return Passed, nil
	}

	changes, cancel := srv.Subscribe()
	defer cancel()

	timer := time.NewTimer(cfg.Join.Hold.TimeoutDuration())
	defer timer.Stop()

	for {
		switch srv.Lifecycle() {
		case state.Started:
			return relay(ctx, cfg.Server.Address, cfg.Server.SendProxyV2, sess)
		case state.Stopping, state.Stopped, state.Crashed:
			return Passed, nil
		}

		select {
		case <-changes:
			continue
		case <-timer.C:
			return Passed, nil
		case <-ctx.Done():
			return Passed, ctx.Err()
		}
	}
}
