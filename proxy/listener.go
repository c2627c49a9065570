// Package proxy is the client-facing half of lazyvolet: it accepts
// connections, speaks just enough of the handshake/status/login states to
// decide what a client wants, and either answers it directly (status),
// hands it to a join strategy while the backend wakes, or relays it
// straight through once the backend is already running. Grounded on
// conn/listener.go and worker/worker.go's accept-loop/dispatch shape,
// rebuilt around this module's single-backend state.Server instead of a
// per-domain backend registry.
package proxy

import (
	"errors"
	"net"
)

// Logf is how the accept loop and its per-connection handler report
// errors; logging/ supplies an implementation tagged with a subsystem
// prefix, matching server.Logf's shape so cli/cli.go can share one
// adapter across both.
type Logf func(format string, args ...any)

// Serve accepts connections off ln until it's closed, handing each one to
// its own goroutine. Mirrors conn/listener.go's Serve/worker/run.go's
// serveListener accept loop.
func Serve(ln net.Listener, handle func(net.Conn), logf Logf) {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			logf("accept error: %v", err)
			continue
		}
		go handle(conn)
	}
}
