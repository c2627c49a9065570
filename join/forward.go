package join

import (
	"context"
	"net"

	"github.com/dragonium-labs/lazyvolet/config"
	"github.com/dragonium-labs/lazyvolet/metrics"
	"github.com/dragonium-labs/lazyvolet/state"
	"github.com/pires/go-proxyproto"
)

// Forward opens a socket to the configured queue/lobby backend,
// optionally prefixed with a PROXY v2 header carrying the real client
// address, replays the already-read handshake and LoginStart bytes, then
// splices the two connections. Grounded on
// original_source/src/join/forward.rs for sequencing and
// worker/worker.go's ProxyConnection for the splice itself.
func Forward(ctx context.Context, cfg config.Config, _ *state.Server, sess *Session) (Result, error) {
	return relay(ctx, cfg.Join.Forward.Address, cfg.Join.Forward.SendProxy, sess)
}

// Relay dials addr, optionally prefixing a PROXY v2 header, replays the
// session's captured handshake/LoginStart bytes, then splices the two
// connections until either side closes. Exported for proxy.Handler's
// already-Started fast path, which needs the exact same relay semantics
// without going through a configured join method.
func Relay(ctx context.Context, addr string, sendProxy bool, sess *Session) (Result, error) {
	return relay(ctx, addr, sendProxy, sess)
}

// relay is Relay's shared implementation, also used directly by Forward
// (dials join.forward.address, a separate queue server) and Hold's
// post-wait continuation (dials the real backend once it's Started) so
// all three speak the exact same relay semantics.
func relay(ctx context.Context, addr string, sendProxy bool, sess *Session) (Result, error) {
	dialer := net.Dialer{}
	backend, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return Consumed, err
	}

	client := sess.Conn.Unwrap()

	if sendProxy {
		header := &proxyproto.Header{
			Version:           2,
			Command:           proxyproto.PROXY,
			TransportProtocol: proxyproto.TCPv4,
			SourceAddr:        client.RemoteAddr(),
			DestinationAddr:   backend.RemoteAddr(),
		}
		if _, err := header.WriteTo(backend); err != nil {
			backend.Close()
			return Consumed, err
		}
	}

	if _, err := backend.Write(sess.History); err != nil {
		backend.Close()
		return Consumed, err
	}

	metrics.RelayStarted()
	splice(client, backend)
	metrics.RelayEnded()
	return Consumed, nil
}

func splice(client, backend net.Conn) {
	go func() {
		pipe(backend, client)
		client.Close()
	}()
	pipe(client, backend)
	backend.Close()
}

func pipe(dst, src net.Conn) {
	buf := make([]byte, 0xffff)
	for {
		n, err := src.Read(buf)
		if err != nil {
			return
		}
		if _, err := dst.Write(buf[:n]); err != nil {
			return
		}
	}
}
