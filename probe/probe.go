// Package probe logs into the backend once with a synthetic player to
// discover details lazyvolet can't know from config alone: the
// compression threshold the backend actually uses, its JoinGame packet
// for lobby replay, and any Forge mod-list negotiation it expects.
package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/dragonium-labs/lazyvolet/config"
	"github.com/dragonium-labs/lazyvolet/mc"
	"github.com/dragonium-labs/lazyvolet/state"
)

// ProbeUser is the username the probe logs in with. Real players can
// never collide with it since it isn't a name Mojang would issue.
const ProbeUser = "_lazymc_probe"

const (
	connectTimeout  = 30 * time.Second
	onlineTimeout   = 10 * time.Minute
	joinGameTimeout = 20 * time.Second
)

var (
	// ErrOnlineTimeout is returned when the backend doesn't reach the
	// Started lifecycle within onlineTimeout.
	ErrOnlineTimeout = errors.New("probe: timed out waiting for server to come online")
	// ErrStoppedWhileWaiting is returned if the backend leaves Starting
	// for Stopping/Stopped/Crashed before reaching Started.
	ErrStoppedWhileWaiting = errors.New("probe: server stopped before coming online")
)

// Run waits for the backend to finish starting, then connects once to
// record what it discovers into srv. Callers typically invoke this right
// after asking the supervisor to start the backend.
func Run(ctx context.Context, cfg config.Config, srv *state.Server) error {
	if err := waitUntilOnline(ctx, srv); err != nil {
		return err
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	discovered, err := connect(connectCtx, cfg)
	if err != nil {
		return fmt.Errorf("probe: %w", err)
	}

	srv.SetDiscovered(discovered)
	return nil
}

func waitUntilOnline(ctx context.Context, srv *state.Server) error {
	if srv.Lifecycle() == state.Started {
		return nil
	}

	changes, cancel := srv.Subscribe()
	defer cancel()

	ctx, cancelTimeout := context.WithTimeout(ctx, onlineTimeout)
	defer cancelTimeout()

	for {
		select {
		case lc := <-changes:
			switch lc {
			case state.Started:
				return nil
			case state.Starting:
				continue
			default:
				return ErrStoppedWhileWaiting
			}
		case <-ctx.Done():
			return ErrOnlineTimeout
		}
	}
}

// connect opens a login-state connection to the backend as ProbeUser,
// walking the login sequence far enough to capture SetCompression,
// any Forge LoginPluginRequest exchange, LoginSuccess and the first
// play-state packet (JoinGame), then disconnects.
func connect(ctx context.Context, cfg config.Config) (state.Discovered, error) {
	var d state.Discovered

	dialer := net.Dialer{}
	netConn, err := dialer.DialContext(ctx, "tcp", cfg.Server.Address)
	if err != nil {
		return d, err
	}
	defer netConn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		netConn.SetDeadline(deadline)
	}

	conn := mc.NewConn(netConn)

	serverAddr := host(cfg.Server.Address)
	if cfg.Server.Forge {
		serverAddr += mc.ForgeSeparator + "FML2"
	}

	handshake := mc.ServerBoundHandshake{
		ProtocolVersion: cfg.Public.Protocol,
		ServerAddress:   serverAddr,
		ServerPort:      int16(port(cfg.Server.Address)),
		NextState:       int(mc.HandshakeLoginState),
	}
	if err := conn.WritePacket(handshake.Marshal()); err != nil {
		return d, err
	}
	if err := conn.WritePacket(mc.ServerLoginStart{Name: mc.String(ProbeUser)}.Marshal()); err != nil {
		return d, err
	}

	d.ProtocolVersion = cfg.Public.Protocol
	bucket, err := mc.BucketFor(cfg.Public.Protocol)
	if err != nil {
		return d, err
	}
	d.Bucket = bucket
	d.CompressionThreshold = mc.NoCompression

	var forgeModList [][]byte

	for {
		pk, err := conn.ReadPacket()
		if err != nil {
			return d, err
		}

		switch pk.ID {
		case mc.ClientBoundSetCompressionPacketID:
			sc, err := mc.UnmarshalClientBoundSetCompression(pk)
			if err != nil {
				return d, err
			}
			d.CompressionThreshold = int(sc.Threshold)
			conn.SetThreshold(int(sc.Threshold))

		case mc.ClientBoundLoginPluginRequestPacketID:
			req, err := mc.UnmarshalClientBoundLoginPluginRequest(pk)
			if err != nil {
				return d, err
			}
			if cfg.Server.Forge {
				forgeModList = append(forgeModList, append([]byte(nil), req.Data...))
			}
			resp := mc.ServerBoundLoginPluginResponse{MessageID: req.MessageID, Successful: false}
			if err := conn.WritePacket(resp.Marshal()); err != nil {
				return d, err
			}

		case mc.ClientBoundLoginSuccessPacketID:
			joinGame, err := waitForJoinGame(ctx, conn, bucket)
			if err != nil {
				return d, err
			}
			d.JoinGame = joinGame
			d.HasJoinGame = true
			d.ForgeModList = forgeModList
			return d, nil

		default:
			// Login-state packets we don't care about (encryption request
			// on an online-mode backend, for example); lazyvolet only
			// probes offline-mode backends, so this shouldn't occur.
		}
	}
}

func waitForJoinGame(ctx context.Context, conn *mc.Conn, bucket mc.Bucket) (mc.RawPlayPacket, error) {
	deadline := time.Now().Add(joinGameTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	conn.SetDeadline(deadline)

	for {
		pk, err := conn.ReadPacket()
		if err != nil {
			return mc.RawPlayPacket{}, err
		}
		if mc.IsJoinGame(bucket, pk) {
			return mc.CaptureRawPlayPacket(pk), nil
		}
	}
}

func host(addr string) string {
	h, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return h
}

func port(addr string) int {
	_, p, err := net.SplitHostPort(addr)
	if err != nil {
		return 25565
	}
	var n int
	fmt.Sscanf(p, "%d", &n)
	return n
}
