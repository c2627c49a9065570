package join

import (
	"context"
	"time"

	"github.com/dragonium-labs/lazyvolet/config"
	"github.com/dragonium-labs/lazyvolet/mc"
	"github.com/dragonium-labs/lazyvolet/state"
)

// keepAliveInterval matches original_source/src/lobby.rs's KEEP_ALIVE_INTERVAL.
const keepAliveInterval = 10 * time.Second

// messageInterval is how often the lobby re-sends its "still starting"
// overlay message while the client waits.
const messageInterval = 5 * time.Second

// Lobby emulates a minimal play-state server so the client sees a live
// world instead of a closed connection while the backend starts.
// Grounded on original_source/src/join/lobby.rs and lobby.rs for
// sequencing; packet shapes come from mc/packet_play.go. Always consumes
// once it decides to engage; falls through (Passed) if the backend hasn't
// been probed yet, since there's nothing to replay as JoinGame.
func Lobby(ctx context.Context, cfg config.Config, srv *state.Server, sess *Session) (Result, error) {
	discovered, ok := srv.Discovered()
	if !ok || !discovered.HasJoinGame {
		return Passed, nil
	}

	if discovered.CompressionThreshold > 0 {
		pk := mc.ClientBoundSetCompression{Threshold: mc.VarInt(discovered.CompressionThreshold)}
		if err := sess.Conn.WritePacket(pk.Marshal()); err != nil {
			return Consumed, err
		}
		sess.Conn.SetThreshold(discovered.CompressionThreshold)
	}

	success := mc.ClientBoundLoginSuccess{
		UUID:     mc.String(mc.OfflinePlayerUUID(sess.Username)),
		Username: mc.String(sess.Username),
	}
	if err := sess.Conn.WritePacket(success.Marshal()); err != nil {
		return Consumed, err
	}

	if err := sess.Conn.WritePacket(discovered.JoinGame.Marshal()); err != nil {
		return Consumed, err
	}

	pos := mc.ClientBoundPlayerPositionAndLook{X: 0.5, Y: 64, Z: 0.5, Yaw: 0, Pitch: 0, Flags: 0}
	if err := sess.Conn.WritePacket(pos.Marshal(sess.Bucket)); err != nil {
		return Consumed, err
	}

	serveLobby(ctx, cfg, srv, sess)
	return Consumed, nil
}

// serveLobby keeps the client occupied until the backend is Started (then
// disconnects it to reconnect for real), join.lobby.timeout elapses (then
// closes the connection), or the connection dies. Inbound packets,
// KeepAlive echoes included, are read and discarded unchecked; keep-alives
// and the status message keep going out whatever the client sends.
func serveLobby(ctx context.Context, cfg config.Config, srv *state.Server, sess *Session) {
	changes, cancel := srv.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, err := sess.Conn.ReadPacket(); err != nil {
				return
			}
		}
	}()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()
	message := time.NewTicker(messageInterval)
	defer message.Stop()
	timeout := time.NewTimer(cfg.Join.Lobby.TimeoutDuration())
	defer timeout.Stop()

	var keepAliveID int64
	for {
		if srv.Lifecycle() == state.Started {
			announceReady(cfg, sess)
			return
		}

		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-changes:
			continue
		case <-timeout.C:
			sess.Conn.Close()
			return
		case <-keepAlive.C:
			keepAliveID++
			pk := mc.ClientBoundKeepAlive{KeepAliveID: mc.Long(keepAliveID)}
			if err := sess.Conn.WritePacket(pk.Marshal(sess.Bucket)); err != nil {
				return
			}
		case <-message.C:
			msg := formatMessage(cfg.Join.Lobby.Message, cfg, srv)
			pk := mc.ClientBoundSystemChat{Content: mc.ChatText(msg), Overlay: false}
			if err := sess.Conn.WritePacket(pk.Marshal(sess.Bucket)); err != nil {
				return
			}
		}
	}
}

func announceReady(cfg config.Config, sess *Session) {
	if cfg.Join.Lobby.ReadySound != "" {
		sound := mc.ClientBoundNamedSoundEffect{
			SoundName:     mc.String(cfg.Join.Lobby.ReadySound),
			SoundCategory: 0,
			X:             0, Y: 64, Z: 0,
			Volume: 1, Pitch: 1,
		}
		sess.Conn.WritePacket(sound.Marshal(sess.Bucket))
	}

	disconnect := mc.ClientBoundDisconnectPlay{Reason: mc.ChatText("Server is ready, please reconnect!")}
	sess.Conn.WritePacket(disconnect.Marshal(sess.Bucket))
	sess.Conn.Close()
}
