package join

import (
	"context"

	"github.com/dragonium-labs/lazyvolet/config"
	"github.com/dragonium-labs/lazyvolet/mc"
	"github.com/dragonium-labs/lazyvolet/state"
)

// Kick immediately disconnects the client with a templated message,
// grounded on original_source/src/join/kick.rs. Always consumes.
func Kick(_ context.Context, cfg config.Config, srv *state.Server, sess *Session) (Result, error) {
	msg := formatMessage(cfg.Join.Kick.Message, cfg, srv)
	pk := mc.ClientBoundLoginDisconnect{Reason: mc.ChatText(msg)}
	err := sess.Conn.WritePacket(pk.Marshal())
	sess.Conn.Close()
	return Consumed, err
}
