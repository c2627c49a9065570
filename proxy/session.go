package proxy

import (
	"context"
	"net"

	"github.com/dragonium-labs/lazyvolet/banlist"
	"github.com/dragonium-labs/lazyvolet/config"
	"github.com/dragonium-labs/lazyvolet/join"
	"github.com/dragonium-labs/lazyvolet/mc"
	"github.com/dragonium-labs/lazyvolet/server"
	"github.com/dragonium-labs/lazyvolet/state"
)

// Handler dispatches accepted connections: ban check, handshake parse,
// status answer or login pipeline. One Handler serves every connection
// for a single configured backend, mirroring conn/listener.go's
// ReadConnection but driven by state.Server instead of a per-domain
// worker registry.
type Handler struct {
	Config     config.Config
	State      *state.Server
	Supervisor *server.Supervisor
	Bans       *banlist.List
	Logf       Logf
}

func (h *Handler) logf(format string, args ...any) {
	if h.Logf == nil {
		return
	}
	h.Logf(format, args...)
}

// Handle runs the client state machine for one accepted connection to
// completion, closing it before returning.
func (h *Handler) Handle(netConn net.Conn) {
	defer netConn.Close()

	if h.Config.Server.DropBannedIPs && h.Bans != nil && h.isBanned(netConn) {
		return
	}

	conn := mc.NewConn(netConn)

	handshakePacket, err := conn.ReadPacket()
	if err != nil {
		return
	}
	handshake, err := mc.UnmarshalServerBoundHandshake(handshakePacket)
	if err != nil {
		return
	}

	switch {
	case handshake.IsStatusRequest():
		h.serveStatus(conn)
	case handshake.IsLoginRequest():
		h.serveLogin(conn, handshake, handshakePacket)
	default:
	}
}

func (h *Handler) isBanned(netConn net.Conn) bool {
	host, _, err := net.SplitHostPort(netConn.RemoteAddr().String())
	if err != nil {
		return false
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return h.Bans.IsBanned(ip)
}

func (h *Handler) serveStatus(conn *mc.Conn) {
	if _, err := conn.ReadPacket(); err != nil {
		return
	}

	name, protocol, max, online, description, favicon := buildStatus(h.Config, h.State)
	resp := mc.StatusResponse{
		Name:        name,
		Protocol:    protocol,
		MaxPlayers:  max,
		Online:      online,
		Description: description,
		Favicon:     favicon,
	}
	if err := conn.WritePacket(resp.Marshal()); err != nil {
		return
	}

	pingPk, err := conn.ReadPacket()
	if err != nil {
		return
	}
	conn.WritePacket(pingPk)
}

func (h *Handler) serveLogin(conn *mc.Conn, handshake mc.ServerBoundHandshake, handshakePacket mc.Packet) {
	loginPacket, err := conn.ReadPacket()
	if err != nil {
		return
	}
	loginStart, err := mc.UnmarshalServerBoundLoginStart(loginPacket)
	if err != nil {
		return
	}

	if h.Config.Lockout.Enabled {
		h.kick(conn, h.Config.Lockout.Message)
		return
	}

	h.State.Touch()
	h.Supervisor.Wake()

	bucket, err := mc.BucketFor(handshake.ProtocolVersion)
	if err != nil {
		h.kick(conn, h.Config.Motd.Starting)
		return
	}

	history := append(handshakePacket.Marshal(), loginPacket.Marshal()...)
	sess := &join.Session{
		Conn:     conn,
		Protocol: handshake.ProtocolVersion,
		Bucket:   bucket,
		Username: string(loginStart.Name),
		History:  history,
	}

	ctx := context.Background()

	if h.State.Lifecycle() == state.Started {
		if _, err := join.Relay(ctx, h.Config.Server.Address, h.Config.Server.SendProxyV2, sess); err != nil {
			h.logf("relay to backend failed: %v", err)
		}
		return
	}

	result, err := join.Occupy(ctx, h.Config, h.State, sess)
	if err != nil {
		h.logf("join strategy error: %v", err)
		return
	}
	if result == join.Passed {
		h.kick(conn, h.Config.Motd.Starting)
	}
}

func (h *Handler) kick(conn *mc.Conn, message string) {
	pk := mc.ClientBoundLoginDisconnect{Reason: mc.ChatText(message)}
	conn.WritePacket(pk.Marshal())
}
