package server

import (
	"context"
	"encoding/json"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/dragonium-labs/lazyvolet/mc"
	"github.com/dragonium-labs/lazyvolet/rcon"
)

// pingInterval is how often the monitor polls the backend's status port.
const pingInterval = 2 * time.Second

// statusTimeout bounds a single poll attempt.
const statusTimeout = 8 * time.Second

type polledStatus struct {
	online      int
	max         int
	description string
	favicon     string
}

// pollStatus opens a short-lived status-state connection to addr and
// returns the player counts from its response, or ok=false if the
// backend didn't answer in time.
func pollStatus(addr string, protocol int) (polledStatus, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), statusTimeout)
	defer cancel()

	dialer := net.Dialer{}
	netConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return polledStatus{}, false
	}
	defer netConn.Close()
	netConn.SetDeadline(time.Now().Add(statusTimeout))

	conn := mc.NewConn(netConn)

	host, port := splitHostPort(addr)
	handshake := mc.ServerBoundHandshake{
		ProtocolVersion: protocol,
		ServerAddress:   host,
		ServerPort:      int16(port),
		NextState:       int(mc.HandshakeStatusState),
	}
	if err := conn.WritePacket(handshake.Marshal()); err != nil {
		return polledStatus{}, false
	}
	if err := conn.WritePacket(mc.ServerBoundRequest{}.Marshal()); err != nil {
		return polledStatus{}, false
	}

	pk, err := conn.ReadPacket()
	if err != nil {
		return polledStatus{}, false
	}
	resp, err := mc.UnmarshalClientBoundResponse(pk)
	if err != nil {
		return polledStatus{}, false
	}

	var body struct {
		Players struct {
			Online int `json:"online"`
			Max    int `json:"max"`
		} `json:"players"`
		Description struct {
			Text string `json:"text"`
		} `json:"description"`
		Favicon string `json:"favicon"`
	}
	if err := json.Unmarshal([]byte(resp.JSONResponse), &body); err != nil {
		return polledStatus{}, false
	}

	return polledStatus{
		online:      body.Players.Online,
		max:         body.Players.Max,
		description: body.Description.Text,
		favicon:     body.Favicon,
	}, true
}

// rconPlayerTimeout bounds a single RCON player-list check.
const rconPlayerTimeout = 4 * time.Second

// pollRCONPlayers asks the backend over RCON how many players are
// online via the vanilla "list" command, parsing the leading count out
// of its "There are N of a max of M players online: ..." response.
// This is the "RCON-observed player activity" signal the status-port
// poll alone can't provide, e.g. for a backend that hides its player
// count from unauthenticated status responses. Returns ok=false if
// RCON is unreachable, fails to authenticate, or the response can't be
// parsed; callers should leave force-online untouched rather than treat
// that as "no players".
func pollRCONPlayers(addr, password string, sendProxyV2 bool) (int, bool) {
	client, err := rcon.DialTimeout(addr, password, rconPlayerTimeout, sendProxyV2, nil)
	if err != nil {
		return 0, false
	}
	defer client.Close()

	body, err := client.Cmd("list")
	if err != nil {
		return 0, false
	}

	fields := strings.Fields(body)
	if len(fields) < 3 {
		return 0, false
	}
	n, err := strconv.Atoi(fields[2])
	if err != nil {
		return 0, false
	}
	return n, true
}

func splitHostPort(addr string) (string, int) {
	h, p, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 25565
	}
	n, err := strconv.Atoi(p)
	if err != nil {
		return h, 25565
	}
	return h, n
}
