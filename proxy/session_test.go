package proxy

import (
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/dragonium-labs/lazyvolet/banlist"
	"github.com/dragonium-labs/lazyvolet/config"
	"github.com/dragonium-labs/lazyvolet/mc"
	"github.com/dragonium-labs/lazyvolet/server"
	"github.com/dragonium-labs/lazyvolet/state"
)

func testHandler(t *testing.T, cfg config.Config) (*Handler, *state.Server) {
	t.Helper()
	st := state.New()
	t.Cleanup(st.Close)
	sup := server.New(cfg, st, nil)
	return &Handler{Config: cfg, State: st, Supervisor: sup}, st
}

func handshakePacket(cfg config.Config, nextState int) mc.Packet {
	return mc.ServerBoundHandshake{
		ProtocolVersion: cfg.Public.Protocol,
		ServerAddress:   "localhost",
		ServerPort:      25565,
		NextState:       nextState,
	}.Marshal()
}

func TestStatusRespondsSleepingWithoutWaking(t *testing.T) {
	cfg := config.Default()
	h, st := testHandler(t, cfg)

	server, client := net.Pipe()
	defer client.Close()
	go h.Handle(server)

	clientConn := mc.NewConn(client)
	clientConn.WritePacket(handshakePacket(cfg, int(mc.HandshakeStatusState)))
	clientConn.WritePacket(mc.ServerBoundRequest{}.Marshal())

	pk, err := clientConn.ReadPacket()
	if err != nil {
		t.Fatalf("ReadPacket: %v", err)
	}
	resp, err := mc.UnmarshalClientBoundResponse(pk)
	if err != nil {
		t.Fatalf("UnmarshalClientBoundResponse: %v", err)
	}
	if !strings.Contains(string(resp.JSONResponse), cfg.Motd.Sleeping[:10]) {
		t.Errorf("status description missing sleeping motd: %s", resp.JSONResponse)
	}

	clientConn.WritePacket(mc.ServerBoundPing{Payload: 1234}.Marshal())
	pongPk, err := clientConn.ReadPacket()
	if err != nil {
		t.Fatalf("reading pong: %v", err)
	}
	pong, err := mc.UnmarshalClientBoundPong(pongPk)
	if err != nil {
		t.Fatalf("UnmarshalClientBoundPong: %v", err)
	}
	if pong.Payload != 1234 {
		t.Errorf("pong payload = %v, want 1234", pong.Payload)
	}

	if got := st.Lifecycle(); got != state.Stopped {
		t.Errorf("status request should never wake the backend, lifecycle = %v", got)
	}
}

func TestLockoutKicksBeforeWaking(t *testing.T) {
	cfg := config.Default()
	cfg.Lockout.Enabled = true
	cfg.Lockout.Message = "locked down"
	h, st := testHandler(t, cfg)

	server, client := net.Pipe()
	defer client.Close()
	go h.Handle(server)

	clientConn := mc.NewConn(client)
	clientConn.WritePacket(handshakePacket(cfg, int(mc.HandshakeLoginState)))
	clientConn.WritePacket(mc.ServerLoginStart{Name: mc.String("Steve")}.Marshal())

	pk, err := clientConn.ReadPacket()
	if err != nil {
		t.Fatalf("ReadPacket: %v", err)
	}
	msg, err := mc.UnmarshalClientBoundLoginDisconnect(pk)
	if err != nil {
		t.Fatalf("UnmarshalClientBoundLoginDisconnect: %v", err)
	}
	if !strings.Contains(string(msg.Reason), "locked down") {
		t.Errorf("disconnect reason %q doesn't mention lockout message", msg.Reason)
	}

	time.Sleep(20 * time.Millisecond)
	if got := st.Lifecycle(); got != state.Stopped {
		t.Errorf("lockout must not start the backend, lifecycle = %v", got)
	}
}

func TestLoginRelaysDirectlyWhenAlreadyStarted(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	backendGotHistory := make(chan struct{}, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		mcConn := mc.NewConn(conn)
		if _, err := mcConn.ReadPacket(); err != nil {
			return
		}
		if _, err := mcConn.ReadPacket(); err != nil {
			return
		}
		backendGotHistory <- struct{}{}
	}()

	cfg := config.Default()
	cfg.Server.Address = ln.Addr().String()
	h, st := testHandler(t, cfg)
	st.SetLifecycle(state.Started)

	clientNetConn, client := net.Pipe()
	defer client.Close()
	go h.Handle(clientNetConn)

	clientConn := mc.NewConn(client)
	clientConn.WritePacket(handshakePacket(cfg, int(mc.HandshakeLoginState)))
	clientConn.WritePacket(mc.ServerLoginStart{Name: mc.String("Alex")}.Marshal())

	select {
	case <-backendGotHistory:
	case <-time.After(time.Second):
		t.Fatal("backend never received replayed handshake/login bytes")
	}
}

func TestLoginTouchesStateBeforeWaking(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Command = "true"
	cfg.Server.Directory = t.TempDir()
	cfg.Advanced.RewriteServerProperties = false
	h, st := testHandler(t, cfg)

	before := st.LastActive()
	time.Sleep(time.Millisecond)

	server, client := net.Pipe()
	defer client.Close()
	go h.Handle(server)

	clientConn := mc.NewConn(client)
	clientConn.WritePacket(handshakePacket(cfg, int(mc.HandshakeLoginState)))
	clientConn.WritePacket(mc.ServerLoginStart{Name: mc.String("Steve")}.Marshal())

	deadline := time.After(time.Second)
	for {
		if st.LastActive().After(before) {
			break
		}
		select {
		case <-time.After(5 * time.Millisecond):
		case <-deadline:
			t.Fatal("a login attempt never touched state, last_active never advanced")
		}
	}
}

func TestBannedIPGetsSilentClose(t *testing.T) {
	dir := t.TempDir()
	if err := writeTestBanFile(dir, `[{"ip":"127.0.0.1","expires":"forever"}]`); err != nil {
		t.Fatal(err)
	}
	bans := banlist.New()
	if err := bans.Load(dir); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Server.DropBannedIPs = true
	h, _ := testHandler(t, cfg)
	h.Bans = bans

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
		h.Handle(conn)
	}()

	client, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	buf := make([]byte, 1)
	client.SetReadDeadline(time.Now().Add(time.Second))
	if _, err := client.Read(buf); err == nil {
		t.Error("expected connection to be closed without any bytes written")
	}
}

func writeTestBanFile(dir, contents string) error {
	return os.WriteFile(dir+"/"+banlist.FileName, []byte(contents), 0o644)
}
