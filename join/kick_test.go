package join

import (
	"context"
	"encoding/json"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/dragonium-labs/lazyvolet/config"
	"github.com/dragonium-labs/lazyvolet/mc"
	"github.com/dragonium-labs/lazyvolet/state"
)

func pipedSession(t *testing.T) (*Session, net.Conn) {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() { server.Close(); client.Close() })
	return &Session{Conn: mc.NewConn(server), Bucket: mc.BucketCurrent, Username: "Alex"}, client
}

func TestKickSendsLoginDisconnect(t *testing.T) {
	sess, client := pipedSession(t)
	clientConn := mc.NewConn(client)

	cfg := config.Default()
	cfg.Join.Kick.Message = "starting: {motd_starting}"
	srv := state.New()
	defer srv.Close()

	done := make(chan error, 1)
	go func() {
		_, err := Kick(context.Background(), cfg, srv, sess)
		done <- err
	}()

	pk, err := clientConn.ReadPacket()
	if err != nil {
		t.Fatalf("ReadPacket: %v", err)
	}
	msg, err := mc.UnmarshalClientBoundLoginDisconnect(pk)
	if err != nil {
		t.Fatalf("UnmarshalClientBoundLoginDisconnect: %v", err)
	}
	var chat struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(msg.Reason), &chat); err != nil {
		t.Fatalf("disconnect reason %q is not a JSON chat component: %v", msg.Reason, err)
	}
	if want := cfg.Motd.Starting; !strings.Contains(chat.Text, want) {
		t.Errorf("disconnect reason %q doesn't contain expanded motd %q", chat.Text, want)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Kick: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Kick did not return")
	}
}
