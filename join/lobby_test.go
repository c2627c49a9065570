package join

import (
	"context"
	"testing"
	"time"

	"github.com/dragonium-labs/lazyvolet/config"
	"github.com/dragonium-labs/lazyvolet/mc"
	"github.com/dragonium-labs/lazyvolet/state"
)

func TestLobbyPassesWithoutProbedJoinGame(t *testing.T) {
	sess, _ := pipedSession(t)
	cfg := config.Default()
	srv := state.New()
	defer srv.Close()

	result, err := Lobby(context.Background(), cfg, srv, sess)
	if err != nil {
		t.Fatal(err)
	}
	if result != Passed {
		t.Errorf("result = %v, want Passed", result)
	}
}

func TestLobbySendsLoginAndJoinGameThenDisconnectsWhenStarted(t *testing.T) {
	sess, client := pipedSession(t)
	clientConn := mc.NewConn(client)

	cfg := config.Default()
	cfg.Join.Lobby.ReadySound = ""

	srv := state.New()
	defer srv.Close()
	srv.SetDiscovered(state.Discovered{
		HasJoinGame: true,
		JoinGame:    mc.RawPlayPacket{ID: 0x24, Data: []byte{1, 2, 3}},
	})

	resultCh := make(chan Result, 1)
	go func() {
		result, err := Lobby(context.Background(), cfg, srv, sess)
		if err != nil {
			t.Error(err)
		}
		resultCh <- result
	}()

	loginPk, err := clientConn.ReadPacket()
	if err != nil {
		t.Fatalf("reading login success: %v", err)
	}
	if _, err := mc.UnmarshalClientBoundLoginSuccess(loginPk); err != nil {
		t.Fatalf("UnmarshalClientBoundLoginSuccess: %v", err)
	}

	joinPk, err := clientConn.ReadPacket()
	if err != nil {
		t.Fatalf("reading join game: %v", err)
	}
	if joinPk.ID != 0x24 {
		t.Errorf("join game packet id = %#x, want 0x24", joinPk.ID)
	}

	if _, err := clientConn.ReadPacket(); err != nil {
		t.Fatalf("reading position and look: %v", err)
	}

	srv.SetLifecycle(state.Started)

	disconnectPk, err := clientConn.ReadPacket()
	if err != nil {
		t.Fatalf("reading disconnect: %v", err)
	}
	const bucketCurrentDisconnectPlayID = 0x19
	if disconnectPk.ID != bucketCurrentDisconnectPlayID {
		t.Errorf("disconnect packet id = %#x, want %#x", disconnectPk.ID, bucketCurrentDisconnectPlayID)
	}
	var reason mc.Chat
	if err := disconnectPk.Scan(&reason); err != nil {
		t.Fatalf("scanning disconnect reason: %v", err)
	}
	if reason == "" {
		t.Error("disconnect reason is empty")
	}

	select {
	case result := <-resultCh:
		if result != Consumed {
			t.Errorf("result = %v, want Consumed", result)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Lobby did not return")
	}
}
