// Package join implements the strategies that occupy a client whose
// login request arrived while the backend isn't ready to relay yet:
// Hold, Kick, Forward and Lobby. Grounded on
// original_source/src/join/{hold,kick,forward,lobby}.rs for sequencing,
// adapted to this module's channel-actor state.Server and mc/ codec.
package join

import (
	"context"

	"github.com/dragonium-labs/lazyvolet/config"
	"github.com/dragonium-labs/lazyvolet/mc"
	"github.com/dragonium-labs/lazyvolet/metrics"
	"github.com/dragonium-labs/lazyvolet/state"
)

// Result mirrors the original's MethodResult: a strategy either consumes
// the client (answers it and closes or hands it off) or passes it on to
// the next configured method.
type Result int

const (
	Consumed Result = iota
	Passed
)

// Session is what a join strategy needs about the client connection that
// just sent LoginStart: the live Conn to answer on, the protocol's wire
// bucket, and the raw handshake+LoginStart bytes for strategies that need
// to replay them against the real backend (Forward) or a synthetic one
// (Lobby never needs this, but Hold does once it hands off to the relay).
type Session struct {
	Conn     *mc.Conn
	Protocol int
	Bucket   mc.Bucket
	Username string
	History  []byte
}

// Method is one entry in [join].methods.
type Method func(ctx context.Context, cfg config.Config, srv *state.Server, sess *Session) (Result, error)

var methods = map[string]Method{
	"hold":    Hold,
	"kick":    Kick,
	"forward": Forward,
	"lobby":   Lobby,
}

// Occupy runs the configured methods in order until one consumes the
// client, returning Passed if every configured method passes (the caller
// should then disconnect with a default message).
func Occupy(ctx context.Context, cfg config.Config, srv *state.Server, sess *Session) (Result, error) {
	for _, name := range cfg.Join.Methods {
		method, ok := methods[name]
		if !ok {
			continue
		}
		result, err := method(ctx, cfg, srv, sess)
		if err != nil {
			return Passed, err
		}
		if result == Consumed {
			metrics.RecordJoinOutcome(name, "consumed")
			return Consumed, nil
		}
		metrics.RecordJoinOutcome(name, "passed")
	}
	return Passed, nil
}
