package mc

import "errors"

// Bucket groups protocol versions that share wire-compatible play-state
// packet IDs and JoinGame field shapes. Exact per-version packet IDs
// drift almost every release; grouping into three eras keeps the join
// strategies implementable without a table entry per Minecraft version.
type Bucket int

const (
	BucketLegacy  Bucket = iota // protocol < 477, pre-1.13
	BucketModern                // 477 <= protocol <= 758, 1.13 - 1.18.2
	BucketCurrent               // protocol >= 759, 1.19+
)

// ErrUnsupportedProtocol is returned by BucketFor for a protocol version
// it can't place (a negative one), so the caller can turn the client
// away instead of writing bytes it wouldn't understand; the proxy's
// login path kicks it before any join method runs.
var ErrUnsupportedProtocol = errors.New("unsupported protocol version")

// BucketFor classifies a protocol version into its wire-format era.
func BucketFor(protocolVersion int) (Bucket, error) {
	switch {
	case protocolVersion < 0:
		return 0, ErrUnsupportedProtocol
	case protocolVersion < 477:
		return BucketLegacy, nil
	case protocolVersion <= 758:
		return BucketModern, nil
	default:
		return BucketCurrent, nil
	}
}

// playPacketIDs is the play-state packet ID table for one Bucket. IDs in
// the login/status/handshake states are stable enough across versions
// that they don't need this treatment; only play-state IDs churn release
// to release.
type playPacketIDs struct {
	clientBoundKeepAlive             byte
	serverBoundKeepAlive             byte
	clientBoundDisconnectPlay        byte
	clientBoundSystemChat            byte
	clientBoundPluginMessage         byte
	clientBoundNamedSoundEffect      byte
	clientBoundPlayerPositionAndLook byte
	clientBoundJoinGame              byte
}

var playIDsByBucket = map[Bucket]playPacketIDs{
	BucketLegacy: {
		clientBoundKeepAlive:             0x1f,
		serverBoundKeepAlive:             0x0b,
		clientBoundDisconnectPlay:        0x1a,
		clientBoundSystemChat:            0x0f,
		clientBoundPluginMessage:         0x18,
		clientBoundNamedSoundEffect:      0x19,
		clientBoundPlayerPositionAndLook: 0x2f,
		clientBoundJoinGame:              0x23,
	},
	BucketModern: {
		clientBoundKeepAlive:             0x21,
		serverBoundKeepAlive:             0x0f,
		clientBoundDisconnectPlay:        0x1a,
		clientBoundSystemChat:            0x0f,
		clientBoundPluginMessage:         0x18,
		clientBoundNamedSoundEffect:      0x19,
		clientBoundPlayerPositionAndLook: 0x38,
		clientBoundJoinGame:              0x26,
	},
	BucketCurrent: {
		clientBoundKeepAlive:             0x1e,
		serverBoundKeepAlive:             0x11,
		clientBoundDisconnectPlay:        0x19,
		clientBoundSystemChat:            0x5f,
		clientBoundPluginMessage:         0x15,
		clientBoundNamedSoundEffect:      0x17,
		clientBoundPlayerPositionAndLook: 0x36,
		clientBoundJoinGame:              0x24,
	},
}

func (b Bucket) ids() playPacketIDs {
	return playIDsByBucket[b]
}

// IsJoinGame reports whether a raw play-state packet is a JoinGame for
// the given Bucket, used by the status prober to recognize the packet it
// needs to capture without decoding its NBT payload.
func IsJoinGame(b Bucket, pk Packet) bool {
	return pk.ID == b.ids().clientBoundJoinGame
}
