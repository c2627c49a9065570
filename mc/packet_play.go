package mc

// RawPlayPacket wraps a play-state packet captured verbatim from a real
// connection, e.g. JoinGame as seen during probing. The dimension codec
// carried inside JoinGame is NBT-encoded; this module has no NBT parser
// and no reason to grow one, since the only thing a lobby session ever
// does with a probed JoinGame is replay it byte-for-byte to a client on
// the same protocol version. See DESIGN.md for the reasoning.
type RawPlayPacket struct {
	ID   byte
	Data []byte
}

func (pk RawPlayPacket) Marshal() Packet {
	return Packet{ID: pk.ID, Data: pk.Data}
}

func CaptureRawPlayPacket(pk Packet) RawPlayPacket {
	return RawPlayPacket{ID: pk.ID, Data: append([]byte(nil), pk.Data...)}
}

// ClientBoundKeepAlive and ServerBoundKeepAlive both carry an opaque id
// the client must echo back; the lobby uses this to detect dead clients
// without a real backend behind it. Both are parameterized by Bucket
// since the play-state packet IDs they use differ by protocol version.
type ClientBoundKeepAlive struct {
	KeepAliveID Long
}

func (pk ClientBoundKeepAlive) Marshal(b Bucket) Packet {
	return MarshalPacket(b.ids().clientBoundKeepAlive, pk.KeepAliveID)
}

type ServerBoundKeepAlive struct {
	KeepAliveID Long
}

func UnmarshalServerBoundKeepAlive(b Bucket, packet Packet) (ServerBoundKeepAlive, error) {
	var pk ServerBoundKeepAlive
	if packet.ID != b.ids().serverBoundKeepAlive {
		return pk, ErrInvalidPacketID
	}
	err := packet.Scan(&pk.KeepAliveID)
	return pk, err
}

// ClientBoundDisconnectPlay closes a connection already in the play
// state, e.g. the lobby's "reconnect now" message once the backend is up.
type ClientBoundDisconnectPlay struct {
	Reason Chat
}

func (pk ClientBoundDisconnectPlay) Marshal(b Bucket) Packet {
	return MarshalPacket(b.ids().clientBoundDisconnectPlay, pk.Reason)
}

// ClientBoundSystemChat overlays a message on the lobby client's screen,
// e.g. a periodic "server is starting" reminder. Pre-1.19 clients have no
// dedicated system chat packet; for the legacy and modern buckets Marshal
// falls back to the regular chat message layout.
type ClientBoundSystemChat struct {
	Content Chat
	Overlay Boolean
}

func (pk ClientBoundSystemChat) Marshal(b Bucket) Packet {
	if b == BucketCurrent {
		return MarshalPacket(b.ids().clientBoundSystemChat, pk.Content, pk.Overlay)
	}
	// legacy/modern chat packet: message, position (0 = chat box), sender UUID absent pre-1.16.
	return MarshalPacket(b.ids().clientBoundSystemChat, pk.Content, Byte(0))
}

// ClientBoundPluginMessage carries a channel-scoped binary payload, such
// as the server brand on ServerBrandChannel. join.Lobby sends neither a
// brand nor a Forge mod list.
type ClientBoundPluginMessage struct {
	Channel String
	Data    ByteArray
}

func (pk ClientBoundPluginMessage) Marshal(b Bucket) Packet {
	data := append([]byte(nil), pk.Channel.Encode()...)
	data = append(data, pk.Data...)
	return Packet{ID: b.ids().clientBoundPluginMessage, Data: data}
}

const ServerBrandChannel = "minecraft:brand"

var ServerBrand = []byte("lazyvolet")

// ClientBoundNamedSoundEffect plays a sound at a fixed world position,
// used for the lobby's ready_sound cue once the backend finishes starting.
type ClientBoundNamedSoundEffect struct {
	SoundName     String
	SoundCategory VarInt
	X             Long
	Y             Long
	Z             Long
	Volume        Float
	Pitch         Float
}

func (pk ClientBoundNamedSoundEffect) Marshal(b Bucket) Packet {
	return MarshalPacket(
		b.ids().clientBoundNamedSoundEffect,
		pk.SoundName,
		pk.SoundCategory,
		pk.X, pk.Y, pk.Z,
		pk.Volume, pk.Pitch,
	)
}

// ClientBoundPlayerPositionAndLook teleports the client, used once at
// lobby entry to place it at a fixed, stable position.
type ClientBoundPlayerPositionAndLook struct {
	X, Y, Z    Double
	Yaw, Pitch Float
	Flags      Byte
	TeleportID VarInt
}

func (pk ClientBoundPlayerPositionAndLook) Marshal(b Bucket) Packet {
	fields := []FieldEncoder{pk.X, pk.Y, pk.Z, pk.Yaw, pk.Pitch, pk.Flags}
	if b == BucketCurrent || b == BucketModern {
		fields = append(fields, pk.TeleportID)
	}
	return MarshalPacket(b.ids().clientBoundPlayerPositionAndLook, fields...)
}
