package mc

import (
	"bytes"
	"io"
	"strings"
)

const ServerBoundHandshakePacketID byte = 0x00

// ServerBoundHandshake is the first packet of every connection: it carries
// the protocol version and address the client dialed, plus which state
// (status or login) it wants to move to next.
type ServerBoundHandshake struct {
	ProtocolVersion int
	ServerAddress   string
	ServerPort      int16
	NextState       int
}

func (pk ServerBoundHandshake) Marshal() Packet {
	return MarshalPacket(
		ServerBoundHandshakePacketID,
		VarInt(pk.ProtocolVersion),
		String(pk.ServerAddress),
		UnsignedShort(pk.ServerPort),
		VarInt(pk.NextState),
	)
}

func UnmarshalServerBoundHandshake(packet Packet) (ServerBoundHandshake, error) {
	var (
		protocolVersion VarInt
		serverAddress   String
		serverPort      UnsignedShort
		nextState       VarInt
	)
	var hs ServerBoundHandshake

	if packet.ID != ServerBoundHandshakePacketID {
		return hs, ErrInvalidPacketID
	}

	if err := packet.Scan(&protocolVersion, &serverAddress, &serverPort, &nextState); err != nil {
		return hs, err
	}

	hs = ServerBoundHandshake{
		ProtocolVersion: int(protocolVersion),
		ServerAddress:   string(serverAddress),
		ServerPort:      int16(serverPort),
		NextState:       int(nextState),
	}
	return hs, nil
}

func (pk ServerBoundHandshake) IsStatusRequest() bool {
	return VarInt(pk.NextState) == HandshakeStatusState
}

func (pk ServerBoundHandshake) IsLoginRequest() bool {
	return VarInt(pk.NextState) == HandshakeLoginState
}

// IsForgeAddress reports whether the dialed address carries the null-byte
// separated Forge mod-list marker Forge clients append to server addresses.
func (pk ServerBoundHandshake) IsForgeAddress() bool {
	return len(strings.Split(pk.ServerAddress, ForgeSeparator)) > 1
}

// ParseServerAddress strips the Forge marker, returning the bare hostname
// the client actually typed in.
func (pk ServerBoundHandshake) ParseServerAddress() string {
	return strings.Split(pk.ServerAddress, ForgeSeparator)[0]
}

const ServerBoundLoginStartPacketID byte = 0x00

// ServerLoginStart is sent right after a login-state handshake, naming the
// player attempting to join. lazyvolet never authenticates players itself;
// it only needs the name to populate synthesized lobby/disconnect text.
type ServerLoginStart struct {
	Name String
}

func (pk ServerLoginStart) Marshal() Packet {
	return MarshalPacket(ServerBoundLoginStartPacketID, pk.Name)
}

func UnmarshalServerBoundLoginStart(packet Packet) (ServerLoginStart, error) {
	var pk ServerLoginStart

	if packet.ID != ServerBoundLoginStartPacketID {
		return pk, ErrInvalidPacketID
	}

	if err := packet.Scan(&pk.Name); err != nil {
		return pk, err
	}

	return pk, nil
}

const ClientBoundLoginDisconnectPacketID byte = 0x00

// ClientBoundLoginDisconnect closes a connection still in the login state,
// e.g. the Kick join strategy's templated message.
type ClientBoundLoginDisconnect struct {
	Reason Chat
}

func (pk ClientBoundLoginDisconnect) Marshal() Packet {
	return MarshalPacket(ClientBoundLoginDisconnectPacketID, pk.Reason)
}

func UnmarshalClientBoundLoginDisconnect(packet Packet) (ClientBoundLoginDisconnect, error) {
	var pk ClientBoundLoginDisconnect

	if packet.ID != ClientBoundLoginDisconnectPacketID {
		return pk, ErrInvalidPacketID
	}

	err := packet.Scan(&pk.Reason)
	return pk, err
}

const ClientBoundSetCompressionPacketID byte = 0x03

// ClientBoundSetCompression tells the client the threshold above which
// subsequent packets are zlib-compressed. The probe reads it from the
// backend to discover the threshold the backend uses; the lobby sends it
// to its client with that probed threshold before LoginSuccess.
type ClientBoundSetCompression struct {
	Threshold VarInt
}

func (pk ClientBoundSetCompression) Marshal() Packet {
	return MarshalPacket(ClientBoundSetCompressionPacketID, pk.Threshold)
}

func UnmarshalClientBoundSetCompression(packet Packet) (ClientBoundSetCompression, error) {
	var pk ClientBoundSetCompression

	if packet.ID != ClientBoundSetCompressionPacketID {
		return pk, ErrInvalidPacketID
	}

	err := packet.Scan(&pk.Threshold)
	return pk, err
}

const ClientBoundLoginPluginRequestPacketID byte = 0x04

// ClientBoundLoginPluginRequest is how Forge (and other mod loaders) pass
// mod-list negotiation data during login, before vanilla login success.
// lazyvolet's probe records these verbatim rather than decoding Forge's
// own sub-protocol, per spec.md's "minimal Forge compatibility shim". Data
// is whatever bytes remain in the packet, same convention as
// ClientBoundPluginMessage's play-state counterpart.
type ClientBoundLoginPluginRequest struct {
	MessageID VarInt
	Channel   String
	Data      []byte
}

func (pk ClientBoundLoginPluginRequest) Marshal() Packet {
	data := append(pk.MessageID.Encode(), pk.Channel.Encode()...)
	data = append(data, pk.Data...)
	return Packet{ID: ClientBoundLoginPluginRequestPacketID, Data: data}
}

func UnmarshalClientBoundLoginPluginRequest(packet Packet) (ClientBoundLoginPluginRequest, error) {
	var pk ClientBoundLoginPluginRequest

	if packet.ID != ClientBoundLoginPluginRequestPacketID {
		return pk, ErrInvalidPacketID
	}

	r := bytes.NewReader(packet.Data)
	if err := ScanFields(r, &pk.MessageID, &pk.Channel); err != nil {
		return pk, err
	}

	rest, err := io.ReadAll(r)
	if err != nil {
		return pk, err
	}
	pk.Data = rest
	return pk, nil
}

const ServerBoundLoginPluginResponsePacketID byte = 0x02

// ServerBoundLoginPluginResponse is the probe's canned "unsuccessful"
// reply to a login plugin request it doesn't want to negotiate.
type ServerBoundLoginPluginResponse struct {
	MessageID  VarInt
	Successful Boolean
	Data       []byte
}

func (pk ServerBoundLoginPluginResponse) Marshal() Packet {
	data := append(pk.MessageID.Encode(), pk.Successful.Encode()...)
	if bool(pk.Successful) {
		data = append(data, pk.Data...)
	}
	return Packet{ID: ServerBoundLoginPluginResponsePacketID, Data: data}
}

const ClientBoundLoginSuccessPacketID byte = 0x02

// ClientBoundLoginSuccess finishes the login sequence, moving the
// connection into the play state. lazyvolet issues this itself only for
// the Lobby strategy's synthetic session; otherwise it's relayed verbatim
// from the backend.
type ClientBoundLoginSuccess struct {
	UUID     String
	Username String
}

func (pk ClientBoundLoginSuccess) Marshal() Packet {
	return MarshalPacket(ClientBoundLoginSuccessPacketID, pk.UUID, pk.Username)
}

func UnmarshalClientBoundLoginSuccess(packet Packet) (ClientBoundLoginSuccess, error) {
	var pk ClientBoundLoginSuccess

	if packet.ID != ClientBoundLoginSuccessPacketID {
		return pk, ErrInvalidPacketID
	}

	if err := packet.Scan(&pk.UUID, &pk.Username); err != nil {
		return pk, err
	}

	return pk, nil
}
