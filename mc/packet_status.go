package mc

import (
	"encoding/json"
	"time"
)

const (
	ServerBoundRequestPacketID  byte = 0x00
	ClientBoundResponsePacketID byte = 0x00
	ServerBoundPingPacketID     byte = 0x01
	ClientBoundPongPacketID     byte = 0x01
)

// StatusResponse is what lazyvolet sends back when the backend is asleep:
// a synthesized MOTD, player count and version string, no wake triggered.
type StatusResponse struct {
	Name        string
	Protocol    int
	MaxPlayers  int
	Online      int
	Description string
	Favicon     string
}

func (pk StatusResponse) Marshal() Packet {
	resp := responseJSON{
		Version: versionJSON{
			Name:     pk.Name,
			Protocol: pk.Protocol,
		},
		Players: playersJSON{
			Max:    pk.MaxPlayers,
			Online: pk.Online,
		},
		Description: descriptionJSON{Text: pk.Description},
		Favicon:     pk.Favicon,
	}
	text, _ := json.Marshal(resp)
	return ClientBoundResponse{JSONResponse: String(text)}.Marshal()
}

type responseJSON struct {
	Version     versionJSON     `json:"version"`
	Players     playersJSON     `json:"players"`
	Description descriptionJSON `json:"description"`
	Favicon     string          `json:"favicon,omitempty"`
}

type versionJSON struct {
	Name     string `json:"name"`
	Protocol int    `json:"protocol"`
}

type playersJSON struct {
	Max    int                `json:"max"`
	Online int                `json:"online"`
	Sample []playerSampleJSON `json:"sample,omitempty"`
}

type playerSampleJSON struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

type descriptionJSON struct {
	Text string `json:"text"`
}

// ClientBoundResponse is the raw status-response packet: a single
// JSON-encoded string field.
type ClientBoundResponse struct {
	JSONResponse String
}

func (pk ClientBoundResponse) Marshal() Packet {
	return MarshalPacket(ClientBoundResponsePacketID, pk.JSONResponse)
}

func UnmarshalClientBoundResponse(packet Packet) (ClientBoundResponse, error) {
	var pk ClientBoundResponse

	if packet.ID != ClientBoundResponsePacketID {
		return pk, ErrInvalidPacketID
	}

	if err := packet.Scan(&pk.JSONResponse); err != nil {
		return pk, err
	}

	return pk, nil
}

// ServerBoundRequest has no fields; it just asks for a status response.
type ServerBoundRequest struct{}

func (pk ServerBoundRequest) Marshal() Packet {
	return MarshalPacket(ServerBoundRequestPacketID)
}

// ServerBoundPing carries a client-chosen timestamp the server must echo
// back unmodified in a Pong, letting the client measure round-trip time.
type ServerBoundPing struct {
	Payload Long
}

// NewServerBoundPing builds a ping carrying the current time in ms.
func NewServerBoundPing() ServerBoundPing {
	return ServerBoundPing{Payload: Long(time.Now().UnixNano() / int64(time.Millisecond))}
}

func (pk ServerBoundPing) Marshal() Packet {
	return MarshalPacket(ServerBoundPingPacketID, pk.Payload)
}

func UnmarshalServerBoundPing(packet Packet) (ServerBoundPing, error) {
	var pk ServerBoundPing

	if packet.ID != ServerBoundPingPacketID {
		return pk, ErrInvalidPacketID
	}

	err := packet.Scan(&pk.Payload)
	return pk, err
}

// ClientBoundPong echoes a ServerBoundPing's payload unmodified.
type ClientBoundPong struct {
	Payload Long
}

func (pk ClientBoundPong) Marshal() Packet {
	return MarshalPacket(ClientBoundPongPacketID, pk.Payload)
}

func UnmarshalClientBoundPong(packet Packet) (ClientBoundPong, error) {
	var pk ClientBoundPong

	if packet.ID != ClientBoundPongPacketID {
		return pk, ErrInvalidPacketID
	}

	err := packet.Scan(&pk.Payload)
	return pk, err
}
