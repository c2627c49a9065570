package mc

import (
	"bytes"
	"errors"
	"io"
)

var (
	ErrInvalidPacketID = errors.New("invalid packet id")
	ErrMalformed       = errors.New("malformed packet")
	ErrNeedMore        = errors.New("need more data")

	// MaxPacketSize is the largest packet length (in bytes, excluding the
	// length VarInt itself) the codec accepts, per spec.md's 2^21 cap.
	MaxPacketSize = 2097151
)

const (
	HandshakeStatusState = VarInt(1)
	HandshakeLoginState  = VarInt(2)

	ForgeSeparator = "\x00"
)

// Packet is the raw representation of a message sent between a client and
// a server: a packet ID plus its already-encoded field data.
type Packet struct {
	ID   byte
	Data []byte
}

// McPacket is anything that knows how to turn itself into a Packet.
type McPacket interface {
	Marshal() Packet
}

// Scan decodes the packet's Data into the given fields, in order.
func (pk Packet) Scan(fields ...FieldDecoder) error {
	return ScanFields(bytes.NewReader(pk.Data), fields...)
}

// Marshal encodes the packet into its wire form: VarInt length, ID, data.
func (pk Packet) Marshal() []byte {
	data := append([]byte{pk.ID}, pk.Data...)
	length := VarInt(len(data)).Encode()
	return append(length, data...)
}

// ScanFields decodes a byte stream into the given fields, in order.
func ScanFields(r DecodeReader, fields ...FieldDecoder) error {
	for _, field := range fields {
		if err := field.Decode(r); err != nil {
			return err
		}
	}
	return nil
}

// MarshalPacket builds a Packet from an ID and a sequence of fields.
func MarshalPacket(id byte, fields ...FieldEncoder) Packet {
	pkt := Packet{ID: id}
	for _, f := range fields {
		pkt.Data = append(pkt.Data, f.Encode()...)
	}
	return pkt
}

// ReadPacket decodes the next uncompressed packet off r.
//
// Returns ErrNeedMore if the stream ended before a complete packet could be
// read, and ErrMalformed if the advertised length exceeds MaxPacketSize or
// the VarInt length itself is malformed.
func ReadPacket(r DecodeReader) (Packet, error) {
	var length VarInt
	if err := length.Decode(r); err != nil {
		if errors.Is(err, ErrVarIntTooBig) {
			return Packet{}, ErrMalformed
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Packet{}, ErrNeedMore
		}
		return Packet{}, err
	}

	if length < 1 {
		return Packet{}, ErrMalformed
	}
	if int(length) > MaxPacketSize {
		return Packet{}, ErrMalformed
	}

	data, err := ReadNBytes(r, int(length))
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Packet{}, ErrNeedMore
		}
		return Packet{}, err
	}

	return Packet{ID: data[0], Data: data[1:]}, nil
}
