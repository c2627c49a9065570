package mc

import (
	"bufio"
	"bytes"
	"compress/zlib"
	"errors"
	"io"
	"net"
	"time"
)

// NoCompression disables the compression envelope on a Conn.
const NoCompression = -1

// NewConn wraps a net.Conn with Minecraft packet framing. Compression is
// off until SetThreshold is called with a non-negative value, matching the
// order packets actually arrive on the wire: plain until the server sends
// SetCompression.
func NewConn(conn net.Conn) *Conn {
	return &Conn{
		netConn:   conn,
		reader:    bufio.NewReader(conn),
		threshold: NoCompression,
	}
}

// Conn is a single Minecraft protocol connection: packet framing plus the
// optional compression envelope described in spec.md §4.1.
type Conn struct {
	netConn   net.Conn
	reader    DecodeReader
	threshold int
}

func (c *Conn) SetThreshold(threshold int) {
	c.threshold = threshold
}

func (c *Conn) Threshold() int {
	return c.threshold
}

func (c *Conn) RemoteAddr() net.Addr {
	return c.netConn.RemoteAddr()
}

func (c *Conn) Close() error {
	return c.netConn.Close()
}

func (c *Conn) SetDeadline(t time.Time) error {
	return c.netConn.SetDeadline(t)
}

// Unwrap returns the underlying net.Conn, e.g. to hand off to io.Copy once
// a session has been promoted to a raw relay.
func (c *Conn) Unwrap() net.Conn {
	return c.netConn
}

// ReadPacket reads the next packet, transparently undoing the compression
// envelope when a threshold is set.
func (c *Conn) ReadPacket() (Packet, error) {
	if c.threshold < 0 {
		return ReadPacket(c.reader)
	}
	return readCompressedPacket(c.reader)
}

// WritePacket writes pk, wrapping it in the compression envelope when a
// threshold is set. Packets shorter than the threshold are sent
// uncompressed with dataLength = 0, matching spec.md §4.1.
func (c *Conn) WritePacket(pk Packet) error {
	if c.threshold < 0 {
		_, err := c.netConn.Write(pk.Marshal())
		return err
	}
	raw := append([]byte{pk.ID}, pk.Data...)

	var dataLength VarInt
	var body []byte
	if len(raw) < c.threshold {
		dataLength = 0
		body = raw
	} else {
		var buf bytes.Buffer
		zw := zlib.NewWriter(&buf)
		if _, err := zw.Write(raw); err != nil {
			return err
		}
		if err := zw.Close(); err != nil {
			return err
		}
		dataLength = VarInt(len(raw))
		body = buf.Bytes()
	}

	frame := append(dataLength.Encode(), body...)
	out := append(VarInt(len(frame)).Encode(), frame...)
	_, err := c.netConn.Write(out)
	return err
}

// readCompressedPacket decodes one packet framed with the compression
// envelope: VarInt packetLength | VarInt dataLength | body.
func readCompressedPacket(r DecodeReader) (Packet, error) {
	var packetLength VarInt
	if err := packetLength.Decode(r); err != nil {
		if errors.Is(err, ErrVarIntTooBig) {
			return Packet{}, ErrMalformed
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Packet{}, ErrNeedMore
		}
		return Packet{}, err
	}
	if packetLength < 1 || int(packetLength) > MaxPacketSize {
		return Packet{}, ErrMalformed
	}

	frame, err := ReadNBytes(r, int(packetLength))
	if err != nil {
		return Packet{}, ErrNeedMore
	}
	fr := bytes.NewReader(frame)

	var dataLength VarInt
	if err := dataLength.Decode(fr); err != nil {
		return Packet{}, ErrMalformed
	}

	rest, _ := io.ReadAll(fr)
	var raw []byte
	if dataLength == 0 {
		raw = rest
	} else {
		zr, err := zlib.NewReader(bytes.NewReader(rest))
		if err != nil {
			return Packet{}, ErrMalformed
		}
		defer zr.Close()
		raw, err = io.ReadAll(io.LimitReader(zr, int64(dataLength)))
		if err != nil {
			return Packet{}, ErrMalformed
		}
	}

	if len(raw) < 1 {
		return Packet{}, ErrMalformed
	}
	return Packet{ID: raw[0], Data: raw[1:]}, nil
}

// WriteMcPacket marshals an McPacket and writes it through the envelope.
func (c *Conn) WriteMcPacket(p McPacket) error {
	return c.WritePacket(p.Marshal())
}
