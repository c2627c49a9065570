// Package rcon speaks the Source-engine RCON protocol used by vanilla
// Minecraft servers: a length-prefixed little-endian frame of
// `i32 request_id | i32 type | payload NUL | pad NUL`, carried over a
// single authenticated TCP connection. No third-party client for this
// wire format showed up anywhere in the example pack, so the codec is
// hand-rolled the same way mc/ hand-rolls the Minecraft client protocol.
package rcon

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/pires/go-proxyproto"
)

const (
	typeResponse     int32 = 0
	typeExec         int32 = 2
	typeAuth         int32 = 3
	typeAuthResponse int32 = 2

	maxPacketSize = 4096
)

var (
	// ErrAuthFailed is returned when the server rejects the RCON password.
	ErrAuthFailed = errors.New("rcon: authentication failed")
	// ErrClosed is returned by Cmd after the client has been closed.
	ErrClosed = errors.New("rcon: client closed")
)

// Client is a single authenticated RCON connection. Commands are
// serialized with a mutex: the Minecraft RCON implementation cannot be
// trusted to keep responses in order if two requests are in flight at
// once.
type Client struct {
	mu     sync.Mutex
	conn   net.Conn
	r      *bufio.Reader
	nextID int32
	closed bool
}

// Dial connects to addr, optionally prefixing the connection with a PROXY
// v2 header (matching the teacher's backend-proxying convention in
// worker/backend.go), then authenticates with pass.
func Dial(ctx context.Context, addr string, pass string, sendProxyHeader bool, proxySource net.Addr) (*Client, error) {
	d := net.Dialer{}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	if sendProxyHeader {
		header := &proxyproto.Header{
			Version:           2,
			Command:           proxyproto.PROXY,
			TransportProtocol: proxyproto.TCPv4,
			SourceAddr:        proxySource,
			DestinationAddr:   conn.RemoteAddr(),
		}
		if _, err := header.WriteTo(conn); err != nil {
			conn.Close()
			return nil, err
		}
	}

	c := &Client{conn: conn, r: bufio.NewReader(conn)}
	if err := c.auth(pass); err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) auth(pass string) error {
	id, err := c.send(typeAuth, pass)
	if err != nil {
		return err
	}

	respID, respType, _, err := c.recv()
	if err != nil {
		return err
	}
	// A failed auth echoes request id -1 rather than the id we sent.
	if respType != typeAuthResponse || respID != id {
		return ErrAuthFailed
	}
	return nil
}

// Cmd issues cmd over the connection and returns the server's response
// body, e.g. "stop" or "save-all".
func (c *Client) Cmd(cmd string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return "", ErrClosed
	}

	id, err := c.send(typeExec, cmd)
	if err != nil {
		return "", err
	}

	_, _, body, err := c.recv()
	if err != nil {
		return "", err
	}
	_ = id
	return body, nil
}

// Close closes the underlying connection. Safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}

func (c *Client) send(typ int32, payload string) (int32, error) {
	c.nextID++
	id := c.nextID

	size := int32(4 + 4 + len(payload) + 1 + 1)
	buf := make([]byte, 0, 4+size)
	buf = appendInt32(buf, size)
	buf = appendInt32(buf, id)
	buf = appendInt32(buf, typ)
	buf = append(buf, payload...)
	buf = append(buf, 0, 0)

	if _, err := c.conn.Write(buf); err != nil {
		return 0, err
	}
	return id, nil
}

func (c *Client) recv() (id int32, typ int32, body string, err error) {
	var sizeBuf [4]byte
	if _, err = io.ReadFull(c.r, sizeBuf[:]); err != nil {
		return
	}
	size := int32(binary.LittleEndian.Uint32(sizeBuf[:]))
	if size < 10 || size > maxPacketSize {
		err = fmt.Errorf("rcon: malformed response size %d", size)
		return
	}

	payload := make([]byte, size)
	if _, err = io.ReadFull(c.r, payload); err != nil {
		return
	}

	id = int32(binary.LittleEndian.Uint32(payload[0:4]))
	typ = int32(binary.LittleEndian.Uint32(payload[4:8]))
	body = string(bytes.TrimRight(payload[8:size-2], "\x00"))
	return
}

func appendInt32(buf []byte, v int32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	return append(buf, b[:]...)
}

// DialTimeout is a convenience wrapper around Dial using a plain timeout
// instead of a context, for callers that don't otherwise need one.
func DialTimeout(addr, pass string, timeout time.Duration, sendProxyHeader bool, proxySource net.Addr) (*Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return Dial(ctx, addr, pass, sendProxyHeader, proxySource)
}
