// RTMPConn is one side of a session pair: the TCP (or TLS) socket plus
// the chunk-stream framing state (inbound/outbound chunk size, the chunk
// reassembly table, and the captured connection parameters in LinkState).
// The same type serves both the downstream ("S") and upstream ("C") half
// of a splice.

package rtmpcore

import (
	"bufio"
	"errors"
	"io"
	"net"
	"sync"
	"time"
)

var errInvalidHandshakeVersion = errors.New("rtmpcore: invalid handshake version byte")

// RTMPConn is a single handshaked RTMP connection, either accepted from a
// client (S) or dialed to an origin (C).
type RTMPConn struct {
	Conn net.Conn

	reader *bufio.Reader
	chunks *ChunkReader

	outChunkSize uint32

	sendMu sync.Mutex

	Link LinkState

	// StreamID is the message-stream-id of the active play/publish for
	// this handle (0 until set by a play/createStream exchange).
	StreamID uint32

	// Paused tracks whether this side has requested the peer pause
	// sending (used only on the upstream handle).
	Paused    bool
	PauseTime int64

	Playing bool
}

// NewRTMPConn wraps an already-connected socket. The handshake must be
// completed (server or client side, by the caller) before packets flow.
func NewRTMPConn(c net.Conn) *RTMPConn {
	r := bufio.NewReaderSize(c, 16*1024)
	return &RTMPConn{
		Conn:         c,
		reader:       r,
		chunks:       NewChunkReader(r),
		outChunkSize: RtmpDefaultChunkSize,
	}
}

// ServerHandshake performs the downstream (server-facing-client)
// handshake: read C0+C1, reply with S0+S1+S2, then fall through to chunk
// streaming once the client's C2 arrives (C2's content is not validated).
func (c *RTMPConn) ServerHandshake(timeout time.Duration) error {
	if err := c.Conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return err
	}

	version, err := c.reader.ReadByte()
	if err != nil {
		return err
	}
	if version != RtmpVersion {
		return errInvalidHandshakeVersion
	}

	c1 := make([]byte, RtmpHandshakeSize)
	if _, err := io.ReadFull(c.reader, c1); err != nil {
		return err
	}

	s0s1s2 := GenerateS0S1S2(c1)
	if _, err := c.Conn.Write(s0s1s2); err != nil {
		return err
	}

	c2 := make([]byte, RtmpHandshakeSize)
	if err := c.Conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return err
	}
	if _, err := io.ReadFull(c.reader, c2); err != nil {
		return err
	}

	return c.Conn.SetReadDeadline(time.Time{})
}

// ClientHandshake performs the upstream (proxy-as-client) handshake against
// the origin: send C0+C1, read S0+S1+S2, reply with C2.
func (c *RTMPConn) ClientHandshake(timeout time.Duration) error {
	c0c1 := GenerateC0C1()
	if _, err := c.Conn.Write(c0c1); err != nil {
		return err
	}
	if err := c.Conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return err
	}
	if err := CompleteClientHandshake(c.reader, c.Conn, c0c1[1:]); err != nil {
		return err
	}
	return c.Conn.SetReadDeadline(time.Time{})
}

// ReadPacket blocks (up to the given deadline, if non-zero) for the next
// fully reassembled message from the peer.
func (c *RTMPConn) ReadPacket(deadline time.Time) (*Packet, error) {
	if err := c.Conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}
	return c.chunks.ReadPacket()
}

func (c *RTMPConn) SetInChunkSize(n uint32) {
	c.chunks.SetChunkSize(n)
}

func (c *RTMPConn) SetOutChunkSize(n uint32) {
	if n > 0 {
		c.outChunkSize = n
	}
}

func (c *RTMPConn) OutChunkSize() uint32 {
	return c.outChunkSize
}

// Send writes raw bytes (already-chunked wire data) to the peer,
// serialized against concurrent senders.
func (c *RTMPConn) Send(b []byte) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	_, err := c.Conn.Write(b)
	return err
}

// SendPacket chunks a logical packet at this handle's negotiated outbound
// chunk size and writes it. Packets are re-framed as type-0 chunks with
// the absolute clock, so a packet read as a delta on one side leaves the
// other side with a coherent timeline.
func (c *RTMPConn) SendPacket(p *Packet) error {
	p.Header.Fmt = RtmpChunkType0
	p.Header.Timestamp = p.Clock
	p.Header.Length = uint32(len(p.Payload))
	return c.Send(p.CreateChunks(int(c.outChunkSize)))
}

func (c *RTMPConn) Close() error {
	return c.Conn.Close()
}
