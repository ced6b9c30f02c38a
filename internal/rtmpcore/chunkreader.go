// Chunk reassembly: turns a byte stream from one RTMP peer into
// complete, dispatch-ready Packet values. Partially received packets are
// kept in a per-chunk-stream table keyed by cid; a single ReadPacket
// call returns exactly one reassembled message, since the splice engine
// wants packets, not chunks.

package rtmpcore

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
)

var ErrStopPacketType = errors.New("rtmpcore: peer sent an out-of-range packet type")

// ChunkReader reassembles chunks read from r into complete Packets.
type ChunkReader struct {
	r           *bufio.Reader
	inChunkSize uint32
	pending     map[uint32]*Packet
}

func NewChunkReader(r io.Reader) *ChunkReader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReaderSize(r, 4096)
	}
	return &ChunkReader{
		r:           br,
		inChunkSize: RtmpDefaultChunkSize,
		pending:     make(map[uint32]*Packet),
	}
}

func (cr *ChunkReader) SetChunkSize(n uint32) {
	if n > 0 {
		cr.inChunkSize = n
	}
}

func (cr *ChunkReader) ChunkSize() uint32 {
	return cr.inChunkSize
}

// ReadPacket blocks reading chunks from the underlying reader until one
// message-stream packet is fully reassembled, then returns it. The caller
// is expected to arrange its own read-deadline / cancellation on the
// underlying connection; a deadline expiry surfaces here as the reader's
// timeout error.
func (cr *ChunkReader) ReadPacket() (*Packet, error) {
	for {
		pkt, complete, err := cr.readChunk()
		if err != nil {
			return nil, err
		}
		if complete {
			// The returned packet aliases this reader's per-cid pending
			// struct, which gets reused (and its payload truncated) on the
			// very next chunk for the same cid. Callers that hand packets
			// off across goroutines (the splice engine's reader loops)
			// need a stable copy, so clone before returning.
			return clonePacket(pkt), nil
		}
	}
}

func clonePacket(p *Packet) *Packet {
	cp := *p
	cp.Payload = append([]byte(nil), p.Payload...)
	return &cp
}

func (cr *ChunkReader) readChunk() (*Packet, bool, error) {
	startByte, err := cr.r.ReadByte()
	if err != nil {
		return nil, false, err
	}

	header := []byte{startByte}

	var basicBytes int
	switch startByte & 0x3f {
	case 0:
		basicBytes = 2
	case 1:
		basicBytes = 3
	default:
		basicBytes = 1
	}

	for i := 1; i < basicBytes; i++ {
		b, err := cr.r.ReadByte()
		if err != nil {
			return nil, false, err
		}
		header = append(header, b)
	}

	msgHeaderSize := int(rtmpHeaderSize[header[0]>>6])
	if msgHeaderSize > 0 {
		rest := make([]byte, msgHeaderSize)
		if _, err := io.ReadFull(cr.r, rest); err != nil {
			return nil, false, err
		}
		header = append(header, rest...)
	}

	fmtByte := uint32(header[0] >> 6)
	var cid uint32
	switch basicBytes {
	case 2:
		cid = 64 + uint32(header[1])
	case 3:
		cid = 64 + uint32(header[1]) + uint32(header[2])<<8
	default:
		cid = uint32(header[0] & 0x3f)
	}

	packet, ok := cr.pending[cid]
	if ok {
		if packet.Handled {
			packet.Handled = false
			packet.Payload = packet.Payload[:0]
			packet.Bytes = 0
		}
	} else {
		p := BlankPacket()
		packet = &p
		cr.pending[cid] = packet
	}

	packet.Header.Cid = cid
	packet.Header.Fmt = fmtByte

	offset := basicBytes

	if packet.Header.Fmt <= RtmpChunkType2 {
		packet.Header.Timestamp = int64(uint32(header[offset+2]) | uint32(header[offset+1])<<8 | uint32(header[offset])<<16)
		offset += 3
	}

	if packet.Header.Fmt <= RtmpChunkType1 {
		packet.Header.Length = uint32(header[offset+2]) | uint32(header[offset+1])<<8 | uint32(header[offset])<<16
		packet.Header.PacketType = uint32(header[offset+3])
		offset += 4
	}

	if packet.Header.Fmt == RtmpChunkType0 {
		packet.Header.StreamID = binary.LittleEndian.Uint32(header[offset : offset+4])
	}

	if packet.Header.PacketType > RtmpTypeMetadata {
		return nil, false, ErrStopPacketType
	}

	var extendedTimestamp int64
	if packet.Header.Timestamp == 0xffffff {
		tsBytes := make([]byte, 4)
		if _, err := io.ReadFull(cr.r, tsBytes); err != nil {
			return nil, false, err
		}
		extendedTimestamp = int64(binary.BigEndian.Uint32(tsBytes))
	} else {
		extendedTimestamp = packet.Header.Timestamp
	}

	if packet.Bytes == 0 {
		if packet.Header.Fmt == RtmpChunkType0 {
			packet.Clock = extendedTimestamp
		} else {
			packet.Clock += extendedTimestamp
		}
		if packet.Capacity < packet.Header.Length {
			packet.Capacity = 1024 + packet.Header.Length
		}
	}

	sizeToRead := cr.inChunkSize - (packet.Bytes % cr.inChunkSize)
	if sizeToRead > packet.Header.Length-packet.Bytes {
		sizeToRead = packet.Header.Length - packet.Bytes
	}

	if sizeToRead > 0 {
		buf := make([]byte, sizeToRead)
		if _, err := io.ReadFull(cr.r, buf); err != nil {
			return nil, false, err
		}
		packet.Bytes += sizeToRead
		packet.Payload = append(packet.Payload, buf...)
	}

	if packet.Bytes >= packet.Header.Length {
		packet.Handled = true
		return packet, true, nil
	}

	return nil, false, nil
}
