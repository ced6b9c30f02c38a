// RTMP chunked packet framing

package rtmpcore

import (
	"encoding/binary"
)

// PacketHeader is the metadata of a RTMP packet, carried across chunks
type PacketHeader struct {
	Timestamp int64 // Timestamp of the packet

	Fmt uint32 // Packet format (0-3)

	Cid uint32 // Chunk stream ID

	PacketType uint32 // Packet type

	StreamID uint32 // Packet Stream ID

	Length uint32 // Payload length
}

// Packet represents a re-assembled RTMP message
type Packet struct {
	Header PacketHeader
	Clock  int64 // Used for extended timestamp accumulation

	Capacity uint32 // Current packet capacity
	Bytes    uint32 // Current packet size
	Handled  bool   // True if the packet was already dispatched

	Payload []byte // Packet payload
}

func BlankPacket() Packet {
	return Packet{
		Header:   PacketHeader{},
		Clock:    0,
		Payload:  []byte{},
		Capacity: 0,
		Bytes:    0,
		Handled:  false,
	}
}

// ChunkBasicHeader serializes the basic header of a chunk
func ChunkBasicHeader(fmtByte uint32, cid uint32) []byte {
	var out []byte

	if cid >= 64+255 {
		out = make([]byte, 3)
		out[0] = byte(fmtByte<<6) | 1
		out[1] = byte(cid-64) & 0xff
		out[2] = byte((cid-64)>>8) & 0xff
	} else if cid >= 64 {
		out = make([]byte, 2)
		out[0] = byte(fmtByte << 6)
		out[1] = byte(cid-64) & 0xff
	} else {
		out = make([]byte, 1)
		out[0] = byte(fmtByte<<6) | byte(cid)
	}

	return out
}

// ChunkMessageHeader serializes the message header portion of a chunk
func ChunkMessageHeader(packet *Packet) []byte {
	out := make([]byte, 0)

	if packet.Header.Fmt <= RtmpChunkType2 {
		b := make([]byte, 4)
		if packet.Header.Timestamp >= 0xffffff {
			binary.BigEndian.PutUint32(b, 0xffffff)
		} else {
			binary.BigEndian.PutUint32(b, uint32(packet.Header.Timestamp))
		}
		out = append(out, b[1:]...)
	}

	if packet.Header.Fmt <= RtmpChunkType1 {
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, packet.Header.Length)
		out = append(out, b[1:]...)
		out = append(out, byte(packet.Header.PacketType))
	}

	if packet.Header.Fmt == RtmpChunkType0 {
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, packet.Header.StreamID)
		out = append(out, b...)
	}

	return out
}

// CreateChunks splits a packet's payload into wire chunks of outChunkSize bytes
func (packet *Packet) CreateChunks(outChunkSize int) []byte {
	chunkBasicHeader := ChunkBasicHeader(packet.Header.Fmt, packet.Header.Cid)
	chunkBasicHeader3 := ChunkBasicHeader(RtmpChunkType3, packet.Header.Cid)

	chunkMessageHeader := ChunkMessageHeader(packet)

	useExtendedTimestamp := packet.Header.Timestamp >= 0xffffff

	headerSize := len(chunkBasicHeader) + len(chunkMessageHeader)
	payloadSize := int(packet.Header.Length)
	chunksOffset := 0
	payloadOffset := 0

	if useExtendedTimestamp {
		headerSize += 4
	}

	n := headerSize + payloadSize + (payloadSize / outChunkSize)

	if useExtendedTimestamp {
		n += (payloadSize / outChunkSize) * 4
	}

	if (payloadSize % outChunkSize) == 0 {
		n--
		if useExtendedTimestamp {
			n -= 4
		}
	}

	chunks := make([]byte, n)

	copy(chunks[chunksOffset:], chunkBasicHeader)
	chunksOffset += len(chunkBasicHeader)

	copy(chunks[chunksOffset:], chunkMessageHeader)
	chunksOffset += len(chunkMessageHeader)

	if useExtendedTimestamp {
		binary.BigEndian.PutUint32(chunks[chunksOffset:chunksOffset+4], uint32(packet.Header.Timestamp))
		chunksOffset += 4
	}

	for payloadSize > 0 {
		if payloadSize > outChunkSize {
			copy(chunks[chunksOffset:], packet.Payload[payloadOffset:payloadOffset+outChunkSize])
			payloadSize -= outChunkSize
			chunksOffset += outChunkSize
			payloadOffset += outChunkSize
			copy(chunks[chunksOffset:], chunkBasicHeader3)
			chunksOffset += len(chunkBasicHeader3)
			if useExtendedTimestamp {
				binary.BigEndian.PutUint32(chunks[chunksOffset:chunksOffset+4], uint32(packet.Header.Timestamp))
				chunksOffset += 4
			}
		} else {
			copy(chunks[chunksOffset:], packet.Payload[payloadOffset:payloadOffset+payloadSize])
			chunksOffset += payloadSize
			payloadOffset += payloadSize
			payloadSize = 0
		}
	}

	return chunks
}
