// FLV tag reconstruction
//
// Turns a stream of inbound RTMP messages (audio/video/metadata, or
// already-muxed FLV aggregate payloads) into bytes appendable directly to
// an output file: a 9-byte signature + 4-byte zero prevTagSize written
// once up front by CreateFlvHeader, then one WriteFlvTag call per message.

package rtmpcore

import (
	"encoding/binary"
	"errors"
)

// FlvHeader is the 13-byte preamble written at offset 0 of every output file:
// signature "FLV", version 1, flags 0x05 (audio+video present), header
// size 9, followed by the initial 4-byte prevTagSize (always zero).
func CreateFlvHeader() []byte {
	return []byte{'F', 'L', 'V', 0x01, 0x05, 0x00, 0x00, 0x00, 0x09, 0x00, 0x00, 0x00, 0x00}
}

// ErrFlvCorrupted is returned when an inbound FLV aggregate payload carries
// a tag whose declared size overruns the remaining buffer.
var ErrFlvCorrupted = errors.New("corrupted FLV aggregate payload")

// WriteFlvTag renders one inbound message as FLV tag bytes. For audio,
// video and AMF0 data (script) messages, it synthesizes the standard
// 11-byte tag header plus a trailing prevTagSize. For already-muxed FLV
// aggregate payloads (type 22) it walks the embedded tags and returns a
// copy in which each one's trailing prevTagSize is validated and repaired.
//
// Returns the rendered bytes, or ErrFlvCorrupted if an aggregate payload is
// malformed.
func WriteFlvTag(packet *Packet) ([]byte, error) {
	switch packet.Header.PacketType {
	case RtmpTypeVideo:
		if packet.Header.Length == 2 && len(packet.Payload) >= 1 && (packet.Payload[0]>>4) == 0x5 {
			return nil, nil // command frame, not media
		}
		if packet.Header.Length <= 5 {
			return nil, nil // malformed
		}
		return renderSimpleTag(packet), nil
	case RtmpTypeAudio:
		if packet.Header.Length <= 1 {
			return nil, nil // malformed
		}
		return renderSimpleTag(packet), nil
	case RtmpTypeData:
		return renderSimpleTag(packet), nil
	case RtmpTypeMetadata:
		return repairAggregateTags(packet.Payload)
	default:
		return nil, nil
	}
}

func renderSimpleTag(packet *Packet) []byte {
	bodyLen := packet.Header.Length
	prevTagSize := 11 + bodyLen
	out := make([]byte, prevTagSize+4)

	out[0] = byte(packet.Header.PacketType)

	aux := make([]byte, 4)
	binary.BigEndian.PutUint32(aux, bodyLen)
	out[1] = aux[1]
	out[2] = aux[2]
	out[3] = aux[3]

	// Clock carries the absolute message timestamp accumulated by the chunk
	// reader (Header.Timestamp may hold a per-chunk delta or the 0xffffff
	// extended-timestamp marker).
	out[4] = byte(packet.Clock>>16) & 0xff
	out[5] = byte(packet.Clock>>8) & 0xff
	out[6] = byte(packet.Clock) & 0xff
	out[7] = byte(packet.Clock>>24) & 0xff

	out[8] = 0
	out[9] = 0
	out[10] = 0

	copy(out[11:11+bodyLen], packet.Payload[:bodyLen])

	aux2 := make([]byte, 4)
	binary.BigEndian.PutUint32(aux2, prevTagSize)
	copy(out[prevTagSize:prevTagSize+4], aux2)

	return out
}

// repairAggregateTags walks a type-22 FLV aggregate body and copies it into
// a new buffer, leaving body unchanged: each embedded tag is an 11-byte
// header + body, normally followed by a 4-byte prevTagSize. If that
// trailing value is missing it is synthesized; if it disagrees with the
// tag's real size it is corrected.
func repairAggregateTags(body []byte) ([]byte, error) {
	out := make([]byte, 0, len(body)+16)
	pos := 0

	for pos < len(body) {
		if pos+11 > len(body) {
			return nil, ErrFlvCorrupted
		}

		dataSize := uint32(body[pos+1])<<16 | uint32(body[pos+2])<<8 | uint32(body[pos+3])
		tagTotal := 11 + dataSize

		if pos+int(tagTotal) > len(body) {
			return nil, ErrFlvCorrupted
		}

		out = append(out, body[pos:pos+int(tagTotal)]...)

		correctPrevSize := make([]byte, 4)
		binary.BigEndian.PutUint32(correctPrevSize, tagTotal)

		if pos+int(tagTotal)+4 <= len(body) {
			existing := body[pos+int(tagTotal) : pos+int(tagTotal)+4]
			if binary.BigEndian.Uint32(existing) != tagTotal {
				out = append(out, correctPrevSize...)
			} else {
				out = append(out, existing...)
			}
			pos += int(tagTotal) + 4
		} else {
			// No trailing prevTagSize present: synthesize it.
			out = append(out, correctPrevSize...)
			pos += int(tagTotal)
		}
	}

	return out, nil
}
