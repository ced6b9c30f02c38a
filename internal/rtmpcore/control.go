// User Control Message (type 4) helpers used by the splice engine: the
// buffer-length clamp on SetBufferLength requests from the client, and
// the SWF-verify handshake on the upstream side. Both are splice-loop
// responsibilities rather than dispatcher ones, since they never go
// through AMF decoding.

package rtmpcore

import "encoding/binary"

const (
	ctrlStreamBegin      = 0x00
	ctrlStreamEOF        = 0x01
	ctrlStreamDry        = 0x02
	ctrlSetBufferLength  = 0x03
	ctrlStreamIsRecorded = 0x04
	ctrlPingRequest      = 0x06
	ctrlPingResponse     = 0x07
	ctrlSwfVerifyRequest = 0x1a
	ctrlSwfVerifyResp    = 0x1b
)

// BufferTimeClamp is the upper bound on a client-requested buffer time:
// 4 hours, expressed in milliseconds.
const BufferTimeClamp = 4 * 60 * 60 * 1000

// ControlSubType returns the 16-bit event type of a CONTROL (type 4)
// packet's body, or false if the body is too short to contain one.
func ControlSubType(packet *Packet) (uint16, bool) {
	if packet.Header.PacketType != RtmpTypeEvent || len(packet.Payload) < 2 {
		return 0, false
	}
	return binary.BigEndian.Uint16(packet.Payload[0:2]), true
}

// ClampSetBufferLength overwrites a SetBufferLength (sub-type 3) event's
// requested buffer-time, if it exceeds BufferTimeClamp and the target
// stream id is non-zero. Returns true if the packet was modified.
func ClampSetBufferLength(packet *Packet) bool {
	subType, ok := ControlSubType(packet)
	if !ok || subType != ctrlSetBufferLength {
		return false
	}
	if len(packet.Payload) < 10 {
		return false
	}
	streamID := binary.BigEndian.Uint32(packet.Payload[2:6])
	if streamID == 0 {
		return false
	}
	requested := binary.BigEndian.Uint32(packet.Payload[6:10])
	if requested <= BufferTimeClamp {
		return false
	}
	binary.BigEndian.PutUint32(packet.Payload[6:10], BufferTimeClamp)
	return true
}

// IsSwfVerifyRequest reports whether packet is the upstream's SWF-verify
// challenge (CONTROL sub-type 0x1a).
func IsSwfVerifyRequest(packet *Packet) bool {
	subType, ok := ControlSubType(packet)
	return ok && subType == ctrlSwfVerifyRequest
}

// BuildSwfVerifyResponse builds the 0x1b control reply carrying a
// precomputed SWF hash. Hash computation happens outside this process;
// callers that have no hash available should let the session die rather
// than call this.
func BuildSwfVerifyResponse(swfHash [32]byte, swfSize uint32) *Packet {
	body := make([]byte, 2+42)
	binary.BigEndian.PutUint16(body[0:2], ctrlSwfVerifyResp)
	copy(body[2:2+32], swfHash[:])
	binary.BigEndian.PutUint32(body[34:38], swfSize)

	p := BlankPacket()
	p.Header.Cid = RtmpChannelProtocol
	p.Header.PacketType = RtmpTypeEvent
	p.Payload = body
	p.Header.Length = uint32(len(body))
	return &p
}

// ParseSetChunkSize reads the new chunk size out of a SET_CHUNK_SIZE
// (type 1) message.
func ParseSetChunkSize(packet *Packet) (uint32, bool) {
	if packet.Header.PacketType != RtmpTypeSetChunkSize || len(packet.Payload) < 4 {
		return 0, false
	}
	return binary.BigEndian.Uint32(packet.Payload[0:4]), true
}

// EncodeControlEvent builds a generic User Control Message (type 4)
// event carrying a 4-byte stream id, used by the stub server to bracket
// a play with STREAM_BEGIN/STREAM_EOF.
func EncodeControlEvent(subType uint16, streamID uint32) *Packet {
	body := make([]byte, 6)
	binary.BigEndian.PutUint16(body[0:2], subType)
	binary.BigEndian.PutUint32(body[2:6], streamID)

	p := BlankPacket()
	p.Header.Cid = RtmpChannelProtocol
	p.Header.PacketType = RtmpTypeEvent
	p.Payload = body
	p.Header.Length = uint32(len(body))
	return &p
}

// EncodeSetChunkSize builds a SET_CHUNK_SIZE control message.
func EncodeSetChunkSize(size uint32) *Packet {
	body := make([]byte, 4)
	binary.BigEndian.PutUint32(body, size)

	p := BlankPacket()
	p.Header.Cid = RtmpChannelProtocol
	p.Header.PacketType = RtmpTypeSetChunkSize
	p.Payload = body
	p.Header.Length = uint32(len(body))
	return &p
}
