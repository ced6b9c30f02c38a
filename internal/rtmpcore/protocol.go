// RTMP protocol constants

package rtmpcore

const NChunkStream = 8
const RtmpVersion = 3
const RtmpHandshakeSize = 1536

const RtmpParseInit = 0
const RtmpParseBasicHeader = 1
const RtmpParseMessageHeader = 2
const RtmpParseExtendedTimestamp = 3
const RtmpParsePayload = 4

const MaxChunkHeader = 18

const RtmpChunkType0 = 0 // 11-bytes: timestamp(3) + length(3) + stream type(1) + stream id(4)
const RtmpChunkType1 = 1 // 7-bytes: delta(3) + length(3) + stream type(1)
const RtmpChunkType2 = 2 // 3-bytes: delta(3)
const RtmpChunkType3 = 3 // 0-byte

const RtmpChannelProtocol = 2
const RtmpChannelInvoke = 3
const RtmpChannelAudio = 4
const RtmpChannelVideo = 5
const RtmpChannelData = 6

var rtmpHeaderSize = []uint32{11, 7, 3, 0}

/* Protocol Control Messages */
const RtmpTypeSetChunkSize = 1
const RtmpTypeAbort = 2
const RtmpTypeAcknowledgement = 3            // bytes read report
const RtmpTypeWindowAcknowledgementSize = 5  // server bandwidth
const RtmpTypeSetPeerBandwidth = 6           // client bandwidth

/* User Control Messages Event (4) */
const RtmpTypeEvent = 4

const RtmpTypeAudio = 8
const RtmpTypeVideo = 9

/* Data Message */
const RtmpTypeFlexStream = 15 // AMF3
const RtmpTypeData = 18       // AMF0

/* Shared Object Message */
const RtmpTypeFlexObject = 16   // AMF3
const RtmpTypeSharedObject = 19 // AMF0

/* Command Message */
const RtmpTypeFlexMessage = 17 // AMF3
const RtmpTypeInvoke = 20      // AMF0

/* Aggregate Message (FLV tags bundled together) */
const RtmpTypeMetadata = 22

const RtmpDefaultChunkSize = 128
const RtmpPingTime = 60000
const RtmpPingTimeout = 30000

const StreamBegin = 0x00
const StreamEof = 0x01
const StreamDry = 0x02
const StreamEmpty = 0x1f
const StreamReady = 0x20
