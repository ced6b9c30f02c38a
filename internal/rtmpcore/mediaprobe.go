// Media probe: inspects the audio/video messages flowing to an output
// file and logs, once per session side, what codec the recording carries.
// Sequence headers are parsed with the AAC/AVC/HEVC specific-config
// readers so the log line names the profile, sample rate and dimensions
// rather than just a codec id.

package rtmpcore

import (
	"fmt"
	"strconv"
)

// MediaProbe accumulates codec information for one spliced session.
type MediaProbe struct {
	audioCodec uint32
	videoCodec uint32

	audioLogged bool
	videoLogged bool
}

// Observe inspects one media packet on its way to the FLV writer.
func (m *MediaProbe) Observe(sessionUUID string, packet *Packet) {
	switch packet.Header.PacketType {
	case RtmpTypeAudio:
		m.observeAudio(sessionUUID, packet.Payload)
	case RtmpTypeVideo:
		m.observeVideo(sessionUUID, packet.Payload)
	}
}

func (m *MediaProbe) observeAudio(sessionUUID string, payload []byte) {
	if m.audioLogged || len(payload) < 2 {
		return
	}

	soundFormat := (payload[0] >> 4) & 0x0f
	if m.audioCodec == 0 {
		m.audioCodec = uint32(soundFormat)
	}

	isHeader := (soundFormat == 10 || soundFormat == 13) && payload[1] == 0
	if isHeader {
		info := readAACSpecificConfig(payload)
		LogDebugSession(0, sessionUUID, "", fmt.Sprintf("Audio: AAC %s %d Hz %dch",
			getAACProfileName(info), info.sample_rate, info.channels))
		m.audioLogged = true
		return
	}

	if int(soundFormat) < len(AUDIO_CODEC_NAME) && AUDIO_CODEC_NAME[soundFormat] != "" {
		LogDebugSession(0, sessionUUID, "", "Audio: "+AUDIO_CODEC_NAME[soundFormat])
		m.audioLogged = true
	}
}

func (m *MediaProbe) observeVideo(sessionUUID string, payload []byte) {
	if m.videoLogged || len(payload) < 2 {
		return
	}

	frameType := (payload[0] >> 4) & 0x0f
	codecID := payload[0] & 0x0f
	if m.videoCodec == 0 {
		m.videoCodec = uint32(codecID)
	}

	isHeader := (codecID == AVC_CODEC_H264 || codecID == AVC_CODEC_HEVC) && frameType == 1 && payload[1] == 0
	if isHeader {
		info := readAVCSpecificConfig(payload)
		var width, height uint32
		var level float32
		if info.codec == AVC_CODEC_H264 {
			width, height, level = info.h264.width, info.h264.height, info.h264.level
		} else {
			width, height, level = info.hevc.width, info.hevc.height, info.hevc.level
		}
		LogDebugSession(0, sessionUUID, "", fmt.Sprintf("Video: %s %s level %.1f %dx%d",
			VIDEO_CODEC_NAME[codecID], getAVCProfileName(info), level, width, height))
		m.videoLogged = true
		return
	}

	if int(codecID) < len(VIDEO_CODEC_NAME) && VIDEO_CODEC_NAME[codecID] != "" {
		LogDebugSession(0, sessionUUID, "", "Video: "+VIDEO_CODEC_NAME[codecID])
		m.videoLogged = true
	}
}

// Summary renders the probed codec pair for teardown log lines.
func (m *MediaProbe) Summary() string {
	audio := "none"
	if int(m.audioCodec) < len(AUDIO_CODEC_NAME) && AUDIO_CODEC_NAME[m.audioCodec] != "" {
		audio = AUDIO_CODEC_NAME[m.audioCodec]
	} else if m.audioCodec != 0 {
		audio = strconv.Itoa(int(m.audioCodec))
	}
	video := "none"
	if int(m.videoCodec) < len(VIDEO_CODEC_NAME) && VIDEO_CODEC_NAME[m.videoCodec] != "" {
		video = VIDEO_CODEC_NAME[m.videoCodec]
	} else if m.videoCodec != 0 {
		video = strconv.Itoa(int(m.videoCodec))
	}
	return "audio=" + audio + " video=" + video
}
