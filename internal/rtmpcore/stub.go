// Stub invocation server: terminates the RTMP handshake locally and
// synthesizes every reply a real origin would give, so a player connects
// successfully and believes a stream started, while an external
// downloader process does the actual capturing. No upstream ("C") handle
// exists in this variant.

package rtmpcore

import (
	"time"

	"github.com/pkg/errors"
)

// stubDupWindow: repeat plays for the same playpath within this window
// are treated as a client retry and don't spawn a second downloader.
const stubDupWindow = 5 * time.Second

// StubConfig carries the knobs that vary between stub deployments.
type StubConfig struct {
	DownloaderBin        string // defaults to "rtmpdump"
	VLCBatch             bool   // write VLC.bat alongside Command.txt
	WindowsUsherEscaping bool
}

// StubServer drives one stub-terminated session to completion.
type StubServer struct {
	Pair   *SessionPair
	Config StubConfig

	idleTimeout      time.Duration
	handshakeTimeout time.Duration

	lastPlaypath string
	lastPlayTime time.Time
}

func NewStubServer(pair *SessionPair, cfg StubConfig) *StubServer {
	if cfg.DownloaderBin == "" {
		cfg.DownloaderBin = "rtmpdump"
	}
	return &StubServer{
		Pair:             pair,
		Config:           cfg,
		idleTimeout:      60 * time.Second,
		handshakeTimeout: 5 * time.Second,
	}
}

// Run performs the handshake, then answers invocations until the client
// disconnects or issues closeStream/close.
func (s *StubServer) Run() error {
	defer s.Pair.Teardown()

	if err := s.Pair.S.ServerHandshake(s.handshakeTimeout); err != nil {
		return errors.Wrap(err, "stub handshake")
	}
	s.Pair.SetState(StateInProgress)

	dispatcher := &Dispatcher{
		Pair:                 s.Pair,
		Stub:                 true,
		WindowsUsherEscaping: s.Config.WindowsUsherEscaping,
	}
	dispatcher.OnConnect = s.replyConnect
	dispatcher.OnPlay = func(cmd *RTMPCommand, out *OutputFile) {
		s.servePlay(out)
	}

	for s.Pair.Active() {
		pkt, err := s.Pair.S.ReadPacket(time.Now().Add(s.idleTimeout))
		if err != nil {
			return err
		}

		switch pkt.Header.PacketType {
		case RtmpTypeSetChunkSize:
			if n, ok := ParseSetChunkSize(pkt); ok {
				s.Pair.S.SetInChunkSize(n)
			}
		case RtmpTypeInvoke, RtmpTypeFlexMessage:
			verdict, err := dispatcher.Dispatch(FromClient, pkt)
			if err != nil {
				return err
			}
			if verdict == VerdictStopStream || verdict == VerdictFatal {
				return nil
			}
		default:
			// AUDIO/VIDEO/CONTROL/SERVER_BW/CLIENT_BW from the client are
			// ignored; the stub never publishes or relays media.
		}
	}

	return nil
}

// replyConnect answers connect with the synthesized FMS identity and
// then fires an unsolicited onBWDone.
func (s *StubServer) replyConnect(cmd *RTMPCommand) error {
	link := &s.Pair.S.Link
	if err := s.Pair.S.SendPacket(commandPacket(0, ConnectResult(cmd.tid, link.ObjectEncoding))); err != nil {
		return err
	}
	if err := s.Pair.S.SendPacket(commandPacket(0, OnBWDoneInitial())); err != nil {
		return err
	}
	SendSessionStartWebhook(s.Pair.ID, link.TcUrl, s.Pair.ClientIP)
	return nil
}

// isDuplicatePlay reports whether a play for playpath at the given time
// repeats the previous play within the dedup window, updating the
// window state either way.
func (s *StubServer) isDuplicatePlay(playpath string, now time.Time) bool {
	dup := playpath == s.lastPlaypath && now.Sub(s.lastPlayTime) < stubDupWindow
	s.lastPlaypath = playpath
	s.lastPlayTime = now
	return dup
}

// servePlay builds and launches the downloader command for one play,
// deduplicating rapid repeats of the same playpath, then brackets a
// synthesized Play.Start/Play.Stop with STREAM_BEGIN/STREAM_EOF control
// events so the client believes playback ran to completion.
func (s *StubServer) servePlay(out *OutputFile) {
	if s.isDuplicatePlay(out.Playpath, time.Now()) {
		LogDebugSession(0, s.Pair.ID, s.Pair.ClientIP, "Duplicate play of '"+out.Playpath+"' within window, skipped")
		return
	}

	link := &s.Pair.S.Link
	args := BuildDownloaderArgs(link, out.Path, "-j")

	if err := AppendCommandLog(s.Pair.WorkDir, RenderCommandLine(s.Config.DownloaderBin, args)); err != nil {
		LogError(err)
	}
	if s.Config.VLCBatch {
		if err := WriteVLCBatch(s.Pair.WorkDir, link.TcUrl, link.Playpath); err != nil {
			LogError(err)
		}
	}
	if _, err := SpawnDownloader(s.Config.DownloaderBin, args); err != nil {
		LogError(err)
		return
	}

	streamID := s.Pair.S.StreamID
	if streamID == 0 {
		streamID = 1
	}

	s.Pair.S.SendPacket(EncodeControlEvent(ctrlStreamBegin, streamID))
	s.Pair.S.SendPacket(commandPacket(streamID, OnStatus(streamID, 0,
		"status", "NetStream.Play.Start", "Started playing", link.Playpath, "clientid")))
	s.Pair.S.SendPacket(EncodeControlEvent(ctrlStreamEOF, streamID))
	s.Pair.S.SendPacket(commandPacket(streamID, OnStatus(streamID, 0,
		"status", "NetStream.Play.Stop", "Stopped playing", link.Playpath, "clientid")))
}
