// Invocation dispatcher: decodes one INVOKE or FLEX_MESSAGE command and
// decides what the splice engine (or stub server) should do next. The
// `side` argument names the peer that sent the command: the client sends
// connect/createStream/play/play2/NetStream.Authenticate.UsherToken/
// closeStream/close, the origin sends onStatus. Handling is chosen by
// method name alone; Dispatch does not branch on `side`.

package rtmpcore

import (
	"strings"
)

// Verdict is what the dispatcher decided should happen to the session
// after handling one command.
type Verdict int

const (
	VerdictContinue Verdict = iota
	VerdictStopStream
	VerdictFatal
)

// Side identifies which peer sent the command being dispatched.
type Side int

const (
	FromClient Side = 0
	FromServer Side = 1
)

// failureCodes are the onStatus codes from the origin that terminate the
// current output stream.
var failureCodes = map[string]bool{
	"NetStream.Failed":                    true,
	"NetStream.Play.Failed":               true,
	"NetStream.Play.StreamNotFound":       true,
	"NetConnection.Connect.InvalidApp":    true,
	"NetStream.Play.Complete":             true,
	"NetStream.Play.Stop":                 true,
}

// Dispatcher holds the knobs that vary between the proxy and the stub
// variant, and the callbacks the splice/stub engines register for side
// effects the dispatcher itself shouldn't own (dialing upstream, spawning
// a downloader, writing Command.txt).
type Dispatcher struct {
	Pair *SessionPair

	// Stub selects stub-only reply behavior (createStream/getStreamLength/
	// _checkbw/checkBandwidth/FCSubscribe all answer locally instead of
	// forwarding).
	Stub bool

	// WindowsUsherEscaping additionally escapes '^' and '|' in the usher
	// token, for downloader argvs built for a Windows target shell.
	WindowsUsherEscaping bool

	// OnConnect is invoked once a client `connect` has been fully
	// captured into Pair.S.Link; it is expected to dial upstream (proxy)
	// or synthesize a connect reply (stub) and returns an error to signal
	// a fatal verdict.
	OnConnect func(cmd *RTMPCommand) error

	// OnPlay is invoked once a `play` has been captured and its output
	// file opened; used to append the Command.txt line / spawn the
	// downloader. Receives the just-appended output file.
	OnPlay func(cmd *RTMPCommand, out *OutputFile)

	nextStreamID int64
}

// NextStreamID hands out the monotonic stub stream id counter (starts
// at 0, pre-incremented).
func (d *Dispatcher) NextStreamID() int64 {
	d.nextStreamID++
	return d.nextStreamID
}

// Dispatch decodes and handles one command/data message. packet.Header.
// PacketType must be RtmpTypeInvoke or RtmpTypeFlexMessage; for the
// latter, the leading AMF3 marker byte is skipped before decoding.
func (d *Dispatcher) Dispatch(side Side, packet *Packet) (Verdict, error) {
	payload := packet.Payload
	if packet.Header.PacketType == RtmpTypeFlexMessage && len(payload) > 0 {
		payload = payload[1:]
	}

	cmd := DecodeRTMPCommand(payload)

	switch cmd.cmd {
	case "connect":
		return d.handleConnect(&cmd)
	case "createStream":
		return d.handleCreateStream(&cmd)
	case "getStreamLength":
		return d.handleGetStreamLength(&cmd)
	case "NetStream.Authenticate.UsherToken":
		d.Pair.S.Link.SetUsherToken(cmd.GetArg("token").GetString())
		if d.WindowsUsherEscaping {
			d.Pair.S.Link.UsherToken = strings.ReplaceAll(d.Pair.S.Link.UsherToken, "^", "^^")
			d.Pair.S.Link.UsherToken = strings.ReplaceAll(d.Pair.S.Link.UsherToken, "|", "^|")
		}
		return VerdictContinue, nil
	case "_checkbw":
		if d.Stub {
			d.Pair.S.SendPacket(commandPacket(0, OnBWDoneUnderscore()))
		}
		return VerdictContinue, nil
	case "checkBandwidth":
		if d.Stub {
			d.Pair.S.SendPacket(commandPacket(0, OnBWDone()))
		}
		return VerdictContinue, nil
	case "FCSubscribe":
		if d.Stub {
			d.Pair.S.SendPacket(commandPacket(0, OnFCSubscribe()))
		}
		return VerdictContinue, nil
	case "play2":
		rewritePlay2(packet)
		return VerdictContinue, nil
	case "play":
		return d.handlePlay(&cmd, packet)
	case "onStatus":
		return d.handleOnStatus(&cmd, packet)
	case "closeStream":
		return VerdictStopStream, nil
	case "close":
		if d.Pair.C != nil {
			d.Pair.C.Close()
		}
		return VerdictStopStream, nil
	default:
		return VerdictContinue, nil
	}
}

func (d *Dispatcher) handleConnect(cmd *RTMPCommand) (Verdict, error) {
	d.Pair.S.Link.CaptureConnectArgs(cmd.CmdObj())
	d.Pair.S.Link.CaptureExtraArgs(cmd.Args[1:])

	if d.OnConnect != nil {
		if err := d.OnConnect(cmd); err != nil {
			return VerdictFatal, err
		}
	}
	return VerdictContinue, nil
}

func (d *Dispatcher) handleCreateStream(cmd *RTMPCommand) (Verdict, error) {
	if d.Stub {
		tid := cmd.tid
		d.Pair.S.SendPacket(commandPacket(0, CreateStreamResult(tid, d.NextStreamID())))
	}
	return VerdictContinue, nil
}

func (d *Dispatcher) handleGetStreamLength(cmd *RTMPCommand) (Verdict, error) {
	if d.Stub {
		d.Pair.S.SendPacket(commandPacket(0, GetStreamLengthResult(cmd.tid)))
	}
	return VerdictContinue, nil
}

func (d *Dispatcher) handlePlay(cmd *RTMPCommand, packet *Packet) (Verdict, error) {
	link := &d.Pair.S.Link
	d.Pair.S.StreamID = packet.Header.StreamID

	playpath := cmd.GetArg("streamName").GetString()
	link.Playpath = playpath

	startFlag := cmd.GetArg("start").GetDouble()
	start := cmd.GetArg("start")
	if !start.IsUndefined() && !start.IsNull() {
		if startFlag == -1000.0 || link.Live {
			startFlag = -1000
		}
	}

	filename := d.Pair.Filenames.SelectFilename(playpath)
	out := &OutputFile{Playpath: playpath, Path: filename, StartFlag: startFlag}

	// The stub never writes FLV bytes itself: the spawned downloader
	// writes the file at `out.Path`, so there is no OutputFile to track
	// on the session's Flist or to open here.
	if !d.Stub {
		if err := out.Open(d.Pair.WorkDir); err != nil {
			return VerdictFatal, err
		}
		d.Pair.Files.Append(out)
	}

	if d.OnPlay != nil {
		d.OnPlay(cmd, out)
	}

	return VerdictContinue, nil
}

func (d *Dispatcher) handleOnStatus(cmd *RTMPCommand, packet *Packet) (Verdict, error) {
	info := cmd.GetArg("info")
	code := info.GetProperty("code").GetString()

	switch code {
	case "NetStream.Play.Start":
		d.Pair.Files.AdvanceOnPlayStart()
		if d.Pair.C != nil {
			d.Pair.C.Playing = true
		}
		return VerdictContinue, nil
	case "NetStream.Play.Complete", "NetStream.Play.Stop":
		return VerdictStopStream, nil
	default:
		if failureCodes[code] {
			return VerdictStopStream, nil
		}
		return VerdictContinue, nil
	}
}

// commandPacket wraps an encoded command into an INVOKE packet ready for
// RTMPConn.SendPacket.
func commandPacket(streamID uint32, cmd RTMPCommand) *Packet {
	p := BlankPacket()
	p.Header.Cid = RtmpChannelInvoke
	p.Header.PacketType = RtmpTypeInvoke
	p.Header.StreamID = streamID
	p.Payload = cmd.Encode()
	p.Header.Length = uint32(len(p.Payload))
	return &p
}

// rewritePlay2 suppresses bitrate transitions: the 5th byte of the ASCII
// substring "play2" found in the raw message body (including the leading
// AMF3 marker byte of a flex message, if present) is overwritten from '2'
// to 'z', so the origin never sees a play2 it would honor.
func rewritePlay2(packet *Packet) {
	idx := indexOfASCII(packet.Payload, "play2")
	if idx < 0 {
		return
	}
	pos := idx + 4
	if pos < len(packet.Payload) {
		packet.Payload[pos] = 'z'
	}
}

func indexOfASCII(haystack []byte, needle string) int {
	n := len(needle)
	if n == 0 || len(haystack) < n {
		return -1
	}
	for i := 0; i+n <= len(haystack); i++ {
		match := true
		for j := 0; j < n; j++ {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
