package rtmpcore

import (
	"bytes"
	"net"
	"testing"
	"time"
)

// discardConn is a minimal net.Conn that buffers writes and fails every
// read at once with net.ErrClosed; enough for dispatcher tests that only exercise
// SendPacket (writes), not ReadPacket.
type discardConn struct {
	buf bytes.Buffer
}

func (c *discardConn) Read(b []byte) (int, error)       { return 0, net.ErrClosed }
func (c *discardConn) Write(b []byte) (int, error)      { return c.buf.Write(b) }
func (c *discardConn) Close() error                     { return nil }
func (c *discardConn) LocalAddr() net.Addr              { return dummyAddr{} }
func (c *discardConn) RemoteAddr() net.Addr             { return dummyAddr{} }
func (c *discardConn) SetDeadline(t time.Time) error     { return nil }
func (c *discardConn) SetReadDeadline(t time.Time) error { return nil }
func (c *discardConn) SetWriteDeadline(t time.Time) error { return nil }

type dummyAddr struct{}

func (dummyAddr) Network() string { return "tcp" }
func (dummyAddr) String() string  { return "test" }

func newTestPair(t *testing.T) (*SessionPair, string) {
	t.Helper()
	dir := t.TempDir()
	conn := NewRTMPConn(&discardConn{})
	pair := NewSessionPair(conn, dir)
	return pair, dir
}

func invokePacket(cmd RTMPCommand) *Packet {
	return commandPacket(0, cmd)
}

func TestDispatcherConnectInvokesOnConnect(t *testing.T) {
	pair, _ := newTestPair(t)
	called := false

	d := &Dispatcher{Pair: pair}
	d.OnConnect = func(cmd *RTMPCommand) error {
		called = true
		return nil
	}

	cmdObj := AMF0Object(map[string]*AMF0Value{
		"app":   strPtr("live"),
		"tcUrl": strPtr("rtmp://origin.test/live"),
	})
	connectCmd := NewRTMPCommand("connect", 1, cmdObj)

	verdict, err := d.Dispatch(FromClient, invokePacket(connectCmd))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if verdict != VerdictContinue {
		t.Fatalf("verdict = %v, want VerdictContinue", verdict)
	}
	if !called {
		t.Fatalf("expected OnConnect to be invoked")
	}
	if pair.S.Link.App != "live" {
		t.Fatalf("Link.App = %q, want %q", pair.S.Link.App, "live")
	}
	if pair.S.Link.Hostname != "origin.test" {
		t.Fatalf("Link.Hostname = %q, want %q", pair.S.Link.Hostname, "origin.test")
	}
}

func TestDispatcherConnectFatalOnOnConnectError(t *testing.T) {
	pair, _ := newTestPair(t)
	d := &Dispatcher{Pair: pair}
	d.OnConnect = func(cmd *RTMPCommand) error {
		return errConnectFailed
	}

	cmdObj := AMF0Object(map[string]*AMF0Value{"app": strPtr("live")})
	verdict, err := d.Dispatch(FromClient, invokePacket(NewRTMPCommand("connect", 1, cmdObj)))
	if err == nil {
		t.Fatalf("expected an error")
	}
	if verdict != VerdictFatal {
		t.Fatalf("verdict = %v, want VerdictFatal", verdict)
	}
}

func TestDispatcherPlayOpensOutputFileForProxy(t *testing.T) {
	pair, _ := newTestPair(t)
	d := &Dispatcher{Pair: pair}

	var gotOut *OutputFile
	d.OnPlay = func(cmd *RTMPCommand, out *OutputFile) {
		gotOut = out
	}

	playCmd := NewRTMPCommand("play", 0, AMF0Null(), AMF0String("mystream"), AMF0Number(0))
	verdict, err := d.Dispatch(FromClient, invokePacket(playCmd))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if verdict != VerdictContinue {
		t.Fatalf("verdict = %v, want VerdictContinue", verdict)
	}
	if gotOut == nil {
		t.Fatalf("expected OnPlay to receive an output file")
	}
	if pair.Files.Current() != nil {
		t.Fatalf("expected no current file before a Play.Start onStatus arrives")
	}
}

func TestDispatcherPlayDoesNotOpenFileForStub(t *testing.T) {
	pair, _ := newTestPair(t)
	d := &Dispatcher{Pair: pair, Stub: true}

	var gotOut *OutputFile
	d.OnPlay = func(cmd *RTMPCommand, out *OutputFile) {
		gotOut = out
	}

	playCmd := NewRTMPCommand("play", 0, AMF0Null(), AMF0String("mystream"), AMF0Number(0))
	if _, err := d.Dispatch(FromClient, invokePacket(playCmd)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotOut == nil {
		t.Fatalf("expected OnPlay to still be invoked")
	}
	if gotOut.Path == "" {
		t.Fatalf("expected a filename to be computed even though no file is opened")
	}
}

func TestDispatcherOnStatusVerdicts(t *testing.T) {
	cases := []struct {
		code string
		want Verdict
	}{
		{"NetStream.Play.Start", VerdictContinue},
		{"NetStream.Play.Stop", VerdictStopStream},
		{"NetStream.Play.Complete", VerdictStopStream},
		{"NetStream.Play.StreamNotFound", VerdictStopStream},
		{"NetConnection.Connect.InvalidApp", VerdictStopStream},
		{"NetStream.Play.Reset", VerdictContinue},
	}

	for _, c := range cases {
		t.Run(c.code, func(t *testing.T) {
			pair, _ := newTestPair(t)
			d := &Dispatcher{Pair: pair}

			info := AMF0Object(map[string]*AMF0Value{"code": strPtr(c.code)})
			cmd := NewRTMPCommand("onStatus", 0, AMF0Null(), info)

			verdict, err := d.Dispatch(FromServer, invokePacket(cmd))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if verdict != c.want {
				t.Fatalf("verdict = %v, want %v", verdict, c.want)
			}
		})
	}
}

func TestDispatcherPlay2ByteSuppression(t *testing.T) {
	pair, _ := newTestPair(t)
	d := &Dispatcher{Pair: pair}

	packet := invokePacket(NewRTMPCommand("play2", 0, AMF0Null()))
	verdict, err := d.Dispatch(FromClient, packet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if verdict != VerdictContinue {
		t.Fatalf("verdict = %v, want VerdictContinue", verdict)
	}
	if bytes.Contains(packet.Payload, []byte("play2")) {
		t.Fatalf("expected the play2 marker to be rewritten, payload still contains it: %q", packet.Payload)
	}
	if !bytes.Contains(packet.Payload, []byte("playz")) {
		t.Fatalf("expected the patched payload to read 'playz', got %q", packet.Payload)
	}
}

func TestClampSetBufferLength(t *testing.T) {
	p := BlankPacket()
	p.Header.PacketType = RtmpTypeEvent
	p.Payload = make([]byte, 10)
	p.Payload[1] = ctrlSetBufferLength
	// stream id = 1
	p.Payload[5] = 1
	// requested buffer time far beyond the 4-hour clamp
	be := uint32(99 * 60 * 60 * 1000)
	p.Payload[6] = byte(be >> 24)
	p.Payload[7] = byte(be >> 16)
	p.Payload[8] = byte(be >> 8)
	p.Payload[9] = byte(be)

	changed := ClampSetBufferLength(&p)
	if !changed {
		t.Fatalf("expected the buffer length to be clamped")
	}

	got := uint32(p.Payload[6])<<24 | uint32(p.Payload[7])<<16 | uint32(p.Payload[8])<<8 | uint32(p.Payload[9])
	if got != BufferTimeClamp {
		t.Fatalf("clamped value = %d, want %d", got, BufferTimeClamp)
	}
}

func TestClampSetBufferLengthIgnoresStreamZero(t *testing.T) {
	p := BlankPacket()
	p.Header.PacketType = RtmpTypeEvent
	p.Payload = make([]byte, 10)
	p.Payload[1] = ctrlSetBufferLength
	// stream id left at 0

	if ClampSetBufferLength(&p) {
		t.Fatalf("expected no clamp for stream id 0")
	}
}
