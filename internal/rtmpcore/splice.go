// Proxy splice engine: the long-lived loop owning both session halves
// for one accepted client. One reader goroutine per side feeds a
// channel, and the main loop selects over both channels plus a stall
// timer; channels give "whichever side is ready first" semantics without
// touching socket internals.

package rtmpcore

import (
	"net"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// Dialer opens the upstream TCP (or TLS) connection to the origin
// resolved from tcUrl. Injected so tests can substitute an in-memory pipe.
type Dialer func(hostname string, port int, protocol string) (net.Conn, error)

// DefaultDialer dials plain TCP. "rtmpe" is accepted and carried over
// plain TCP as well; the encrypted handshake variant is not implemented.
func DefaultDialer(hostname string, port int, protocol string) (net.Conn, error) {
	return net.DialTimeout("tcp", hostname+":"+strconv.Itoa(port), 10*time.Second)
}

// Engine runs the splice loop for one accepted client connection.
type Engine struct {
	Pair   *SessionPair
	Dialer Dialer

	probe MediaProbe

	handshakeTimeout time.Duration
	playingTimeout   time.Duration
	idleTimeout      time.Duration
}

func NewEngine(pair *SessionPair, dialer Dialer) *Engine {
	if dialer == nil {
		dialer = DefaultDialer
	}
	return &Engine{
		Pair:             pair,
		Dialer:           dialer,
		handshakeTimeout: 5 * time.Second,
		playingTimeout:   30 * time.Second,
		idleTimeout:      60 * time.Second,
	}
}

// Run drives the full lifecycle: downstream handshake, connect pump,
// bidirectional splice, and teardown. It returns once the session ends,
// for any reason; the caller (the per-connection worker) is expected to
// treat every returned error as local to this connection.
func (e *Engine) Run() error {
	defer e.Pair.Teardown()

	if err := e.Pair.S.ServerHandshake(e.handshakeTimeout); err != nil {
		return errors.Wrap(err, "downstream handshake")
	}
	e.Pair.SetState(StateInProgress)

	if err := e.connectPump(); err != nil {
		return errors.Wrap(err, "connect pump")
	}

	err := e.spliceLoop()
	LogDebugSession(0, e.Pair.ID, e.Pair.ClientIP, "Splice ended ("+e.probe.Summary()+")")
	return errors.Wrap(err, "splice loop")
}

type sideResult struct {
	pkt *Packet
	err error
}

func readSide(conn *RTMPConn, out chan<- sideResult, stop <-chan struct{}) {
	for {
		pkt, err := conn.ReadPacket(time.Time{})
		select {
		case out <- sideResult{pkt: pkt, err: err}:
		case <-stop:
			return
		}
		if err != nil {
			return
		}
	}
}

// connectPump implements phase 2: pump packets from S, dispatching
// each, until a `connect` has opened C. Only `connect` progresses this
// phase.
func (e *Engine) connectPump() error {
	dispatcher := &Dispatcher{Pair: e.Pair}
	connected := false
	dispatcher.OnConnect = e.openUpstream

	for !connected {
		pkt, err := e.Pair.S.ReadPacket(time.Now().Add(e.handshakeTimeout))
		if err != nil {
			return err
		}

		switch pkt.Header.PacketType {
		case RtmpTypeInvoke, RtmpTypeFlexMessage:
			verdict, err := dispatcher.Dispatch(FromClient, pkt)
			if err != nil {
				return err
			}
			if verdict == VerdictFatal {
				return errConnectFailed
			}
			if e.Pair.C != nil {
				connected = true
			}
		case RtmpTypeSetChunkSize:
			if n, ok := ParseSetChunkSize(pkt); ok {
				e.Pair.S.SetInChunkSize(n)
			}
		default:
			// Ignore anything else until connect completes.
		}
	}

	return nil
}

// openUpstream dials the origin the client's tcUrl names, handshakes,
// and replays the client's connect command verbatim (command object,
// extras and all) as the upstream session's first invocation. The
// captured connect packet is not forwarded again by the splice loop;
// this replay is the only copy the origin sees.
func (e *Engine) openUpstream(cmd *RTMPCommand) error {
	link := e.Pair.S.Link
	if link.Hostname == "" {
		return errors.Wrap(ErrUnknownScheme, "resolving origin from tcUrl")
	}

	conn, err := e.Dialer(link.Hostname, link.Port, link.Protocol)
	if err != nil {
		return errors.Wrap(err, "dialing upstream")
	}

	c := NewRTMPConn(conn)
	if err := c.ClientHandshake(e.handshakeTimeout); err != nil {
		conn.Close()
		return errors.Wrap(err, "upstream handshake")
	}

	c.Link = link
	e.Pair.C = c

	if err := c.SendPacket(commandPacket(0, *cmd)); err != nil {
		return errors.Wrap(err, "sending upstream connect")
	}

	SendSessionStartWebhook(e.Pair.ID, link.TcUrl, e.Pair.ClientIP)
	return nil
}

// spliceLoop implements phase 3: bidirectional forwarding with chunk-size
// synchronization, buffer-time clamping, FLV persistence, and pause/resume
// on upstream stall.
func (e *Engine) spliceLoop() error {
	dispatcher := &Dispatcher{Pair: e.Pair}
	dispatcher.OnPlay = func(cmd *RTMPCommand, out *OutputFile) {
		args := BuildDownloaderArgs(&e.Pair.S.Link, out.Path, "--jtv")
		if err := AppendCommandLog(e.Pair.WorkDir, RenderCommandLine("rtmpdump", args)); err != nil {
			LogError(err)
		}
	}

	sChan := make(chan sideResult, 4)
	cChan := make(chan sideResult, 4)
	stop := make(chan struct{})
	defer close(stop)

	go readSide(e.Pair.S, sChan, stop)
	go readSide(e.Pair.C, cChan, stop)

	missedTimeouts := 0

	for e.Pair.Active() {
		timeout := e.idleTimeout
		if e.Pair.Files.Current() != nil {
			timeout = e.playingTimeout
		}

		select {
		case res := <-sChan:
			if res.err != nil {
				if e.Pair.Files.Current() == nil {
					if e.Pair.C != nil {
						e.Pair.C.Close()
					}
					return nil
				}
				return res.err
			}
			missedTimeouts = 0
			if err := e.handleFromClient(dispatcher, res.pkt); err != nil {
				return err
			}

		case res := <-cChan:
			if res.err != nil {
				return res.err
			}
			missedTimeouts = 0
			if err := e.handleFromUpstream(dispatcher, res.pkt); err != nil {
				return err
			}

		case <-time.After(timeout):
			if e.Pair.Files.Current() != nil && e.Pair.C != nil && e.Pair.C.Playing && !e.Pair.C.Paused {
				e.Pair.C.Paused = true
				e.Pair.C.PauseTime = e.Pair.Watermark
				e.Pair.C.SendPacket(commandPacket(0, PauseCommand(true, e.Pair.Watermark)))
				missedTimeouts++
				if missedTimeouts >= 2 {
					return errSpliceStalled
				}
				continue
			}
			missedTimeouts++
			if missedTimeouts >= 2 {
				return errSpliceStalled
			}
		}
	}

	return nil
}

func (e *Engine) handleFromClient(d *Dispatcher, pkt *Packet) error {
	switch pkt.Header.PacketType {
	case RtmpTypeSetChunkSize:
		if n, ok := ParseSetChunkSize(pkt); ok {
			e.Pair.S.SetInChunkSize(n)
			e.Pair.C.SetOutChunkSize(n)
		}
	case RtmpTypeAcknowledgement:
		// Bytes-read report: observe and forward, no state change needed.
	case RtmpTypeEvent:
		ClampSetBufferLength(pkt)
	case RtmpTypeInvoke, RtmpTypeFlexMessage:
		verdict, err := d.Dispatch(FromClient, pkt)
		if err != nil {
			return err
		}
		if verdict == VerdictStopStream {
			e.Pair.Files.CloseCurrent()
		}
	}

	if e.Pair.C == nil {
		return nil
	}
	return e.Pair.C.SendPacket(pkt)
}

func (e *Engine) handleFromUpstream(d *Dispatcher, pkt *Packet) error {
	if e.Pair.C.Paused {
		if pkt.Clock <= e.Pair.C.PauseTime {
			return nil
		}
		e.Pair.C.Paused = false
	}

	switch pkt.Header.PacketType {
	case RtmpTypeSetChunkSize:
		if n, ok := ParseSetChunkSize(pkt); ok {
			e.Pair.C.SetInChunkSize(n)
			e.Pair.S.SetOutChunkSize(n)
		}
	case RtmpTypeEvent:
		if IsSwfVerifyRequest(pkt) {
			// No SWF hash is available to answer the challenge with, and
			// forwarding it to a client that never sent a swfUrl of its own
			// would stall both sides.
			LogWarning("Upstream requested SWF verification; closing session")
			return errSwfVerifyUnsupported
		}
	case RtmpTypeAudio, RtmpTypeVideo, RtmpTypeData, RtmpTypeMetadata:
		e.probe.Observe(e.Pair.ID, pkt)
		if out := e.Pair.Files.Current(); out != nil {
			tag, err := WriteFlvTag(pkt)
			if err != nil {
				return err
			}
			if tag != nil {
				if pkt.Clock > e.Pair.Watermark {
					e.Pair.Watermark = pkt.Clock
				}
				if err := out.Write(tag); err != nil {
					return err
				}
			}
		}
	case RtmpTypeInvoke, RtmpTypeFlexMessage:
		verdict, err := d.Dispatch(FromServer, pkt)
		if err != nil {
			return err
		}
		if verdict == VerdictStopStream {
			e.Pair.Files.CloseCurrent()
		}
	}

	return e.Pair.S.SendPacket(pkt)
}

var (
	errConnectFailed        = errors.New("rtmpcore: connect did not open upstream")
	errSpliceStalled        = errors.New("rtmpcore: splice stalled with no progress on either side")
	errSwfVerifyUnsupported = errors.New("rtmpcore: upstream requested SWF verify but no hash is configured")
)
