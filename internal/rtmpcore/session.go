// SessionPair: the per-connection object pair owned by one worker. The
// downstream handle S (toward the client), the upstream handle C (toward
// the origin), the output file list, and the lifecycle state enum.

package rtmpcore

import (
	"sync"

	"github.com/google/uuid"
)

// State is the session pair's lifecycle stage.
type State int

const (
	StateAccepting State = iota
	StateInProgress
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateAccepting:
		return "accepting"
	case StateInProgress:
		return "in_progress"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// SessionPair holds both halves of one spliced (or stub-terminated)
// connection plus the bookkeeping the dispatcher and splice engine share.
type SessionPair struct {
	ID string // session UUID, used in log lines and lifecycle webhooks

	S *RTMPConn // downstream, toward the client
	C *RTMPConn // upstream, toward the origin (nil in the stub variant)

	Files     *Flist
	Filenames *FilenameSelector
	Watermark int64

	WorkDir  string // directory output files and Command.txt are written to
	ClientIP string

	mu    sync.Mutex
	state State
}

// NewSessionPair creates a session pair around an already-handshaked
// downstream connection.
func NewSessionPair(s *RTMPConn, workDir string) *SessionPair {
	return &SessionPair{
		ID:        uuid.NewString(),
		S:         s,
		Files:     NewFlist(),
		Filenames: NewFilenameSelector(),
		WorkDir:   workDir,
		state:     StateAccepting,
	}
}

func (sp *SessionPair) State() State {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.state
}

func (sp *SessionPair) SetState(s State) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	sp.state = s
}

// Active reports whether the pair is still eligible to splice traffic;
// the splice loop's cooperative cancellation checks this each iteration.
func (sp *SessionPair) Active() bool {
	s := sp.State()
	return s == StateAccepting || s == StateInProgress
}

// Teardown closes both handles and every output file: sockets first,
// then the file list. Safe to call more than once; only the first call
// does the work.
func (sp *SessionPair) Teardown() {
	sp.mu.Lock()
	alreadyDone := sp.state == StateStopped
	sp.state = StateStopped
	sp.mu.Unlock()
	if alreadyDone {
		return
	}

	if sp.C != nil {
		sp.C.Close()
	}
	if sp.S != nil {
		sp.S.Close()
	}
	sp.Files.CloseAll()
	if sp.S != nil && sp.S.Link.TcUrl != "" {
		SendSessionStopWebhook(sp.ID, sp.S.Link.TcUrl, sp.ClientIP)
	}
}
