// Outbound ops-coordinator connection: an optional websocket the proxy
// dials out to, so an operator can push KILL-SESSION / LIST-SESSIONS
// requests to a running worker without reaching its socket directly.
//
// The connection authenticates with an x-control-auth-token header,
// reconnects after a disconnect (retrying every 10 seconds while the
// coordinator is unreachable), and heartbeats every 20 seconds. The method
// set covers this domain: killing a session pair by UUID and reporting
// which are active.

package rtmpcore

import (
	"net/http"
	"net/url"
	"os"
	"strconv"
	"sync"
	"time"

	messages "github.com/AgustinSRG/go-simple-rpc-message"
	"github.com/gorilla/websocket"
)

// SessionRegistry is the subset of Server's bookkeeping the ops
// connection needs; kept as an interface so this file has no dependency
// on Server's concrete type.
type SessionRegistry interface {
	KillSession(id string) bool
	ActiveSessionIDs() []string
}

// OpsController is the outbound connection to an operations coordinator.
type OpsController struct {
	registry SessionRegistry

	connectionURL string
	connection    *websocket.Conn

	lock *sync.Mutex

	enabled bool
}

// NewOpsController builds a controller for registry. It does nothing
// until Initialize is called.
func NewOpsController(registry SessionRegistry) *OpsController {
	return &OpsController{registry: registry, lock: &sync.Mutex{}}
}

// Initialize reads CONTROL_BASE_URL; if unset, the proxy runs standalone
// and no connection is attempted.
func (c *OpsController) Initialize() {
	baseURL := os.Getenv("CONTROL_BASE_URL")
	if baseURL == "" {
		LogWarning("[WS-CONTROL] CONTROL_BASE_URL not set; running stand-alone")
		return
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		LogError(err)
		return
	}
	path, _ := url.Parse("/ws/control/rtmp")

	c.connectionURL = base.ResolveReference(path).String()
	c.enabled = true

	go c.connect()
	go c.heartbeatLoop()
}

func (c *OpsController) connect() {
	c.lock.Lock()
	if c.connection != nil {
		c.lock.Unlock()
		return
	}

	LogInfo("[WS-CONTROL] Connecting to " + c.connectionURL)

	headers := http.Header{}
	if token := ControlAuthToken(); token != "" {
		headers.Set("x-control-auth-token", token)
	}
	if ip := os.Getenv("EXTERNAL_IP"); ip != "" {
		headers.Set("x-external-ip", ip)
	}

	conn, _, err := websocket.DefaultDialer.Dial(c.connectionURL, headers)
	if err != nil {
		c.lock.Unlock()
		LogErrorMessage("[WS-CONTROL] Connection error: " + err.Error())
		go c.reconnect()
		return
	}

	c.connection = conn
	c.lock.Unlock()

	go c.readLoop(conn)
}

func (c *OpsController) reconnect() {
	time.Sleep(10 * time.Second)
	c.connect()
}

func (c *OpsController) onDisconnect(err error) {
	c.lock.Lock()
	c.connection = nil
	c.lock.Unlock()
	LogInfo("[WS-CONTROL] Disconnected: " + err.Error())
	go c.connect()
}

// Send serializes and writes msg; returns false if not currently
// connected.
func (c *OpsController) Send(msg messages.RPCMessage) bool {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.connection == nil {
		return false
	}
	c.connection.WriteMessage(websocket.TextMessage, []byte(msg.Serialize()))
	LogDebug("[WS-CONTROL] >>> " + msg.Method)
	return true
}

func (c *OpsController) readLoop(conn *websocket.Conn) {
	for {
		if err := conn.SetReadDeadline(time.Now().Add(60 * time.Second)); err != nil {
			conn.Close()
			c.onDisconnect(err)
			return
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			conn.Close()
			c.onDisconnect(err)
			return
		}

		msg := messages.ParseRPCMessage(string(raw))
		c.handle(&msg)
	}
}

func (c *OpsController) handle(msg *messages.RPCMessage) {
	switch msg.Method {
	case "KILL-SESSION":
		c.registry.KillSession(msg.GetParam("Session-Id"))
	case "LIST-SESSIONS":
		c.replyActiveSessions()
	}
}

func (c *OpsController) replyActiveSessions() {
	ids := c.registry.ActiveSessionIDs()
	params := make(map[string]string, len(ids))
	for i, id := range ids {
		params["Session-"+strconv.Itoa(i)] = id
	}
	c.Send(messages.RPCMessage{Method: "SESSION-LIST", Params: params})
}

func (c *OpsController) heartbeatLoop() {
	for {
		time.Sleep(20 * time.Second)
		c.Send(messages.RPCMessage{Method: "HEARTBEAT"})
	}
}
