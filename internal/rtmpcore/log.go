// Logs

package rtmpcore

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

var logMutex = sync.Mutex{}

func LogLine(line string) {
	tm := time.Now()
	logMutex.Lock()
	defer logMutex.Unlock()
	fmt.Printf("[%s] %s\n", tm.Format("2006-01-02 15:04:05"), line)
}

func LogWarning(line string) {
	LogLine("[WARNING] " + line)
}

func LogInfo(line string) {
	LogLine("[INFO] " + line)
}

func LogError(err error) {
	LogLine("[ERROR] " + err.Error())
}

func LogErrorMessage(line string) {
	LogLine("[ERROR] " + line)
}

var LogRequestsEnabled = os.Getenv("LOG_REQUESTS") != "NO"

// LogRequest logs a line tagged with a session's numeric ID and IP.
func LogRequest(sessionID uint64, ip string, line string) {
	if LogRequestsEnabled {
		LogLine("[REQUEST] #" + strconv.Itoa(int(sessionID)) + " (" + ip + ") " + line)
	}
}

var LogDebugEnabled = os.Getenv("LOG_DEBUG") == "YES"

func LogDebug(line string) {
	if LogDebugEnabled {
		LogLine("[DEBUG] " + line)
	}
}

// LogDebugSession logs a debug line tagged with both the numeric session ID
// (unique for the process lifetime of the proxy) and the session UUID
// (unique across restarts, used to correlate with lifecycle webhooks).
func LogDebugSession(sessionID uint64, sessionUUID string, ip string, line string) {
	if LogDebugEnabled {
		LogLine("[DEBUG] #" + strconv.Itoa(int(sessionID)) + " {" + sessionUUID + "} (" + ip + ") " + line)
	}
}
