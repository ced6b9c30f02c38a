// Session lifecycle webhooks: an optional HTTP POST fired when a session
// pair's connect completes and again when it tears down, carrying a
// signed token header instead of a request body.
//
// Grounded on SendStartCallback/SendStopCallback (rtmp_callback.go):
// same "skip silently if CALLBACK_URL unset", same header-only POST,
// same tolerance of a non-200 response (logged, not fatal to the
// session). channel/key become sessionUUID/tcUrl/client IP, the fields
// this repo actually has to report.

package rtmpcore

import (
	"fmt"
	"net/http"
	"os"
)

// SendSessionStartWebhook notifies CALLBACK_URL that a session pair's
// connect has completed. Returns the response's stream-id header, or ""
// when the webhook is skipped or fails.
func SendSessionStartWebhook(sessionUUID, tcUrl, clientIP string) string {
	return postWebhook("start", sessionUUID, tcUrl, clientIP)
}

// SendSessionStopWebhook notifies CALLBACK_URL that a session pair has
// torn down.
func SendSessionStopWebhook(sessionUUID, tcUrl, clientIP string) string {
	return postWebhook("stop", sessionUUID, tcUrl, clientIP)
}

func postWebhook(event, sessionUUID, tcUrl, clientIP string) string {
	url := os.Getenv("CALLBACK_URL")
	if url == "" {
		return ""
	}

	LogDebug(fmt.Sprintf("POST %s | Event: %s | Session: %s", url, event, sessionUUID))

	token := SessionWebhookToken(event, sessionUUID, tcUrl)
	if token == "" {
		return ""
	}

	req, err := http.NewRequest("POST", url, nil)
	if err != nil {
		LogError(err)
		return ""
	}
	req.Header.Set("rtmp-event", token)
	req.Header.Set("rtmp-session", sessionUUID)
	req.Header.Set("rtmp-client-ip", clientIP)

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		LogError(err)
		return ""
	}
	defer res.Body.Close()

	if res.StatusCode != 200 {
		LogDebug(fmt.Sprintf("Webhook for session %s ended with status code %d", sessionUUID, res.StatusCode))
		return ""
	}

	return res.Header.Get("stream-id")
}
