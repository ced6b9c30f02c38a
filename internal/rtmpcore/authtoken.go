// Control-channel and webhook JWT signing.
//
// Grounded on MakeWebsocketAuthenticationToken (control_auth.go) for the
// ops-coordinator token, and SendStartCallback/SendStopCallback
// (rtmp_callback.go) for the lifecycle webhook tokens, both adapted from
// HS256/jwt.MapClaims signing to the session-pair/stub-invocation domain
// this repo handles instead of channel/key.

package rtmpcore

import (
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const webhookTokenTTL = 120 * time.Second

// ControlAuthToken signs the token the optional ops websocket presents as
// its x-control-auth-token header, using CONTROL_SECRET. Returns "" (no
// header sent) when the secret isn't configured.
func ControlAuthToken() string {
	secret := os.Getenv("CONTROL_SECRET")
	if secret == "" {
		return ""
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "rtmp-control",
	})

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		LogError(err)
		return ""
	}
	return signed
}

// SessionWebhookToken signs the lifecycle webhook header fired on
// session start/stop. event is "start" or "stop"; sessionUUID identifies
// the session pair (or stub invocation) across the webhook's lifetime.
func SessionWebhookToken(event, sessionUUID, tcUrl string) string {
	secret := os.Getenv("WEBHOOK_JWT_SECRET")
	if secret == "" {
		return ""
	}

	subject := os.Getenv("CUSTOM_JWT_SUBJECT")
	if subject == "" {
		subject = "rtmp_proxy_event"
	}

	claims := jwt.MapClaims{
		"sub":     subject,
		"event":   event,
		"session": sessionUUID,
		"tc_url":  tcUrl,
		"exp":     time.Now().Add(webhookTokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		LogError(err)
		return ""
	}
	return signed
}
