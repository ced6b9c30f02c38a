// Link state: the captured connection parameters for one RTMP handle
// (either the downstream session S or the upstream session C).

package rtmpcore

import "strings"

// ExtraArg is one AMF argument captured past the command object on
// connect, held onto so it can later be rendered into a downloader
// command-line flag by RenderExtras.
type ExtraArg struct {
	Name  string // empty for positional/array-derived extras
	Value AMF0Value
}

// LinkState holds every parameter captured from the client's connect
// call (and mirrored, where applicable, to the upstream side once
// resolved).
type LinkState struct {
	App      string
	TcUrl    string
	SwfUrl   string
	PageUrl  string
	FlashVer string
	Playpath string

	Protocol string // "rtmp" or "rtmpe"
	Hostname string
	Port     int

	AudioCodecs    float64
	VideoCodecs    float64
	ObjectEncoding float64

	UsherToken string

	Extras []ExtraArg

	// Live is true when App contains the substring "live", used to coerce
	// the play start flag.
	Live bool
}

// CaptureConnectArgs fills in the fields carried by the connect command
// object: app, flashVer, swfUrl, tcUrl, pageUrl, audioCodecs, videoCodecs,
// objectEncoding. Other properties of the command object are ignored;
// only arguments beyond the command object become extras (see
// CaptureExtraArgs).
func (l *LinkState) CaptureConnectArgs(cmdObj *AMF0Value) {
	obj := cmdObj.GetObject()

	if v, ok := obj["app"]; ok {
		l.App = v.GetString()
		l.Live = strings.Contains(strings.ToLower(l.App), "live")
	}
	if v, ok := obj["flashVer"]; ok {
		l.FlashVer = v.GetString()
	}
	if v, ok := obj["swfUrl"]; ok {
		l.SwfUrl = v.GetString()
	}
	if v, ok := obj["pageUrl"]; ok {
		l.PageUrl = v.GetString()
	}
	if v, ok := obj["tcUrl"]; ok {
		l.TcUrl = v.GetString()
		if parsed, err := ParseTcURL(l.TcUrl); err == nil {
			l.Protocol = parsed.Scheme
			l.Hostname = parsed.Host
			l.Port = parsed.Port
		}
	}
	if v, ok := obj["audioCodecs"]; ok {
		l.AudioCodecs = v.GetDouble()
	}
	if v, ok := obj["videoCodecs"]; ok {
		l.VideoCodecs = v.GetDouble()
	}
	if v, ok := obj["objectEncoding"]; ok {
		l.ObjectEncoding = v.GetDouble()
	}
}

// CaptureExtraArgs detaches any connect() arguments beyond the command
// object (index 2 in the invocation, i.e. Args[1:]) into the link's
// extras list, in the order they appeared.
func (l *LinkState) CaptureExtraArgs(args []*AMF0Value) {
	for _, a := range args {
		l.Extras = append(l.Extras, ExtraArg{Value: *a})
	}
}

// SetUsherToken stores the usher token, escaping characters that would
// otherwise break the downloader's flat argv string.
func (l *LinkState) SetUsherToken(raw string) {
	escaped := strings.ReplaceAll(raw, `"`, `\"`)
	l.UsherToken = escaped
}
