// RTMP command (AMF0/AMF3 INVOKE) and data (AMF0/AMF3 DATA) messages
//
// An INVOKE payload is an AMF0 (or, for FLEX_MESSAGE, AMF3-after-a-leading
// zero-byte) sequence: the command name, the transaction ID, and then a
// command-specific list of further values (the "command object" plus zero
// or more arguments). A DATA payload (onMetaData and friends) drops the
// transaction ID: it's just a tag name followed by a payload value.
//
// Command arguments are exposed both positionally (Args) and by name
// (GetArg), using the conventional argument names for the commands this
// proxy/stub cares about (connect, publish, play, play2, FCSubscribe,
// receiveAudio/receiveVideo, NetStream.Authenticate.UsherToken). Commands
// outside that table fall back to generic "arg1", "arg2", ... names so
// GetArg never panics on an unrecognized command.

package rtmpcore

// commandArgNames maps known command names to the semantic name of each
// argument following the command object (which is always named "cmdObj").
var commandArgNames = map[string][]string{
	"connect":       {},
	"createStream":  {},
	"publish":       {"streamName", "publishType"},
	"play":          {"streamName", "start", "duration", "reset"},
	"play2":         {"params"},
	"pause":         {"pause", "ms"},
	"seek":          {"ms"},
	"deleteStream":  {"streamId"},
	"closeStream":   {},
	"receiveAudio":  {"bool"},
	"receiveVideo":  {"bool"},
	"releaseStream": {"streamName"},
	"FCPublish":     {"streamName"},
	"FCUnpublish":   {"streamName"},
	"FCSubscribe":   {"streamName"},
	"getStreamLength": {"streamName"},
	"checkBandwidth":  {},
	"_checkbw":        {},
	"_result":         {"info"},
	"_error":          {"info"},
	"onStatus":        {"info"},
	"NetStream.Authenticate.UsherToken": {"token"},
}

// RTMPCommand is a decoded INVOKE message.
type RTMPCommand struct {
	cmd       string
	tid       int64
	isAMF3    bool
	Args      []*AMF0Value
	arguments map[string]*AMF0Value
}

// GetArg returns the named argument, or an AMF0 undefined value if absent.
func (c *RTMPCommand) GetArg(name string) *AMF0Value {
	v, ok := c.arguments[name]
	if ok {
		return v
	}
	u := AMF0Undefined()
	return &u
}

// CmdObj returns the command object (the first argument after the
// transaction ID in every RTMP invocation), or an AMF0 null if absent.
func (c *RTMPCommand) CmdObj() *AMF0Value {
	if len(c.Args) == 0 {
		n := AMF0Null()
		return &n
	}
	return c.Args[0]
}

func (c *RTMPCommand) ToString() string {
	str := "'" + c.cmd + "' (tid=" + itoa64(c.tid) + ") ["
	for i, a := range c.Args {
		if i > 0 {
			str += ", "
		}
		str += a.ToString("")
	}
	str += "]"
	return str
}

func itoa64(v int64) string {
	neg := v < 0
	if v == 0 {
		return "0"
	}
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// DecodeRTMPCommand decodes an INVOKE (or FLEX_MESSAGE, after the leading
// AMF3 marker byte has already been stripped by the caller) payload.
func DecodeRTMPCommand(payload []byte) RTMPCommand {
	s := NewAMFDecodingStream(payload)

	nameVal := s.ReadOne()
	name := nameVal.GetString()

	var tid int64
	if !s.IsEnded() {
		tidVal := s.ReadOne()
		tid = tidVal.GetInteger()
	}

	args := make([]*AMF0Value, 0)
	for !s.IsEnded() {
		v := s.ReadOne()
		args = append(args, &v)
	}

	names := commandArgNames[name]
	arguments := make(map[string]*AMF0Value)
	if len(args) > 0 {
		arguments["cmdObj"] = args[0]
	}
	for i, n := range names {
		argIdx := i + 1
		if argIdx < len(args) {
			arguments[n] = args[argIdx]
		}
	}
	// Generic fallback names, always present alongside the semantic ones,
	// so a caller can walk an unfamiliar command's arguments positionally.
	for i, a := range args {
		genericName := "arg" + itoa64(int64(i))
		if _, exists := arguments[genericName]; !exists {
			arguments[genericName] = a
		}
	}

	return RTMPCommand{
		cmd:       name,
		tid:       tid,
		Args:      args,
		arguments: arguments,
	}
}

// Encode serializes the command back into an AMF0 INVOKE payload.
func (c *RTMPCommand) Encode() []byte {
	out := amf0EncodeOne(AMF0String(c.cmd))
	tid := AMF0Number(float64(c.tid))
	out = append(out, amf0EncodeOne(tid)...)
	for _, a := range c.Args {
		out = append(out, amf0EncodeOne(*a)...)
	}
	return out
}

// NewRTMPCommand builds a command for outbound encoding.
func NewRTMPCommand(cmd string, tid int64, args ...AMF0Value) RTMPCommand {
	argPtrs := make([]*AMF0Value, len(args))
	for i := range args {
		a := args[i]
		argPtrs[i] = &a
	}
	return RTMPCommand{cmd: cmd, tid: tid, Args: argPtrs}
}

// RTMPData is a decoded DATA (AMF0 type 18 / AMF3 type 15) message, e.g.
// "@setDataFrame" / "onMetaData".
type RTMPData struct {
	tag       string
	Args      []*AMF0Value
	arguments map[string]*AMF0Value
}

// DecodeRTMPData decodes a DATA payload.
func DecodeRTMPData(payload []byte) RTMPData {
	s := NewAMFDecodingStream(payload)

	tagVal := s.ReadOne()
	tag := tagVal.GetString()

	args := make([]*AMF0Value, 0)
	for !s.IsEnded() {
		v := s.ReadOne()
		args = append(args, &v)
	}

	arguments := make(map[string]*AMF0Value)
	if tag == "@setDataFrame" && len(args) >= 2 {
		// @setDataFrame wraps the real tag and object: "onMetaData", {...}
		arguments["dataFrame"] = args[0]
		arguments["dataObj"] = args[1]
	} else if len(args) >= 1 {
		arguments["dataObj"] = args[0]
	}

	return RTMPData{tag: tag, Args: args, arguments: arguments}
}

func (d *RTMPData) GetArg(name string) *AMF0Value {
	v, ok := d.arguments[name]
	if ok {
		return v
	}
	u := AMF0Undefined()
	return &u
}

func (d *RTMPData) Tag() string {
	return d.tag
}
