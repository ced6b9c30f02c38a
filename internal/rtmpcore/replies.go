// Canonical AMF command replies: _result for connect/createStream/
// getStreamLength, onStatus for play start/stop and failures, onBWDone /
// _onbwdone for bandwidth checks, and onFCSubscribe. RTMPCommand.Encode
// is the wire serializer for all of them.

package rtmpcore

func strVal(s string) *AMF0Value {
	v := AMF0String(s)
	return &v
}

func numVal(n float64) *AMF0Value {
	v := AMF0Number(n)
	return &v
}

func nullVal() *AMF0Value {
	v := AMF0Null()
	return &v
}

func obj(props map[string]*AMF0Value) *AMF0Value {
	v := AMF0Object(props)
	return &v
}

// ConnectResult builds the stub's synthesized reply to `connect`:
// FMS/3,5,7,7009 server identification, NetConnection.Connect.Success,
// the negotiated object encoding, and a nested data.version property.
func ConnectResult(tid int64, objectEncoding float64) RTMPCommand {
	cmdObj := obj(map[string]*AMF0Value{
		"fmsVer":       strVal("FMS/3,5,7,7009"),
		"capabilities": numVal(31),
		"mode":         numVal(1),
	})

	info := obj(map[string]*AMF0Value{
		"level":          strVal("status"),
		"code":           strVal("NetConnection.Connect.Success"),
		"description":    strVal("Connection succeeded."),
		"objectEncoding": numVal(objectEncoding),
		"data": obj(map[string]*AMF0Value{
			"version": strVal("3,5,7,7009"),
		}),
	})

	return NewRTMPCommand("_result", tid, *cmdObj, *info)
}

// CreateStreamResult replies to createStream with the next stream ID.
func CreateStreamResult(tid int64, streamID int64) RTMPCommand {
	return NewRTMPCommand("_result", tid, AMF0Null(), AMF0Number(float64(streamID)))
}

// GetStreamLengthResult is the stub-only reply to getStreamLength: a
// constant, plausible duration so naive clients don't bail out early.
func GetStreamLengthResult(tid int64) RTMPCommand {
	return NewRTMPCommand("_result", tid, AMF0Null(), AMF0Number(10.0))
}

// OnStatus builds a standard onStatus message body for the given
// level/code/description, optionally carrying details/clientid (used
// for the play-start/play-stop pair).
func OnStatus(streamID uint32, tid int64, level, code, description, details, clientID string) RTMPCommand {
	info := map[string]*AMF0Value{
		"level":       strVal(level),
		"code":        strVal(code),
		"description": strVal(description),
	}
	if details != "" {
		info["details"] = strVal(details)
	}
	if clientID != "" {
		info["clientid"] = strVal(clientID)
	}
	return NewRTMPCommand("onStatus", tid, AMF0Null(), *obj(info))
}

// OnBWDoneUnderscore replies to `_checkbw` (stub form, used by older FME clients).
func OnBWDoneUnderscore() RTMPCommand {
	return NewRTMPCommand("_onbwdone", 0, AMF0Null(), AMF0Number(10240), AMF0Number(0))
}

// OnBWDone replies to `checkBandwidth`.
func OnBWDone() RTMPCommand {
	return NewRTMPCommand("onBWDone", 0, AMF0Null(), AMF0Number(10240), AMF0Number(0), AMF0Number(0), AMF0Number(20))
}

// OnBWDoneInitial is the unsolicited onBWDone the stub fires right
// after answering connect; the initial call carries no bandwidth
// numbers at all.
func OnBWDoneInitial() RTMPCommand {
	return NewRTMPCommand("onBWDone", 0, AMF0Null())
}

// PauseCommand builds a `pause` invocation used to toggle the upstream
// session's delivery when the splice loop detects a stall while playing.
func PauseCommand(pause bool, ms int64) RTMPCommand {
	return NewRTMPCommand("pause", 0, AMF0Null(), AMF0Bool(pause), AMF0Number(float64(ms)))
}

// OnFCSubscribe replies to FCSubscribe with an onStatus-shaped payload
// claiming playback has already started, which is what lets some clients
// proceed straight to play() without waiting on a real stream.
func OnFCSubscribe() RTMPCommand {
	info := obj(map[string]*AMF0Value{
		"level":       strVal("status"),
		"code":        strVal("NetStream.Play.Start"),
		"description": strVal("FCSubscribe to stream"),
	})
	return NewRTMPCommand("onFCSubscribe", 0, AMF0Null(), *info)
}
