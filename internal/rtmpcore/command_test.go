package rtmpcore

import "testing"

func TestRTMPCommandEncodeDecodeRoundTrip(t *testing.T) {
	cmdObj := AMF0Object(map[string]*AMF0Value{
		"app": strPtr("live"),
	})
	cmd := NewRTMPCommand("connect", 1, cmdObj)

	decoded := DecodeRTMPCommand(cmd.Encode())

	if decoded.cmd != "connect" {
		t.Fatalf("cmd = %q, want %q", decoded.cmd, "connect")
	}
	if decoded.tid != 1 {
		t.Fatalf("tid = %d, want 1", decoded.tid)
	}
	if got := decoded.CmdObj().GetProperty("app").GetString(); got != "live" {
		t.Fatalf("app = %q, want %q", got, "live")
	}
}

func TestRTMPCommandPlayArgumentNames(t *testing.T) {
	cmd := NewRTMPCommand("play", 0, AMF0Null(), AMF0String("mystream"), AMF0Number(-1000))

	decoded := DecodeRTMPCommand(cmd.Encode())

	if got := decoded.GetArg("streamName").GetString(); got != "mystream" {
		t.Fatalf("streamName = %q, want %q", got, "mystream")
	}
	if got := decoded.GetArg("start").GetDouble(); got != -1000 {
		t.Fatalf("start = %v, want -1000", got)
	}
	// Generic fallback names are populated alongside the semantic ones.
	if got := decoded.GetArg("arg1").GetString(); got != "mystream" {
		t.Fatalf("arg1 (generic) = %q, want %q", got, "mystream")
	}
}

func TestRTMPCommandUnknownCommandFallsBackToGenericNames(t *testing.T) {
	cmd := NewRTMPCommand("someVendorMethod", 5, AMF0Null(), AMF0String("x"), AMF0Number(7))
	decoded := DecodeRTMPCommand(cmd.Encode())

	if got := decoded.GetArg("arg1").GetString(); got != "x" {
		t.Fatalf("arg1 = %q, want %q", got, "x")
	}
	if got := decoded.GetArg("arg2").GetDouble(); got != 7 {
		t.Fatalf("arg2 = %v, want 7", got)
	}
	if !decoded.GetArg("missing").IsUndefined() {
		t.Fatalf("expected undefined for a name with no argument")
	}
}

func TestDecodeRTMPDataSetDataFrame(t *testing.T) {
	meta := AMF0Object(map[string]*AMF0Value{
		"width": numPtr(1920),
	})
	payload := amf0EncodeOne(AMF0String("@setDataFrame"))
	payload = append(payload, amf0EncodeOne(AMF0String("onMetaData"))...)
	payload = append(payload, amf0EncodeOne(meta)...)

	data := DecodeRTMPData(payload)

	if data.Tag() != "@setDataFrame" {
		t.Fatalf("tag = %q, want %q", data.Tag(), "@setDataFrame")
	}
	if got := data.GetArg("dataFrame").GetString(); got != "onMetaData" {
		t.Fatalf("dataFrame = %q, want %q", got, "onMetaData")
	}
	if got := data.GetArg("dataObj").GetProperty("width").GetDouble(); got != 1920 {
		t.Fatalf("width = %v, want 1920", got)
	}
}

func strPtr(s string) *AMF0Value {
	v := AMF0String(s)
	return &v
}

func numPtr(n float64) *AMF0Value {
	v := AMF0Number(n)
	return &v
}
