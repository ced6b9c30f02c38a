package rtmpcore

import (
	"encoding/binary"
	"testing"
)

func TestCreateFlvHeader(t *testing.T) {
	h := CreateFlvHeader()
	want := []byte{'F', 'L', 'V', 0x01, 0x05, 0x00, 0x00, 0x00, 0x09, 0x00, 0x00, 0x00, 0x00}
	if len(h) != len(want) {
		t.Fatalf("got length %d, want %d", len(h), len(want))
	}
	for i := range want {
		if h[i] != want[i] {
			t.Fatalf("byte %d: got %x, want %x", i, h[i], want[i])
		}
	}
}

func TestWriteFlvTagAudio(t *testing.T) {
	p := &Packet{
		Header: PacketHeader{
			PacketType: RtmpTypeAudio,
			Length:     3,
			Timestamp:  0x010203,
		},
		Clock:   0x010203,
		Payload: []byte{0xaf, 0x01, 0x02},
	}

	tag, err := WriteFlvTag(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tag[0] != RtmpTypeAudio {
		t.Fatalf("tag type byte = %d, want %d", tag[0], RtmpTypeAudio)
	}
	if tag[4] != 0x01 || tag[5] != 0x02 || tag[6] != 0x03 || tag[7] != 0x00 {
		t.Fatalf("timestamp bytes = % x, want 01 02 03 00", tag[4:8])
	}

	prevSize := binary.BigEndian.Uint32(tag[len(tag)-4:])
	if prevSize != uint32(11+3) {
		t.Fatalf("prevTagSize = %d, want %d", prevSize, 14)
	}
	if len(tag) != 11+3+4 {
		t.Fatalf("tag length = %d, want %d", len(tag), 11+3+4)
	}
}

func TestWriteFlvTagVideoCommandFrameSkipped(t *testing.T) {
	p := &Packet{
		Header: PacketHeader{PacketType: RtmpTypeVideo, Length: 2},
		Payload: []byte{0x5f, 0x00},
	}
	tag, err := WriteFlvTag(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tag != nil {
		t.Fatalf("expected nil tag for a command frame, got %v", tag)
	}
}

func TestRepairAggregateTagsFixesWrongPrevSize(t *testing.T) {
	// One embedded video tag (type 9), 2-byte body, followed by a
	// deliberately wrong prevTagSize.
	inner := []byte{
		9, 0x00, 0x00, 0x02, // type + 3-byte data size
		0x00, 0x00, 0x00, // timestamp
		0x00,             // timestamp ext
		0x00, 0x00, 0x00, // stream id
		0xaa, 0xbb, // 2-byte body
		0xff, 0xff, 0xff, 0xff, // wrong prevTagSize
	}

	out, err := repairAggregateTags(inner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := binary.BigEndian.Uint32(out[len(out)-4:])
	want := uint32(11 + 2)
	if got != want {
		t.Fatalf("repaired prevTagSize = %d, want %d", got, want)
	}
}

func TestRepairAggregateTagsSynthesizesMissingPrevSize(t *testing.T) {
	inner := []byte{
		8, 0x00, 0x00, 0x01,
		0x00, 0x00, 0x00,
		0x00,
		0x00, 0x00, 0x00,
		0xaf,
		// no trailing prevTagSize at all
	}

	out, err := repairAggregateTags(inner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != len(inner)+4 {
		t.Fatalf("expected 4 synthesized trailing bytes, got len %d from input len %d", len(out), len(inner))
	}
	got := binary.BigEndian.Uint32(out[len(out)-4:])
	if got != uint32(11+1) {
		t.Fatalf("synthesized prevTagSize = %d, want %d", got, 12)
	}
}

func TestRepairAggregateTagsDetectsCorruption(t *testing.T) {
	// Declares a data size that overruns the buffer.
	inner := []byte{9, 0x00, 0x00, 0xff, 0, 0, 0, 0, 0, 0, 0}
	_, err := repairAggregateTags(inner)
	if err != ErrFlvCorrupted {
		t.Fatalf("expected ErrFlvCorrupted, got %v", err)
	}
}
