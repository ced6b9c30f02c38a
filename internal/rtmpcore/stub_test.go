package rtmpcore

import (
	"testing"
	"time"
)

func TestStubDuplicatePlayWithinWindowSkipped(t *testing.T) {
	pair, _ := newTestPair(t)
	s := NewStubServer(pair, StubConfig{})

	base := time.Date(2026, 3, 5, 10, 20, 30, 0, time.UTC)

	if s.isDuplicatePlay("stream01", base) {
		t.Fatalf("first play should never be a duplicate")
	}
	if !s.isDuplicatePlay("stream01", base.Add(2*time.Second)) {
		t.Fatalf("expected a repeat play within the window to be a duplicate")
	}
}

func TestStubDuplicatePlayOutsideWindowServed(t *testing.T) {
	pair, _ := newTestPair(t)
	s := NewStubServer(pair, StubConfig{})

	base := time.Date(2026, 3, 5, 10, 20, 30, 0, time.UTC)

	s.isDuplicatePlay("stream01", base)
	if s.isDuplicatePlay("stream01", base.Add(stubDupWindow+time.Second)) {
		t.Fatalf("expected a repeat play past the window to be served")
	}
}

func TestStubDuplicatePlayDifferentPlaypathServed(t *testing.T) {
	pair, _ := newTestPair(t)
	s := NewStubServer(pair, StubConfig{})

	base := time.Date(2026, 3, 5, 10, 20, 30, 0, time.UTC)

	s.isDuplicatePlay("stream01", base)
	if s.isDuplicatePlay("stream02", base.Add(time.Second)) {
		t.Fatalf("expected a different playpath to be served")
	}

	// The window tracks only the most recent play: going back to the
	// first playpath after an intervening different one is served too.
	if s.isDuplicatePlay("stream01", base.Add(2*time.Second)) {
		t.Fatalf("expected the earlier playpath to be served after an intervening play")
	}
}
