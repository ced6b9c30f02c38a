package rtmpcore

import (
	"os"
	"testing"
)

func openTestFile(t *testing.T, dir, name string) *OutputFile {
	t.Helper()
	out := &OutputFile{Playpath: name, Path: name + ".flv"}
	if err := out.Open(dir); err != nil {
		t.Fatalf("opening %q: %v", name, err)
	}
	return out
}

func TestFlistCursorAdvancesOnPlayStart(t *testing.T) {
	dir := t.TempDir()
	fl := NewFlist()

	first := openTestFile(t, dir, "x")
	second := openTestFile(t, dir, "x01")
	fl.Append(first)
	fl.Append(second)

	if fl.Current() != nil {
		t.Fatalf("expected no current file before the first Play.Start")
	}

	fl.AdvanceOnPlayStart()
	if fl.Current() != first {
		t.Fatalf("expected the cursor on the first file after one Play.Start")
	}

	fl.AdvanceOnPlayStart()
	if fl.Current() != second {
		t.Fatalf("expected the cursor on the second file after two Play.Starts")
	}

	// No further node: the cursor stays put.
	fl.AdvanceOnPlayStart()
	if fl.Current() != second {
		t.Fatalf("expected the cursor to stay on the last file")
	}
}

func TestFlistCloseCurrentClearsCursor(t *testing.T) {
	dir := t.TempDir()
	fl := NewFlist()
	fl.Append(openTestFile(t, dir, "stream"))
	fl.AdvanceOnPlayStart()

	if err := fl.CloseCurrent(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fl.Current() != nil {
		t.Fatalf("expected no current file after CloseCurrent")
	}
	// Closing again is a no-op.
	if err := fl.CloseCurrent(); err != nil {
		t.Fatalf("unexpected error on repeat close: %v", err)
	}
}

func TestOutputFileWritesFlvHeaderOnOpen(t *testing.T) {
	dir := t.TempDir()
	out := openTestFile(t, dir, "header")
	if err := out.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	b, err := os.ReadFile(dir + string(os.PathSeparator) + out.Path)
	if err != nil {
		t.Fatalf("reading back: %v", err)
	}
	want := CreateFlvHeader()
	if len(b) != len(want) {
		t.Fatalf("file length = %d, want %d", len(b), len(want))
	}
	for i := range want {
		if b[i] != want[i] {
			t.Fatalf("byte %d = %x, want %x", i, b[i], want[i])
		}
	}
}

func TestOutputFileWriteShortAfterClose(t *testing.T) {
	dir := t.TempDir()
	out := openTestFile(t, dir, "closed")
	out.Close()

	if err := out.Write([]byte{1, 2, 3}); err == nil {
		t.Fatalf("expected an error writing to a closed output file")
	}
}
