package rtmpcore

import (
	"strings"
	"testing"
	"time"
)

func TestParseTcURL(t *testing.T) {
	cases := []struct {
		name    string
		tcUrl   string
		want    ParsedTcURL
		wantErr bool
	}{
		{
			name:  "plain rtmp with port and app",
			tcUrl: "rtmp://example.com:1936/live",
			want:  ParsedTcURL{Scheme: "rtmp", Host: "example.com", Port: 1936, Path: "live"},
		},
		{
			name:  "rtmpe case-insensitive scheme, default port",
			tcUrl: "RTMPE://origin.test/app/extra",
			want:  ParsedTcURL{Scheme: "rtmpe", Host: "origin.test", Port: 1935, Path: "app/extra"},
		},
		{
			name:  "no trailing path",
			tcUrl: "rtmp://origin.test",
			want:  ParsedTcURL{Scheme: "rtmp", Host: "origin.test", Port: 1935, Path: ""},
		},
		{
			name:    "unknown scheme is fatal",
			tcUrl:   "http://origin.test/app",
			wantErr: true,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := ParseTcURL(c.tcUrl)
			if c.wantErr {
				if err != ErrUnknownScheme {
					t.Fatalf("expected ErrUnknownScheme, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != c.want {
				t.Fatalf("got %+v, want %+v", got, c.want)
			}
		})
	}
}

func TestResolveSentinelTokens(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"foo[[DYNAMIC]]bar", "foo"},
		{"prefix[[IMPORT]]example.com/video.mp4", "http://example.com/video.mp4"},
		{"plain/path", "plain/path"},
	}
	for _, c := range cases {
		if got := ResolveSentinelTokens(c.in); got != c.want {
			t.Errorf("ResolveSentinelTokens(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSelectFilenameRules(t *testing.T) {
	fs := NewFilenameSelector()
	fixed := time.Date(2026, 3, 5, 10, 20, 30, 0, time.UTC)
	fs.nowFn = func() time.Time { return fixed }

	got := fs.SelectFilename("dir/sub/.stream?token=abc&x=1")
	want := "2026-03-05_10-20-30_stream.flv"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSelectFilenameDeduplicates(t *testing.T) {
	fs := NewFilenameSelector()
	fixed := time.Date(2026, 3, 5, 10, 20, 30, 0, time.UTC)
	fs.nowFn = func() time.Time { return fixed }

	first := fs.SelectFilename("stream")
	second := fs.SelectFilename("stream")
	third := fs.SelectFilename("stream")

	if first == second || second == third {
		t.Fatalf("expected distinct filenames, got %q, %q, %q", first, second, third)
	}
	if !strings.HasSuffix(second, "01.flv") {
		t.Fatalf("expected 2-hex-digit dedup suffix, got %q", second)
	}
	if !strings.HasSuffix(third, "02.flv") {
		t.Fatalf("expected 2-hex-digit dedup suffix, got %q", third)
	}
}

func TestSelectFilenameSanitizesReservedChars(t *testing.T) {
	fs := NewFilenameSelector()
	fixed := time.Date(2026, 3, 5, 10, 20, 30, 0, time.UTC)
	fs.nowFn = func() time.Time { return fixed }

	got := fs.SelectFilename("weird:name&with|pipes^caret")
	if strings.ContainsAny(got, ":&^|") {
		t.Fatalf("expected reserved characters stripped, got %q", got)
	}
}

func TestSelectFilenameOverLongFallsBackToTempName(t *testing.T) {
	fs := NewFilenameSelector()
	fixed := time.Date(2026, 3, 5, 10, 20, 30, 0, time.UTC)
	fs.nowFn = func() time.Time { return fixed }

	longPlaypath := strings.Repeat("a", 200)
	got := fs.SelectFilename(longPlaypath)
	if !strings.HasSuffix(got, ".flv") {
		t.Fatalf("expected .flv suffix, got %q", got)
	}
	if strings.Contains(got, longPlaypath) {
		t.Fatalf("expected the over-long playpath to be replaced by a temp name, got %q", got)
	}
}
