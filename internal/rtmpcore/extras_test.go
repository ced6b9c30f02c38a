package rtmpcore

import "testing"

func numExtra(name string, n float64) ExtraArg  { return ExtraArg{Name: name, Value: AMF0Number(n)} }
func strExtra(name string, s string) ExtraArg    { return ExtraArg{Name: name, Value: AMF0String(s)} }
func boolExtra(name string, b bool) ExtraArg     { return ExtraArg{Name: name, Value: AMF0Bool(b)} }

func TestRenderExtrasScalarTypes(t *testing.T) {
	extras := []ExtraArg{
		numExtra("width", 1920),
		boolExtra("live", true),
		strExtra("token", "abc123"),
	}

	got := RenderExtras(extras)
	want := " -C NN:width:1920 -C NB:live:1 -C NS:token:abc123"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRenderExtrasPositionalWithoutName(t *testing.T) {
	extras := []ExtraArg{{Value: AMF0Number(42)}}
	got := RenderExtras(extras)
	want := " -C N:42"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRenderExtrasNestedObjectBracketed(t *testing.T) {
	a := AMF0Number(1)
	obj := AMF0Object(map[string]*AMF0Value{"a": &a})
	extras := []ExtraArg{{Name: "meta", Value: obj}}

	got := RenderExtras(extras)
	want := " -C NO:meta:1 -C NN:a:1 -C O:0"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRenderExtrasArgsKeepsSpacedValuesIntact(t *testing.T) {
	extras := []ExtraArg{
		strExtra("desc", "two words"),
		numExtra("n", 7),
	}

	got := RenderExtrasArgs(extras)
	want := []string{"-C", "NS:desc:two words", "-C", "NN:n:7"}
	if len(got) != len(want) {
		t.Fatalf("got %d argv entries, want %d: %q", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("argv[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRenderExtrasSkipsUnsupportedTypes(t *testing.T) {
	extras := []ExtraArg{
		{Name: "ignored", Value: AMF0Null()},
		numExtra("kept", 1),
	}
	got := RenderExtras(extras)
	want := " -C NN:kept:1"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
