package sanitize

import (
	"strings"
	"testing"
)

func TestForDigest_ReplacesFencedBlock(t *testing.T) {
	in := "intro\n```go\nfmt.Println(1)\n```\noutro"
	got := ForDigest(in)
	want := "intro\n" + CodeBlockMarker + "\noutro"
	if got != want {
		t.Errorf("ForDigest = %q, want %q", got, want)
	}
}

func TestForDigest_UnterminatedFenceDropsRest(t *testing.T) {
	in := "keep\n~~~\nsecret one\nsecret two"
	got := ForDigest(in)
	if strings.Contains(got, "secret") {
		t.Errorf("unterminated fence leaked content: %q", got)
	}
	if got != "keep\n"+CodeBlockMarker {
		t.Errorf("ForDigest = %q", got)
	}
}

func TestForDigest_DropsCompletedTasks(t *testing.T) {
	in := "- [x] done\n  * [X] also done\n- [ ] todo\n+ [x] plus done"
	got := ForDigest(in)
	if got != "- [ ] todo" {
		t.Errorf("ForDigest = %q, want only the open task", got)
	}
}

func TestForDigest_TrimsAndKeepsOrder(t *testing.T) {
	got := ForDigest("  b  \n\ta\t\n c")
	if got != "b\na\nc" {
		t.Errorf("ForDigest = %q", got)
	}
}

func TestForPreview_DropsFenceWithoutMarker(t *testing.T) {
	in := "# Title\n```\ncode\n```\n\nBody line"
	got := ForPreview(in, 100)
	if strings.Contains(got, "code") || strings.Contains(got, CodeBlockMarker) {
		t.Errorf("preview kept fenced content: %q", got)
	}
	if got != "# Title Body line" {
		t.Errorf("ForPreview = %q", got)
	}
}

func TestForPreview_Truncates(t *testing.T) {
	got := ForPreview("ééééé ééééé", 7)
	if got != "ééééé é" {
		t.Errorf("ForPreview = %q", got)
	}
}

func TestTruncate_ZeroLimit(t *testing.T) {
	if got := Truncate("abc", 0); got != "" {
		t.Errorf("Truncate = %q, want empty", got)
	}
}
