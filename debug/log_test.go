package debug

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogWritesCategory(t *testing.T) {
	var buf bytes.Buffer
	EnableTo(&buf)
	defer Disable()

	Log("sched", "evicted %d tasks", 3)
	Warn("metro", "tick jump %d", 2)

	out := buf.String()
	for _, want := range []string{"evicted 3 tasks", "cat=sched", "tick jump 2", "cat=metro"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDisabledIsSilent(t *testing.T) {
	Disable()
	if Enabled() {
		t.Fatal("expected disabled")
	}
	// must not panic with no writer
	Log("x", "nothing")
	LogEvery(2, "x", "nothing")
}

func TestLogEvery(t *testing.T) {
	var buf bytes.Buffer
	EnableTo(&buf)
	defer Disable()

	for i := 0; i < 6; i++ {
		LogEvery(3, "every", "push")
	}
	if got := strings.Count(buf.String(), "push"); got != 2 {
		t.Errorf("got %d lines, want 2:\n%s", got, buf.String())
	}
}
