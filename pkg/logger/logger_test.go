package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestPrintfAdapter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	p := New(base, "cache.badger")

	p.Warningf("value log %d rotated\n", 3)

	out := buf.String()
	if !strings.Contains(out, `msg="value log 3 rotated"`) {
		t.Fatalf("unexpected output: %q", out)
	}
	if !strings.Contains(out, "component=cache.badger") {
		t.Fatalf("component missing: %q", out)
	}
}
