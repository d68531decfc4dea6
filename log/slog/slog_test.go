package slog

import (
	"bytes"
	stdslog "log/slog"
	"strings"
	"testing"

	"github.com/unkn0wn-root/kvcache"
)

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	l := Logger{L: stdslog.New(stdslog.NewTextHandler(&buf, &stdslog.HandlerOptions{Level: stdslog.LevelInfo}))}

	l.Debug("hidden", kvcache.Fields{"x": 1})
	l.Warn("malformed envelope", kvcache.Fields{"op": "get", "addr": "ns/set/k"})

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line should be filtered: %q", out)
	}
	for _, want := range []string{"level=WARN", `msg="malformed envelope"`, "addr=ns/set/k op=get"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
}
