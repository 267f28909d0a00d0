package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"INFO":    zerolog.InfoLevel,
		"":        zerolog.InfoLevel,
		"warning": zerolog.WarnLevel,
		"err":     zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"bogus":   zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	l := New("info", FormatConsole, &buf)
	l.Debug().Msg("hidden")
	l.Warn().Str("platform", "rk3588").Msg("Without quantization!")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line leaked at info level: %q", out)
	}
	if !strings.Contains(out, "[WARN]") || !strings.Contains(out, "Without quantization!") || !strings.Contains(out, "platform=rk3588") {
		t.Fatalf("unexpected console output: %q", out)
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New("debug", FormatJSON, &buf)
	l.Debug().Str("stage", "load").Msg("loading")
	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("not json: %v: %q", err, buf.String())
	}
	if rec["level"] != "debug" || rec["stage"] != "load" || rec["message"] != "loading" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if _, ok := rec["time"]; !ok {
		t.Fatalf("missing timestamp: %+v", rec)
	}
}
