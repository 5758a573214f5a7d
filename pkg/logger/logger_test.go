package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestKeyValueArgsBecomeFields(t *testing.T) {
	base, hook := test.NewNullLogger()
	log := FromLogrus(base)

	log.With("component", "billing").Warn("upstream failed", "action", "GetClients", "error", errors.New("timeout"))

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("expected a log entry")
	}
	if entry.Level != logrus.WarnLevel {
		t.Fatalf("level: got %v", entry.Level)
	}
	if entry.Data["component"] != "billing" || entry.Data["action"] != "GetClients" {
		t.Fatalf("unexpected fields: %v", entry.Data)
	}
	if entry.Data["error"] != "timeout" {
		t.Fatalf("errors should be stringified, got %#v", entry.Data["error"])
	}
}

func TestJSONOutputRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput(&buf, WARN)

	log.Info("dropped")
	log.Error("kept", "code", 7)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %s", len(lines), buf.String())
	}
	var out map[string]interface{}
	if err := json.Unmarshal(lines[0], &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["msg"] != "kept" || out["code"] != float64(7) {
		t.Fatalf("unexpected output: %v", out)
	}
}

func TestMaskSecret(t *testing.T) {
	cases := map[string]string{
		"":                 "",
		"abc":              "****",
		"ptla_abcdef123456": "****3456",
	}
	for in, want := range cases {
		if got := MaskSecret(in); got != want {
			t.Fatalf("MaskSecret(%q) = %q, want %q", in, got, want)
		}
	}
	if got := MaskEmail("player@example.com"); got != "p***@example.com" {
		t.Fatalf("MaskEmail: got %q", got)
	}
}
