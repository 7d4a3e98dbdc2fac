package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestModuleAddsField(t *testing.T) {
	var buf bytes.Buffer
	h := slog.NewJSONHandler(&buf, nil)
	l := NewWithHandler(h).Module("triedb")
	l.Info("hello", "key", "value")

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if got["module"] != "triedb" {
		t.Errorf("module = %v, want triedb", got["module"])
	}
	if got["key"] != "value" {
		t.Errorf("key = %v, want value", got["key"])
	}
	if got["msg"] != "hello" {
		t.Errorf("msg = %v, want hello", got["msg"])
	}
}

func TestSetDefaultAndDefault(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	var buf bytes.Buffer
	custom := NewWithHandler(slog.NewJSONHandler(&buf, nil))
	SetDefault(custom)
	if Default() != custom {
		t.Error("Default() did not return the logger set via SetDefault")
	}
}
