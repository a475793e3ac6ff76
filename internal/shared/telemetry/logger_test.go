package telemetry

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
)

func TestInfoWritesJSONLine(t *testing.T) {
	var buf bytes.Buffer
	Configure(&buf, "info", "json")
	t.Cleanup(func() { Configure(os.Stdout, "info", "json") })

	Info("contract.created", map[string]any{"contract_id": 7, "err": errors.New("boom")})

	var payload map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &payload); err != nil {
		t.Fatalf("decode log line: %v (%s)", err, buf.String())
	}
	if payload["msg"] != "contract.created" {
		t.Fatalf("unexpected msg: %v", payload["msg"])
	}
	if payload["level"] != "info" {
		t.Fatalf("unexpected level: %v", payload["level"])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts field")
	}
	if payload["contract_id"] != float64(7) {
		t.Fatalf("unexpected contract_id: %v", payload["contract_id"])
	}
	if payload["err"] != "boom" {
		t.Fatalf("expected error rendered as string, got %v", payload["err"])
	}
}

func TestLevelFiltersLowerSeverity(t *testing.T) {
	var buf bytes.Buffer
	Configure(&buf, "error", "text")
	t.Cleanup(func() { Configure(os.Stdout, "info", "json") })

	Info("hidden", nil)
	Warn("hidden too", nil)
	Error("shown", map[string]any{"code": "x"})

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("expected info and warn to be filtered, got %q", out)
	}
	if !strings.Contains(out, "msg=shown") {
		t.Fatalf("expected text formatted error line, got %q", out)
	}
}
