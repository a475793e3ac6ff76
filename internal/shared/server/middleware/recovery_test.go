package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"contract-backend/internal/shared/telemetry"
)

func TestRecoveryHidesPanicDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID(), Recovery())
	router.GET("/panic", func(c *gin.Context) {
		panic("secret internal state")
	})

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	body := resp.Body.String()
	if strings.Contains(body, "secret internal state") || strings.Contains(body, "goroutine") {
		t.Fatalf("expected panic details to stay out of the response, got %s", body)
	}
	if !strings.Contains(body, `"code":"internal"`) {
		t.Fatalf("expected internal error code, got %s", body)
	}
}

func TestRecoveryLogsPanicWithContractID(t *testing.T) {
	var buf bytes.Buffer
	telemetry.Configure(&buf, "info", "json")
	t.Cleanup(func() { telemetry.Configure(os.Stdout, "info", "json") })

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID(), Recovery())
	router.GET("/contracts/:id", func(c *gin.Context) {
		c.Set("contractId", int64(42))
		panic("render exploded")
	})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/contracts/42", nil))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}

	var panicLine map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("decode log line %q: %v", line, err)
		}
		if entry["msg"] == "panic" {
			panicLine = entry
		}
	}
	if panicLine == nil {
		t.Fatalf("expected a panic log line, got %s", buf.String())
	}
	if panicLine["error"] != "render exploded" || panicLine["contract_id"] != float64(42) {
		t.Fatalf("unexpected panic fields: %v", panicLine)
	}
	if panicLine["route"] != "/contracts/:id" {
		t.Fatalf("unexpected route %v", panicLine["route"])
	}
	if s, _ := panicLine["stack"].(string); !strings.Contains(s, "goroutine") {
		t.Fatalf("expected stack in log")
	}
}
