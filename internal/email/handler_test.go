package email

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newEmailRouter(d *Dispatcher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(d).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func TestConfigEndpointHidesSecrets(t *testing.T) {
	r := newEmailRouter(NewDispatcher(completeConfig()))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/email/config", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if strings.Contains(resp.Body.String(), "secret") {
		t.Fatalf("password leaked in %s", resp.Body.String())
	}
	var s Status
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !s.ConfigurationComplete || !s.PasswordConfigured {
		t.Fatalf("unexpected status %+v", s)
	}
}

func TestTestEndpointNotConfigured(t *testing.T) {
	r := newEmailRouter(NewDispatcher(Config{}))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/email/test", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "email_not_configured") {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}

func TestTestEndpointReportsResult(t *testing.T) {
	r := newEmailRouter(NewDispatcherWithSender(completeConfig(), &fakeSender{}))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/email/test", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var res TestResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !res.OK {
		t.Fatalf("expected ok result, got %+v", res)
	}
}
