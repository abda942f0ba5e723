package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/relaydesk/relaydesk-backend/internal/data/repos/eventlog"
	"github.com/relaydesk/relaydesk-backend/internal/data/repos/testutil"
	"github.com/relaydesk/relaydesk-backend/internal/pkg/dbctx"
)

type brokenEventLog struct{}

func (brokenEventLog) Append(dbctx.Context, eventlog.Row) error { return errors.New("storage down") }
func (brokenEventLog) ReplaySince(dbctx.Context, *string, int) ([]eventlog.Row, error) {
	return nil, errors.New("storage down")
}
func (brokenEventLog) Count(dbctx.Context) (int64, error) { return 0, errors.New("storage down") }

func healthRequest(t *testing.T, h *HealthHandler) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/healthcheck", nil)
	h.HealthCheck(c)
	return w
}

func TestHealthCheckProbesEventLog(t *testing.T) {
	repo := eventlog.NewEventLogRepo(testutil.DB(t), testutil.Logger(t))
	h := NewHealthHandler(repo, testutil.Logger(t))

	w := healthRequest(t, h)
	if w.Code != http.StatusOK {
		t.Fatalf("status: want 200, got %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("body status: got %v", body["status"])
	}
	if _, ok := body["events"]; !ok {
		t.Fatalf("body must report the event count: %s", w.Body.String())
	}
}

func TestHealthCheckReportsStorageFailure(t *testing.T) {
	h := NewHealthHandler(brokenEventLog{}, testutil.Logger(t))

	w := healthRequest(t, h)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: want 503, got %d", w.Code)
	}
}
