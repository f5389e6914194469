package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.Login("ok")
	m.Login("denied")
	m.SessionsSwept(3)
	m.ActivityLogged()
	m.Notification("email", nil)
	m.Notification("push", errors.New("boom"))
	m.Backup(nil)
	m.Request("GET /health", 200, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`wg_logins_total{result="ok"} 1`,
		`wg_logins_total{result="denied"} 1`,
		`wg_sessions_swept_total 3`,
		`wg_chore_activities_logged_total 1`,
		`wg_low_score_notifications_total{channel="push",result="error"} 1`,
		`wg_backups_total{result="ok"} 1`,
		`wg_http_requests_total{pattern="GET /health",status="200"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Login("ok")
	m.SessionsSwept(1)
	m.ActivityLogged()
	m.Notification("email", nil)
	m.Backup(errors.New("boom"))
	m.Request("", 500, time.Second)
}
