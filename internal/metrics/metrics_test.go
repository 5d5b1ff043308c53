package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/SAP-F-2025/psytest-service/internal/models"
)

func TestRecordCrisis(t *testing.T) {
	before := testutil.ToFloat64(CrisisDetections.WithLabelValues(string(models.SeverityHigh)))

	RecordCrisis(nil)
	RecordCrisis(&models.CrisisAssessment{Severity: models.SeverityNone})
	RecordCrisis(&models.CrisisAssessment{
		Severity:   models.SeverityHigh,
		Indicators: []models.CrisisIndicator{{Category: models.RiskSelfHarm, Severity: models.SeverityHigh}},
	})

	after := testutil.ToFloat64(CrisisDetections.WithLabelValues(string(models.SeverityHigh)))
	if after-before != 1 {
		t.Errorf("expected exactly one HIGH detection, got %v", after-before)
	}
}

func TestRecordSessionCompleted(t *testing.T) {
	before := testutil.ToFloat64(SessionsCompleted.WithLabelValues(string(models.CompletionForced)))
	RecordSessionCompleted(models.CompletionForced)
	after := testutil.ToFloat64(SessionsCompleted.WithLabelValues(string(models.CompletionForced)))

	if after-before != 1 {
		t.Errorf("expected forced completions to grow by 1, got %v", after-before)
	}
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	Init()
	Init()

	r := gin.New()
	r.Use(MetricsMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/metrics", PrometheusHandler())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	if got := testutil.ToFloat64(RequestCounter.WithLabelValues(http.MethodGet, "/ping", "200")); got < 1 {
		t.Errorf("request counter not incremented, got %v", got)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(w.Body.String(), "psytest_http_requests_total") {
		t.Errorf("metrics output does not expose the request counter")
	}
}
