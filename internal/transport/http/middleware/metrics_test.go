package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/localsolutions/board-api/internal/core/domain"
)

func TestHTTPMetricsHandlerRecordsMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)

	registry := prometheus.NewRegistry()
	metrics, err := NewHTTPMetrics(HTTPMetricsOptions{Registerer: registry})
	if err != nil {
		t.Fatalf("failed to create http metrics: %v", err)
	}

	router := gin.New()
	router.Use(metrics.Handler())
	router.GET("/api/posts/:id", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.POST("/api/posts", func(c *gin.Context) {
		SetPrincipal(c, &domain.Principal{UserID: 1, Username: "alice", Role: domain.RoleCustomer})
		c.Status(http.StatusCreated)
	})

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/api/posts/7", nil),
		httptest.NewRequest(http.MethodPost, "/api/posts", nil),
		httptest.NewRequest(http.MethodGet, "/nowhere", nil),
	} {
		router.ServeHTTP(httptest.NewRecorder(), req)
	}

	cases := []prometheus.Labels{
		{"method": http.MethodGet, "route": "/api/posts/:id", "status": "200", "access": "public"},
		{"method": http.MethodPost, "route": "/api/posts", "status": "201", "access": "protected"},
		{"method": http.MethodGet, "route": "unmatched", "status": "404", "access": "public"},
	}
	for _, labels := range cases {
		if got := testutil.ToFloat64(metrics.Requests.With(labels)); got != 1 {
			t.Fatalf("expected request counter 1 for %v, got %f", labels, got)
		}
	}

	if got := testutil.ToFloat64(metrics.InFlight); got != 0 {
		t.Fatalf("expected in-flight gauge to return to 0, got %f", got)
	}
	if samples := testutil.CollectAndCount(metrics.Duration); samples != 3 {
		t.Fatalf("expected 3 histogram series, got %d", samples)
	}
}

func TestHTTPMetricsReusesRegisteredCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()
	first, err := NewHTTPMetrics(HTTPMetricsOptions{Registerer: registry})
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := NewHTTPMetrics(HTTPMetricsOptions{Registerer: registry})
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first.Requests != second.Requests {
		t.Fatalf("expected collectors to be shared")
	}
}

func TestHTTPMetricsHandlerNoopWhenNil(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use((*HTTPMetrics)(nil).Handler())
	router.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
}
