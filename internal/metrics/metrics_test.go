package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSanitizeSite(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"standard http", "http://example.com/path", "example.com"},
		{"standard https", "https://Example.com/path", "example.com"},
		{"no scheme", "example.com/path", "example.com"},
		{"host with port", "example.com:8080", "example.com"},
		{"invalid url", "http://%", "unknown"},
		{"empty string", "", "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeSite(tc.input); got != tc.expected {
				t.Errorf("SanitizeSite(%q) = %q; want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestObserveRow(t *testing.T) {
	before := testutil.ToFloat64(rowsTotal.WithLabelValues(RowArchived))
	ObserveRow(RowArchived)
	if got := testutil.ToFloat64(rowsTotal.WithLabelValues(RowArchived)); got != before+1 {
		t.Fatalf("expected archived counter %v, got %v", before+1, got)
	}
}

func TestObserveProbeAndRetry(t *testing.T) {
	before := testutil.ToFloat64(probesTotal.WithLabelValues("success"))
	retriesBefore := testutil.ToFloat64(probeRetriesTotal)

	ObserveProbe("success", 150*time.Millisecond)
	ObserveRetry()

	if got := testutil.ToFloat64(probesTotal.WithLabelValues("success")); got != before+1 {
		t.Fatalf("expected success counter %v, got %v", before+1, got)
	}
	if got := testutil.ToFloat64(probeRetriesTotal); got != retriesBefore+1 {
		t.Fatalf("expected retries %v, got %v", retriesBefore+1, got)
	}
}

func TestActiveProbesGauge(t *testing.T) {
	before := testutil.ToFloat64(activeProbes)
	IncActiveProbes()
	IncActiveProbes()
	DecActiveProbes()
	if got := testutil.ToFloat64(activeProbes); got != before+1 {
		t.Fatalf("expected gauge %v, got %v", before+1, got)
	}
	DecActiveProbes()
}

func TestHandlerExposesCollectors(t *testing.T) {
	ObserveRateLimitDelay("example.com", 200*time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "aka_rate_limit_delays_seconds") {
		t.Fatal("expected rate limit histogram in exposition")
	}
}

// Fuzz test for SanitizeSite.
func FuzzSanitizeSite(f *testing.F) {
	for _, tc := range []string{"http://example.com", "https://aka.platform.uno/x", "ftp://example.com"} {
		f.Add(tc)
	}
	f.Fuzz(func(t *testing.T, orig string) {
		if SanitizeSite(orig) == "" {
			t.Errorf("SanitizeSite(%q) returned an empty string", orig)
		}
	})
}

func TestObserveHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/healthz", "200"))
	ObserveHTTPRequest("GET", "/healthz", http.StatusOK)
	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/healthz", "200")); got != before+1 {
		t.Fatalf("expected request counter %v, got %v", before+1, got)
	}
}
