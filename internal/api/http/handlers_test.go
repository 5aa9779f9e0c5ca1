package apihttp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	analytics "solarfleet/internal/analytics/domain"
	"solarfleet/internal/pipeline/application"
)

type stubSnapshot struct {
	latest *application.RunResult
}

func (s *stubSnapshot) Latest() *application.RunResult { return s.latest }

type stubRunner struct {
	result *application.RunResult
	err    error
	calls  int
}

func (s *stubRunner) Run(ctx context.Context) (*application.RunResult, error) {
	s.calls++
	return s.result, s.err
}

func sampleResult() *application.RunResult {
	return &application.RunResult{
		Fleet: analytics.FleetSummary{LatestDay: "2025-06-30", SiteCount: 2},
		Rolling: []analytics.RollingStats{
			{SiteID: "PP001", Last30: analytics.WindowStats{SpecificYield: 5.0}},
			{SiteID: "SV001", Last30: analytics.WindowStats{SpecificYield: 3.0}},
		},
		Degradation: []analytics.DegradationRecord{
			{SiteID: "PP001", Category: analytics.CategoryLow},
			{SiteID: "SV001", Category: analytics.CategoryHigh},
		},
	}
}

func TestFleetHandlerServesSnapshot(t *testing.T) {
	handler := NewFleetHandler(&stubSnapshot{latest: sampleResult()})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/fleet", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var fleet analytics.FleetSummary
	if err := json.Unmarshal(resp.Body.Bytes(), &fleet); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if fleet.LatestDay != "2025-06-30" || fleet.SiteCount != 2 {
		t.Fatalf("unexpected fleet %+v", fleet)
	}
}

func TestFleetHandlerBeforeFirstRun(t *testing.T) {
	handler := NewFleetHandler(&stubSnapshot{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/fleet", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before first run, got %d", resp.Code)
	}
}

func TestSitesHandlerListsAndResolvesSite(t *testing.T) {
	handler := NewSitesHandler(&stubSnapshot{latest: sampleResult()})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sites", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var details []siteDetail
	if err := json.Unmarshal(resp.Body.Bytes(), &details); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(details) != 2 || details[0].Degradation == nil {
		t.Fatalf("unexpected details %+v", details)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/sites/SV001", nil)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var detail siteDetail
	if err := json.Unmarshal(resp.Body.Bytes(), &detail); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if detail.SiteID != "SV001" || detail.Degradation == nil || detail.Degradation.Category != analytics.CategoryHigh {
		t.Fatalf("unexpected detail %+v", detail)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/sites/ZZ999", nil)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown site, got %d", resp.Code)
	}
}

func TestDegradationHandlerFiltersByCategory(t *testing.T) {
	handler := NewDegradationHandler(&stubSnapshot{latest: sampleResult()})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/degradation?category=high", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var records []analytics.DegradationRecord
	if err := json.Unmarshal(resp.Body.Bytes(), &records); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(records) != 1 || records[0].SiteID != "SV001" {
		t.Fatalf("unexpected records %+v", records)
	}
}

func TestRunHandlerTriggersRun(t *testing.T) {
	runner := &stubRunner{result: sampleResult()}
	handler := NewRunHandler(runner)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
	if runner.calls != 1 {
		t.Fatalf("expected one run, got %d", runner.calls)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for GET, got %d", resp.Code)
	}
}

func TestRunHandlerReportsFailure(t *testing.T) {
	handler := NewRunHandler(&stubRunner{err: errors.New("boom")})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}

func TestReportsHandlerServesArtifacts(t *testing.T) {
	handler := NewReportsHandler(&stubSnapshot{latest: sampleResult()})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/fleet.pdf", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if got := resp.Header().Get("Content-Type"); got != "application/pdf" {
		t.Fatalf("expected pdf content type, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/reports/unknown.csv", nil)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
