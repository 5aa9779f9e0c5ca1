package apihttp

import (
	"encoding/json"
	"net/http"
	"strings"

	analytics "solarfleet/internal/analytics/domain"
	"solarfleet/internal/pipeline/application"
	report "solarfleet/internal/report/interfaces"
)

// SnapshotSource exposes the latest pipeline result.
type SnapshotSource interface {
	Latest() *application.RunResult
}

// FleetHandler serves the fleet summary snapshot.
type FleetHandler struct {
	source SnapshotSource
}

// NewFleetHandler constructs a FleetHandler.
func NewFleetHandler(source SnapshotSource) *FleetHandler {
	return &FleetHandler{source: source}
}

// ServeHTTP handles GET /api/v1/fleet.
func (h *FleetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	latest, ok := snapshot(h.source, w)
	if !ok {
		return
	}
	writeJSON(w, latest.Fleet)
}

// siteDetail is the per-site API shape: rolling windows plus the degradation
// record when the site was analyzable.
type siteDetail struct {
	analytics.RollingStats
	Degradation *analytics.DegradationRecord `json:"degradation,omitempty"`
}

// SitesHandler serves per-site rolling statistics.
type SitesHandler struct {
	source SnapshotSource
}

// NewSitesHandler constructs a SitesHandler.
func NewSitesHandler(source SnapshotSource) *SitesHandler {
	return &SitesHandler{source: source}
}

// ServeHTTP handles GET /api/v1/sites and GET /api/v1/sites/{id}.
func (h *SitesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	latest, ok := snapshot(h.source, w)
	if !ok {
		return
	}

	degradationByID := make(map[string]analytics.DegradationRecord, len(latest.Degradation))
	for _, rec := range latest.Degradation {
		degradationByID[rec.SiteID] = rec
	}

	if siteID := strings.TrimPrefix(r.URL.Path, "/api/v1/sites/"); siteID != "" && siteID != r.URL.Path {
		for _, rolling := range latest.Rolling {
			if rolling.SiteID != siteID {
				continue
			}
			detail := siteDetail{RollingStats: rolling}
			if rec, ok := degradationByID[siteID]; ok {
				detail.Degradation = &rec
			}
			writeJSON(w, detail)
			return
		}
		http.Error(w, "site not found", http.StatusNotFound)
		return
	}

	details := make([]siteDetail, 0, len(latest.Rolling))
	for _, rolling := range latest.Rolling {
		detail := siteDetail{RollingStats: rolling}
		if rec, ok := degradationByID[rolling.SiteID]; ok {
			detail.Degradation = &rec
		}
		details = append(details, detail)
	}
	writeJSON(w, details)
}

// DegradationHandler serves degradation records, optionally filtered by
// category.
type DegradationHandler struct {
	source SnapshotSource
}

// NewDegradationHandler constructs a DegradationHandler.
func NewDegradationHandler(source SnapshotSource) *DegradationHandler {
	return &DegradationHandler{source: source}
}

// ServeHTTP handles GET /api/v1/degradation.
func (h *DegradationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	latest, ok := snapshot(h.source, w)
	if !ok {
		return
	}

	records := latest.Degradation
	if category := r.URL.Query().Get("category"); category != "" {
		filtered := make([]analytics.DegradationRecord, 0, len(records))
		for _, rec := range records {
			if strings.EqualFold(string(rec.Category), category) {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}
	writeJSON(w, records)
}

// RunHandler triggers a pipeline run.
type RunHandler struct {
	runner application.Runner
}

// NewRunHandler constructs a RunHandler.
func NewRunHandler(runner application.Runner) *RunHandler {
	return &RunHandler{runner: runner}
}

// ServeHTTP handles POST /api/v1/runs. The run executes synchronously and
// the response carries its accounting.
func (h *RunHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.runner == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	result, err := h.runner.Run(r.Context())
	if err != nil {
		http.Error(w, "pipeline run failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(result)
}

// ReportsHandler renders report artifacts from the latest snapshot.
type ReportsHandler struct {
	source SnapshotSource
}

// NewReportsHandler constructs a ReportsHandler.
func NewReportsHandler(source SnapshotSource) *ReportsHandler {
	return &ReportsHandler{source: source}
}

// ServeHTTP handles GET /api/v1/reports/matrix.xlsx and
// GET /api/v1/reports/fleet.pdf.
func (h *ReportsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	latest, ok := snapshot(h.source, w)
	if !ok {
		return
	}

	switch r.URL.Path {
	case "/api/v1/reports/matrix.xlsx":
		data, err := report.BuildMatrixXLSX(latest.Matrix, latest.Rolling)
		if err != nil {
			http.Error(w, "matrix export failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="production_matrix.xlsx"`)
		_, _ = w.Write(data)
	case "/api/v1/reports/fleet.pdf":
		data, err := report.BuildFleetPDF(latest.Fleet, latest.Degradation)
		if err != nil {
			http.Error(w, "fleet export failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="fleet_report.pdf"`)
		_, _ = w.Write(data)
	default:
		http.NotFound(w, r)
	}
}

func snapshot(source SnapshotSource, w http.ResponseWriter) (*application.RunResult, bool) {
	if source == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return nil, false
	}
	latest := source.Latest()
	if latest == nil {
		http.Error(w, "no run results yet", http.StatusServiceUnavailable)
		return nil, false
	}
	return latest, true
}

func writeJSON(w http.ResponseWriter, value any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(value)
}
