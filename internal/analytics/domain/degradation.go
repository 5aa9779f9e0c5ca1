package analytics

import (
	"math"

	"github.com/montanaflynn/stats"

	series "solarfleet/internal/series/domain"
)

// DegradationParams tunes the baseline-vs-recent comparison. Zero values are
// not meaningful; construct via DefaultDegradationParams and override fields.
type DegradationParams struct {
	// FirstYearRatePct is the expected capacity loss over the first year
	// of operation, in percent.
	FirstYearRatePct float64
	// SteadyYearRatePct is the expected annual loss after the first year.
	SteadyYearRatePct float64
	// MinWindowSamples is the minimum count of strictly positive readings
	// each comparison window must carry for the site to be analyzable.
	MinWindowSamples int
	// WindowDays is the width of both comparison windows.
	WindowDays int
	// RecentDayLookback is how many of the matrix's trailing observed
	// days a site must have produced on to count as online.
	RecentDayLookback int
}

// DefaultDegradationParams reflects typical crystalline-silicon warranty
// curves: a steeper first year, then a flat annual rate.
func DefaultDegradationParams() DegradationParams {
	return DegradationParams{
		FirstYearRatePct:  1.5,
		SteadyYearRatePct: 0.4,
		MinWindowSamples:  5,
		WindowDays:        30,
		RecentDayLookback: 3,
	}
}

// DegradationCategory classifies how a site's measured loss compares to the
// warranty-expected loss for its age.
type DegradationCategory string

const (
	// CategoryOffline marks sites with no production across the matrix's
	// trailing observed days; their measured loss is not trustworthy.
	CategoryOffline DegradationCategory = "Offline"
	CategoryHigh    DegradationCategory = "High"
	CategoryMedium  DegradationCategory = "Medium"
	CategoryLow     DegradationCategory = "Low"
	// CategoryBetter marks sites producing above their early baseline.
	CategoryBetter DegradationCategory = "Better"
)

// DegradationRecord is the per-site outcome of the baseline comparison.
// VsExpectedPct is ExpectedLossPct minus ActualLossPct, in percentage
// points: negative means the site lost more than the warranty curve allows.
type DegradationRecord struct {
	SiteID          string              `json:"site_id"`
	SiteName        string              `json:"site_name"`
	Province        string              `json:"province"`
	Project         string              `json:"project"`
	Panel           string              `json:"panel"`
	CapacityKWp     float64             `json:"capacity_kwp"`
	Commissioned    series.Day          `json:"commissioned"`
	AgeYears        float64             `json:"age_years"`
	BaselineYield   float64             `json:"baseline_yield"`
	RecentYield     float64             `json:"recent_yield"`
	ActualLossPct   float64             `json:"actual_loss_pct"`
	ExpectedLossPct float64             `json:"expected_loss_pct"`
	VsExpectedPct   float64             `json:"vs_expected_pct"`
	HasRecentData   bool                `json:"has_recent_data"`
	Category        DegradationCategory `json:"category"`
}

// ExpectedLossPct is the warranty-curve loss for a plant of the given age:
// linear within the first year, then the steady rate on top.
func (p DegradationParams) ExpectedLossPct(ageYears float64) float64 {
	if ageYears <= 1 {
		return ageYears * p.FirstYearRatePct
	}
	return p.FirstYearRatePct + (ageYears-1)*p.SteadyYearRatePct
}

// AnalyzeSite compares a site's recent specific yield against its
// commissioning-era baseline. The second return value is false when the
// site cannot be analyzed: no capacity on record, no commissioning date, or
// too few positive readings in either window.
func AnalyzeSite(v SiteVector, matrixDays []series.Day, latest series.Day, params DegradationParams) (DegradationRecord, bool) {
	if v.CapacityKWp <= 0 || v.Commissioned == "" || latest == "" {
		return DegradationRecord{}, false
	}

	baselineEnd := addDays(v.Commissioned, params.WindowDays)
	recentStart := addDays(latest, -params.WindowDays)

	var baseline, recent []float64
	for day, kwh := range v.Values {
		if kwh <= 0 {
			continue
		}
		if day >= v.Commissioned && day < baselineEnd {
			baseline = append(baseline, kwh)
		}
		if day >= recentStart && day <= latest {
			recent = append(recent, kwh)
		}
	}
	if len(baseline) < params.MinWindowSamples || len(recent) < params.MinWindowSamples {
		return DegradationRecord{}, false
	}

	baselineP95, err := stats.Percentile(baseline, 95)
	if err != nil {
		return DegradationRecord{}, false
	}
	recentP95, err := stats.Percentile(recent, 95)
	if err != nil {
		return DegradationRecord{}, false
	}
	baselineYield := baselineP95 / v.CapacityKWp
	recentYield := recentP95 / v.CapacityKWp
	if baselineYield == 0 {
		return DegradationRecord{}, false
	}

	ageYears := ageInYears(v.Commissioned, latest)
	actual := (baselineYield - recentYield) / baselineYield * 100
	expected := params.ExpectedLossPct(ageYears)

	rec := DegradationRecord{
		SiteID:          v.Profile.SiteID,
		SiteName:        v.Profile.Name,
		Province:        v.Profile.Province(),
		Project:         v.Profile.Project,
		Panel:           v.Profile.PanelDescription(),
		CapacityKWp:     v.CapacityKWp,
		Commissioned:    v.Commissioned,
		AgeYears:        ageYears,
		BaselineYield:   baselineYield,
		RecentYield:     recentYield,
		ActualLossPct:   actual,
		ExpectedLossPct: expected,
		VsExpectedPct:   expected - actual,
		HasRecentData:   hasRecentProduction(v, matrixDays, params.RecentDayLookback),
	}
	rec.Category = classify(rec)
	return rec, true
}

// classify buckets a record by its measured loss. Offline wins over
// everything: a dark site's recent window says nothing about its panels.
func classify(rec DegradationRecord) DegradationCategory {
	if !rec.HasRecentData {
		return CategoryOffline
	}
	switch loss := rec.ActualLossPct; {
	case loss > 50:
		return CategoryHigh
	case loss >= 30:
		return CategoryMedium
	case loss >= 0:
		return CategoryLow
	default:
		return CategoryBetter
	}
}

// hasRecentProduction checks the trailing observed days of the whole matrix,
// not the site's own calendar, so a fleet-wide data gap does not mark every
// site offline.
func hasRecentProduction(v SiteVector, matrixDays []series.Day, lookback int) bool {
	if lookback <= 0 || len(matrixDays) == 0 {
		return false
	}
	start := len(matrixDays) - lookback
	if start < 0 {
		start = 0
	}
	for _, day := range matrixDays[start:] {
		if v.Values[day] > 0 {
			return true
		}
	}
	return false
}

func ageInYears(from, to series.Day) float64 {
	a, errA := series.ParseDay(from)
	b, errB := series.ParseDay(to)
	if errA != nil || errB != nil {
		return 0
	}
	days := b.Sub(a).Hours() / 24
	return math.Max(days, 0) / 365.25
}
