package analytics

import (
	"sort"

	series "solarfleet/internal/series/domain"
)

// Tier labels a site's 30-day specific yield against fixed performance bands.
type Tier string

const (
	TierExcellent Tier = "Excellent"
	TierGood      Tier = "Good"
	TierFair      Tier = "Fair"
	TierPoor      Tier = "Poor"
)

// TierThresholds are the lower bounds of the upper three yield bands, in
// kWh/kWp per day. Excellent is exclusive, the others inclusive.
type TierThresholds struct {
	Excellent float64
	Good      float64
	Fair      float64
}

// DefaultTierThresholds suit grid-tied installations in high-irradiance
// regions.
func DefaultTierThresholds() TierThresholds {
	return TierThresholds{Excellent: 4.5, Good: 3.5, Fair: 2.5}
}

// YieldTier buckets a specific yield.
func YieldTier(yield float64, t TierThresholds) Tier {
	switch {
	case yield > t.Excellent:
		return TierExcellent
	case yield >= t.Good:
		return TierGood
	case yield >= t.Fair:
		return TierFair
	default:
		return TierPoor
	}
}

// GroupSummary aggregates sites sharing one dimension value. AvgYield is
// capacity-weighted so a 5 kWp rooftop cannot drown out a 500 kWp plant.
type GroupSummary struct {
	Group       string  `json:"group"`
	SiteCount   int     `json:"site_count"`
	CapacityKWp float64 `json:"capacity_kwp"`
	AvgYield    float64 `json:"avg_yield"`
}

// TimelinePoint is one step of the cumulative commissioning history.
type TimelinePoint struct {
	Day        series.Day `json:"day"`
	Added      int        `json:"added"`
	Cumulative int        `json:"cumulative"`
}

// FleetSummary is the run-level rollup served to dashboards and reports.
type FleetSummary struct {
	LatestDay         series.Day `json:"latest_day"`
	SiteCount         int        `json:"site_count"`
	SitesWithData     int        `json:"sites_with_data"`
	OnlineSites       int        `json:"online_sites"`
	TotalCapacityKWp  float64    `json:"total_capacity_kwp"`
	TotalEnergy30dKWh float64    `json:"total_energy_30d_kwh"`
	FleetYield7d      float64    `json:"fleet_yield_7d"`
	FleetYield30d     float64    `json:"fleet_yield_30d"`
	FleetYield90d     float64    `json:"fleet_yield_90d"`

	TierCounts map[Tier][]string `json:"tier_counts"`

	ByProvince []GroupSummary `json:"by_province"`
	ByProject  []GroupSummary `json:"by_project"`
	ByPanel    []GroupSummary `json:"by_panel"`

	// CriticalSites produced nothing across the fleet's trailing observed
	// days despite having production history.
	CriticalSites []string `json:"critical_sites"`

	DegradationTiers map[DegradationCategory][]string `json:"degradation_tiers"`

	Timeline []TimelinePoint `json:"timeline"`
}

// AggregateFleet rolls per-site statistics up to fleet level. The rolling map
// is keyed by site id and must cover every site in the matrix; sites missing
// from it are treated as having produced nothing.
func AggregateFleet(m Matrix, rolling map[string]RollingStats, records []DegradationRecord, thresholds TierThresholds) FleetSummary {
	summary := FleetSummary{
		LatestDay:        m.LatestDay,
		SiteCount:        len(m.Sites),
		TierCounts:       make(map[Tier][]string),
		DegradationTiers: make(map[DegradationCategory][]string),
	}

	var weighted7, weighted30, weighted90 float64
	provinces := newGrouper()
	projects := newGrouper()
	panels := newGrouper()

	for _, site := range m.Sites {
		id := site.Profile.SiteID
		summary.TotalCapacityKWp += site.CapacityKWp

		r := rolling[id]
		summary.TotalEnergy30dKWh += r.Last30.ProductionKWh

		if site.DaysWithData() > 0 {
			summary.SitesWithData++
		}
		if recentlyOnline(site, m.Days, 3) {
			summary.OnlineSites++
		} else if site.DaysWithData() > 0 {
			summary.CriticalSites = append(summary.CriticalSites, id)
		}

		if site.CapacityKWp <= 0 {
			continue
		}
		tier := YieldTier(r.Last30.SpecificYield, thresholds)
		summary.TierCounts[tier] = append(summary.TierCounts[tier], id)
		weighted7 += r.Last7.SpecificYield * site.CapacityKWp
		weighted30 += r.Last30.SpecificYield * site.CapacityKWp
		weighted90 += r.Last90.SpecificYield * site.CapacityKWp

		provinces.add(site.Profile.Province(), site.CapacityKWp, r.Last30.SpecificYield)
		projects.add(site.Profile.Project, site.CapacityKWp, r.Last30.SpecificYield)
		panels.add(site.Profile.PanelDescription(), site.CapacityKWp, r.Last30.SpecificYield)
	}

	if summary.TotalCapacityKWp > 0 {
		summary.FleetYield7d = weighted7 / summary.TotalCapacityKWp
		summary.FleetYield30d = weighted30 / summary.TotalCapacityKWp
		summary.FleetYield90d = weighted90 / summary.TotalCapacityKWp
	}
	summary.ByProvince = provinces.summaries()
	summary.ByProject = projects.summaries()
	summary.ByPanel = panels.summaries()
	summary.Timeline = commissioningTimeline(m.Sites)

	for _, rec := range records {
		summary.DegradationTiers[rec.Category] = append(summary.DegradationTiers[rec.Category], rec.SiteID)
	}
	return summary
}

// recentlyOnline reports whether the site produced on any of the matrix's
// trailing lookback days.
func recentlyOnline(v SiteVector, matrixDays []series.Day, lookback int) bool {
	return hasRecentProduction(v, matrixDays, lookback)
}

// commissioningTimeline walks derived commissioning dates in order and
// accumulates the fleet's growth curve. Sites that never produced are left
// out.
func commissioningTimeline(sites []SiteVector) []TimelinePoint {
	added := make(map[series.Day]int)
	for _, s := range sites {
		if s.Commissioned != "" {
			added[s.Commissioned]++
		}
	}
	days := make([]series.Day, 0, len(added))
	for day := range added {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

	timeline := make([]TimelinePoint, 0, len(days))
	total := 0
	for _, day := range days {
		total += added[day]
		timeline = append(timeline, TimelinePoint{Day: day, Added: added[day], Cumulative: total})
	}
	return timeline
}

// grouper accumulates capacity-weighted yields per dimension value.
type grouper struct {
	order []string
	rows  map[string]*GroupSummary
	sum   map[string]float64
}

func newGrouper() *grouper {
	return &grouper{rows: make(map[string]*GroupSummary), sum: make(map[string]float64)}
}

func (g *grouper) add(group string, capacity, yield float64) {
	if group == "" {
		group = "Unknown"
	}
	row, ok := g.rows[group]
	if !ok {
		row = &GroupSummary{Group: group}
		g.rows[group] = row
		g.order = append(g.order, group)
	}
	row.SiteCount++
	row.CapacityKWp += capacity
	g.sum[group] += yield * capacity
}

// summaries finalizes weighted means and orders groups best-first.
func (g *grouper) summaries() []GroupSummary {
	out := make([]GroupSummary, 0, len(g.order))
	for _, group := range g.order {
		row := *g.rows[group]
		if row.CapacityKWp > 0 {
			row.AvgYield = g.sum[group] / row.CapacityKWp
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgYield != out[j].AvgYield {
			return out[i].AvgYield > out[j].AvgYield
		}
		return out[i].Group < out[j].Group
	})
	return out
}
