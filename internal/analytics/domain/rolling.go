package analytics

import (
	series "solarfleet/internal/series/domain"
)

// WindowStats summarizes one trailing window of a site's production.
// Means are taken over days that actually carry a reading, so sparse sites
// are not diluted by absent days.
type WindowStats struct {
	ProductionKWh float64 `json:"production_kwh"`
	MeanDailyKWh  float64 `json:"mean_daily_kwh"`
	SpecificYield float64 `json:"specific_yield"`
	DaysWithData  int     `json:"days_with_data"`
}

// RollingStats carries the standard trailing windows for one site, anchored
// on the latest observed day across the whole fleet.
type RollingStats struct {
	SiteID  string      `json:"site_id"`
	Last7   WindowStats `json:"last_7d"`
	Last30  WindowStats `json:"last_30d"`
	Last90  WindowStats `json:"last_90d"`
	AllTime WindowStats `json:"all_time"`
}

// ComputeRolling derives windowed statistics for a site vector. A window of
// W days covers (latest-W, latest]: exactly W calendar days ending on the
// anchor, whether or not the site reported on each of them.
func ComputeRolling(v SiteVector, latest series.Day) RollingStats {
	return RollingStats{
		SiteID:  v.Profile.SiteID,
		Last7:   windowStats(v, latest, 7),
		Last30:  windowStats(v, latest, 30),
		Last90:  windowStats(v, latest, 90),
		AllTime: windowStats(v, latest, 0),
	}
}

func windowStats(v SiteVector, latest series.Day, windowDays int) WindowStats {
	var cutoff series.Day
	if windowDays > 0 && latest != "" {
		cutoff = addDays(latest, -windowDays)
	}

	var s WindowStats
	for day, kwh := range v.Values {
		if day > latest {
			continue
		}
		if windowDays > 0 && day <= cutoff {
			continue
		}
		s.ProductionKWh += kwh
		s.DaysWithData++
	}
	if s.DaysWithData > 0 {
		s.MeanDailyKWh = s.ProductionKWh / float64(s.DaysWithData)
	}
	if v.CapacityKWp > 0 {
		s.SpecificYield = s.MeanDailyKWh / v.CapacityKWp
	}
	return s
}

// addDays shifts an ISO day by n calendar days. Malformed days come back
// unchanged; upstream validation keeps them out of the matrix.
func addDays(day series.Day, n int) series.Day {
	t, err := series.ParseDay(day)
	if err != nil {
		return day
	}
	return series.DayOf(t.AddDate(0, 0, n))
}
