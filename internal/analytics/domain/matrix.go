package analytics

import (
	"sort"

	masterdata "solarfleet/internal/masterdata/domain"
	series "solarfleet/internal/series/domain"
)

// SiteVector is one site's date-indexed production joined with its profile.
// Values holds present readings only; a day missing from the map is absent,
// which is not the same as a stored zero.
type SiteVector struct {
	Profile      masterdata.SiteProfile
	CapacityKWp  float64
	Values       map[series.Day]float64
	Commissioned series.Day
}

// DaysWithData reports how many days carry a reading.
func (v SiteVector) DaysWithData() int { return len(v.Values) }

// Matrix is the per-run reshape of the canonical series: one vector per
// profiled site over the shared day axis. It is recomputed every run and
// never persisted.
type Matrix struct {
	Sites     []SiteVector
	Days      []series.Day
	LatestDay series.Day

	// DroppedSites produced readings but have no metadata profile;
	// capacity-normalized metrics are undefined for them.
	DroppedSites []string
}

// BuildMatrix joins the canonical series against site metadata. Profiled
// sites without readings keep an all-absent vector so they still show up in
// fleet counts; series sites without a profile are dropped and reported.
func BuildMatrix(points []series.Point, profiles []masterdata.SiteProfile) Matrix {
	bySite := make(map[string]map[series.Day]float64)
	for _, p := range points {
		if p.KWh == nil {
			continue
		}
		values, ok := bySite[p.SiteID]
		if !ok {
			values = make(map[series.Day]float64)
			bySite[p.SiteID] = values
		}
		values[p.Day] = *p.KWh
	}

	profiled := make(map[string]struct{}, len(profiles))
	m := Matrix{Days: series.Days(points)}
	if len(m.Days) > 0 {
		m.LatestDay = m.Days[len(m.Days)-1]
	}

	for _, profile := range profiles {
		profiled[profile.SiteID] = struct{}{}
		values := bySite[profile.SiteID]
		if values == nil {
			values = map[series.Day]float64{}
		}
		m.Sites = append(m.Sites, SiteVector{
			Profile:      profile,
			CapacityKWp:  profile.ArraySizeKWp(),
			Values:       values,
			Commissioned: firstPositiveDay(values),
		})
	}
	sort.Slice(m.Sites, func(i, j int) bool {
		return m.Sites[i].Profile.SiteID < m.Sites[j].Profile.SiteID
	})

	for siteID := range bySite {
		if _, ok := profiled[siteID]; !ok {
			m.DroppedSites = append(m.DroppedSites, siteID)
		}
	}
	sort.Strings(m.DroppedSites)
	return m
}

// firstPositiveDay is the site's derived commissioning date: the earliest
// day with strictly positive production, "" if it has never produced.
func firstPositiveDay(values map[series.Day]float64) series.Day {
	first := series.Day("")
	for day, v := range values {
		if v <= 0 {
			continue
		}
		if first == "" || day < first {
			first = day
		}
	}
	return first
}
