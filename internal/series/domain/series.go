package series

import (
	"sort"
	"time"
)

// DayLayout is the canonical calendar-day key format. Keys in this layout
// sort chronologically when sorted lexicographically.
const DayLayout = "2006-01-02"

// Day is a calendar date in DayLayout. The series carries no timezone;
// a day is whatever calendar day the originating spreadsheet reported.
type Day = string

// DayOf converts a timestamp to its canonical day key.
func DayOf(t time.Time) Day {
	return t.Format(DayLayout)
}

// ParseDay parses a canonical day key back into a UTC midnight timestamp.
func ParseDay(d Day) (time.Time, error) {
	t, err := time.ParseInLocation(DayLayout, d, time.UTC)
	if err != nil {
		return time.Time{}, ErrInvalidDay
	}
	return t, nil
}

// Key identifies a single slot of the canonical series.
type Key struct {
	SiteID string
	Day    Day
}

// Point is one durable (site, day, energy) triple. A nil KWh means the day
// was reported but the energy cell was unusable; zero is a real reading.
type Point struct {
	SiteID string
	Day    Day
	KWh    *float64
}

// Validate checks basic point invariants.
func (p Point) Validate() error {
	if p.SiteID == "" {
		return ErrEmptySiteID
	}
	if _, err := ParseDay(p.Day); err != nil {
		return err
	}
	if p.KWh != nil && *p.KWh < 0 {
		return ErrNegativeEnergy
	}
	return nil
}

// Key returns the point's series key.
func (p Point) Key() Key {
	return Key{SiteID: p.SiteID, Day: p.Day}
}

// Merge combines newly arrived points into the historical series and returns
// the updated series sorted by (site, day). Arrival order is history first,
// then incoming in slice order; for duplicate keys the last arrival wins, so
// an incoming point always overrides history and a later document overrides
// an earlier one within the same run. Merging the same incoming set twice
// yields the same series as merging it once.
func Merge(history, incoming []Point) []Point {
	merged := make(map[Key]Point, len(history)+len(incoming))
	for _, p := range history {
		merged[p.Key()] = p
	}
	for _, p := range incoming {
		merged[p.Key()] = p
	}

	out := make([]Point, 0, len(merged))
	for _, p := range merged {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SiteID != out[j].SiteID {
			return out[i].SiteID < out[j].SiteID
		}
		return out[i].Day < out[j].Day
	})
	return out
}

// Days returns the sorted distinct days present in the series.
func Days(points []Point) []Day {
	seen := make(map[Day]struct{})
	for _, p := range points {
		seen[p.Day] = struct{}{}
	}
	days := make([]Day, 0, len(seen))
	for d := range seen {
		days = append(days, d)
	}
	sort.Strings(days)
	return days
}
