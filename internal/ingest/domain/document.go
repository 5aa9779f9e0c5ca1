package ingest

import (
	"errors"
	"time"

	series "solarfleet/internal/series/domain"
)

var (
	// ErrNoHeader is returned when no usable header row is found in a document.
	ErrNoHeader = errors.New("ingest: no usable header row found")
	// ErrMissingColumns is returned when the header row lacks a required column.
	ErrMissingColumns = errors.New("ingest: required columns missing")
	// ErrEmptyDocument is returned when a document has no rows at all.
	ErrEmptyDocument = errors.New("ingest: empty document")
)

// Document is one raw tabular input: rows of cell strings, already decoded
// from whatever transport delivered it. The extractor treats it as opaque
// until a header row is located.
type Document struct {
	Name string
	Rows [][]string
}

// Reading is one extracted (site, date, energy) triple. KWh is nil when the
// energy cell failed numeric coercion; zero is a real no-production reading
// and is never substituted for a missing value.
type Reading struct {
	SiteID string
	Date   time.Time
	KWh    *float64
}

// Point converts a reading to its canonical series point.
func (r Reading) Point() series.Point {
	return series.Point{SiteID: r.SiteID, Day: series.DayOf(r.Date), KWh: r.KWh}
}
