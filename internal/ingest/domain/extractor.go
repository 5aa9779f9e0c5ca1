package ingest

import (
	"strconv"
	"strings"
	"time"
)

// headerScanLimit bounds the preamble scan: the header row must appear within
// the first 50 rows of a document.
const headerScanLimit = 50

const (
	columnSite   = "Site"
	columnSiteID = "Site ID"
	columnDate   = "Date"
)

// ExtractResult carries the readings pulled from one document plus row-level
// drop counters for diagnostics.
type ExtractResult struct {
	Readings     []Reading
	RowsRead     int
	DatesDropped int
	EnergyAbsent int
}

// Extract locates the header row and canonical columns inside a document of
// unknown offset and returns its readings. The document as a whole is
// rejected (ErrNoHeader / ErrMissingColumns) when no header can be found;
// individual rows with unparseable dates are dropped and counted, and
// energy cells that fail numeric coercion become absent readings.
func Extract(doc Document) (ExtractResult, error) {
	if len(doc.Rows) == 0 {
		return ExtractResult{}, ErrEmptyDocument
	}

	headerIdx := findHeaderRow(doc.Rows)
	if headerIdx < 0 {
		return ExtractResult{}, ErrNoHeader
	}

	siteCol, dateCol, energyCol, ok := resolveColumns(doc.Rows[headerIdx])
	if !ok {
		return ExtractResult{}, ErrMissingColumns
	}

	var result ExtractResult
	for _, row := range doc.Rows[headerIdx+1:] {
		if siteCol >= len(row) || dateCol >= len(row) {
			continue
		}
		siteID := strings.TrimSpace(row[siteCol])
		if siteID == "" {
			continue
		}
		result.RowsRead++

		date, ok := parseDate(cleanCell(row[dateCol]))
		if !ok {
			result.DatesDropped++
			continue
		}

		var kwh *float64
		if energyCol < len(row) {
			if v, ok := parseEnergy(cleanCell(row[energyCol])); ok {
				kwh = &v
			}
		}
		if kwh == nil {
			result.EnergyAbsent++
		}

		result.Readings = append(result.Readings, Reading{SiteID: siteID, Date: date, KWh: kwh})
	}
	return result, nil
}

// findHeaderRow scans the leading rows for the first one that carries the
// canonical column names. Cells are BOM- and whitespace-stripped before
// matching; the site and date names must match exactly, the production
// column only has to contain the "solar" and "supply" tokens since vendors
// vary its exact wording.
func findHeaderRow(rows [][]string) int {
	limit := len(rows)
	if limit > headerScanLimit {
		limit = headerScanLimit
	}
	for i := 0; i < limit; i++ {
		hasSite, hasDate, hasEnergy := false, false, false
		for _, cell := range rows[i] {
			c := cleanCell(cell)
			switch c {
			case columnSite, columnSiteID:
				hasSite = true
			case columnDate:
				hasDate = true
			}
			if isEnergyColumn(c) {
				hasEnergy = true
			}
		}
		if hasSite && hasDate && hasEnergy {
			return i
		}
	}
	return -1
}

// resolveColumns maps the header row to column indexes. "Site" is preferred
// over "Site ID" when both are present.
func resolveColumns(header []string) (site, date, energy int, ok bool) {
	site, date, energy = -1, -1, -1
	siteIDCol := -1
	for i, cell := range header {
		switch c := cleanCell(cell); {
		case c == columnSite:
			site = i
		case c == columnSiteID:
			siteIDCol = i
		case c == columnDate:
			date = i
		case isEnergyColumn(c):
			energy = i
		}
	}
	if site < 0 {
		site = siteIDCol
	}
	if site < 0 || date < 0 || energy < 0 {
		return 0, 0, 0, false
	}
	return site, date, energy, true
}

func isEnergyColumn(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "solar") && strings.Contains(lower, "supply")
}

// cleanCell strips surrounding whitespace and a UTF-8 byte-order mark.
// Header cells exported from some tools carry both.
func cleanCell(cell string) string {
	return strings.TrimSpace(strings.TrimPrefix(cell, "\uFEFF"))
}

// dateLayouts are the date formats observed in field spreadsheets, tried in
// order. Slash and dash layouts are day-first, matching the sites' locale.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-Jan-06",
	"02 Jan 2006",
}

func parseDate(cell string) (time.Time, bool) {
	if cell == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, cell, time.UTC); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

func parseEnergy(cell string) (float64, bool) {
	if cell == "" {
		return 0, false
	}
	cell = strings.ReplaceAll(cell, ",", "")
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}
