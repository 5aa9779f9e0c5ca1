package excel

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	masterdata "solarfleet/internal/masterdata/domain"
)

// ErrNoSiteColumn is returned when the metadata workbook has neither a
// "Split" nor a "Site" column to key profiles by.
var ErrNoSiteColumn = errors.New("masterdata excel: no Split or Site column")

// ReadProfiles loads site profiles from the installation-info workbook.
// Unlike monitoring exports the metadata file is maintained by hand and has
// its header on the first row; the site id comes from the "Split" column,
// falling back to "Site". Rows without a site id are skipped.
func ReadProfiles(data []byte) ([]masterdata.SiteProfile, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("masterdata excel: open: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("masterdata excel: read: %w", err)
	}
	if len(rows) == 0 {
		return nil, errors.New("masterdata excel: empty workbook")
	}

	cols := map[string]int{}
	for i, cell := range rows[0] {
		cols[strings.TrimSpace(strings.TrimPrefix(cell, "\uFEFF"))] = i
	}
	splitCol, hasSplit := cols["Split"]
	siteCol, hasSite := cols["Site"]
	if !hasSplit && !hasSite {
		return nil, ErrNoSiteColumn
	}
	if !hasSplit {
		splitCol = -1
	}
	if !hasSite {
		siteCol = -1
	}

	var profiles []masterdata.SiteProfile
	for _, row := range rows[1:] {
		siteID := ""
		if hasSplit {
			siteID = cellAt(row, splitCol)
		}
		if siteID == "" && hasSite {
			siteID = cellAt(row, siteCol)
		}
		if siteID == "" {
			continue
		}

		profiles = append(profiles, masterdata.SiteProfile{
			SiteID:       siteID,
			Name:         cellAt(row, siteCol),
			Split:        cellAt(row, splitCol),
			PO:           lookup(row, cols, "PO"),
			Project:      lookup(row, cols, "Project"),
			GridAccess:   lookup(row, cols, "Grid Access"),
			PowerSources: lookup(row, cols, "Power Sources"),
			Panels:       intCell(lookup(row, cols, "Panels")),
			PanelSizeW:   floatCell(lookup(row, cols, "Panel Size")),
			PanelModel:   lookup(row, cols, "Panel Model"),
			PanelVendor:  lookup(row, cols, "Panel Vendor"),
			AvgLoadKW:    floatCell(lookup(row, cols, "Avg Load")),
		})
	}
	return profiles, nil
}

func lookup(row []string, cols map[string]int, name string) string {
	idx, ok := cols[name]
	if !ok {
		return ""
	}
	return cellAt(row, idx)
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func intCell(cell string) int {
	v, err := strconv.Atoi(cell)
	if err != nil {
		return 0
	}
	return v
}

func floatCell(cell string) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(cell, ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}
