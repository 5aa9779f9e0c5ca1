package interfaces

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	analytics "solarfleet/internal/analytics/domain"
)

const matrixSheet = "Installed Sites Production"

// BuildMatrixXLSX renders the site matrix workbook: one row per site with
// profile columns, rolling summaries, and a column per observed day.
func BuildMatrixXLSX(m analytics.Matrix, rolling []analytics.RollingStats) ([]byte, error) {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", matrixSheet)

	header := []any{
		"Site", "Name", "Province", "Project", "Panel",
		"Capacity (kWp)", "Commissioned",
		"Avg 7d (kWh)", "Avg 30d (kWh)", "Avg 90d (kWh)", "Yield 30d",
	}
	for _, day := range m.Days {
		header = append(header, day)
	}
	if err := setRow(f, 1, header); err != nil {
		return nil, err
	}

	byID := make(map[string]analytics.RollingStats, len(rolling))
	for _, r := range rolling {
		byID[r.SiteID] = r
	}

	for i, site := range m.Sites {
		r := byID[site.Profile.SiteID]
		row := []any{
			site.Profile.SiteID,
			site.Profile.Name,
			site.Profile.Province(),
			site.Profile.Project,
			site.Profile.PanelDescription(),
			site.CapacityKWp,
			site.Commissioned,
			r.Last7.MeanDailyKWh,
			r.Last30.MeanDailyKWh,
			r.Last90.MeanDailyKWh,
			r.Last30.SpecificYield,
		}
		for _, day := range m.Days {
			if kwh, ok := site.Values[day]; ok {
				row = append(row, kwh)
			} else {
				row = append(row, nil)
			}
		}
		if err := setRow(f, i+2, row); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, row int, values []any) error {
	for col, value := range values {
		if value == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(matrixSheet, cell, value); err != nil {
			return err
		}
	}
	return nil
}

// BuildFleetPDF renders the fleet summary report.
func BuildFleetPDF(fleet analytics.FleetSummary, degradation []analytics.DegradationRecord) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Fleet Performance Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Data through: %s", fleet.LatestDay))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Sites: %d (%d online, %d critical)", fleet.SiteCount, fleet.OnlineSites, len(fleet.CriticalSites)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Installed capacity: %.1f kWp", fleet.TotalCapacityKWp))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("30-day production: %.1f kWh", fleet.TotalEnergy30dKWh))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("30-day fleet yield: %.2f kWh/kWp", fleet.FleetYield30d))
	pdf.Ln(8)

	// Performance tiers
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(50, 6, "Tier", "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 6, "Sites", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, tier := range []analytics.Tier{
		analytics.TierExcellent, analytics.TierGood, analytics.TierFair, analytics.TierPoor,
	} {
		pdf.CellFormat(50, 6, string(tier), "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 6, fmt.Sprintf("%d", len(fleet.TierCounts[tier])), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	// Province ranking
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(70, 6, "Province", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Sites", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Capacity (kWp)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Yield 30d", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, group := range fleet.ByProvince {
		pdf.CellFormat(70, 6, group.Group, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%d", group.SiteCount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.1f", group.CapacityKWp), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", group.AvgYield), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	if len(fleet.CriticalSites) > 0 {
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(0, 6, "Critical sites (no recent production)")
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 10)
		for _, siteID := range fleet.CriticalSites {
			pdf.Cell(0, 5, siteID)
			pdf.Ln(5)
		}
		pdf.Ln(3)
	}

	// Worst degradation offenders, already sorted worst-first
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(30, 6, "Site", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Age (y)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Actual %", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Expected %", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Category", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	limit := len(degradation)
	if limit > 20 {
		limit = 20
	}
	for _, rec := range degradation[:limit] {
		pdf.CellFormat(30, 6, rec.SiteID, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.1f", rec.AgeYears), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.1f", rec.ActualLossPct), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.1f", rec.ExpectedLossPct), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, string(rec.Category), "1", 0, "L", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
