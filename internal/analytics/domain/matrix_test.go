package analytics

import (
	"testing"

	masterdata "solarfleet/internal/masterdata/domain"
	series "solarfleet/internal/series/domain"
)

func kwh(v float64) *float64 { return &v }

func TestBuildMatrixJoinsSeriesAndProfiles(t *testing.T) {
	points := []series.Point{
		{SiteID: "PP001", Day: "2025-05-01", KWh: kwh(40)},
		{SiteID: "PP001", Day: "2025-05-02", KWh: kwh(42)},
		{SiteID: "SV001", Day: "2025-05-02", KWh: kwh(10)},
		{SiteID: "ZZ999", Day: "2025-05-01", KWh: kwh(99)},
	}
	profiles := []masterdata.SiteProfile{
		{SiteID: "SV001", Panels: 10, PanelSizeW: 500},
		{SiteID: "PP001", Panels: 24, PanelSizeW: 550},
		{SiteID: "KP001", Panels: 8, PanelSizeW: 450},
	}

	m := BuildMatrix(points, profiles)

	if expected, got := 3, len(m.Sites); expected != got {
		t.Fatalf("expected %d sites, got %d", expected, got)
	}
	if expected, got := "KP001", m.Sites[0].Profile.SiteID; expected != got {
		t.Fatalf("expected sites sorted by id, got first %q", got)
	}
	if expected, got := series.Day("2025-05-02"), m.LatestDay; expected != got {
		t.Fatalf("expected latest day %q, got %q", expected, got)
	}
	if expected, got := 13.2, m.Sites[1].CapacityKWp; expected != got {
		t.Fatalf("expected capacity %v, got %v", expected, got)
	}
	if len(m.DroppedSites) != 1 || m.DroppedSites[0] != "ZZ999" {
		t.Fatalf("expected ZZ999 dropped, got %v", m.DroppedSites)
	}
}

func TestBuildMatrixProfiledSiteWithoutReadings(t *testing.T) {
	m := BuildMatrix(nil, []masterdata.SiteProfile{{SiteID: "KP001"}})

	if expected, got := 1, len(m.Sites); expected != got {
		t.Fatalf("expected %d sites, got %d", expected, got)
	}
	if got := m.Sites[0].DaysWithData(); got != 0 {
		t.Fatalf("expected empty vector, got %d days", got)
	}
	if m.Sites[0].Commissioned != "" {
		t.Fatalf("expected no commissioning date, got %q", m.Sites[0].Commissioned)
	}
}

func TestBuildMatrixSkipsAbsentReadings(t *testing.T) {
	points := []series.Point{
		{SiteID: "PP001", Day: "2025-05-01", KWh: nil},
		{SiteID: "PP001", Day: "2025-05-02", KWh: kwh(0)},
	}
	m := BuildMatrix(points, []masterdata.SiteProfile{{SiteID: "PP001"}})

	if expected, got := 1, m.Sites[0].DaysWithData(); expected != got {
		t.Fatalf("expected %d present days, got %d", expected, got)
	}
	if _, ok := m.Sites[0].Values["2025-05-01"]; ok {
		t.Fatalf("absent reading must not appear in the vector")
	}
}

func TestBuildMatrixCommissionedIsFirstPositiveDay(t *testing.T) {
	points := []series.Point{
		{SiteID: "PP001", Day: "2025-05-01", KWh: kwh(0)},
		{SiteID: "PP001", Day: "2025-05-03", KWh: kwh(12)},
		{SiteID: "PP001", Day: "2025-05-02", KWh: kwh(5)},
	}
	m := BuildMatrix(points, []masterdata.SiteProfile{{SiteID: "PP001"}})

	if expected, got := series.Day("2025-05-02"), m.Sites[0].Commissioned; expected != got {
		t.Fatalf("expected commissioned %q, got %q", expected, got)
	}
}
