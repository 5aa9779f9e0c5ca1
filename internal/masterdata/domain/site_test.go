package masterdata

import "testing"

func TestArraySizeKWp(t *testing.T) {
	p := SiteProfile{Panels: 24, PanelSizeW: 550}
	if got := p.ArraySizeKWp(); got != 13.2 {
		t.Fatalf("expected 13.2 kWp, got %v", got)
	}
	if got := (SiteProfile{Panels: 0, PanelSizeW: 550}).ArraySizeKWp(); got != 0 {
		t.Fatalf("expected 0 for unknown panel count, got %v", got)
	}
	if got := (SiteProfile{Panels: 24}).ArraySizeKWp(); got != 0 {
		t.Fatalf("expected 0 for unknown wattage, got %v", got)
	}
}

func TestPanelDescription(t *testing.T) {
	p := SiteProfile{PanelSizeW: 550, PanelVendor: "Jinko", PanelModel: "Tiger Neo"}
	if got := p.PanelDescription(); got != "550 Jinko Tiger Neo" {
		t.Fatalf("unexpected description %q", got)
	}
	if got := (SiteProfile{}).PanelDescription(); got != "Unknown Unknown Unknown" {
		t.Fatalf("unexpected fallback %q", got)
	}
}

func TestProvinceName(t *testing.T) {
	cases := map[string]string{
		"KD0001":  "Kandal",
		"sv0042":  "Sihanoukville",
		"XX0001":  "XX",
		"K":       "Unknown",
		"PP-0007": "Phnom Penh",
	}
	for siteID, want := range cases {
		if got := ProvinceName(siteID); got != want {
			t.Fatalf("%s: expected %q, got %q", siteID, want, got)
		}
	}
}
