package masterdata

import (
	"fmt"
	"strings"
)

// SiteProfile is the static description of one installation. Loaded once per
// run from the metadata source and read-only afterwards.
type SiteProfile struct {
	SiteID       string
	Name         string
	Split        string
	PO           string
	Project      string
	GridAccess   string
	PowerSources string
	Panels       int
	PanelSizeW   float64
	PanelModel   string
	PanelVendor  string
	AvgLoadKW    float64
}

// ArraySizeKWp derives nominal array capacity from panel count and wattage.
// Sites with unknown or non-positive panel data get zero capacity and are
// excluded from capacity-normalized metrics downstream.
func (p SiteProfile) ArraySizeKWp() float64 {
	if p.Panels <= 0 || p.PanelSizeW <= 0 {
		return 0
	}
	return float64(p.Panels) * p.PanelSizeW / 1000
}

// PanelDescription is the "size vendor model" label used to group sites by
// panel technology.
func (p SiteProfile) PanelDescription() string {
	size := "Unknown"
	if p.PanelSizeW > 0 {
		size = fmt.Sprintf("%d", int(p.PanelSizeW))
	}
	vendor := p.PanelVendor
	if vendor == "" {
		vendor = "Unknown"
	}
	model := p.PanelModel
	if model == "" {
		model = "Unknown"
	}
	return size + " " + vendor + " " + model
}

// Province resolves the site's province from the two-letter prefix of its
// site id. Unknown prefixes pass through unchanged.
func (p SiteProfile) Province() string {
	return ProvinceName(p.SiteID)
}

// provinceNames maps site-id prefixes to province names.
var provinceNames = map[string]string{
	"SV": "Sihanoukville", "KK": "Koh Kong", "SI": "Siem Reap", "PV": "Prey Veng",
	"SR": "Svay Rieng", "KD": "Kandal", "KS": "Kampong Speu", "KC": "Kampong Cham",
	"KH": "Kampong Chhnang", "BB": "Battambang", "PS": "Pursat", "PH": "Preah Vihear",
	"KT": "Kampong Thom", "PL": "Pailin", "BM": "Banteay Meanchey", "TB": "Tboung Khmum",
	"OM": "Oddar Meanchey", "KP": "Kampot", "KE": "Kep", "KR": "Kratie",
	"ST": "Stung Treng", "MK": "Mondulkiri", "RK": "Ratanakiri", "PP": "Phnom Penh", "TK": "Takeo",
}

// ProvinceName maps a site id to a province via its two-letter prefix.
func ProvinceName(siteID string) string {
	if len(siteID) < 2 {
		return "Unknown"
	}
	prefix := strings.ToUpper(siteID[:2])
	if name, ok := provinceNames[prefix]; ok {
		return name
	}
	return prefix
}
