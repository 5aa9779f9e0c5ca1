package postgres

import (
	"context"
	"database/sql"
	"fmt"

	masterdata "solarfleet/internal/masterdata/domain"
)

const defaultSitesTable = "sites"

// SiteRepository stores site profiles in Postgres, mirroring the metadata
// workbook so runs do not depend on the workbook being present.
type SiteRepository struct {
	db    *sql.DB
	table string
}

// NewSiteRepository constructs a SiteRepository.
func NewSiteRepository(db *sql.DB) *SiteRepository {
	return &SiteRepository{db: db, table: defaultSitesTable}
}

// ListProfiles returns every known site profile ordered by site id.
func (r *SiteRepository) ListProfiles(ctx context.Context) ([]masterdata.SiteProfile, error) {
	query := fmt.Sprintf(`
SELECT site_id, site_name, split, po, project, grid_access, power_sources,
	panels, panel_size_w, panel_model, panel_vendor, avg_load_kw
FROM %s
ORDER BY site_id`, r.table)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("site repo: list: %w", err)
	}
	defer rows.Close()

	var profiles []masterdata.SiteProfile
	for rows.Next() {
		var p masterdata.SiteProfile
		if err := rows.Scan(
			&p.SiteID,
			&p.Name,
			&p.Split,
			&p.PO,
			&p.Project,
			&p.GridAccess,
			&p.PowerSources,
			&p.Panels,
			&p.PanelSizeW,
			&p.PanelModel,
			&p.PanelVendor,
			&p.AvgLoadKW,
		); err != nil {
			return nil, fmt.Errorf("site repo: scan: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("site repo: list: %w", err)
	}
	return profiles, nil
}

// UpsertProfiles writes profiles in one transaction, typically after a fresh
// metadata workbook import.
func (r *SiteRepository) UpsertProfiles(ctx context.Context, profiles []masterdata.SiteProfile) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("site repo: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := fmt.Sprintf(`
INSERT INTO %s (
	site_id, site_name, split, po, project, grid_access, power_sources,
	panels, panel_size_w, panel_model, panel_vendor, avg_load_kw
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (site_id)
DO UPDATE SET
	site_name = EXCLUDED.site_name,
	split = EXCLUDED.split,
	po = EXCLUDED.po,
	project = EXCLUDED.project,
	grid_access = EXCLUDED.grid_access,
	power_sources = EXCLUDED.power_sources,
	panels = EXCLUDED.panels,
	panel_size_w = EXCLUDED.panel_size_w,
	panel_model = EXCLUDED.panel_model,
	panel_vendor = EXCLUDED.panel_vendor,
	avg_load_kw = EXCLUDED.avg_load_kw,
	updated_at = NOW()`, r.table)

	for _, p := range profiles {
		if p.SiteID == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, query,
			p.SiteID, p.Name, p.Split, p.PO, p.Project, p.GridAccess, p.PowerSources,
			p.Panels, p.PanelSizeW, p.PanelModel, p.PanelVendor, p.AvgLoadKW,
		); err != nil {
			return fmt.Errorf("site repo: upsert %s: %w", p.SiteID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("site repo: commit: %w", err)
	}
	return nil
}
