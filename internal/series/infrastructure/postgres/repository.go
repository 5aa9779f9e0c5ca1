package postgres

import (
	"context"
	"database/sql"
	"fmt"

	series "solarfleet/internal/series/domain"
)

const defaultReadingsTable = "production_readings"

// SeriesRepository persists the canonical production series in Postgres.
// The energy column is nullable: a NULL marks a reported day whose energy
// cell was unusable, which is distinct from a stored zero.
type SeriesRepository struct {
	db    *sql.DB
	table string
}

// NewSeriesRepository creates a repository using the default table name.
func NewSeriesRepository(db *sql.DB, opts ...RepositoryOption) *SeriesRepository {
	repo := &SeriesRepository{db: db, table: defaultReadingsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// RepositoryOption configures the repository.
type RepositoryOption func(*SeriesRepository)

// WithTable overrides the default table name.
func WithTable(table string) RepositoryOption {
	return func(repo *SeriesRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// LoadAll reads the full persisted series ordered by (site, day).
func (r *SeriesRepository) LoadAll(ctx context.Context) ([]series.Point, error) {
	query := fmt.Sprintf(`
SELECT site_id, to_char(day, 'YYYY-MM-DD'), kwh
FROM %s
ORDER BY site_id, day`, r.table)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("series repo: load: %w", err)
	}
	defer rows.Close()

	var points []series.Point
	for rows.Next() {
		var (
			p   series.Point
			kwh sql.NullFloat64
		)
		if err := rows.Scan(&p.SiteID, &p.Day, &kwh); err != nil {
			return nil, fmt.Errorf("series repo: scan: %w", err)
		}
		if kwh.Valid {
			v := kwh.Float64
			p.KWh = &v
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("series repo: load: %w", err)
	}
	return points, nil
}

// Save upserts merged points inside one transaction so a failed run never
// leaves the series partially updated.
func (r *SeriesRepository) Save(ctx context.Context, points []series.Point) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("series repo: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := fmt.Sprintf(`
INSERT INTO %s (site_id, day, kwh)
VALUES ($1, $2, $3)
ON CONFLICT (site_id, day)
DO UPDATE SET kwh = EXCLUDED.kwh, updated_at = NOW()`, r.table)

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("series repo: prepare: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		if err := p.Validate(); err != nil {
			return err
		}
		kwh := sql.NullFloat64{}
		if p.KWh != nil {
			kwh = sql.NullFloat64{Float64: *p.KWh, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, p.SiteID, p.Day, kwh); err != nil {
			return fmt.Errorf("series repo: upsert %s/%s: %w", p.SiteID, p.Day, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("series repo: commit: %w", err)
	}
	return nil
}
