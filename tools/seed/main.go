package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const dayLayout = "2006-01-02"

type config struct {
	dsn        string
	sitePrefix string
	siteCount  int
	startDate  string
	days       int
	capacity   float64
	createDDL  bool
}

func main() {
	cfg := parseConfig()
	if cfg.dsn == "" {
		log.Fatal("PG_DSN or DATABASE_URL is required")
	}
	if cfg.siteCount <= 0 {
		log.Fatal("site-count must be > 0")
	}
	if cfg.days <= 0 {
		log.Fatal("days must be > 0")
	}

	start, err := parseStartDate(cfg.startDate, cfg.days)
	if err != nil {
		log.Fatalf("invalid start-date: %v", err)
	}

	db, err := sql.Open("pgx", cfg.dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	if cfg.createDDL {
		if err := createTables(ctx, db); err != nil {
			log.Fatalf("create tables: %v", err)
		}
	}

	siteIDs := buildSiteIDs(cfg.sitePrefix, cfg.siteCount)
	log.Printf("seeding sites: count=%d", len(siteIDs))
	if err := seedSites(ctx, db, siteIDs, cfg.capacity); err != nil {
		log.Fatalf("seed sites: %v", err)
	}

	log.Printf("seeding production_readings: sites=%d days=%d from=%s", len(siteIDs), cfg.days, start.Format(dayLayout))
	if err := seedReadings(ctx, db, siteIDs, start, cfg.days, cfg.capacity); err != nil {
		log.Fatalf("seed readings: %v", err)
	}

	log.Printf("seed completed")
}

func parseConfig() config {
	cfg := config{}
	flag.StringVar(&cfg.dsn, "pg-dsn", envOrDefault("PG_DSN", envOrDefault("DATABASE_URL", "")), "Postgres DSN")
	flag.StringVar(&cfg.sitePrefix, "site-prefix", envOrDefault("SITE_PREFIX", "PP"), "site id prefix, first two letters map to a province")
	flag.IntVar(&cfg.siteCount, "site-count", envOrInt("SITE_COUNT", 20), "number of sites to seed")
	flag.StringVar(&cfg.startDate, "start-date", envOrDefault("START_DATE", ""), "first day to seed (YYYY-MM-DD)")
	flag.IntVar(&cfg.days, "days", envOrInt("DAYS", 400), "number of days to seed")
	flag.Float64Var(&cfg.capacity, "capacity-kwp", envOrFloat("CAPACITY_KWP", 13.2), "nominal array size per site")
	flag.BoolVar(&cfg.createDDL, "create-tables", envOrBool("CREATE_TABLES", true), "create tables when missing")
	flag.Parse()
	return cfg
}

func parseStartDate(value string, days int) (time.Time, error) {
	if value == "" {
		return time.Now().UTC().AddDate(0, 0, -days).Truncate(24 * time.Hour), nil
	}
	return time.Parse(dayLayout, value)
}

func buildSiteIDs(prefix string, count int) []string {
	list := make([]string, 0, count)
	for i := 1; i <= count; i++ {
		list = append(list, fmt.Sprintf("%s%03d", prefix, i))
	}
	return list
}

func createTables(ctx context.Context, db *sql.DB) error {
	const readingsDDL = `
CREATE TABLE IF NOT EXISTS production_readings (
	site_id TEXT NOT NULL,
	day DATE NOT NULL,
	kwh DOUBLE PRECISION,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (site_id, day)
)`
	const sitesDDL = `
CREATE TABLE IF NOT EXISTS sites (
	site_id TEXT PRIMARY KEY,
	site_name TEXT NOT NULL DEFAULT '',
	split TEXT NOT NULL DEFAULT '',
	po TEXT NOT NULL DEFAULT '',
	project TEXT NOT NULL DEFAULT '',
	grid_access TEXT NOT NULL DEFAULT '',
	power_sources TEXT NOT NULL DEFAULT '',
	panels INTEGER NOT NULL DEFAULT 0,
	panel_size_w DOUBLE PRECISION NOT NULL DEFAULT 0,
	panel_model TEXT NOT NULL DEFAULT '',
	panel_vendor TEXT NOT NULL DEFAULT '',
	avg_load_kw DOUBLE PRECISION NOT NULL DEFAULT 0,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`
	if _, err := db.ExecContext(ctx, readingsDDL); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx, sitesDDL)
	return err
}

func seedSites(ctx context.Context, db *sql.DB, siteIDs []string, capacity float64) error {
	const insertSQL = `
INSERT INTO sites (site_id, site_name, split, project, panels, panel_size_w, panel_model, panel_vendor, updated_at)
VALUES ($1, $2, $1, $3, $4, $5, $6, $7, NOW())
ON CONFLICT (site_id) DO UPDATE SET
	site_name = EXCLUDED.site_name,
	project = EXCLUDED.project,
	panels = EXCLUDED.panels,
	panel_size_w = EXCLUDED.panel_size_w,
	updated_at = NOW()`

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	panelSize := 550.0
	panels := int(math.Round(capacity * 1000 / panelSize))
	for i, siteID := range siteIDs {
		project := "Alpha"
		if i%3 == 0 {
			project = "Beta"
		}
		if _, err := stmt.ExecContext(ctx, siteID, fmt.Sprintf("Seeded site %s", siteID), project, panels, panelSize, "JKM550M", "Jinko"); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return err
		}
	}
	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// seedReadings writes a plausible production curve: a seasonal sine around
// 4 kWh/kWp with mild noise and a slow decline, so the degradation analyzer
// has something to find. Every tenth day is skipped to mimic reporting gaps.
func seedReadings(ctx context.Context, db *sql.DB, siteIDs []string, start time.Time, days int, capacity float64) error {
	const insertSQL = `
INSERT INTO production_readings (site_id, day, kwh, updated_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (site_id, day) DO UPDATE SET kwh = EXCLUDED.kwh, updated_at = NOW()`

	for idx, siteID := range siteIDs {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx, insertSQL)
		if err != nil {
			_ = tx.Rollback()
			return err
		}

		declinePerDay := 0.00002 * float64(idx%5)
		for day := 0; day < days; day++ {
			if (day+idx)%10 == 9 {
				continue
			}
			date := start.AddDate(0, 0, day)
			season := math.Sin(2 * math.Pi * float64(date.YearDay()) / 365)
			yield := 4.0 + 0.8*season - declinePerDay*float64(day)*4.0
			noise := 0.3 * math.Sin(float64(day*(idx+3)))
			kwh := (yield + noise) * capacity
			if kwh < 0 {
				kwh = 0
			}
			if _, err := stmt.ExecContext(ctx, siteID, date.Format(dayLayout), kwh); err != nil {
				_ = stmt.Close()
				_ = tx.Rollback()
				return err
			}
		}
		if err := stmt.Close(); err != nil {
			_ = tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func envOrInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
