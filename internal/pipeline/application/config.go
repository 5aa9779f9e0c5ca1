package application

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	analytics "solarfleet/internal/analytics/domain"
)

// DegradationConfig tunes the degradation analyzer. Zero fields fall back to
// the built-in defaults.
type DegradationConfig struct {
	FirstYearRatePct  float64 `yaml:"first_year_rate_pct"`
	SteadyYearRatePct float64 `yaml:"steady_year_rate_pct"`
	MinWindowSamples  int     `yaml:"min_window_samples"`
	WindowDays        int     `yaml:"window_days"`
	RecentDayLookback int     `yaml:"recent_day_lookback"`
}

// TierConfig sets the specific-yield band bounds. Zero fields fall back to
// the built-in defaults.
type TierConfig struct {
	Excellent float64 `yaml:"excellent"`
	Good      float64 `yaml:"good"`
	Fair      float64 `yaml:"fair"`
}

// ScheduleConfig defines when the daily run fires, as UTC "HH:MM".
type ScheduleConfig struct {
	DailyAt string `yaml:"daily_at"`
}

// Config defines pipeline configuration.
type Config struct {
	IngestDir    string            `yaml:"ingest_dir"`
	MetadataPath string            `yaml:"metadata_path"`
	ReportDir    string            `yaml:"report_dir"`
	Workers      int               `yaml:"workers"`
	Schedule     ScheduleConfig    `yaml:"schedule"`
	Degradation  DegradationConfig `yaml:"degradation"`
	Tiers        TierConfig        `yaml:"tiers"`
}

// LoadConfig loads config from yaml or env.
func LoadConfig() (Config, error) {
	cfg := Config{
		IngestDir:    getenvDefault("PIPELINE_INGEST_DIR", filepath.FromSlash("var/intake")),
		MetadataPath: getenvDefault("PIPELINE_METADATA_PATH", filepath.FromSlash("var/metadata/sites.xlsx")),
		ReportDir:    getenvDefault("PIPELINE_REPORT_DIR", filepath.FromSlash("var/reports")),
		Workers:      getenvIntDefault("PIPELINE_WORKERS", 4),
	}

	if path := os.Getenv("PIPELINE_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if cfg.Schedule.DailyAt == "" {
		cfg.Schedule.DailyAt = getenvDefault("PIPELINE_DAILY_AT", "02:30")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.IngestDir == "" {
		return cfg, errors.New("pipeline: ingest dir required")
	}
	return cfg, nil
}

// DegradationParams merges configured overrides onto the defaults.
func (c Config) DegradationParams() analytics.DegradationParams {
	p := analytics.DefaultDegradationParams()
	if c.Degradation.FirstYearRatePct > 0 {
		p.FirstYearRatePct = c.Degradation.FirstYearRatePct
	}
	if c.Degradation.SteadyYearRatePct > 0 {
		p.SteadyYearRatePct = c.Degradation.SteadyYearRatePct
	}
	if c.Degradation.MinWindowSamples > 0 {
		p.MinWindowSamples = c.Degradation.MinWindowSamples
	}
	if c.Degradation.WindowDays > 0 {
		p.WindowDays = c.Degradation.WindowDays
	}
	if c.Degradation.RecentDayLookback > 0 {
		p.RecentDayLookback = c.Degradation.RecentDayLookback
	}
	return p
}

// TierThresholds merges configured overrides onto the defaults.
func (c Config) TierThresholds() analytics.TierThresholds {
	t := analytics.DefaultTierThresholds()
	if c.Tiers.Excellent > 0 {
		t.Excellent = c.Tiers.Excellent
	}
	if c.Tiers.Good > 0 {
		t.Good = c.Tiers.Good
	}
	if c.Tiers.Fair > 0 {
		t.Fair = c.Tiers.Fair
	}
	return t
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
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
