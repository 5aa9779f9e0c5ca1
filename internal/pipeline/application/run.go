package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	analytics "solarfleet/internal/analytics/domain"
	ingest "solarfleet/internal/ingest/domain"
	masterdata "solarfleet/internal/masterdata/domain"
	"solarfleet/internal/observability/metrics"
	series "solarfleet/internal/series/domain"
)

// DocumentSource yields the monitoring documents for one run. Per-document
// failures come back as errors alongside the documents that did load.
type DocumentSource interface {
	Fetch(ctx context.Context) ([]ingest.Document, []error)
}

// SeriesRepository is the durable canonical series.
type SeriesRepository interface {
	LoadAll(ctx context.Context) ([]series.Point, error)
	Save(ctx context.Context, points []series.Point) error
}

// ProfileSource yields current site metadata.
type ProfileSource interface {
	Profiles(ctx context.Context) ([]masterdata.SiteProfile, error)
}

// RunResult is the outcome of one pipeline run: the analytical snapshot plus
// ingest accounting. Warnings carry everything that was skipped rather than
// fatal.
type RunResult struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	DocumentsParsed   int `json:"documents_parsed"`
	DocumentsRejected int `json:"documents_rejected"`
	RowsRead          int `json:"rows_read"`
	ReadingsExtracted int `json:"readings_extracted"`
	DatesDropped      int `json:"dates_dropped"`
	EnergyAbsent      int `json:"energy_absent"`
	SeriesSize        int `json:"series_size"`

	Fleet       analytics.FleetSummary        `json:"fleet"`
	Rolling     []analytics.RollingStats      `json:"rolling"`
	Degradation []analytics.DegradationRecord `json:"degradation"`

	// Matrix backs on-demand exports; too bulky for the JSON surface.
	Matrix analytics.Matrix `json:"-"`

	DroppedSites []string `json:"dropped_sites,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
}

// Exporter writes run artifacts such as workbooks and PDF reports.
type Exporter interface {
	Export(result *RunResult) error
}

// Option customizes a Service.
type Option func(*Service)

// WithExporter attaches a report exporter invoked after each successful run.
func WithExporter(e Exporter) Option {
	return func(s *Service) { s.exporter = e }
}

// Service runs the reconciliation pipeline end to end: fetch, extract,
// merge, persist, analyze. It also keeps the latest result for the API.
type Service struct {
	source   DocumentSource
	history  SeriesRepository
	profiles ProfileSource
	cfg      Config
	metrics  *metrics.Metrics
	logger   *log.Logger
	exporter Exporter

	mu     sync.RWMutex
	latest *RunResult
}

// NewService constructs a Service.
func NewService(source DocumentSource, history SeriesRepository, profiles ProfileSource, cfg Config, m *metrics.Metrics, logger *log.Logger, opts ...Option) (*Service, error) {
	if source == nil {
		return nil, errors.New("pipeline: document source required")
	}
	if history == nil {
		return nil, errors.New("pipeline: series repository required")
	}
	if profiles == nil {
		return nil, errors.New("pipeline: profile source required")
	}
	if logger == nil {
		logger = log.Default()
	}
	s := &Service{
		source:   source,
		history:  history,
		profiles: profiles,
		cfg:      cfg,
		metrics:  m,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Latest returns the most recent run result, nil before the first run.
func (s *Service) Latest() *RunResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Run executes one pipeline pass. Unreadable documents and unprofiled sites
// degrade to warnings; a persistence or metadata failure aborts the run.
func (s *Service) Run(ctx context.Context) (*RunResult, error) {
	started := time.Now().UTC()
	result, err := s.run(ctx)
	duration := time.Since(started)
	s.metrics.ObserveRun(err, duration)
	if err != nil {
		s.logger.Printf("pipeline run failed after %s: %v", duration, err)
		return nil, err
	}

	result.StartedAt = started
	result.FinishedAt = started.Add(duration)
	if s.exporter != nil {
		if err := s.exporter.Export(result); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("export: %v", err))
			s.logger.Printf("report export failed: %v", err)
		}
	}
	s.publish(result)
	s.logger.Printf("pipeline run ok: docs=%d rejected=%d readings=%d series=%d sites=%d critical=%d in %s",
		result.DocumentsParsed, result.DocumentsRejected, result.ReadingsExtracted,
		result.SeriesSize, result.Fleet.SiteCount, len(result.Fleet.CriticalSites), duration)
	return result, nil
}

func (s *Service) run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{}

	docs, fetchErrs := s.source.Fetch(ctx)
	for _, err := range fetchErrs {
		result.DocumentsRejected++
		result.Warnings = append(result.Warnings, err.Error())
		s.observeDocument("rejected")
	}

	var incoming []series.Point
	for _, doc := range docs {
		extracted, err := ingest.Extract(doc)
		if err != nil {
			result.DocumentsRejected++
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %v", doc.Name, err))
			s.observeDocument("rejected")
			continue
		}
		result.DocumentsParsed++
		result.RowsRead += extracted.RowsRead
		result.ReadingsExtracted += len(extracted.Readings)
		result.DatesDropped += extracted.DatesDropped
		result.EnergyAbsent += extracted.EnergyAbsent
		for _, reading := range extracted.Readings {
			incoming = append(incoming, reading.Point())
		}
		s.observeDocument("parsed")
	}
	if s.metrics != nil {
		s.metrics.RowsExtracted.Add(float64(result.ReadingsExtracted))
		s.metrics.DatesDropped.Add(float64(result.DatesDropped))
	}

	history, err := s.history.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load series: %w", err)
	}
	merged := series.Merge(history, incoming)
	result.SeriesSize = len(merged)
	if len(incoming) > 0 {
		if err := s.history.Save(ctx, incoming); err != nil {
			return nil, fmt.Errorf("save series: %w", err)
		}
	}

	profiles, err := s.profiles.Profiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}

	matrix := analytics.BuildMatrix(merged, profiles)
	result.Matrix = matrix
	result.DroppedSites = matrix.DroppedSites
	for _, siteID := range matrix.DroppedSites {
		result.Warnings = append(result.Warnings, fmt.Sprintf("site %s has readings but no metadata", siteID))
	}

	rolling, degradation := s.analyze(matrix)
	result.Rolling = rolling
	result.Degradation = degradation

	rollingByID := make(map[string]analytics.RollingStats, len(rolling))
	for _, r := range rolling {
		rollingByID[r.SiteID] = r
	}
	result.Fleet = analytics.AggregateFleet(matrix, rollingByID, degradation, s.cfg.TierThresholds())

	s.gauge(result)
	return result, nil
}

// analyze fans per-site work across a bounded worker pool. Sites are
// independent, so workers write to disjoint slice slots and need no locking.
func (s *Service) analyze(matrix analytics.Matrix) ([]analytics.RollingStats, []analytics.DegradationRecord) {
	if len(matrix.Sites) == 0 {
		return nil, nil
	}

	workers := s.cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(matrix.Sites) {
		workers = len(matrix.Sites)
	}

	params := s.cfg.DegradationParams()
	rolling := make([]analytics.RollingStats, len(matrix.Sites))
	records := make([]*analytics.DegradationRecord, len(matrix.Sites))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				site := matrix.Sites[i]
				rolling[i] = analytics.ComputeRolling(site, matrix.LatestDay)
				if rec, ok := analytics.AnalyzeSite(site, matrix.Days, matrix.LatestDay, params); ok {
					records[i] = &rec
				}
			}
		}()
	}
	for i := range matrix.Sites {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	degradation := make([]analytics.DegradationRecord, 0, len(records))
	for _, rec := range records {
		if rec != nil {
			degradation = append(degradation, *rec)
		}
	}
	// Worst performers first: the further below the warranty curve, the
	// earlier the record sorts.
	sort.Slice(degradation, func(i, j int) bool {
		return degradation[i].VsExpectedPct < degradation[j].VsExpectedPct
	})
	return rolling, degradation
}

func (s *Service) publish(result *RunResult) {
	s.mu.Lock()
	s.latest = result
	s.mu.Unlock()
}

func (s *Service) observeDocument(outcome string) {
	if s.metrics != nil {
		s.metrics.DocumentsTotal.WithLabelValues(outcome).Inc()
	}
}

func (s *Service) gauge(result *RunResult) {
	if s.metrics == nil {
		return
	}
	s.metrics.SeriesSize.Set(float64(result.SeriesSize))
	s.metrics.SitesTotal.Set(float64(result.Fleet.SiteCount))
	s.metrics.SitesOnline.Set(float64(result.Fleet.OnlineSites))
	s.metrics.SitesCritical.Set(float64(len(result.Fleet.CriticalSites)))
	s.metrics.FleetYield30d.Set(result.Fleet.FleetYield30d)
	for _, category := range []analytics.DegradationCategory{
		analytics.CategoryOffline, analytics.CategoryHigh, analytics.CategoryMedium,
		analytics.CategoryLow, analytics.CategoryBetter,
	} {
		s.metrics.DegradationSites.WithLabelValues(string(category)).Set(float64(len(result.Fleet.DegradationTiers[category])))
	}
}
