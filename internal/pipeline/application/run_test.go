package application

import (
	"context"
	"errors"
	"testing"

	ingest "solarfleet/internal/ingest/domain"
	masterdata "solarfleet/internal/masterdata/domain"
	series "solarfleet/internal/series/domain"
)

type stubSource struct {
	docs []ingest.Document
	errs []error
}

func (s *stubSource) Fetch(ctx context.Context) ([]ingest.Document, []error) {
	return s.docs, s.errs
}

type stubSeries struct {
	history []series.Point
	saved   []series.Point
	loadErr error
	saveErr error
}

func (s *stubSeries) LoadAll(ctx context.Context) ([]series.Point, error) {
	return s.history, s.loadErr
}

func (s *stubSeries) Save(ctx context.Context, points []series.Point) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, points...)
	return nil
}

type stubProfiles struct {
	profiles []masterdata.SiteProfile
	err      error
}

func (s *stubProfiles) Profiles(ctx context.Context) ([]masterdata.SiteProfile, error) {
	return s.profiles, s.err
}

func monitoringDoc(name string, rows ...[]string) ingest.Document {
	all := [][]string{{"Site", "Date", "Solar Supply (kWh)"}}
	all = append(all, rows...)
	return ingest.Document{Name: name, Rows: all}
}

func newTestService(t *testing.T, source DocumentSource, history SeriesRepository, profiles ProfileSource) *Service {
	t.Helper()
	svc, err := NewService(source, history, profiles, Config{Workers: 2}, nil, nil)
	if err != nil {
		t.Fatalf("service error: %v", err)
	}
	return svc
}

func TestRunExtractsMergesAndAnalyzes(t *testing.T) {
	source := &stubSource{docs: []ingest.Document{
		monitoringDoc("june.xlsx",
			[]string{"PP001", "2025-06-29", "50"},
			[]string{"PP001", "2025-06-30", "52"},
		),
	}}
	repo := &stubSeries{history: []series.Point{
		{SiteID: "PP001", Day: "2025-06-28", KWh: kwh(48)},
	}}
	profiles := &stubProfiles{profiles: []masterdata.SiteProfile{
		{SiteID: "PP001", Panels: 20, PanelSizeW: 500},
	}}
	svc := newTestService(t, source, repo, profiles)

	result, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("run error: %v", err)
	}

	if result.DocumentsParsed != 1 || result.DocumentsRejected != 0 {
		t.Fatalf("expected 1 parsed document, got %d/%d", result.DocumentsParsed, result.DocumentsRejected)
	}
	if expected, got := 2, result.ReadingsExtracted; expected != got {
		t.Fatalf("expected %d readings, got %d", expected, got)
	}
	if expected, got := 3, result.SeriesSize; expected != got {
		t.Fatalf("expected series size %d, got %d", expected, got)
	}
	if expected, got := 2, len(repo.saved); expected != got {
		t.Fatalf("expected %d saved points, got %d", expected, got)
	}
	if expected, got := series.Day("2025-06-30"), result.Fleet.LatestDay; expected != got {
		t.Fatalf("expected latest day %q, got %q", expected, got)
	}
	if result.Fleet.SiteCount != 1 || result.Fleet.OnlineSites != 1 {
		t.Fatalf("expected 1 online site, got %+v", result.Fleet)
	}
	if len(result.Rolling) != 1 || result.Rolling[0].SiteID != "PP001" {
		t.Fatalf("expected rolling stats for PP001, got %+v", result.Rolling)
	}
	if got := svc.Latest(); got != result {
		t.Fatalf("expected latest snapshot to be published")
	}
}

func TestRunKeepsGoingPastBadDocuments(t *testing.T) {
	source := &stubSource{
		docs: []ingest.Document{
			{Name: "broken.xlsx", Rows: [][]string{{"nothing", "useful"}}},
			monitoringDoc("good.xlsx", []string{"PP001", "2025-06-30", "50"}),
		},
		errs: []error{errors.New("read half.xlsx: unexpected EOF")},
	}
	repo := &stubSeries{}
	svc := newTestService(t, source, repo, &stubProfiles{profiles: []masterdata.SiteProfile{{SiteID: "PP001"}}})

	result, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("run error: %v", err)
	}

	if result.DocumentsParsed != 1 || result.DocumentsRejected != 2 {
		t.Fatalf("expected 1 parsed and 2 rejected, got %d/%d", result.DocumentsParsed, result.DocumentsRejected)
	}
	if len(result.Warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %v", result.Warnings)
	}
	if len(repo.saved) != 1 {
		t.Fatalf("expected good document persisted, got %d points", len(repo.saved))
	}
}

func TestRunFailsWhenPersistenceFails(t *testing.T) {
	source := &stubSource{docs: []ingest.Document{
		monitoringDoc("june.xlsx", []string{"PP001", "2025-06-30", "50"}),
	}}
	repo := &stubSeries{saveErr: errors.New("connection reset")}
	svc := newTestService(t, source, repo, &stubProfiles{})

	if _, err := svc.Run(context.Background()); err == nil {
		t.Fatalf("expected run to fail on persistence error")
	}
	if svc.Latest() != nil {
		t.Fatalf("failed run must not publish a snapshot")
	}
}

func TestRunFailsWhenHistoryUnavailable(t *testing.T) {
	svc := newTestService(t, &stubSource{}, &stubSeries{loadErr: errors.New("down")}, &stubProfiles{})

	if _, err := svc.Run(context.Background()); err == nil {
		t.Fatalf("expected run to fail when history cannot load")
	}
}

func TestRunReportsUnprofiledSites(t *testing.T) {
	source := &stubSource{docs: []ingest.Document{
		monitoringDoc("june.xlsx", []string{"ZZ999", "2025-06-30", "50"}),
	}}
	svc := newTestService(t, source, &stubSeries{}, &stubProfiles{})

	result, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if len(result.DroppedSites) != 1 || result.DroppedSites[0] != "ZZ999" {
		t.Fatalf("expected ZZ999 dropped, got %v", result.DroppedSites)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("expected a warning for the unprofiled site, got %v", result.Warnings)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	doc := monitoringDoc("june.xlsx",
		[]string{"PP001", "2025-06-29", "50"},
		[]string{"PP001", "2025-06-30", "52"},
	)
	repo := &stubSeries{}
	svc := newTestService(t, &stubSource{docs: []ingest.Document{doc}}, repo, &stubProfiles{profiles: []masterdata.SiteProfile{{SiteID: "PP001"}}})

	first, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("first run error: %v", err)
	}
	repo.history = append(repo.history, repo.saved...)
	repo.saved = nil

	second, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("second run error: %v", err)
	}
	if first.SeriesSize != second.SeriesSize {
		t.Fatalf("expected stable series size, got %d then %d", first.SeriesSize, second.SeriesSize)
	}
}

func kwh(v float64) *float64 { return &v }
