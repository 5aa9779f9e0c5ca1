package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	masterdata "solarfleet/internal/masterdata/domain"
	"solarfleet/internal/masterdata/interfaces/excel"
)

// ErrNoMetadata is returned when neither the workbook nor the store can
// provide site profiles.
var ErrNoMetadata = errors.New("masterdata: no metadata available")

// Repository stores site profiles durably.
type Repository interface {
	ListProfiles(ctx context.Context) ([]masterdata.SiteProfile, error)
	UpsertProfiles(ctx context.Context, profiles []masterdata.SiteProfile) error
}

// FileSource serves site profiles from a metadata workbook, mirroring each
// successful read into the store. When the workbook is missing it falls back
// to the last stored profiles, so a lost file degrades rather than halting
// runs.
type FileSource struct {
	path   string
	repo   Repository
	logger *log.Logger
}

// NewFileSource constructs a FileSource. The repository may be nil, in which
// case profiles come from the workbook alone.
func NewFileSource(path string, repo Repository, logger *log.Logger) *FileSource {
	if logger == nil {
		logger = log.Default()
	}
	return &FileSource{path: path, repo: repo, logger: logger}
}

// Profiles loads current site metadata.
func (s *FileSource) Profiles(ctx context.Context) ([]masterdata.SiteProfile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("metadata %s: %w", s.path, err)
		}
		if s.repo == nil {
			return nil, ErrNoMetadata
		}
		s.logger.Printf("metadata workbook %s missing, using stored profiles", s.path)
		return s.repo.ListProfiles(ctx)
	}

	profiles, err := excel.ReadProfiles(data)
	if err != nil {
		return nil, fmt.Errorf("metadata %s: %w", s.path, err)
	}
	if s.repo != nil {
		if err := s.repo.UpsertProfiles(ctx, profiles); err != nil {
			// The run can proceed on the in-memory profiles; only the
			// fallback copy is stale.
			s.logger.Printf("metadata store sync failed: %v", err)
		}
	}
	return profiles, nil
}
