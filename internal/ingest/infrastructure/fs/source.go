package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ingest "solarfleet/internal/ingest/domain"
	"solarfleet/internal/ingest/interfaces/excel"
)

// DirectorySource reads monitoring workbooks dropped into a local intake
// directory. Transport into that directory is someone else's job.
type DirectorySource struct {
	dir string
}

// NewDirectorySource constructs a DirectorySource.
func NewDirectorySource(dir string) *DirectorySource {
	return &DirectorySource{dir: dir}
}

// Fetch returns one document per readable xlsx file in the intake directory,
// sorted by file name so arrival order is stable across runs. Office lock
// files ("~$...") are skipped. A directory that does not exist yields no
// documents rather than an error; a half-written workbook is reported as an
// error for the caller to log and skip.
func (s *DirectorySource) Fetch(ctx context.Context) ([]ingest.Document, []error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, []error{fmt.Errorf("intake dir %s: %w", s.dir, err)}
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".xlsx") || strings.HasPrefix(name, "~$") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var docs []ingest.Document
	var errs []error
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			return docs, errs
		}
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			errs = append(errs, fmt.Errorf("read %s: %w", name, err))
			continue
		}
		doc, err := excel.ReadDocument(name, data)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs, errs
}
