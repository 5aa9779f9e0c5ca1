package interfaces

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"solarfleet/internal/observability/metrics"
	"solarfleet/internal/pipeline/application"
)

// FileExporter writes run artifacts into a reports directory, one workbook
// and one PDF per observed latest day. Re-running the same day overwrites
// the previous artifacts.
type FileExporter struct {
	dir     string
	metrics *metrics.Metrics
	logger  *log.Logger
}

// NewFileExporter constructs a FileExporter.
func NewFileExporter(dir string, m *metrics.Metrics, logger *log.Logger) *FileExporter {
	if logger == nil {
		logger = log.Default()
	}
	return &FileExporter{dir: dir, metrics: m, logger: logger}
}

// Export renders and writes the matrix workbook and the fleet PDF.
func (e *FileExporter) Export(result *application.RunResult) error {
	if result.Fleet.LatestDay == "" {
		return nil
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return err
	}

	xlsxErr := e.exportMatrix(result)
	e.metrics.ObserveExport("xlsx", xlsxErr)
	pdfErr := e.exportFleet(result)
	e.metrics.ObserveExport("pdf", pdfErr)

	if xlsxErr != nil {
		return xlsxErr
	}
	return pdfErr
}

func (e *FileExporter) exportMatrix(result *application.RunResult) error {
	data, err := BuildMatrixXLSX(result.Matrix, result.Rolling)
	if err != nil {
		return fmt.Errorf("matrix workbook: %w", err)
	}
	path := filepath.Join(e.dir, fmt.Sprintf("production_matrix_%s.xlsx", result.Fleet.LatestDay))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("matrix workbook: %w", err)
	}
	e.logger.Printf("wrote %s", path)
	return nil
}

func (e *FileExporter) exportFleet(result *application.RunResult) error {
	data, err := BuildFleetPDF(result.Fleet, result.Degradation)
	if err != nil {
		return fmt.Errorf("fleet report: %w", err)
	}
	path := filepath.Join(e.dir, fmt.Sprintf("fleet_report_%s.pdf", result.Fleet.LatestDay))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("fleet report: %w", err)
	}
	e.logger.Printf("wrote %s", path)
	return nil
}
