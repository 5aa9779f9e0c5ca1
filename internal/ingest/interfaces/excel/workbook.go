package excel

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	ingest "solarfleet/internal/ingest/domain"
)

// ReadDocument decodes an xlsx workbook into an extractor document. Only the
// first sheet is read; monitoring exports put their data there and any other
// sheets are vendor boilerplate.
func ReadDocument(name string, data []byte) (ingest.Document, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return ingest.Document{}, fmt.Errorf("excel: open %s: %w", name, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return ingest.Document{}, fmt.Errorf("excel: %s has no sheets", name)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return ingest.Document{}, fmt.Errorf("excel: read %s: %w", name, err)
	}
	return ingest.Document{Name: name, Rows: rows}, nil
}
