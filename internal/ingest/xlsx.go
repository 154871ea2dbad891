package ingest

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// readXLSXRows reads the first sheet of a spreadsheet export into a header
// row and data rows.
func readXLSXRows(path string) (header []string, rows [][]string, err error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("no sheets in %s", path)
	}

	all, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet %q of %s: %w", sheets[0], path, err)
	}
	if len(all) == 0 {
		return nil, nil, fmt.Errorf("empty sheet %q in %s", sheets[0], path)
	}

	return all[0], all[1:], nil
}
