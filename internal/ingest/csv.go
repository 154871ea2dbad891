package ingest

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

// readCSVRows reads a CSV export into a header row and data rows.
func readCSVRows(path string) (header []string, rows [][]string, err error) {
	file, err := os.Open(path) // #nosec G304 -- user-supplied input path
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(bufio.NewReader(file))
	reader.FieldsPerRecord = -1 // institutions pad rows inconsistently
	reader.TrimLeadingSpace = true

	header, err = reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	for {
		record, readErr := reader.Read()
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return nil, nil, fmt.Errorf("failed to read row of %s: %w", path, readErr)
		}
		rows = append(rows, record)
	}

	return header, rows, nil
}
