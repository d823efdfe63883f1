package sampledata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/okian/athleteprofile/internal/domain/table"
)

// File permission constants.
const (
	directoryPermission = 0o750
	filePermission      = 0o600
)

// WriteCSV writes the sheet with a header row. Missing metrics are empty cells.
func WriteCSV(w io.Writer, s Sheet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(s.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	row := make([]string, len(s.Columns))
	for _, r := range s.Records {
		for i, c := range s.Columns {
			row[i] = cellValue(r, c)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the sheet to path, creating parent directories.
func WriteFile(path string, s Sheet) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermission)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return WriteCSV(f, s)
}

func cellValue(r table.Record, column string) string {
	switch column {
	case table.ColumnName:
		return r.Athlete
	case table.ColumnDate:
		return r.Date
	}
	if v, ok := r.Values[column]; ok {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return r.Attrs[column]
}
