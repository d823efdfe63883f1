package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/okian/athleteprofile/internal/domain/table"
)

const utf8BOM = "\ufeff"

// Parse reads a metric table from CSV. The header must carry the Name and
// Date columns. Numeric cells become metric values, other non-empty cells
// become text attributes, and empty cells are absent.
func Parse(r io.Reader) (*table.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = false

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &SchemaError{Missing: []string{table.ColumnName, table.ColumnDate}}
	}
	if err != nil {
		return nil, &LoadError{Err: fmt.Errorf("read header: %w", err)}
	}

	columns := make([]string, len(header))
	nameIdx, dateIdx := -1, -1
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, utf8BOM))
		columns[i] = h
		switch {
		case h == table.ColumnName && nameIdx < 0:
			nameIdx = i
		case h == table.ColumnDate && dateIdx < 0:
			dateIdx = i
		}
	}
	var missing []string
	if nameIdx < 0 {
		missing = append(missing, table.ColumnName)
	}
	if dateIdx < 0 {
		missing = append(missing, table.ColumnDate)
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}

	var records []table.Record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &LoadError{Err: fmt.Errorf("read row: %w", err)}
		}
		rec, ok := parseRow(columns, row, nameIdx, dateIdx)
		if !ok {
			continue
		}
		records = append(records, rec)
	}

	return table.New(columns, records), nil
}

func parseRow(columns, row []string, nameIdx, dateIdx int) (table.Record, bool) {
	at := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}
	name := at(nameIdx)
	if name == "" {
		return table.Record{}, false
	}
	rec := table.Record{
		Athlete: name,
		Date:    at(dateIdx),
		Values:  make(map[string]float64),
	}
	for i, col := range columns {
		if i == nameIdx || i == dateIdx || col == "" {
			continue
		}
		v := at(i)
		if v == "" {
			continue
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			if math.IsNaN(f) || math.IsInf(f, 0) {
				continue
			}
			rec.Values[col] = f
			continue
		}
		if rec.Attrs == nil {
			rec.Attrs = make(map[string]string)
		}
		rec.Attrs[col] = v
	}
	return rec, true
}
