// Package table holds the immutable athlete test table the aggregation engine reads.
package table

import (
	"sort"
	"strconv"
)

// Identifying column names every source must provide.
const (
	ColumnName = "Name"
	ColumnDate = "Date"
)

// Record is one test session of one athlete.
type Record struct {
	Athlete string
	Date    string
	// Values holds numeric cells. A metric missing from the map was empty or
	// not a number in the source row.
	Values map[string]float64
	// Attrs holds non-numeric cells such as "Test Type".
	Attrs map[string]string
}

// Value returns the metric value and whether the record carries it.
func (r Record) Value(metric string) (float64, bool) {
	v, ok := r.Values[metric]
	return v, ok
}

// Attr returns a text attribute, or "" when absent.
func (r Record) Attr(name string) string {
	return r.Attrs[name]
}

// Table is an ordered, read-only sequence of records. Order is the source
// order and is the tie-break for every operation on the table.
type Table struct {
	records []Record
	columns []string
}

// New builds a Table from records in the given order. columns lists the
// source header (used for Has and Columns); records are not copied and must
// not be modified by the caller afterwards.
func New(columns []string, records []Record) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{records: records, columns: cols}
}

// Len returns the number of records.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.records)
}

// Records returns the records in table order. The slice must be treated as read-only.
func (t *Table) Records() []Record {
	if t == nil {
		return nil
	}
	return t.records
}

// Columns returns the source header.
func (t *Table) Columns() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Has reports whether column is part of the source header.
func (t *Table) Has(column string) bool {
	if t == nil {
		return false
	}
	for _, c := range t.columns {
		if c == column {
			return true
		}
	}
	return false
}

// RowAt returns the record at index i.
func (t *Table) RowAt(i int) (Record, error) {
	if i < 0 || i >= t.Len() {
		return Record{}, &IndexError{Index: i, Len: t.Len()}
	}
	return t.records[i], nil
}

// Filter returns a new Table with the records matching pred, in order.
func (t *Table) Filter(pred func(Record) bool) *Table {
	if t == nil {
		return &Table{}
	}
	out := make([]Record, 0, t.Len())
	for _, r := range t.Records() {
		if pred(r) {
			out = append(out, r)
		}
	}
	return &Table{records: out, columns: t.columns}
}

// ForAthlete is Filter on the athlete name.
func (t *Table) ForAthlete(athlete string) *Table {
	return t.Filter(func(r Record) bool { return r.Athlete == athlete })
}

// Unique returns distinct non-empty values of column in first-seen order.
// Name and Date resolve to the identifying fields; numeric cells are
// formatted with strconv.
func (t *Table) Unique(column string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range t.Records() {
		v := cell(r, column)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Athletes returns the sorted distinct athlete names.
func (t *Table) Athletes() []string {
	names := t.Unique(ColumnName)
	sort.Strings(names)
	return names
}

// Sessions returns the distinct test dates of one athlete in table order.
func (t *Table) Sessions(athlete string) []string {
	return t.ForAthlete(athlete).Unique(ColumnDate)
}

func cell(r Record, column string) string {
	switch column {
	case ColumnName:
		return r.Athlete
	case ColumnDate:
		return r.Date
	}
	if v, ok := r.Values[column]; ok {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return r.Attrs[column]
}
