package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/georgehe23/GovHack-TheGamblersReport/internal/lga"
)

// Table is a parsed tabular upload: a header row and raw string cells.
// Type coercion happens per cell when rows are extracted, so one bad value
// never poisons a column.
type Table struct {
	Columns []string
	Records [][]string
}

// ReadCSV parses a CSV stream into a Table. Records shorter than the header
// are tolerated (missing cells read as empty); a stream without a header row
// is an error.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty CSV input")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	for i, col := range header {
		header[i] = strings.TrimSpace(col)
	}

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}
		records = append(records, record)
	}

	return &Table{Columns: header, Records: records}, nil
}

// nameColumnCandidates are header names that identify the LGA-name column,
// in priority order. Datasets from different years and agencies disagree on
// the header, so the list covers the variants seen in the wild.
var nameColumnCandidates = []string{
	"LGA Name",
	"LGA_NAME",
	"LGA",
	"LGA_NAME_2021",
	"LGA_NAME_2016",
	"Local Government Area",
	"lga_name",
	"name",
	"AREA_NAME",
}

// DetectNameColumn finds the column holding area names. Exact
// case-insensitive candidates are tried in priority order, then any column
// whose header contains "lga". Returns false when no plausible column
// exists.
func (t *Table) DetectNameColumn() (int, bool) {
	lower := make(map[string]int, len(t.Columns))
	for i, col := range t.Columns {
		if _, seen := lower[strings.ToLower(col)]; !seen {
			lower[strings.ToLower(col)] = i
		}
	}

	for _, cand := range nameColumnCandidates {
		if i, ok := lower[strings.ToLower(cand)]; ok {
			return i, true
		}
	}

	for i, col := range t.Columns {
		if strings.Contains(strings.ToLower(col), "lga") {
			return i, true
		}
	}

	return 0, false
}

// MetricColumn binds one output metric to source-column headers. Headers
// match exactly (case-insensitive); Keywords match as substrings when no
// header does. A MetricColumn that resolves to no source column simply
// contributes nothing.
type MetricColumn struct {
	Name     string
	Headers  []string
	Keywords []string
}

// resolve finds the source column index for m, or -1.
func (m MetricColumn) resolve(columns []string) int {
	for _, h := range m.Headers {
		for i, col := range columns {
			if strings.EqualFold(col, h) {
				return i
			}
		}
	}
	for _, kw := range m.Keywords {
		for i, col := range columns {
			if strings.Contains(strings.ToLower(col), strings.ToLower(kw)) {
				return i
			}
		}
	}
	return -1
}

// Rows converts the table into aggregation input rows. nameCol is the index
// of the name column; cells that fail numeric parsing are left out of the
// metric map and so propagate as missing, never as zero. Records with an
// empty name cell are dropped.
func (t *Table) Rows(nameCol int, metricCols []MetricColumn) []lga.Row {
	resolved := make(map[string]int, len(metricCols))
	for _, mc := range metricCols {
		if i := mc.resolve(t.Columns); i >= 0 {
			resolved[mc.Name] = i
		}
	}

	rows := make([]lga.Row, 0, len(t.Records))
	for _, record := range t.Records {
		name := cell(record, nameCol)
		if strings.TrimSpace(name) == "" {
			continue
		}

		metrics := make(map[string]float64, len(resolved))
		for metric, idx := range resolved {
			if v, ok := ParseNumber(cell(record, idx)); ok {
				metrics[metric] = v
			}
		}

		rows = append(rows, lga.Row{Name: name, Metrics: metrics})
	}

	return rows
}

// ResolvedMetrics reports which configured metrics have a source column in
// this table. Used for run summaries.
func (t *Table) ResolvedMetrics(metricCols []MetricColumn) []string {
	var names []string
	for _, mc := range metricCols {
		if mc.resolve(t.Columns) >= 0 {
			names = append(names, mc.Name)
		}
	}
	return names
}

func cell(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}

// ParseNumber coerces a spreadsheet cell to a float64. Currency symbols,
// thousands separators, percent signs and surrounding whitespace are
// tolerated; anything else fails coercion and the value is treated as
// missing.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimSpace(s)

	// Accounting-style negatives: (1,234) means -1234.
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = "-" + strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
