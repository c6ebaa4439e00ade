/*
PURPOSE:
  Writes a normalized benchmark table to a CSV file.
  Ensures data integrity by flushing writes immediately.

REQUIREMENTS:
  User-specified:
  - One file per table, header first: the fixed columns followed by the
    sorted union of overlay columns.
  - Overwrite any previous export at the same path.

  Implementation-discovered:
  - Overlay keys can shadow fixed columns; the header must not repeat
    a name, and the cell value comes from the overlay either way.
  - Null cells (absent overlay key, null axis value) stay empty.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli (generate --data-dir)
  - Consumes: internal/model row slices

ERROR HANDLING:
  - Returns error on file creation or write failure.

IMPLEMENTATION RULES:
  - Use encoding/csv.
  - Flush() after every write (critical for crash resilience).
  - Use Mutex if concurrent writes are expected.

USAGE:
  err := output.WriteCSV("summary.csv", model.SummaryColumns, rows)

SELF-HEALING INSTRUCTIONS:
  - Mismatched headers between exports of the same table mean the
    overlay keys differ between config groups; that is expected.

RELATED FILES:
  - internal/model/types.go
  - internal/output/json.go

MAINTENANCE:
  - Column order changes belong in model.SummaryColumns/RequestColumns.
*/

package output

import (
	"encoding/csv"
	"os"
	"sync"

	"github.com/spf13/cast"

	"github.com/daryltucker/guidellm-report/internal/model"
)

// CSVWriter streams rows of one table to a CSV file.
type CSVWriter struct {
	file    *os.File
	writer  *csv.Writer
	columns []string
	mu      sync.Mutex
}

// NewCSVWriter creates the file, writes the header and keeps the handle
// open for row writes. It overwrites the file if it exists.
func NewCSVWriter(path string, columns []string) (*CSVWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		f.Close()
		return nil, err
	}
	w.Flush()

	return &CSVWriter{
		file:    f,
		writer:  w,
		columns: columns,
	}, nil
}

// Write writes a single row. It is thread-safe.
func (cw *CSVWriter) Write(r model.Row) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	record := make([]string, len(cw.columns))
	for i, col := range cw.columns {
		v, ok := r.Field(col)
		if !ok || v == nil {
			continue
		}
		record[i] = cast.ToString(v)
	}

	if err := cw.writer.Write(record); err != nil {
		return err
	}
	cw.writer.Flush()
	return cw.writer.Error()
}

// Close closes the underlying file.
func (cw *CSVWriter) Close() error {
	cw.writer.Flush()
	return cw.file.Close()
}

// WriteCSV exports a whole table in one call.
func WriteCSV[R model.Row](path string, baseColumns []string, rows []R) error {
	w, err := NewCSVWriter(path, tableColumns(baseColumns, rows))
	if err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.Write(r); err != nil {
			w.Close()
			return err
		}
	}
	return w.Close()
}

// tableColumns appends the overlay column union to the fixed columns,
// skipping overlay keys that shadow a fixed name.
func tableColumns[R model.Row](base []string, rows []R) []string {
	columns := append([]string{}, base...)
	seen := make(map[string]struct{}, len(base))
	for _, c := range base {
		seen[c] = struct{}{}
	}
	for _, c := range model.ExtraColumns(rows) {
		if _, dup := seen[c]; !dup {
			columns = append(columns, c)
		}
	}
	return columns
}
