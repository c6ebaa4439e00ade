/*
PURPOSE:
  Writes a normalized benchmark table to a JSON Lines file (NDJSON).
  Optimized for machine parsing and downstream ingestion.

REQUIREMENTS:
  User-specified:
  - One JSON object per row, overlay columns inlined at the top level.

  Implementation-discovered:
  - JSON Lines is better for streaming/logging than a single large array
    (append-friendly).
  - Rows missing an overlay key carry an explicit null so every line has
    the same shape.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli (generate --data-dir)
  - Consumes: internal/model row slices

ERROR HANDLING:
  - Returns error on file creation or write failure.

IMPLEMENTATION RULES:
  - Use encoding/json.NewEncoder.
  - Thread-safe.

USAGE:
  err := output.WriteJSONL("summary.jsonl", model.SummaryColumns, rows)

SELF-HEALING INSTRUCTIONS:
  - None specific.

RELATED FILES:
  - internal/model/types.go
  - internal/output/csv.go

MAINTENANCE:
  - Update if we switch to plain JSON array (not recommended for
    streaming).
*/

package output

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/daryltucker/guidellm-report/internal/model"
)

// JSONWriter streams rows of one table to a JSON Lines file.
type JSONWriter struct {
	file    *os.File
	encoder *json.Encoder
	columns []string
	mu      sync.Mutex
}

// NewJSONWriter creates a new JSONWriter.
func NewJSONWriter(path string, columns []string) (*JSONWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	return &JSONWriter{
		file:    f,
		encoder: json.NewEncoder(f),
		columns: columns,
	}, nil
}

// Write writes a single row as a JSON line.
func (jw *JSONWriter) Write(r model.Row) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	obj := make(map[string]any, len(jw.columns))
	for _, col := range jw.columns {
		v, _ := r.Field(col)
		obj[col] = v
	}
	return jw.encoder.Encode(obj)
}

// Close closes the underlying file.
func (jw *JSONWriter) Close() error {
	return jw.file.Close()
}

// WriteJSONL exports a whole table in one call.
func WriteJSONL[R model.Row](path string, baseColumns []string, rows []R) error {
	w, err := NewJSONWriter(path, tableColumns(baseColumns, rows))
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
