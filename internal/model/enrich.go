/*
PURPOSE:
  Table-level enrichment: derives the dataset grouping key and applies
  axis-level filtering after all rows are assembled.

REQUIREMENTS:
  User-specified:
  - Group runs by their token-count pair ("400-200" style identifiers).
  - Restrict reports to configured concurrency/RPS levels.

  Implementation-discovered:
  - dataset_id must be computed after concatenation, not during parsing,
    because metadata overlays can replace the token columns per group.
  - Level filtering is exact set membership; configured levels and row
    values must be compared as the same numeric type.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli (after loading), internal/serve
  - Operates on: internal/model row slices

ERROR HANDLING:
  - Never fails. Irregularities (missing column, empty filter result)
    emit diagnostics on the supplied logger and degrade to a no-op.

IMPLEMENTATION RULES:
  - Enrichment only writes dataset_id; extracted values stay untouched.
  - Filtering preserves relative row order.

USAGE:
  model.DeriveDatasetID(rows)
  rows = model.FilterByLevels(rows, "concurrency", []float64{2, 8}, log)

SELF-HEALING INSTRUCTIONS:
  - If filtering drops everything unexpectedly, check that the config
    levels match the parsed values exactly (4 vs 4.5).

RELATED FILES:
  - internal/model/types.go
  - internal/parse/loader.go

MAINTENANCE:
  - Update AxisField if a third axis mode ever appears.
*/

package model

import (
	"log/slog"
	"slices"
	"sort"

	"github.com/spf13/cast"
)

// AxisField maps an axis mode to its column name.
func AxisField(axisMode string) string {
	if axisMode == "concurrency" {
		return "concurrency"
	}
	return "rps"
}

// DeriveDatasetID fills the dataset_id column from the token-count pair.
// Summary tables use prompt_tokens/output_tokens; per-request tables fall
// back to the dataset_prompt_tokens/dataset_output_tokens pair when the
// primary columns are absent. Running it twice is harmless: the id is a
// pure function of the token columns.
func DeriveDatasetID[R Row](rows []R) {
	for _, r := range rows {
		if p, ok := r.Field("prompt_tokens"); ok {
			o, _ := r.Field("output_tokens")
			r.SetDatasetID(cast.ToString(p) + "-" + cast.ToString(o))
			continue
		}
		if p, ok := r.Field("dataset_prompt_tokens"); ok {
			o, _ := r.Field("dataset_output_tokens")
			r.SetDatasetID(cast.ToString(p) + "-" + cast.ToString(o))
		}
	}
}

// FilterByLevels keeps only rows whose axis value is contained in levels.
// A nil levels slice keeps every row. Rows with a null axis value never
// match. Filtering everything away is valid output and only warns.
func FilterByLevels[R Row](rows []R, axisMode string, levels []float64, log *slog.Logger) []R {
	if levels == nil {
		return rows
	}

	field := AxisField(axisMode)
	if len(rows) == 0 {
		log.Warn("axis column not found in data", "column", field)
		return rows
	}

	filtered := make([]R, 0, len(rows))
	for _, r := range rows {
		if v, ok := numericField(r, field); ok && slices.Contains(levels, v) {
			filtered = append(filtered, r)
		}
	}

	if len(filtered) == 0 {
		log.Warn("no data remains after level filtering", "column", field, "levels", levels)
	}
	return filtered
}

// AvailableLevels returns the sorted distinct non-null axis values.
func AvailableLevels[R Row](rows []R, axisMode string) []float64 {
	field := AxisField(axisMode)

	seen := make(map[float64]struct{})
	var levels []float64
	for _, r := range rows {
		v, ok := numericField(r, field)
		if !ok {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		levels = append(levels, v)
	}

	sort.Float64s(levels)
	return levels
}

// ExtraColumns returns the sorted union of overlay column names across
// the table.
func ExtraColumns[R Row](rows []R) []string {
	seen := make(map[string]struct{})
	var cols []string
	for _, r := range rows {
		for k := range r.Extras() {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			cols = append(cols, k)
		}
	}
	sort.Strings(cols)
	return cols
}

func numericField(r Row, field string) (float64, bool) {
	v, ok := r.Field(field)
	if !ok || v == nil {
		return 0, false
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, false
	}
	return f, true
}
