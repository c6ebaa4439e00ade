/*
PURPOSE:
  Exports both benchmark tables into a single SQLite database file for
  ad-hoc querying (sqlite3 CLI, DataGrip, pandas.read_sql).

REQUIREMENTS:
  User-specified:
  - Tables `summary` and `requests`, fixed columns typed, overlay
    columns serialized into one JSON `extra` column.
  - Re-running an export replaces the previous tables.

  Implementation-discovered:
  - Inserts must run inside one transaction; row-at-a-time commits make
    large request tables unusably slow.
  - Overlay values are not guaranteed to be driver-friendly types;
    anything non-scalar is stored as its string form.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli (generate --sqlite)
  - Consumes: internal/model row slices

ERROR HANDLING:
  - Wrapped errors naming the table; any failure rolls the transaction
    back and aborts the export.

IMPLEMENTATION RULES:
  - database/sql with the modernc.org/sqlite driver (no cgo).
  - Column names come from model's column lists; never build them from
    user input.

USAGE:
  err := output.WriteSQLite("report.db", summaryRows, requestRows)

SELF-HEALING INSTRUCTIONS:
  - "database is locked" means a previous serve process still holds the
    file; stop it or export to a fresh path.

RELATED FILES:
  - internal/model/types.go

MAINTENANCE:
  - Extend columnType when new non-REAL columns appear.
*/

package output

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cast"
	_ "modernc.org/sqlite"

	"github.com/daryltucker/guidellm-report/internal/model"
)

// WriteSQLite stores both tables in one database file. Either slice may
// be empty; its table is still created.
func WriteSQLite(path string, summary []*model.SummaryRow, requests []*model.RequestRow) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}
	defer db.Close()

	if err := writeSQLiteTable(db, "summary", model.SummaryColumns, summary); err != nil {
		return err
	}
	return writeSQLiteTable(db, "requests", model.RequestColumns, requests)
}

func writeSQLiteTable[R model.Row](db *sql.DB, table string, columns []string, rows []R) error {
	if _, err := db.Exec("DROP TABLE IF EXISTS " + table); err != nil {
		return fmt.Errorf("failed to reset table %s: %w", table, err)
	}

	defs := make([]string, 0, len(columns)+1)
	for _, col := range columns {
		defs = append(defs, col+" "+columnType(col))
	}
	defs = append(defs, "extra TEXT")
	create := fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(defs, ", "))
	if _, err := db.Exec(create); err != nil {
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction for %s: %w", table, err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)+1), ", ")
	insert := fmt.Sprintf("INSERT INTO %s (%s, extra) VALUES (%s)",
		table, strings.Join(columns, ", "), placeholders)
	stmt, err := tx.Prepare(insert)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare insert for %s: %w", table, err)
	}
	defer stmt.Close()

	for _, r := range rows {
		args := make([]any, 0, len(columns)+1)
		for _, col := range columns {
			v, _ := r.Field(col)
			args = append(args, sqlValue(v))
		}
		args = append(args, extraJSON(r.Extras()))

		if _, err := stmt.Exec(args...); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", table, err)
	}
	return nil
}

func columnType(col string) string {
	switch col {
	case "filename", "filepath", "processor", "request_id", "dataset_id":
		return "TEXT"
	case "prompt_tokens", "output_tokens", "dataset_prompt_tokens", "dataset_output_tokens":
		return "INTEGER"
	}
	return "REAL"
}

func sqlValue(v any) any {
	switch v.(type) {
	case nil, bool, int, int64, float64, string, []byte:
		return v
	}
	return cast.ToString(v)
}

func extraJSON(extra map[string]any) any {
	if len(extra) == 0 {
		return nil
	}
	raw, err := json.Marshal(extra)
	if err != nil {
		return cast.ToString(extra)
	}
	return string(raw)
}
