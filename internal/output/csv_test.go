package output

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daryltucker/guidellm-report/internal/model"
)

func exportRows() []*model.SummaryRow {
	conc := 8.0
	rps := 2.5
	return []*model.SummaryRow{
		{
			Filename:                  "a.json",
			Concurrency:               &conc,
			PromptTokens:              512,
			OutputTokens:              128,
			MeanOutputTokensPerSecond: 100.5,
			DatasetID:                 "512-128",
			Extra:                     map[string]any{"model": "llama"},
		},
		{
			Filename:     "b.json",
			RPS:          &rps,
			PromptTokens: 256,
			OutputTokens: 64,
			DatasetID:    "256-64",
		},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func column(header []string, row []string, name string) string {
	for i, h := range header {
		if h == name {
			return row[i]
		}
	}
	return ""
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.csv")
	require.NoError(t, WriteCSV(path, model.SummaryColumns, exportRows()))

	records := readCSV(t, path)
	require.Len(t, records, 3)

	header := records[0]
	require.Len(t, header, len(model.SummaryColumns)+1)
	assert.Equal(t, "model", header[len(header)-1])

	assert.Equal(t, "a.json", column(header, records[1], "filename"))
	assert.Equal(t, "8", column(header, records[1], "concurrency"))
	assert.Equal(t, "", column(header, records[1], "rps"))
	assert.Equal(t, "100.5", column(header, records[1], "mean_output_tokens_per_second"))
	assert.Equal(t, "llama", column(header, records[1], "model"))

	assert.Equal(t, "2.5", column(header, records[2], "rps"))
	assert.Equal(t, "", column(header, records[2], "concurrency"))
	assert.Equal(t, "", column(header, records[2], "model"))
}

func TestWriteCSVShadowedOverlayKey(t *testing.T) {
	rows := []*model.SummaryRow{
		{Filename: "a.json", PromptTokens: 512, Extra: map[string]any{"prompt_tokens": 999}},
	}
	path := filepath.Join(t.TempDir(), "summary.csv")
	require.NoError(t, WriteCSV(path, model.SummaryColumns, rows))

	records := readCSV(t, path)
	header := records[0]
	require.Len(t, header, len(model.SummaryColumns))
	assert.Equal(t, "999", column(header, records[1], "prompt_tokens"))
}

func TestWriteCSVEmptyTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "requests.csv")
	var rows []*model.RequestRow
	require.NoError(t, WriteCSV(path, model.RequestColumns, rows))

	records := readCSV(t, path)
	require.Len(t, records, 1)
	assert.Equal(t, model.RequestColumns, records[0])
}

func TestWriteCSVBadPath(t *testing.T) {
	err := WriteCSV(filepath.Join(t.TempDir(), "missing", "x.csv"), model.SummaryColumns, exportRows())
	require.Error(t, err)
}
