package model

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fptr(v float64) *float64 { return &v }

func testLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

func TestDeriveDatasetID(t *testing.T) {
	t.Run("summary rows use the dataset token pair", func(t *testing.T) {
		rows := []*SummaryRow{
			{PromptTokens: 400, OutputTokens: 200},
			{PromptTokens: 512, OutputTokens: 128},
		}
		DeriveDatasetID(rows)
		assert.Equal(t, "400-200", rows[0].DatasetID)
		assert.Equal(t, "512-128", rows[1].DatasetID)
	})

	t.Run("request rows use per-request counts when present", func(t *testing.T) {
		rows := []*RequestRow{{
			PromptTokens:        510,
			OutputTokens:        127,
			DatasetPromptTokens: 512,
			DatasetOutputTokens: 128,
		}}
		DeriveDatasetID(rows)
		assert.Equal(t, "510-127", rows[0].DatasetID)
	})

	t.Run("metadata overlay shadows the token columns", func(t *testing.T) {
		rows := []*SummaryRow{{
			PromptTokens: 400,
			OutputTokens: 200,
			Extra:        map[string]any{"prompt_tokens": 999},
		}}
		DeriveDatasetID(rows)
		assert.Equal(t, "999-200", rows[0].DatasetID)
	})

	t.Run("idempotent", func(t *testing.T) {
		rows := []*SummaryRow{{PromptTokens: 400, OutputTokens: 200}}
		DeriveDatasetID(rows)
		DeriveDatasetID(rows)
		assert.Equal(t, "400-200", rows[0].DatasetID)
	})
}

func TestFilterByLevels(t *testing.T) {
	rows := []*SummaryRow{
		{Filename: "c2", Concurrency: fptr(2)},
		{Filename: "c4", Concurrency: fptr(4)},
		{Filename: "c8", Concurrency: fptr(8)},
		{Filename: "rps5", RPS: fptr(5)},
	}

	t.Run("nil levels keep everything", func(t *testing.T) {
		log, buf := testLogger()
		out := FilterByLevels(rows, "concurrency", nil, log)
		assert.Equal(t, rows, out)
		assert.Empty(t, buf.String())
	})

	t.Run("keeps matching rows in order", func(t *testing.T) {
		log, _ := testLogger()
		out := FilterByLevels(rows, "concurrency", []float64{8, 2}, log)
		require.Len(t, out, 2)
		assert.Equal(t, "c2", out[0].Filename)
		assert.Equal(t, "c8", out[1].Filename)
	})

	t.Run("null axis values never match", func(t *testing.T) {
		log, _ := testLogger()
		out := FilterByLevels(rows, "rps", []float64{5}, log)
		require.Len(t, out, 1)
		assert.Equal(t, "rps5", out[0].Filename)
	})

	t.Run("empty result warns but is returned", func(t *testing.T) {
		log, buf := testLogger()
		out := FilterByLevels(rows, "concurrency", []float64{64}, log)
		assert.Empty(t, out)
		assert.Contains(t, buf.String(), "no data remains after level filtering")
	})

	t.Run("empty table warns and passes through", func(t *testing.T) {
		log, buf := testLogger()
		var empty []*SummaryRow
		out := FilterByLevels(empty, "concurrency", []float64{2}, log)
		assert.Empty(t, out)
		assert.Contains(t, buf.String(), "axis column not found")
	})
}

func TestAvailableLevels(t *testing.T) {
	rows := []*SummaryRow{
		{Concurrency: fptr(8)},
		{Concurrency: fptr(2)},
		{Concurrency: fptr(8)},
		{RPS: fptr(5)},
	}

	assert.Equal(t, []float64{2, 8}, AvailableLevels(rows, "concurrency"))
	assert.Equal(t, []float64{5}, AvailableLevels(rows, "rps"))
	assert.Empty(t, AvailableLevels([]*SummaryRow{}, "concurrency"))
}
