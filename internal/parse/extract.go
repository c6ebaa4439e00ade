/*
PURPOSE:
  Turns GuideLLM result files into report rows. Two extractions per
  file: one aggregate row per benchmark entry (summary table) and one
  row per successful request (request table).

REQUIREMENTS:
  User-specified:
  - A file that cannot be read or decoded is skipped with a diagnostic,
    never fatal.
  - An entry without a usable load axis is skipped with a diagnostic.
  - Group metadata and captured columns ride along on every row.

  Implementation-discovered:
  - Request timestamps are absolute epoch seconds; relative offsets are
    computed against the run start, but only for positive timestamps so
    unset fields stay at zero.
  - Capture paths must be evaluated against the raw entry bytes because
    they may point at fields the typed decode does not know about.

ARCHITECTURE INTEGRATION:
  - Uses: internal/parse/schema.go, internal/parse/normalize.go,
    internal/model
  - Used by: internal/cli via LoadGroups.
  - Diagnostics go to the injected *slog.Logger.

ERROR HANDLING:
  - All failures degrade to fewer rows plus a log line. Callers decide
    whether an empty result is fatal.

IMPLEMENTATION RULES:
  - No os.Exit, no panics, no package-level state.

USAGE:
  ex := parse.NewExtractor(logger)
  rows := ex.SummaryRows("run.json", meta, capture)

SELF-HEALING INSTRUCTIONS:
  - Rows missing expected metadata: check the group's extra_metadata
    keys against the fixed column names; fixed names are shadowed only
    on purpose.

RELATED FILES:
  - internal/parse/loader.go
  - internal/model/types.go

MAINTENANCE:
  - Keep row assembly in sync with the model column lists.
*/

package parse

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"

	"github.com/daryltucker/guidellm-report/internal/model"
)

// Extractor reads benchmark result files and produces table rows.
type Extractor struct {
	log *slog.Logger
}

// NewExtractor returns an extractor that reports diagnostics through
// log. A nil logger silences them.
func NewExtractor(log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Extractor{log: log}
}

// SummaryRows extracts one aggregate row per benchmark entry in the
// file. meta is copied onto every row; capture maps extra column names
// to JSON paths resolved against each raw entry.
func (e *Extractor) SummaryRows(path string, meta map[string]any, capture map[string]string) []*model.SummaryRow {
	entries, ok := e.readDocument(path)
	if !ok {
		return nil
	}
	filename := filepath.Base(path)

	var rows []*model.SummaryRow
	for _, entry := range entries {
		var bench rawBenchmark
		if err := json.Unmarshal(entry, &bench); err != nil {
			e.log.Warn("skipping malformed benchmark entry", "file", path, "error", err)
			continue
		}
		ax, ok := resolveAxis(&bench)
		if !ok {
			e.log.Warn("neither concurrency nor rps found in benchmark config, skipping", "file", path)
			continue
		}
		settings := datasetSettingsFrom(chooseLoader(&bench))
		m := bench.Metrics

		row := &model.SummaryRow{
			Filename:    filename,
			Filepath:    path,
			Concurrency: ax.Concurrency,
			RPS:         ax.RPS,

			PromptTokens:      settings.PromptTokens,
			PromptTokensStdev: settings.PromptTokensStdev,
			OutputTokens:      settings.OutputTokens,
			OutputTokensStdev: settings.OutputTokensStdev,
			Processor:         settings.Processor,

			MeanOutputTokensPerSecond: meanWithTotalFallback(m.OutputTokensPerSecond),
			MeanTotalTokensPerSecond:  meanWithTotalFallback(m.TokensPerSecond),

			RequestLatencyMean:   m.RequestLatency.Successful.Mean.or(0),
			RequestLatencyMedian: m.RequestLatency.Successful.Median.or(0),
			RequestLatencyP95:    m.RequestLatency.Successful.Percentiles.P95.or(0),
			RequestLatencyP99:    m.RequestLatency.Successful.Percentiles.P99.or(0),

			TTFTMean:   m.TimeToFirstTokenMS.Successful.Mean.or(0),
			TTFTMedian: m.TimeToFirstTokenMS.Successful.Median.or(0),
			TTFTP95:    m.TimeToFirstTokenMS.Successful.Percentiles.P95.or(0),
			TTFTP99:    m.TimeToFirstTokenMS.Successful.Percentiles.P99.or(0),

			ITLMean:   m.InterTokenLatencyMS.Successful.Mean.or(0),
			ITLMedian: m.InterTokenLatencyMS.Successful.Median.or(0),
			ITLP95:    m.InterTokenLatencyMS.Successful.Percentiles.P95.or(0),
			ITLP99:    m.InterTokenLatencyMS.Successful.Percentiles.P99.or(0),

			InputSequenceLength:  m.PromptTokenCount.Successful.Mean.or(0),
			OutputSequenceLength: m.OutputTokenCount.Successful.Mean.or(0),

			Extra: extraColumns(meta, entry, capture),
		}
		rows = append(rows, row)
	}
	return rows
}

// RequestRows extracts one row per successful request across all
// benchmark entries in the file.
func (e *Extractor) RequestRows(path string, meta map[string]any, capture map[string]string) []*model.RequestRow {
	entries, ok := e.readDocument(path)
	if !ok {
		return nil
	}
	filename := filepath.Base(path)

	var rows []*model.RequestRow
	for _, entry := range entries {
		var bench rawBenchmark
		if err := json.Unmarshal(entry, &bench); err != nil {
			e.log.Warn("skipping malformed benchmark entry", "file", path, "error", err)
			continue
		}
		ax, ok := resolveAxis(&bench)
		if !ok {
			e.log.Warn("neither concurrency nor rps found in benchmark config, skipping", "file", path)
			continue
		}
		start, haveStart := runStart(&bench)
		settings := datasetSettingsFrom(chooseLoader(&bench))

		successful := bench.Requests.Successful
		e.log.Info("found successful requests",
			"file", filename, "count", len(successful), "run", runLabel(ax))

		extra := extraColumns(meta, entry, capture)
		for _, req := range successful {
			row := &model.RequestRow{
				Filename:    filename,
				Filepath:    path,
				Concurrency: ax.Concurrency,
				RPS:         ax.RPS,

				DatasetPromptTokens: settings.PromptTokens,
				DatasetOutputTokens: settings.OutputTokens,

				RequestID:    req.RequestID.val,
				PromptTokens: int(req.PromptTokens.or(0)),
				OutputTokens: int(req.OutputTokens.or(0)),

				RequestLatency:        req.RequestLatency.or(0),
				TimeToFirstTokenMS:    req.TimeToFirstTokenMS.or(0),
				InterTokenLatencyMS:   req.InterTokenLatencyMS.or(0),
				TokensPerSecond:       req.TokensPerSecond.or(0),
				OutputTokensPerSecond: req.OutputTokensPerSecond.or(0),

				FirstTokenTime: req.FirstTokenTime.or(0),
				StartTime:      pickTime(req.RequestStartTime, req.StartTime),
				EndTime:        pickTime(req.RequestEndTime, req.EndTime),

				Extra: maps.Clone(extra),
			}
			if haveStart {
				if row.FirstTokenTime > 0 {
					row.FirstTokenTimeRelative = row.FirstTokenTime - start
				}
				if row.StartTime > 0 {
					row.StartTimeRelative = row.StartTime - start
				}
				if row.EndTime > 0 {
					row.EndTimeRelative = row.EndTime - start
				}
			}
			rows = append(rows, row)
		}
	}
	return rows
}

func (e *Extractor) readDocument(path string) ([]json.RawMessage, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		e.log.Warn("error reading benchmark file", "file", path, "error", err)
		return nil, false
	}
	var doc rawDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		e.log.Warn("error parsing benchmark file", "file", path, "error", err)
		return nil, false
	}
	if len(doc.Benchmarks) == 0 {
		e.log.Warn("no benchmarks found", "file", path)
		return nil, false
	}
	return doc.Benchmarks, true
}

// extraColumns merges group metadata with captured entry fields; the
// capture side wins on collision. Returns nil when there is nothing to
// attach.
func extraColumns(meta map[string]any, entry json.RawMessage, capture map[string]string) map[string]any {
	if len(meta) == 0 && len(capture) == 0 {
		return nil
	}
	out := make(map[string]any, len(meta)+len(capture))
	for k, v := range meta {
		out[k] = v
	}
	for col, path := range capture {
		if res := gjson.GetBytes(entry, path); res.Exists() {
			out[col] = res.Value()
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func pickTime(primary, fallback looseFloat) float64 {
	if primary.ok {
		return primary.val
	}
	return fallback.or(0)
}

func runLabel(a axis) string {
	if a.Concurrency != nil {
		return fmt.Sprintf("c%g", *a.Concurrency)
	}
	return fmt.Sprintf("rps%d", int(*a.RPS))
}
