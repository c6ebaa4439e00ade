/*
PURPOSE:
  Defines the core row structures used throughout guidellm-report.
  One row type per table: benchmark-level summaries and per-request detail.

REQUIREMENTS:
  User-specified:
  - Carry identity (filename/filepath), axis values (concurrency XOR rps),
    dataset settings and metrics per row.
  - Allow arbitrary user-supplied metadata columns alongside the fixed ones.

  Implementation-discovered:
  - Axis values must be nullable (a run is either concurrency-driven or
    rate-driven, never both).
  - Metadata overlays must win over fixed columns on name collision, so
    column lookup has to check the overlay first.

ARCHITECTURE INTEGRATION:
  - Produced by: internal/parse
  - Consumed by: internal/model (enrichment), internal/report, internal/output
  - Shared across boundaries.

ERROR HANDLING:
  - None (pure data structs; Field reports absence via its second return).

IMPLEMENTATION RULES:
  - Keep structs flat and public. JSON tags double as column names.
  - Pointers only for genuinely nullable values (the axis pair).

USAGE:
  row := model.SummaryRow{Filename: "run.json", ...}
  v, ok := row.Field("concurrency")

SELF-HEALING INSTRUCTIONS:
  - When adding a metric column, extend the struct, the Field switch and
    the column list together.

RELATED FILES:
  - internal/model/enrich.go
  - internal/output/csv.go

MAINTENANCE:
  - Update when the benchmark files grow new metrics worth surfacing.
*/

package model

// SummaryRow is one benchmark run's aggregate snapshot.
type SummaryRow struct {
	Filename string `json:"filename"`
	Filepath string `json:"filepath"`

	// Exactly one of Concurrency/RPS is set per row.
	Concurrency *float64 `json:"concurrency"`
	RPS         *float64 `json:"rps"`

	PromptTokens      int     `json:"prompt_tokens"`
	PromptTokensStdev float64 `json:"prompt_tokens_stdev"`
	OutputTokens      int     `json:"output_tokens"`
	OutputTokensStdev float64 `json:"output_tokens_stdev"`
	Processor         string  `json:"processor"`

	MeanOutputTokensPerSecond float64 `json:"mean_output_tokens_per_second"`
	MeanTotalTokensPerSecond  float64 `json:"mean_total_tokens_per_second"`

	RequestLatencyMean   float64 `json:"request_latency_mean"`
	RequestLatencyMedian float64 `json:"request_latency_median"`
	RequestLatencyP95    float64 `json:"request_latency_p95"`
	RequestLatencyP99    float64 `json:"request_latency_p99"`

	TTFTMean   float64 `json:"ttft_mean"`
	TTFTMedian float64 `json:"ttft_median"`
	TTFTP95    float64 `json:"ttft_p95"`
	TTFTP99    float64 `json:"ttft_p99"`

	ITLMean   float64 `json:"itl_mean"`
	ITLMedian float64 `json:"itl_median"`
	ITLP95    float64 `json:"itl_p95"`
	ITLP99    float64 `json:"itl_p99"`

	InputSequenceLength  float64 `json:"input_sequence_length"`
	OutputSequenceLength float64 `json:"output_sequence_length"`

	// DatasetID is derived after table assembly, see enrich.go.
	DatasetID string `json:"dataset_id,omitempty"`

	// Extra holds group metadata and captured columns, merged verbatim.
	Extra map[string]any `json:"extra,omitempty"`
}

// RequestRow is one successful request inside a benchmark run.
type RequestRow struct {
	Filename string `json:"filename"`
	Filepath string `json:"filepath"`

	Concurrency *float64 `json:"concurrency"`
	RPS         *float64 `json:"rps"`

	DatasetPromptTokens int `json:"dataset_prompt_tokens"`
	DatasetOutputTokens int `json:"dataset_output_tokens"`

	RequestID string `json:"request_id"`

	PromptTokens int `json:"prompt_tokens"`
	OutputTokens int `json:"output_tokens"`

	RequestLatency        float64 `json:"request_latency"`
	TimeToFirstTokenMS    float64 `json:"time_to_first_token_ms"`
	InterTokenLatencyMS   float64 `json:"inter_token_latency_ms"`
	TokensPerSecond       float64 `json:"tokens_per_second"`
	OutputTokensPerSecond float64 `json:"output_tokens_per_second"`

	FirstTokenTime float64 `json:"first_token_time"`
	StartTime      float64 `json:"start_time"`
	EndTime        float64 `json:"end_time"`

	// Relative values are offsets from the run's start; 0 when unknown.
	FirstTokenTimeRelative float64 `json:"first_token_time_relative"`
	StartTimeRelative      float64 `json:"start_time_relative"`
	EndTimeRelative        float64 `json:"end_time_relative"`

	DatasetID string `json:"dataset_id,omitempty"`

	Extra map[string]any `json:"extra,omitempty"`
}

// Row is the column-lookup surface shared by both row types.
type Row interface {
	// Field returns the named column's value. The overlay map wins over
	// fixed columns; absent names report ok=false.
	Field(name string) (any, bool)
	// SetDatasetID stores the derived grouping key.
	SetDatasetID(id string)
	// Extras exposes the overlay columns; nil when the row has none.
	Extras() map[string]any
}

// SummaryColumns is the fixed column order of a summary table.
var SummaryColumns = []string{
	"filename", "filepath", "concurrency", "rps",
	"prompt_tokens", "prompt_tokens_stdev", "output_tokens", "output_tokens_stdev",
	"processor",
	"mean_output_tokens_per_second", "mean_total_tokens_per_second",
	"request_latency_mean", "request_latency_median",
	"ttft_mean", "ttft_median",
	"itl_mean", "itl_median",
	"request_latency_p95", "request_latency_p99",
	"ttft_p95", "ttft_p99",
	"itl_p95", "itl_p99",
	"input_sequence_length", "output_sequence_length",
	"dataset_id",
}

// RequestColumns is the fixed column order of a per-request table.
var RequestColumns = []string{
	"filename", "filepath", "concurrency", "rps",
	"dataset_prompt_tokens", "dataset_output_tokens",
	"request_id", "prompt_tokens", "output_tokens",
	"request_latency", "time_to_first_token_ms", "inter_token_latency_ms",
	"tokens_per_second", "output_tokens_per_second",
	"first_token_time", "start_time", "end_time",
	"first_token_time_relative", "start_time_relative", "end_time_relative",
	"dataset_id",
}

// Field implements Row.
func (r *SummaryRow) Field(name string) (any, bool) {
	if v, ok := r.Extra[name]; ok {
		return v, true
	}
	switch name {
	case "filename":
		return r.Filename, true
	case "filepath":
		return r.Filepath, true
	case "concurrency":
		return floatOrNil(r.Concurrency), true
	case "rps":
		return floatOrNil(r.RPS), true
	case "prompt_tokens":
		return r.PromptTokens, true
	case "prompt_tokens_stdev":
		return r.PromptTokensStdev, true
	case "output_tokens":
		return r.OutputTokens, true
	case "output_tokens_stdev":
		return r.OutputTokensStdev, true
	case "processor":
		return r.Processor, true
	case "mean_output_tokens_per_second":
		return r.MeanOutputTokensPerSecond, true
	case "mean_total_tokens_per_second":
		return r.MeanTotalTokensPerSecond, true
	case "request_latency_mean":
		return r.RequestLatencyMean, true
	case "request_latency_median":
		return r.RequestLatencyMedian, true
	case "request_latency_p95":
		return r.RequestLatencyP95, true
	case "request_latency_p99":
		return r.RequestLatencyP99, true
	case "ttft_mean":
		return r.TTFTMean, true
	case "ttft_median":
		return r.TTFTMedian, true
	case "ttft_p95":
		return r.TTFTP95, true
	case "ttft_p99":
		return r.TTFTP99, true
	case "itl_mean":
		return r.ITLMean, true
	case "itl_median":
		return r.ITLMedian, true
	case "itl_p95":
		return r.ITLP95, true
	case "itl_p99":
		return r.ITLP99, true
	case "input_sequence_length":
		return r.InputSequenceLength, true
	case "output_sequence_length":
		return r.OutputSequenceLength, true
	case "dataset_id":
		return r.DatasetID, true
	}
	return nil, false
}

// SetDatasetID implements Row.
func (r *SummaryRow) SetDatasetID(id string) { r.DatasetID = id }

// Extras implements Row.
func (r *SummaryRow) Extras() map[string]any { return r.Extra }

// Field implements Row.
func (r *RequestRow) Field(name string) (any, bool) {
	if v, ok := r.Extra[name]; ok {
		return v, true
	}
	switch name {
	case "filename":
		return r.Filename, true
	case "filepath":
		return r.Filepath, true
	case "concurrency":
		return floatOrNil(r.Concurrency), true
	case "rps":
		return floatOrNil(r.RPS), true
	case "dataset_prompt_tokens":
		return r.DatasetPromptTokens, true
	case "dataset_output_tokens":
		return r.DatasetOutputTokens, true
	case "request_id":
		return r.RequestID, true
	case "prompt_tokens":
		return r.PromptTokens, true
	case "output_tokens":
		return r.OutputTokens, true
	case "request_latency":
		return r.RequestLatency, true
	case "time_to_first_token_ms":
		return r.TimeToFirstTokenMS, true
	case "inter_token_latency_ms":
		return r.InterTokenLatencyMS, true
	case "tokens_per_second":
		return r.TokensPerSecond, true
	case "output_tokens_per_second":
		return r.OutputTokensPerSecond, true
	case "first_token_time":
		return r.FirstTokenTime, true
	case "start_time":
		return r.StartTime, true
	case "end_time":
		return r.EndTime, true
	case "first_token_time_relative":
		return r.FirstTokenTimeRelative, true
	case "start_time_relative":
		return r.StartTimeRelative, true
	case "end_time_relative":
		return r.EndTimeRelative, true
	case "dataset_id":
		return r.DatasetID, true
	}
	return nil, false
}

// SetDatasetID implements Row.
func (r *RequestRow) SetDatasetID(id string) { r.DatasetID = id }

// Extras implements Row.
func (r *RequestRow) Extras() map[string]any { return r.Extra }

func floatOrNil(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
