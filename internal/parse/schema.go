/*
PURPOSE:
  Typed superset of the two GuideLLM result-file layouts, decoded with
  encoding/json. One struct tree carries the optional fields of both the
  v0.4.x ("config"/"requests") and v0.3.x ("args"/"request_loader")
  variants; resolvers in normalize.go pick per field.

REQUIREMENTS:
  User-specified:
  - Support both schema versions without a version tag; detection is
    structural.

  Implementation-discovered:
  - Numeric leaves are unreliable across producers: numbers, numeric
    strings and nulls all occur. A tolerant scalar type with a presence
    bit absorbs that instead of failing whole entries.
  - Loader subtrees ("config.requests", "request_loader") must keep
    their raw bytes: emptiness vs null vs content decides the fallback.

ARCHITECTURE INTEGRATION:
  - Used by: internal/parse/normalize.go, internal/parse/extract.go
  - Not exported outside the package.

ERROR HANDLING:
  - Tolerant scalars never return unmarshal errors; shape errors surface
    only at document/entry level where the extractor skips and logs.

IMPLEMENTATION RULES:
  - Field names mirror the wire format exactly (type_ included).
  - Keep this file declarative; resolution logic belongs in normalize.go.

USAGE:
  var doc rawDocument
  err := json.Unmarshal(data, &doc)

SELF-HEALING INSTRUCTIONS:
  - New metric families: add a field to rawMetrics and wire it through
    extract.go.

RELATED FILES:
  - internal/parse/normalize.go
  - internal/parse/extract.go

MAINTENANCE:
  - Revisit when GuideLLM ships another schema revision.
*/

package parse

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

type rawDocument struct {
	Benchmarks []json.RawMessage `json:"benchmarks"`
}

type rawBenchmark struct {
	Config        rawRunConfig    `json:"config"`
	Args          rawRunConfig    `json:"args"`
	RequestLoader json.RawMessage `json:"request_loader"`
	RunStats      rawRunStats     `json:"run_stats"`
	StartTime     looseFloat      `json:"start_time"`
	Metrics       rawMetrics      `json:"metrics"`
	Requests      rawRequests     `json:"requests"`
}

type rawRunConfig struct {
	Strategy rawStrategy     `json:"strategy"`
	Profile  rawProfile      `json:"profile"`
	Requests json.RawMessage `json:"requests"`
}

type rawStrategy struct {
	Type           string     `json:"type_"`
	MaxConcurrency looseFloat `json:"max_concurrency"`
	Streams        looseFloat `json:"streams"`
	Rate           looseFloat `json:"rate"`
}

func (s rawStrategy) empty() bool {
	return s.Type == "" && !s.MaxConcurrency.ok && !s.Streams.ok && !s.Rate.ok
}

type rawProfile struct {
	StrategyType string   `json:"strategy_type"`
	Rate         rateList `json:"rate"`
}

func (p rawProfile) empty() bool {
	return p.StrategyType == "" && !p.Rate.list && len(p.Rate.vals) == 0
}

type rawRunStats struct {
	StartTime looseFloat `json:"start_time"`
}

type rawMetrics struct {
	OutputTokensPerSecond rawMetricSummary `json:"output_tokens_per_second"`
	TokensPerSecond       rawMetricSummary `json:"tokens_per_second"`
	RequestLatency        rawMetricSummary `json:"request_latency"`
	TimeToFirstTokenMS    rawMetricSummary `json:"time_to_first_token_ms"`
	InterTokenLatencyMS   rawMetricSummary `json:"inter_token_latency_ms"`
	PromptTokenCount      rawMetricSummary `json:"prompt_token_count"`
	OutputTokenCount      rawMetricSummary `json:"output_token_count"`
}

type rawMetricSummary struct {
	Successful rawStatBucket `json:"successful"`
	Total      rawStatBucket `json:"total"`
}

type rawStatBucket struct {
	Mean        looseFloat     `json:"mean"`
	Median      looseFloat     `json:"median"`
	Percentiles rawPercentiles `json:"percentiles"`
}

type rawPercentiles struct {
	P95 looseFloat `json:"p95"`
	P99 looseFloat `json:"p99"`
}

type rawRequests struct {
	Successful []rawRequest `json:"successful"`
}

type rawRequest struct {
	RequestID             looseString `json:"request_id"`
	PromptTokens          looseFloat  `json:"prompt_tokens"`
	OutputTokens          looseFloat  `json:"output_tokens"`
	RequestLatency        looseFloat  `json:"request_latency"`
	TimeToFirstTokenMS    looseFloat  `json:"time_to_first_token_ms"`
	InterTokenLatencyMS   looseFloat  `json:"inter_token_latency_ms"`
	TokensPerSecond       looseFloat  `json:"tokens_per_second"`
	OutputTokensPerSecond looseFloat  `json:"output_tokens_per_second"`
	FirstTokenTime        looseFloat  `json:"first_token_time"`
	RequestStartTime      looseFloat  `json:"request_start_time"`
	StartTime             looseFloat  `json:"start_time"`
	RequestEndTime        looseFloat  `json:"request_end_time"`
	EndTime               looseFloat  `json:"end_time"`
}

type rawLoader struct {
	Data      json.RawMessage `json:"data"`
	Processor string          `json:"processor"`
}

// looseFloat is a numeric leaf that tolerates numbers, numeric strings
// and null. ok is false for null, absence or garbage.
type looseFloat struct {
	val float64
	ok  bool
}

func (f *looseFloat) UnmarshalJSON(b []byte) error {
	f.val, f.ok = 0, false

	t := bytes.TrimSpace(b)
	if len(t) == 0 || string(t) == "null" {
		return nil
	}

	if t[0] == '"' {
		var s string
		if err := json.Unmarshal(t, &s); err != nil {
			return nil
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil
		}
		f.val, f.ok = v, true
		return nil
	}

	var v float64
	if err := json.Unmarshal(t, &v); err != nil {
		return nil
	}
	f.val, f.ok = v, true
	return nil
}

func (f looseFloat) or(def float64) float64 {
	if f.ok {
		return f.val
	}
	return def
}

// looseString tolerates non-string scalars where a string is expected
// (some producers emit numeric request ids).
type looseString struct {
	val string
}

func (s *looseString) UnmarshalJSON(b []byte) error {
	s.val = ""

	t := bytes.TrimSpace(b)
	if len(t) == 0 || string(t) == "null" {
		return nil
	}

	if t[0] == '"' {
		var v string
		if err := json.Unmarshal(t, &v); err != nil {
			return nil
		}
		s.val = v
		return nil
	}
	if t[0] == '{' || t[0] == '[' {
		return nil
	}
	s.val = string(t)
	return nil
}

// rateList is a profile rate that may arrive as an array or a scalar.
// Only the array form counts as a usable rate sequence.
type rateList struct {
	vals []looseFloat
	list bool
}

func (r *rateList) UnmarshalJSON(b []byte) error {
	r.vals, r.list = nil, false

	t := bytes.TrimSpace(b)
	if len(t) == 0 || string(t) == "null" {
		return nil
	}

	if t[0] == '[' {
		var vals []looseFloat
		if err := json.Unmarshal(t, &vals); err != nil {
			return nil
		}
		r.vals, r.list = vals, true
		return nil
	}

	var single looseFloat
	if err := json.Unmarshal(t, &single); err != nil {
		return nil
	}
	if single.ok {
		r.vals = []looseFloat{single}
	}
	return nil
}

func (r rateList) first() (float64, bool) {
	if !r.list || len(r.vals) == 0 || !r.vals[0].ok {
		return 0, false
	}
	return r.vals[0].val, true
}
