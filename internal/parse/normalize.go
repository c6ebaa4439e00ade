/*
PURPOSE:
  Field resolution across the two result-file layouts: pure functions
  that take the decoded superset and answer "which concurrency, which
  rate, which dataset settings does this entry actually have".

REQUIREMENTS:
  User-specified:
  - Prefer the v0.4.x location of a field, fall back to the v0.3.x one.
  - RPS applies only to constant-rate runs; synchronous and concurrent
    runs report a concurrency level instead.
  - Entries with neither axis value are unusable.

  Implementation-discovered:
  - "strategy" and "profile" are chosen wholesale (whichever variant has
    one), then fields are read from the chosen mapping only.
  - profile.rate is a list in the wild; a scalar there is ignored.
  - Loader "data" is sometimes a stringified Python list of k=v pairs
    rather than JSON. Only all-digit values are taken from that form.

ARCHITECTURE INTEGRATION:
  - Used by: internal/parse/extract.go
  - No I/O and no logging here; callers decide how to report.

ERROR HANDLING:
  - Resolution failures return ok=false or zero-valued settings; nothing
    panics on missing subtrees.

IMPLEMENTATION RULES:
  - Keep these functions deterministic and side-effect free so they stay
    trivially table-testable.

USAGE:
  axis, ok := resolveAxis(&bench)
  settings := datasetSettingsFrom(chooseLoader(&bench))

SELF-HEALING INSTRUCTIONS:
  - A new strategy type that carries a rate: extend the strategyType
    check in resolveAxis.

RELATED FILES:
  - internal/parse/schema.go
  - internal/parse/extract.go

MAINTENANCE:
  - Keep fallback order aligned with whatever GuideLLM emits next.
*/

package parse

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// axis is the load axis of a single benchmark entry. At most one of the
// two pointers is set for well-formed input.
type axis struct {
	Concurrency *float64
	RPS         *float64
}

// resolveAxis determines the concurrency or request rate of an entry.
// ok is false when neither can be found, which makes the entry
// unusable for reporting.
func resolveAxis(b *rawBenchmark) (axis, bool) {
	strategy := b.Config.Strategy
	if strategy.empty() {
		strategy = b.Args.Strategy
	}
	profile := b.Config.Profile
	if profile.empty() {
		profile = b.Args.Profile
	}

	var a axis

	if strategy.MaxConcurrency.ok {
		v := strategy.MaxConcurrency.val
		a.Concurrency = &v
	} else if strategy.Streams.ok {
		v := strategy.Streams.val
		a.Concurrency = &v
	}

	strategyType := strategy.Type
	if strategyType == "" {
		strategyType = profile.StrategyType
	}

	if strategyType == "constant" {
		if strategy.Rate.ok {
			v := strategy.Rate.val
			a.RPS = &v
		} else if v, ok := profile.Rate.first(); ok {
			a.RPS = &v
		}
	}

	if a.Concurrency == nil && a.RPS == nil {
		return axis{}, false
	}
	return a, true
}

// runStart returns the wall-clock start of the whole run. The v0.3.x
// location under run_stats wins over the v0.4.x top-level field.
func runStart(b *rawBenchmark) (float64, bool) {
	if b.RunStats.StartTime.ok {
		return b.RunStats.StartTime.val, true
	}
	if b.StartTime.ok {
		return b.StartTime.val, true
	}
	return 0, false
}

// datasetSettings describes the synthetic dataset a benchmark ran
// against, as recovered from its request loader.
type datasetSettings struct {
	PromptTokens      int
	PromptTokensStdev float64
	OutputTokens      int
	OutputTokensStdev float64
	Processor         string
}

var defaultDatasetSettings = datasetSettings{
	PromptTokens: 400,
	OutputTokens: 200,
	Processor:    "multiturn",
}

// chooseLoader picks the request-loader mapping of an entry, preferring
// the v0.4.x "config.requests" subtree. Absent, null and empty
// candidates are skipped; nil means no loader at all.
func chooseLoader(b *rawBenchmark) *rawLoader {
	for _, raw := range []json.RawMessage{b.Config.Requests, b.RequestLoader} {
		if !loaderPresent(raw) {
			continue
		}
		var loader rawLoader
		if err := json.Unmarshal(raw, &loader); err != nil {
			continue
		}
		return &loader
	}
	return nil
}

func loaderPresent(raw json.RawMessage) bool {
	t := strings.TrimSpace(string(raw))
	return t != "" && t != "null" && t != "{}"
}

// datasetSettingsFrom recovers dataset parameters from a loader. A nil
// loader yields the historical defaults; a loader whose data cannot be
// interpreted yields all zeroes.
func datasetSettingsFrom(loader *rawLoader) datasetSettings {
	if loader == nil {
		return defaultDatasetSettings
	}

	var dataStr string
	if err := json.Unmarshal(loader.Data, &dataStr); err != nil || dataStr == "" {
		return datasetSettings{}
	}

	if strings.HasPrefix(dataStr, "['") && strings.HasSuffix(dataStr, "']") {
		if settings, ok := parseInlineSettings(dataStr, loader.Processor); ok {
			return settings
		}
	}

	var m map[string]any
	if err := json.Unmarshal([]byte(dataStr), &m); err != nil {
		return datasetSettings{}
	}
	return datasetSettings{
		PromptTokens:      cast.ToInt(m["prompt_tokens"]),
		PromptTokensStdev: cast.ToFloat64(m["prompt_tokens_stdev"]),
		OutputTokens:      cast.ToInt(m["output_tokens"]),
		OutputTokensStdev: cast.ToFloat64(m["output_tokens_stdev"]),
		Processor:         loader.Processor,
	}
}

// parseInlineSettings handles the "['prompt_tokens=512,output_tokens=128']"
// form. Only the first list element is read and only all-digit values
// are accepted; anything else falls back to the JSON object form.
func parseInlineSettings(s, processor string) (datasetSettings, bool) {
	inner := strings.TrimSuffix(strings.TrimPrefix(s, "['"), "']")
	if i := strings.Index(inner, "','"); i >= 0 {
		inner = inner[:i]
	}
	if i := strings.Index(inner, "', '"); i >= 0 {
		inner = inner[:i]
	}
	if strings.Contains(inner, "'") {
		return datasetSettings{}, false
	}

	settings := datasetSettings{Processor: processor}
	for _, item := range strings.Split(inner, ",") {
		key, value, found := strings.Cut(item, "=")
		if !found {
			continue
		}
		if !allDigits(value) {
			continue
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			continue
		}
		switch key {
		case "prompt_tokens":
			settings.PromptTokens = n
		case "output_tokens":
			settings.OutputTokens = n
		}
	}
	return settings, true
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// meanWithTotalFallback applies the throughput rule: a successful-bucket
// mean of exactly zero is treated as unpopulated and the total bucket
// is consulted instead.
func meanWithTotalFallback(m rawMetricSummary) float64 {
	v := m.Successful.Mean.or(0)
	if v == 0 {
		v = m.Total.Mean.or(0)
	}
	return v
}
