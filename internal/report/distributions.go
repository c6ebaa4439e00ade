/*
PURPOSE:
  Per-request distribution charts: token-length and latency histograms
  (one chart per benchmark run, meaning one per (axis level, group)
  combination) and the request scheduling section (start/completion
  rates plus the TTFT timeline, one chart per axis level).

REQUIREMENTS:
  User-specified:
  - Histogram bin sizes: 50 tokens for lengths, 100ms for TTFT, 2ms for
    ITL, with a minimum of 10 bins over the value range.
  - Scheduling charts only consider non-negative relative times and
    bucket rates into integer seconds.

  Implementation-discovered:
  - A combination whose metric values are all zero is skipped; zero-only
    data means the producer never filled the field.
  - Rate charts count requests per truncated second, one scatter series
    per group, one chart per level.

ARCHITECTURE INTEGRATION:
  - Called from: internal/report/charts.go (BuildCharts)
  - Shares grouping helpers and the iframe wrapper with charts.go.

ERROR HANDLING:
  - None. Absent or degenerate data yields placeholder paragraphs.

IMPLEMENTATION RULES:
  - One echarts document per combination; the section concatenates them.

USAGE:
  html := p.tokenLengthHistograms(requests, "prompt_tokens", "Input Length")

SELF-HEALING INSTRUCTIONS:
  - Histograms missing for a run: check whether the metric column is
    all zeroes for that run; such runs are excluded on purpose.

RELATED FILES:
  - internal/report/charts.go

MAINTENANCE:
  - Keep bin sizes aligned with the metric units.
*/

package report

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/daryltucker/guidellm-report/internal/model"
)

// tokenLengthHistograms renders per-run token count distributions.
func (p Params) tokenLengthHistograms(rows []*model.RequestRow, tokenCol, titlePrefix string) string {
	if len(rows) == 0 {
		return fmt.Sprintf("<p>No data available for %s distribution</p>", titlePrefix)
	}
	return p.histogramSections(rows, tokenCol, titlePrefix, histogramStyle{
		binSize:     50,
		xLabel:      fmt.Sprintf("%s (tokens)", titlePrefix),
		unitSuffix:  " tokens",
		includeMean: true,
	})
}

// latencyHistograms renders per-run latency distributions.
func (p Params) latencyHistograms(rows []*model.RequestRow, metricCol, titlePrefix string, binSize float64) string {
	if len(rows) == 0 {
		return fmt.Sprintf("<p>No data available for %s deep dive</p>", titlePrefix)
	}
	return p.histogramSections(rows, metricCol, titlePrefix, histogramStyle{
		binSize:    binSize,
		xLabel:     fmt.Sprintf("%s (ms)", titlePrefix),
		unitSuffix: "ms",
	})
}

type histogramStyle struct {
	binSize     float64
	xLabel      string
	unitSuffix  string
	includeMean bool
}

func (p Params) histogramSections(rows []*model.RequestRow, metricCol, titlePrefix string, style histogramStyle) string {
	axisField := model.AxisField(p.AxisMode)
	levels := model.AvailableLevels(rows, p.AxisMode)
	groupKeys, _ := groupBy(rows, p.ColorColumn)

	var parts []string
	for _, level := range levels {
		for _, groupKey := range groupKeys {
			values := comboValues(rows, axisField, level, p.ColorColumn, groupKey, metricCol)
			if !anyNonZero(values) {
				continue
			}

			labels, counts := binValues(values, style.binSize)

			subtitle := fmt.Sprintf("Samples: %d | Bin size: %s%s",
				len(values), formatLevel(style.binSize), style.unitSuffix)
			if style.includeMean {
				subtitle += fmt.Sprintf(" | Mean: %.1f", mean(values))
			}
			title := fmt.Sprintf("%s Distribution - %s=%s, %s=%s",
				titlePrefix, p.axisLabel(), formatLevel(level), titleize(p.ColorColumn), groupKey)

			bar := charts.NewBar()
			bar.SetGlobalOptions(chartOptions(title, subtitle, style.xLabel, "Count", 400, false, false)...)
			bar.SetXAxis(labels)
			data := make([]opts.BarData, len(counts))
			for i, c := range counts {
				data[i] = opts.BarData{Value: c}
			}
			bar.AddSeries(titlePrefix, data)

			parts = append(parts, wrapChart(bar.RenderContent(), 400))
		}
	}
	if len(parts) == 0 {
		return fmt.Sprintf("<p>No valid data for %s histograms</p>", titlePrefix)
	}
	return strings.Join(parts, "\n")
}

func comboValues(rows []*model.RequestRow, axisField string, level float64, colorCol, groupKey, metricCol string) []float64 {
	var values []float64
	for _, r := range rows {
		v, ok := fieldFloat(r, axisField)
		if !ok || v != level {
			continue
		}
		if displayValue(r, colorCol) != groupKey {
			continue
		}
		m, _ := fieldFloat(r, metricCol)
		values = append(values, m)
	}
	return values
}

func anyNonZero(values []float64) bool {
	for _, v := range values {
		if v != 0 {
			return true
		}
	}
	return false
}

// binValues distributes values over max(10, range/binSize+1) equal-width
// bins; labels carry each bin's lower bound.
func binValues(values []float64, binSize float64) ([]string, []int) {
	minV, maxV := values[0], values[0]
	for _, v := range values[1:] {
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
	}

	rng := maxV - minV
	if rng == 0 {
		return []string{formatBin(minV)}, []int{len(values)}
	}

	nbins := int(rng/binSize) + 1
	if nbins < 10 {
		nbins = 10
	}
	width := rng / float64(nbins)

	counts := make([]int, nbins)
	for _, v := range values {
		idx := int((v - minV) / width)
		if idx >= nbins {
			idx = nbins - 1
		}
		counts[idx]++
	}
	labels := make([]string, nbins)
	for i := range labels {
		labels[i] = formatBin(minV + width*float64(i))
	}
	return labels, counts
}

func formatBin(v float64) string {
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', -1, 64)
}

// schedulingCharts renders the request scheduling section: start and
// completion rates over time plus the TTFT timeline, per axis level.
func (p Params) schedulingCharts(rows []*model.RequestRow) string {
	if len(rows) == 0 {
		return "<p>No data available for request scheduling analysis</p>"
	}
	parts := []string{
		p.requestRateCharts(rows, "start_time_relative", "Requests Started per Second"),
		p.requestRateCharts(rows, "end_time_relative", "Requests Completed per Second"),
		p.ttftTimelineCharts(rows),
	}
	return strings.Join(parts, "\n")
}

func (p Params) requestRateCharts(rows []*model.RequestRow, timeCol, title string) string {
	valid := withNonNegative(rows, timeCol)
	if len(valid) == 0 {
		return fmt.Sprintf("<p>No valid time data for %s</p>", title)
	}

	axisField := model.AxisField(p.AxisMode)
	levels := model.AvailableLevels(valid, p.AxisMode)
	if len(levels) == 0 {
		return fmt.Sprintf("<p>No level data available for %s</p>", title)
	}

	var parts []string
	for _, level := range levels {
		levelRows := atLevel(valid, axisField, level)
		groupKeys, buckets := groupBy(levelRows, p.ColorColumn)

		scatter := charts.NewScatter()
		scatter.SetGlobalOptions(chartOptions(
			fmt.Sprintf("%s - %s=%s", title, p.axisLabel(), formatLevel(level)), "",
			"Time from Test Start (seconds)", "Requests per Second", 350, false, true)...)

		var haveData bool
		for _, groupKey := range groupKeys {
			counts := make(map[int]int)
			var secs []int
			for _, r := range buckets[groupKey] {
				t, _ := fieldFloat(r, timeCol)
				sec := int(t)
				if _, seen := counts[sec]; !seen {
					secs = append(secs, sec)
				}
				counts[sec]++
			}
			if len(secs) == 0 {
				continue
			}
			sort.Ints(secs)

			data := make([]opts.ScatterData, 0, len(secs))
			for _, sec := range secs {
				data = append(data, opts.ScatterData{Value: []interface{}{sec, counts[sec]}})
			}
			scatter.AddSeries(groupKey, data)
			haveData = true
		}
		if !haveData {
			continue
		}
		parts = append(parts, wrapChart(scatter.RenderContent(), 350))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("<p>No rate data computed for %s</p>", title)
	}
	return strings.Join(parts, "\n")
}

func (p Params) ttftTimelineCharts(rows []*model.RequestRow) string {
	valid := withNonNegative(rows, "first_token_time_relative")
	if len(valid) == 0 {
		return "<p>No valid TTFT timeline data</p>"
	}

	axisField := model.AxisField(p.AxisMode)
	levels := model.AvailableLevels(valid, p.AxisMode)
	if len(levels) == 0 {
		return "<p>No level data for TTFT timeline</p>"
	}

	var parts []string
	for _, level := range levels {
		levelRows := atLevel(valid, axisField, level)
		groupKeys, buckets := groupBy(levelRows, p.ColorColumn)

		scatter := charts.NewScatter()
		scatter.SetGlobalOptions(chartOptions(
			fmt.Sprintf("TTFT Timeline Analysis - %s=%s", p.axisLabel(), formatLevel(level)), "",
			"First Token Time (seconds from test start)", "TTFT (ms)", 350, false, true)...)

		for _, groupKey := range groupKeys {
			data := make([]opts.ScatterData, 0, len(buckets[groupKey]))
			for _, r := range buckets[groupKey] {
				x, _ := fieldFloat(r, "first_token_time_relative")
				y, _ := fieldFloat(r, "time_to_first_token_ms")
				data = append(data, opts.ScatterData{Value: []interface{}{x, y}})
			}
			scatter.AddSeries(groupKey, data)
		}
		parts = append(parts, wrapChart(scatter.RenderContent(), 350))
	}
	if len(parts) == 0 {
		return "<p>No valid TTFT timeline data</p>"
	}
	return strings.Join(parts, "\n")
}

func withNonNegative(rows []*model.RequestRow, col string) []*model.RequestRow {
	var out []*model.RequestRow
	for _, r := range rows {
		if v, ok := fieldFloat(r, col); ok && v >= 0 {
			out = append(out, r)
		}
	}
	return out
}

func atLevel(rows []*model.RequestRow, axisField string, level float64) []*model.RequestRow {
	var out []*model.RequestRow
	for _, r := range rows {
		if v, ok := fieldFloat(r, axisField); ok && v == level {
			out = append(out, r)
		}
	}
	return out
}

