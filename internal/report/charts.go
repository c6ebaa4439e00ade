/*
PURPOSE:
  Builds the interactive report charts with go-echarts. Each builder
  returns a self-contained HTML snippet: one or more iframe-embedded
  chart documents, or a plain placeholder paragraph when the data
  cannot support the chart.

REQUIREMENTS:
  User-specified:
  - Summary charts: throughput line plus mean/median/p95/p99 chart per
    latency family, grouped by the configured color column over the
    configured axis.
  - Throughput-vs-latency curves per latency statistic.
  - Chart irregularities degrade to placeholder text, never errors.

  Implementation-discovered:
  - Aggregation precedes plotting: one point per (group, axis level),
    value = mean over the matching rows.
  - x_axis_categorical switches bar charts to lines on a category axis;
    y_axis_log_scale only applies to the latency families.
  - Group keys sort numerically when every key parses as a number,
    lexically otherwise.

ARCHITECTURE INTEGRATION:
  - Used by: internal/report/html.go (assembly), internal/cli
  - Per-request distribution charts live in distributions.go.

ERROR HANDLING:
  - None. Builders always return renderable HTML.

IMPLEMENTATION RULES:
  - Chart keys follow the established report vocabulary
    (throughput_chart, ttft_mean_chart, ...); the page template indexes
    them by name.
  - Keep echarts options to plain string fields.

USAGE:
  charts := report.BuildCharts(summary, requests, params)
  html := charts["throughput_chart"]

SELF-HEALING INSTRUCTIONS:
  - A blank chart section usually means the color column vanished from
    the rows; the CLI falls back to dataset_id and warns.

RELATED FILES:
  - internal/report/distributions.go
  - internal/report/html.go

MAINTENANCE:
  - New latency statistics: extend latencyFamilies.
*/

package report

import (
	"fmt"
	"html"
	"html/template"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/spf13/cast"

	"github.com/daryltucker/guidellm-report/internal/model"
)

// Params carries the chart-shaping options resolved by the caller.
type Params struct {
	AxisMode    string
	ColorColumn string
	Categorical bool
	LogScaleY   bool
}

func (p Params) axisLabel() string {
	if p.AxisMode == "concurrency" {
		return "Concurrency"
	}
	return "RPS"
}

type latencyFamily struct {
	column string
	title  string
	yLabel string
}

var latencyFamilies = []latencyFamily{
	{"ttft_mean", "TTFT Mean", "ms"},
	{"ttft_median", "TTFT Median", "ms"},
	{"ttft_p95", "TTFT P95", "ms"},
	{"ttft_p99", "TTFT P99", "ms"},
	{"itl_mean", "ITL Mean", "ms"},
	{"itl_median", "ITL Median", "ms"},
	{"itl_p95", "ITL P95", "ms"},
	{"itl_p99", "ITL P99", "ms"},
	{"request_latency_mean", "Request Latency Mean", "ms"},
	{"request_latency_median", "Request Latency Median", "ms"},
	{"request_latency_p95", "Request Latency P95", "ms"},
	{"request_latency_p99", "Request Latency P99", "ms"},
}

var latencyStats = []string{"mean", "median", "p95", "p99"}

// BuildCharts renders every chart of the report, keyed by the template
// slot names. Every key is always present; sections without data carry
// placeholder text.
func BuildCharts(summary []*model.SummaryRow, requests []*model.RequestRow, p Params) map[string]template.HTML {
	out := make(map[string]template.HTML)

	if len(summary) == 0 {
		out["throughput_chart"] = "<p>No summary data available for throughput analysis</p>"
		for _, fam := range latencyFamilies {
			out[fam.column+"_chart"] = template.HTML(fmt.Sprintf("<p>No summary data available for %s</p>", fam.title))
		}
		for _, stat := range latencyStats {
			out["throughput_latency_"+stat+"_chart"] = "<p>No summary data available for throughput analysis</p>"
		}
	} else {
		out["throughput_chart"] = template.HTML(p.throughputChart(summary))
		for _, fam := range latencyFamilies {
			out[fam.column+"_chart"] = template.HTML(p.latencyChart(summary, fam))
		}
		for _, stat := range latencyStats {
			out["throughput_latency_"+stat+"_chart"] = template.HTML(p.throughputLatencyChart(summary, stat))
		}
	}

	if len(requests) == 0 {
		out["input_length_chart"] = "<p>No individual request data available for Input Length distribution</p>"
		out["output_length_chart"] = "<p>No individual request data available for Output Length distribution</p>"
		out["ttft_deep_dive_chart"] = "<p>No individual request data available for TTFT deep dive</p>"
		out["itl_deep_dive_chart"] = "<p>No individual request data available for ITL deep dive</p>"
		out["scheduling_chart"] = "<p>No individual request data available for scheduling analysis</p>"
	} else {
		out["input_length_chart"] = template.HTML(p.tokenLengthHistograms(requests, "prompt_tokens", "Input Length"))
		out["output_length_chart"] = template.HTML(p.tokenLengthHistograms(requests, "output_tokens", "Output Length"))
		out["ttft_deep_dive_chart"] = template.HTML(p.latencyHistograms(requests, "time_to_first_token_ms", "TTFT", 100))
		out["itl_deep_dive_chart"] = template.HTML(p.latencyHistograms(requests, "inter_token_latency_ms", "ITL", 2))
		out["scheduling_chart"] = template.HTML(p.schedulingCharts(requests))
	}

	return out
}

// throughputChart plots mean output tokens/sec against the axis, one
// line per group.
func (p Params) throughputChart(rows []*model.SummaryRow) string {
	if len(rows) == 0 {
		return "<p>No data available for throughput</p>"
	}
	series := p.groupedSeries(rows, "mean_output_tokens_per_second")
	if len(series) == 0 {
		return "<p>No valid throughput data available</p>"
	}

	title := "Throughput vs " + p.axisLabel()
	line := charts.NewLine()
	line.SetGlobalOptions(chartOptions(title, "", p.axisLabel(), "Output Tokens/sec", 500, false, !p.Categorical)...)

	if p.Categorical {
		cats := seriesCategories(series)
		line.SetXAxis(levelLabels(cats))
		for _, s := range series {
			line.AddSeries(s.name, alignedLineData(s, cats))
		}
	} else {
		for _, s := range series {
			line.AddSeries(s.name, pairLineData(s))
		}
	}
	return wrapChart(line.RenderContent(), 500)
}

// latencyChart plots one latency statistic against the axis: grouped
// bars, or lines when the x axis is categorical.
func (p Params) latencyChart(rows []*model.SummaryRow, fam latencyFamily) string {
	if len(rows) == 0 {
		return fmt.Sprintf("<p>No data available for %s</p>", fam.title)
	}
	series := p.groupedSeries(rows, fam.column)
	if len(series) == 0 {
		return fmt.Sprintf("<p>No valid data available for %s</p>", fam.title)
	}

	title := fmt.Sprintf("%s vs %s", fam.title, p.axisLabel())
	cats := seriesCategories(series)

	if p.Categorical {
		line := charts.NewLine()
		line.SetGlobalOptions(chartOptions(title, "", p.axisLabel(), fam.yLabel, 500, p.LogScaleY, false)...)
		line.SetXAxis(levelLabels(cats))
		for _, s := range series {
			line.AddSeries(s.name, alignedLineData(s, cats))
		}
		return wrapChart(line.RenderContent(), 500)
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(chartOptions(title, "", p.axisLabel(), fam.yLabel, 500, p.LogScaleY, false)...)
	bar.SetXAxis(levelLabels(cats))
	for _, s := range series {
		bar.AddSeries(s.name, alignedBarData(s, cats))
	}
	return wrapChart(bar.RenderContent(), 500)
}

// throughputLatencyChart plots the latency statistic against achieved
// throughput, connected in concurrency order per group.
func (p Params) throughputLatencyChart(rows []*model.SummaryRow, stat string) string {
	if len(rows) == 0 {
		return "<p>No data available for throughput</p>"
	}

	latencyCol := "request_latency_" + stat
	keys, buckets := groupBy(rows, p.ColorColumn)

	type curvePoint struct {
		tput, lat, order float64
	}
	var series []struct {
		name   string
		points []curvePoint
	}
	for _, key := range keys {
		group := buckets[key]

		byTput := make(map[float64][]*model.SummaryRow)
		var tputs []float64
		for _, r := range group {
			t, ok := fieldFloat(r, "mean_output_tokens_per_second")
			if !ok {
				continue
			}
			if _, dup := byTput[t]; !dup {
				tputs = append(tputs, t)
			}
			byTput[t] = append(byTput[t], r)
		}
		if len(tputs) == 0 {
			continue
		}
		sort.Float64s(tputs)

		var points []curvePoint
		for _, t := range tputs {
			matched := byTput[t]
			var latSum float64
			for _, r := range matched {
				v, _ := fieldFloat(r, latencyCol)
				latSum += v
			}
			order := math.Inf(1)
			if c, ok := fieldFloat(matched[0], "concurrency"); ok {
				order = c
			}
			points = append(points, curvePoint{tput: t, lat: latSum / float64(len(matched)), order: order})
		}
		sort.SliceStable(points, func(i, j int) bool { return points[i].order < points[j].order })
		series = append(series, struct {
			name   string
			points []curvePoint
		}{key, points})
	}
	if len(series) == 0 {
		return "<p>No valid throughput data available</p>"
	}

	height := 500
	if n := len(series[0].points) * 20; n > height {
		height = n
	}

	line := charts.NewLine()
	line.SetGlobalOptions(chartOptions("Throughput vs Request Response Time", "",
		"Output Tokens per Second", "Request latency (sec)", height, false, true)...)
	for _, s := range series {
		data := make([]opts.LineData, 0, len(s.points))
		for _, pt := range s.points {
			data = append(data, opts.LineData{Value: []interface{}{pt.tput, pt.lat}})
		}
		line.AddSeries(s.name, data)
	}
	return wrapChart(line.RenderContent(), height)
}

// chartSeries is one group's aggregated curve, points sorted by x.
type chartSeries struct {
	name   string
	points [][2]float64
}

// groupedSeries aggregates rows into one point per (group, axis level):
// the mean of yCol over the rows at that level. Groups follow the
// color-column sort order; rows with a null axis value drop out.
func (p Params) groupedSeries(rows []*model.SummaryRow, yCol string) []chartSeries {
	xField := model.AxisField(p.AxisMode)
	keys, buckets := groupBy(rows, p.ColorColumn)

	var out []chartSeries
	for _, key := range keys {
		group := buckets[key]

		byX := make(map[float64][]float64)
		var xs []float64
		for _, r := range group {
			x, ok := fieldFloat(r, xField)
			if !ok {
				continue
			}
			y, _ := fieldFloat(r, yCol)
			if _, dup := byX[x]; !dup {
				xs = append(xs, x)
			}
			byX[x] = append(byX[x], y)
		}
		if len(xs) == 0 {
			continue
		}
		sort.Float64s(xs)

		s := chartSeries{name: key}
		for _, x := range xs {
			s.points = append(s.points, [2]float64{x, mean(byX[x])})
		}
		out = append(out, s)
	}
	return out
}

// groupBy buckets rows by the display value of col, returning the keys
// in numeric order when they all parse as numbers, lexical otherwise.
func groupBy[R model.Row](rows []R, col string) ([]string, map[string][]R) {
	buckets := make(map[string][]R)
	var keys []string
	for _, r := range rows {
		v, ok := r.Field(col)
		if !ok {
			continue
		}
		key := cast.ToString(v)
		if _, seen := buckets[key]; !seen {
			keys = append(keys, key)
		}
		buckets[key] = append(buckets[key], r)
	}
	sortKeys(keys)
	return keys, buckets
}

// displayValue renders a column the same way groupBy keys it.
func displayValue(r model.Row, col string) string {
	v, ok := r.Field(col)
	if !ok {
		return ""
	}
	return cast.ToString(v)
}

func sortKeys(keys []string) {
	nums := make(map[string]float64, len(keys))
	for _, k := range keys {
		f, err := strconv.ParseFloat(k, 64)
		if err != nil {
			sort.Strings(keys)
			return
		}
		nums[k] = f
	}
	sort.Slice(keys, func(i, j int) bool { return nums[keys[i]] < nums[keys[j]] })
}

func fieldFloat[R model.Row](r R, col string) (float64, bool) {
	v, ok := r.Field(col)
	if !ok || v == nil {
		return 0, false
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, false
	}
	return f, true
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// seriesCategories returns the sorted union of x values across series.
func seriesCategories(series []chartSeries) []float64 {
	seen := make(map[float64]struct{})
	var cats []float64
	for _, s := range series {
		for _, pt := range s.points {
			if _, dup := seen[pt[0]]; dup {
				continue
			}
			seen[pt[0]] = struct{}{}
			cats = append(cats, pt[0])
		}
	}
	sort.Float64s(cats)
	return cats
}

func levelLabels(levels []float64) []string {
	labels := make([]string, len(levels))
	for i, v := range levels {
		labels[i] = formatLevel(v)
	}
	return labels
}

func formatLevel(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// alignedBarData positions a series' points on the shared category
// axis; categories the series has no point for stay empty.
func alignedBarData(s chartSeries, cats []float64) []opts.BarData {
	byX := make(map[float64]float64, len(s.points))
	for _, pt := range s.points {
		byX[pt[0]] = pt[1]
	}
	data := make([]opts.BarData, len(cats))
	for i, c := range cats {
		if y, ok := byX[c]; ok {
			data[i] = opts.BarData{Value: y}
		}
	}
	return data
}

func alignedLineData(s chartSeries, cats []float64) []opts.LineData {
	byX := make(map[float64]float64, len(s.points))
	for _, pt := range s.points {
		byX[pt[0]] = pt[1]
	}
	data := make([]opts.LineData, len(cats))
	for i, c := range cats {
		if y, ok := byX[c]; ok {
			data[i] = opts.LineData{Value: y}
		}
	}
	return data
}

func pairLineData(s chartSeries) []opts.LineData {
	data := make([]opts.LineData, 0, len(s.points))
	for _, pt := range s.points {
		data = append(data, opts.LineData{Value: []interface{}{pt[0], pt[1]}})
	}
	return data
}

// chartOptions assembles the global options shared by all chart types.
func chartOptions(title, subtitle, xLabel, yLabel string, height int, logY, numericX bool) []charts.GlobalOpts {
	xType := "category"
	if numericX {
		xType = "value"
	}
	yType := ""
	if logY {
		yType = "log"
	}
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			Width:  "100%",
			Height: fmt.Sprintf("%dpx", height),
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: subtitle,
		}),
		charts.WithLegendOpts(opts.Legend{
			Top: "bottom",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: xLabel,
			Type: xType,
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: yLabel,
			Type: yType,
		}),
	}
}

// wrapChart embeds a self-contained chart document in the report page.
func wrapChart(doc []byte, height int) string {
	return fmt.Sprintf(
		`<div class="chart-block"><iframe class="chart-frame" style="height:%dpx" srcdoc="%s"></iframe></div>`,
		height+40, html.EscapeString(string(doc)))
}

func titleize(col string) string {
	words := strings.Split(strings.ReplaceAll(col, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
