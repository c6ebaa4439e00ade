package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daryltucker/guidellm-report/internal/model"
)

var chartKeys = []string{
	"throughput_chart",
	"ttft_mean_chart", "ttft_median_chart", "ttft_p95_chart", "ttft_p99_chart",
	"itl_mean_chart", "itl_median_chart", "itl_p95_chart", "itl_p99_chart",
	"request_latency_mean_chart", "request_latency_median_chart",
	"request_latency_p95_chart", "request_latency_p99_chart",
	"throughput_latency_mean_chart", "throughput_latency_median_chart",
	"throughput_latency_p95_chart", "throughput_latency_p99_chart",
	"input_length_chart", "output_length_chart",
	"ttft_deep_dive_chart", "itl_deep_dive_chart",
	"scheduling_chart",
}

func testParams() Params {
	return Params{AxisMode: "concurrency", ColorColumn: "dataset_id"}
}

func summaryRow(dataset string, conc, tput, latency float64) *model.SummaryRow {
	c := conc
	return &model.SummaryRow{
		Concurrency:               &c,
		DatasetID:                 dataset,
		MeanOutputTokensPerSecond: tput,
		RequestLatencyMean:        latency,
		RequestLatencyMedian:      latency,
		RequestLatencyP95:         latency * 2,
		RequestLatencyP99:         latency * 3,
		TTFTMean:                  latency * 10,
		TTFTMedian:                latency * 10,
		TTFTP95:                   latency * 20,
		TTFTP99:                   latency * 30,
		ITLMean:                   latency,
		ITLMedian:                 latency,
		ITLP95:                    latency,
		ITLP99:                    latency,
	}
}

func requestRow(dataset string, conc float64, prompt, output int, ttftMS, startRel float64) *model.RequestRow {
	c := conc
	return &model.RequestRow{
		Concurrency:            &c,
		DatasetID:              dataset,
		PromptTokens:           prompt,
		OutputTokens:           output,
		TimeToFirstTokenMS:     ttftMS,
		InterTokenLatencyMS:    ttftMS / 10,
		StartTimeRelative:      startRel,
		EndTimeRelative:        startRel + 2,
		FirstTokenTimeRelative: startRel + 0.5,
	}
}

func sampleSummary() []*model.SummaryRow {
	return []*model.SummaryRow{
		summaryRow("512-128", 1, 100, 1.0),
		summaryRow("512-128", 8, 400, 2.0),
		summaryRow("256-64", 1, 150, 0.5),
		summaryRow("256-64", 8, 600, 1.5),
	}
}

func sampleRequests() []*model.RequestRow {
	return []*model.RequestRow{
		requestRow("512-128", 1, 500, 120, 80, 0.2),
		requestRow("512-128", 1, 520, 130, 95, 1.4),
		requestRow("512-128", 8, 510, 125, 220, 0.9),
		requestRow("256-64", 1, 250, 60, 40, 0.1),
	}
}

func TestBuildChartsProducesEveryKey(t *testing.T) {
	out := BuildCharts(sampleSummary(), sampleRequests(), testParams())
	require.Len(t, out, len(chartKeys))
	for _, key := range chartKeys {
		require.Contains(t, out, key)
		assert.NotEmpty(t, out[key], key)
	}
}

func TestBuildChartsEmptyTables(t *testing.T) {
	out := BuildCharts(nil, nil, testParams())
	require.Len(t, out, len(chartKeys))

	assert.Equal(t, "<p>No summary data available for throughput analysis</p>", string(out["throughput_chart"]))
	assert.Equal(t, "<p>No summary data available for TTFT Mean</p>", string(out["ttft_mean_chart"]))
	assert.Equal(t, "<p>No summary data available for throughput analysis</p>", string(out["throughput_latency_p99_chart"]))
	assert.Equal(t, "<p>No individual request data available for Input Length distribution</p>", string(out["input_length_chart"]))
	assert.Equal(t, "<p>No individual request data available for scheduling analysis</p>", string(out["scheduling_chart"]))
}

func TestThroughputChartRendersSeries(t *testing.T) {
	html := testParams().throughputChart(sampleSummary())
	assert.Contains(t, html, "chart-frame")
	assert.Contains(t, html, "srcdoc=")
	assert.Contains(t, html, "height:540px")
	assert.NotContains(t, html, "No data available")
}

func TestThroughputChartUnusableRows(t *testing.T) {
	rows := []*model.SummaryRow{
		{DatasetID: "512-128", MeanOutputTokensPerSecond: 100},
	}
	html := testParams().throughputChart(rows)
	assert.Equal(t, "<p>No valid throughput data available</p>", html)
}

func TestLatencyChartCategoricalSwitchesToLines(t *testing.T) {
	p := testParams()
	fam := latencyFamily{column: "ttft_mean", title: "TTFT Mean", yLabel: "ms"}

	barHTML := p.latencyChart(sampleSummary(), fam)
	p.Categorical = true
	lineHTML := p.latencyChart(sampleSummary(), fam)

	assert.NotEqual(t, barHTML, lineHTML)
	assert.Contains(t, barHTML, "chart-frame")
	assert.Contains(t, lineHTML, "chart-frame")
}

func TestGroupedSeriesAggregatesPerLevel(t *testing.T) {
	rows := []*model.SummaryRow{
		summaryRow("a", 1, 100, 1),
		summaryRow("a", 1, 200, 1),
		summaryRow("a", 8, 400, 1),
		summaryRow("b", 1, 50, 1),
		{DatasetID: "a", MeanOutputTokensPerSecond: 999},
	}
	series := testParams().groupedSeries(rows, "mean_output_tokens_per_second")
	require.Len(t, series, 2)

	require.Equal(t, "a", series[0].name)
	require.Equal(t, [][2]float64{{1, 150}, {8, 400}}, series[0].points)

	require.Equal(t, "b", series[1].name)
	require.Equal(t, [][2]float64{{1, 50}}, series[1].points)
}

func TestGroupByOrdersKeys(t *testing.T) {
	numeric := []*model.SummaryRow{
		summaryRow("10", 1, 0, 0),
		summaryRow("2", 1, 0, 0),
		summaryRow("1", 1, 0, 0),
	}
	keys, _ := groupBy(numeric, "dataset_id")
	assert.Equal(t, []string{"1", "2", "10"}, keys)

	mixed := []*model.SummaryRow{
		summaryRow("10", 1, 0, 0),
		summaryRow("2", 1, 0, 0),
		summaryRow("b", 1, 0, 0),
	}
	keys, _ = groupBy(mixed, "dataset_id")
	assert.Equal(t, []string{"10", "2", "b"}, keys)
}

func TestThroughputLatencyChartHeightGrows(t *testing.T) {
	var rows []*model.SummaryRow
	for i := 0; i < 40; i++ {
		rows = append(rows, summaryRow("a", float64(i+1), float64(100+i), 1.0))
	}
	html := testParams().throughputLatencyChart(rows, "mean")
	assert.Contains(t, html, "height:840px")
}

func TestBinValues(t *testing.T) {
	labels, counts := binValues([]float64{0, 5, 10, 95, 100}, 50)
	require.Len(t, counts, 10)
	assert.Equal(t, 2, counts[0])
	assert.Equal(t, 1, counts[1])
	assert.Equal(t, 2, counts[9])
	assert.Equal(t, "0", labels[0])
	assert.Equal(t, "10", labels[1])
	assert.Equal(t, "90", labels[9])

	labels, counts = binValues([]float64{7.25, 7.25}, 50)
	assert.Equal(t, []string{"7.3"}, labels)
	assert.Equal(t, []int{2}, counts)
}

func TestBinValuesWideRange(t *testing.T) {
	values := []float64{0, 2600}
	labels, counts := binValues(values, 100)
	require.Len(t, counts, 27)
	assert.Equal(t, 1, counts[0])
	assert.Equal(t, 1, counts[26])
	assert.Equal(t, "0", labels[0])
}

func TestHistogramSkipsAllZeroCombos(t *testing.T) {
	rows := []*model.RequestRow{
		requestRow("a", 1, 0, 0, 0, 0.5),
		requestRow("a", 1, 0, 0, 0, 1.5),
	}
	html := testParams().tokenLengthHistograms(rows, "prompt_tokens", "Input Length")
	assert.Equal(t, "<p>No valid data for Input Length histograms</p>", html)
}

func TestHistogramPerCombination(t *testing.T) {
	html := testParams().tokenLengthHistograms(sampleRequests(), "prompt_tokens", "Input Length")
	assert.Contains(t, html, "chart-frame")
	// level 1 has two datasets, level 8 one: three charts in total.
	assert.Equal(t, 3, strings.Count(html, "chart-frame"))
}

func TestLatencyHistogramSubtitleOmitsMean(t *testing.T) {
	rows := []*model.RequestRow{
		requestRow("a", 1, 100, 50, 80, 0.5),
	}
	p := testParams()

	lengths := p.tokenLengthHistograms(rows, "prompt_tokens", "Input Length")
	assert.Contains(t, lengths, "Mean:")

	ttft := p.latencyHistograms(rows, "time_to_first_token_ms", "TTFT", 100)
	assert.NotContains(t, ttft, "Mean:")
}

func TestSchedulingFiltersNegativeTimes(t *testing.T) {
	early := requestRow("a", 1, 100, 50, 80, -3)
	html := testParams().schedulingCharts([]*model.RequestRow{early})
	assert.Contains(t, html, "<p>No valid time data for Requests Started per Second</p>")
	assert.Contains(t, html, "<p>No valid time data for Requests Completed per Second</p>")
}

func TestSchedulingRendersPerLevel(t *testing.T) {
	html := testParams().schedulingCharts(sampleRequests())
	// start rates, completion rates, and the TTFT timeline for both levels
	assert.Equal(t, 6, strings.Count(html, "chart-frame"))
}

func TestWrapChartEscapesDocument(t *testing.T) {
	out := wrapChart([]byte(`<html lang="en"></html>`), 500)
	assert.Contains(t, out, "height:540px")
	assert.Contains(t, out, "&lt;html lang=&#34;en&#34;&gt;")
	assert.NotContains(t, out, `srcdoc="<html`)
}

func TestTitleize(t *testing.T) {
	assert.Equal(t, "Dataset Id", titleize("dataset_id"))
	assert.Equal(t, "Model", titleize("model"))
}

func TestFormatLevel(t *testing.T) {
	assert.Equal(t, "8", formatLevel(8))
	assert.Equal(t, "2.5", formatLevel(2.5))
}
