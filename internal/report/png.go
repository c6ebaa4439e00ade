package report

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/daryltucker/guidellm-report/internal/model"
)

var pngLatencyFamilies = []struct {
	file   string
	column string
	title  string
}{
	{"request_latency.png", "request_latency_mean", "Request Latency Mean"},
	{"ttft.png", "ttft_mean", "TTFT Mean"},
	{"itl.png", "itl_mean", "ITL Mean"},
}

// WritePNGCharts renders static summary charts into dir: a throughput
// line chart plus one grouped bar chart per latency family. Families
// without plottable data are skipped rather than failing the export.
func (p Params) WritePNGCharts(dir string, rows []*model.SummaryRow) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create png directory %s: %w", dir, err)
	}
	if err := p.throughputPNG(filepath.Join(dir, "throughput.png"), rows); err != nil {
		return err
	}
	for _, fam := range pngLatencyFamilies {
		if err := p.latencyPNG(filepath.Join(dir, fam.file), rows, fam.column, fam.title); err != nil {
			return err
		}
	}
	return nil
}

func (p Params) throughputPNG(path string, rows []*model.SummaryRow) error {
	series := p.groupedSeries(rows, "mean_output_tokens_per_second")
	if len(series) == 0 {
		return nil
	}

	plt := plot.New()
	plt.Title.Text = "Throughput vs " + p.axisLabel()
	plt.X.Label.Text = p.axisLabel()
	plt.Y.Label.Text = "Output Tokens/sec"
	plt.Legend.Top = true

	items := make([]interface{}, 0, len(series)*2)
	for _, s := range series {
		xys := make(plotter.XYs, len(s.points))
		for i, pt := range s.points {
			xys[i].X = pt[0]
			xys[i].Y = pt[1]
		}
		items = append(items, s.name, xys)
	}
	if err := plotutil.AddLinePoints(plt, items...); err != nil {
		return fmt.Errorf("failed to build throughput chart: %w", err)
	}
	if err := plt.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

func (p Params) latencyPNG(path string, rows []*model.SummaryRow, column, title string) error {
	series := p.groupedSeries(rows, column)
	if len(series) == 0 {
		return nil
	}
	cats := seriesCategories(series)

	// Align every series on the shared category axis up front so the
	// log-scale check sees the gap-filling zeros too.
	aligned := make([]plotter.Values, len(series))
	for i, s := range series {
		values := make(plotter.Values, len(cats))
		for j, c := range cats {
			for _, pt := range s.points {
				if pt[0] == c {
					values[j] = pt[1]
					break
				}
			}
		}
		aligned[i] = values
	}

	plt := plot.New()
	plt.Title.Text = fmt.Sprintf("%s vs %s", title, p.axisLabel())
	plt.X.Label.Text = p.axisLabel()
	plt.Y.Label.Text = "ms"
	plt.Legend.Top = true

	if p.LogScaleY && allValuesPositive(aligned) {
		plt.Y.Scale = plot.LogScale{}
		plt.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	}

	barWidth := vg.Points(20)
	spacing := vg.Points(3)
	groupWidth := (barWidth + spacing) * vg.Length(len(series)-1)

	for i, s := range series {
		bar, err := plotter.NewBarChart(aligned[i], barWidth)
		if err != nil {
			return fmt.Errorf("failed to build %s chart: %w", title, err)
		}
		bar.Offset = (barWidth+spacing)*vg.Length(i) - groupWidth/2
		bar.Color = plotutil.Color(i)
		bar.LineStyle.Width = 0
		plt.Add(bar)
		plt.Legend.Add(s.name, bar)
	}

	ticks := make([]plot.Tick, len(cats))
	for i, c := range cats {
		ticks[i] = plot.Tick{Value: float64(i), Label: formatLevel(c)}
	}
	plt.X.Tick.Marker = plot.ConstantTicks(ticks)
	plt.X.Min = -0.5
	plt.X.Max = float64(len(cats)) - 0.5

	if err := plt.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

func allValuesPositive(aligned []plotter.Values) bool {
	for _, values := range aligned {
		for _, v := range values {
			if v <= 0 {
				return false
			}
		}
	}
	return true
}
