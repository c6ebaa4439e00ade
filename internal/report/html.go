/*
PURPOSE:
  Assembles the final HTML report page: tabbed layout, metadata block,
  and the chart fragments produced by charts.go and distributions.go.

REQUIREMENTS:
  User-specified:
  - Single self-contained output file with Overview, Throughput,
    Latency, Lengths, Deep Dive, and Scheduling tabs.
  - Metadata block carries a report id, generation timestamp, the
    invoking command line, row counts, and the configuration that was
    actually used, re-dumped as comment-free YAML.
  - Default page title "Benchmark Analysis Report".

  Implementation-discovered:
  - Row count lines only appear for non-empty tables.
  - The configuration dump sits under a 50-character "=" rule; without
    a configuration the block reads "Configuration file: N/A".

ARCHITECTURE INTEGRATION:
  - Used by: internal/cli/generate.go, internal/serve
  - Template lives in templates/report.html.tmpl and is embedded at
    build time.

ERROR HANDLING:
  - WritePage wraps file-system errors with the target path.
  - A config that fails to re-marshal degrades to an error line inside
    the metadata block instead of failing the report.

IMPLEMENTATION RULES:
  - The template only ever indexes the charts map; chart HTML is fully
    assembled before it reaches this file.
  - Metadata is preformatted text, rendered inside <pre>.

USAGE:
  page := report.NewPage(title, subtitle, meta, charts)
  err := report.WritePage("benchmark_analysis_report.html", page)

SELF-HEALING INSTRUCTIONS:
  - A template execution error means a chart key went missing; compare
    the template's index calls against BuildCharts.

RELATED FILES:
  - internal/report/charts.go
  - internal/report/templates/report.html.tmpl

MAINTENANCE:
  - New tabs need a nav button, a section, and chart keys in sync.
*/

package report

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/daryltucker/guidellm-report/internal/config"
)

//go:embed templates/report.html.tmpl
var templatesFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templatesFS, "templates/report.html.tmpl"))

// DefaultTitle is the page title used when the caller supplies none.
const DefaultTitle = "Benchmark Analysis Report"

// Page carries everything the report template needs.
type Page struct {
	HTMLTitle string
	Subtitle  string
	Metadata  string
	Charts    map[string]template.HTML
}

// NewPage fills in the default title when none is given.
func NewPage(title, subtitle, metadata string, charts map[string]template.HTML) Page {
	if title == "" {
		title = DefaultTitle
	}
	return Page{
		HTMLTitle: title,
		Subtitle:  subtitle,
		Metadata:  metadata,
		Charts:    charts,
	}
}

// MetadataText builds the Overview block: report id, generation time,
// command line, row counts, and the configuration dump.
func MetadataText(summaryCount, requestCount int, cfg *config.Config, commandLine string) string {
	lines := []string{
		fmt.Sprintf("Report ID: %s", uuid.NewString()),
		fmt.Sprintf("Generated: %s", time.Now().Format("2006-01-02 15:04:05")),
		fmt.Sprintf("Command: %s", commandLine),
		"",
	}
	if summaryCount > 0 {
		lines = append(lines, fmt.Sprintf("Summary data points: %d", summaryCount))
	}
	if requestCount > 0 {
		lines = append(lines, fmt.Sprintf("Individual requests: %d", requestCount))
	}
	lines = append(lines, "")
	if cfg != nil {
		lines = append(lines, "Configuration used:", strings.Repeat("=", 50))
		if dump, err := yaml.Marshal(cfg); err != nil {
			lines = append(lines, fmt.Sprintf("Error rendering configuration: %v", err))
		} else {
			lines = append(lines, strings.TrimSpace(string(dump)))
		}
	} else {
		lines = append(lines, "Configuration file: N/A")
	}
	return strings.Join(lines, "\n")
}

// RenderPage writes the assembled report to w.
func RenderPage(w io.Writer, page Page) error {
	return pageTemplate.Execute(w, page)
}

// WritePage renders the report into the given file.
func WritePage(path string, page Page) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file %s: %w", path, err)
	}
	defer f.Close()
	if err := RenderPage(f, page); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}
