/*
PURPOSE:
  Defines the configuration structure and loading logic for guidellm-report.
  A config file describes where the benchmark JSON files live and how the
  report should slice them.

REQUIREMENTS:
  User-specified:
  - Data groups: glob patterns plus arbitrary metadata attached to every
    row the group produces.
  - Options: axis mode (concurrency vs rps), grouping column, level
    filters, axis rendering toggles.

  Implementation-discovered:
  - Needs YAML parsing.
  - A config file is mandatory (there is no sensible default data source),
    unlike tools that can fall back to built-in defaults.
  - Level lists arrive loosely typed from YAML and must coerce to floats;
    a single bad element invalidates the whole list rather than silently
    filtering part of it.

ARCHITECTURE INTEGRATION:
  - Used by: internal/cli, internal/serve, internal/report (metadata dump)
  - Dependencies: gopkg.in/yaml.v3, spf13/cast

ERROR HANDLING:
  - Returns explicit errors for a missing file, unparsable YAML, or a
    missing data section. Option-level irregularities never error: an
    unknown axis_mode resets to the default, an uncoercible level list
    counts as absent.

IMPLEMENTATION RULES:
  - Config struct tags support yaml.
  - Keep option access behind methods so defaulting lives in one place.

USAGE:
  cfg, err := config.Load("guidellm-report.yaml")
  mode := cfg.AxisMode()

SELF-HEALING INSTRUCTIONS:
  - If new options are needed, add the yaml field plus an accessor with
    its default.

RELATED FILES:
  - internal/cli/generate.go
  - internal/assets/templates/guidellm-report.yaml

MAINTENANCE:
  - Update when adding new report tuning parameters.
*/

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// DataGroup is one set of input files sharing metadata.
type DataGroup struct {
	// Files holds glob patterns; matches across patterns are unioned
	// without de-duplication, so overlapping patterns weight a file twice.
	Files []string `yaml:"files"`
	// ExtraMetadata is merged verbatim into every row of the group.
	ExtraMetadata map[string]any `yaml:"extra_metadata"`
	// Capture maps extra column names to JSON paths evaluated against
	// each benchmark entry (gjson syntax, e.g. "config.model").
	Capture map[string]string `yaml:"capture"`
}

// Options tunes axis selection, grouping and chart rendering.
type Options struct {
	AxisMode          string `yaml:"axis_mode"`
	Color             string `yaml:"color"`
	ConcurrencyLevels []any  `yaml:"concurrency_levels"`
	RPSLevels         []any  `yaml:"rps_levels"`
	XAxisCategorical  bool   `yaml:"x_axis_categorical"`
	YAxisLogScale     bool   `yaml:"y_axis_log_scale"`
}

// Config is the full configuration for a report run.
type Config struct {
	Data    []DataGroup `yaml:"data"`
	Options Options     `yaml:"options"`

	// Path records which file was loaded, for the report metadata block.
	Path string `yaml:"-"`
}

// defaultFiles are searched in order when no explicit path is given.
var defaultFiles = []string{"guidellm-report.yaml", "report-config.yaml"}

// Load reads configuration from a file.
// If path is empty, the GUIDELLM_REPORT_CONFIG environment variable and
// then the default file names are tried. A config file is required; not
// finding one is an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("GUIDELLM_REPORT_CONFIG")
	}

	var data []byte
	var err error

	if path != "" {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("configuration file not found: %w", err)
		}
	} else {
		found := false
		for _, name := range defaultFiles {
			data, err = os.ReadFile(name)
			if err == nil {
				path = name
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("no configuration file found (looked for %s)", strings.Join(defaultFiles, ", "))
		}
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if len(cfg.Data) == 0 {
		return nil, fmt.Errorf("config file %s must contain a data section", path)
	}

	cfg.Path = path
	return cfg, nil
}

// AxisMode returns the configured axis mode. Anything other than the two
// known modes silently resets to "concurrency".
func (c *Config) AxisMode() string {
	mode := c.Options.AxisMode
	if mode != "concurrency" && mode != "rps" {
		return "concurrency"
	}
	return mode
}

// ColorColumn returns the grouping column name, defaulting to dataset_id.
func (c *Config) ColorColumn() string {
	if c.Options.Color == "" {
		return "dataset_id"
	}
	return c.Options.Color
}

// ConcurrencyLevels returns the configured concurrency filter, or nil
// when unset or not fully numeric.
func (c *Config) ConcurrencyLevels() []float64 {
	return coerceLevels(c.Options.ConcurrencyLevels)
}

// RPSLevels returns the configured RPS filter, or nil when unset or not
// fully numeric.
func (c *Config) RPSLevels() []float64 {
	return coerceLevels(c.Options.RPSLevels)
}

// Levels returns the filter matching the given axis mode.
func (c *Config) Levels(axisMode string) []float64 {
	if axisMode == "concurrency" {
		return c.ConcurrencyLevels()
	}
	return c.RPSLevels()
}

func coerceLevels(raw []any) []float64 {
	if len(raw) == 0 {
		return nil
	}
	levels := make([]float64, 0, len(raw))
	for _, v := range raw {
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return nil
		}
		levels = append(levels, f)
	}
	return levels
}
