package parse

import (
	"log/slog"
	"path/filepath"

	"github.com/daryltucker/guidellm-report/internal/config"
)

// LoadGroups expands every file group's glob patterns and runs extract
// over each match, concatenating the rows in group order then match
// order. Patterns that match nothing contribute nothing; overlapping
// patterns contribute their file once per match.
func LoadGroups[T any](groups []config.DataGroup, log *slog.Logger, extract func(path string, meta map[string]any, capture map[string]string) []T) []T {
	var all []T
	for _, group := range groups {
		var files []string
		for _, pattern := range group.Files {
			matches, err := filepath.Glob(pattern)
			if err != nil {
				log.Warn("bad file pattern", "pattern", pattern, "error", err)
				continue
			}
			files = append(files, matches...)
		}
		log.Info("found benchmark files", "count", len(files), "patterns", group.Files)

		for _, path := range files {
			log.Info("processing benchmark file", "path", path)
			all = append(all, extract(path, group.ExtraMetadata, group.Capture)...)
		}
	}
	return all
}
