package parse

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daryltucker/guidellm-report/internal/config"
)

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))
	return path
}

func TestLoadGroups(t *testing.T) {
	dir := t.TempDir()
	a := touch(t, dir, "a.json")
	b := touch(t, dir, "b.json")
	touch(t, dir, "notes.txt")

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	t.Run("expands patterns in order without dedup", func(t *testing.T) {
		groups := []config.DataGroup{{
			Files: []string{filepath.Join(dir, "*.json"), a},
		}}

		var seen []string
		rows := LoadGroups(groups, log, func(path string, meta map[string]any, capture map[string]string) []string {
			seen = append(seen, path)
			return []string{path}
		})

		assert.Equal(t, []string{a, b, a}, seen)
		assert.Equal(t, []string{a, b, a}, rows)
	})

	t.Run("passes group metadata and capture through", func(t *testing.T) {
		groups := []config.DataGroup{
			{
				Files:         []string{a},
				ExtraMetadata: map[string]any{"gpu": "a100"},
				Capture:       map[string]string{"model": "config.model"},
			},
			{
				Files:         []string{b},
				ExtraMetadata: map[string]any{"gpu": "h100"},
			},
		}

		type call struct {
			path string
			gpu  any
		}
		var calls []call
		LoadGroups(groups, log, func(path string, meta map[string]any, capture map[string]string) []int {
			calls = append(calls, call{path, meta["gpu"]})
			if path == a {
				assert.Equal(t, "config.model", capture["model"])
			} else {
				assert.Empty(t, capture)
			}
			return nil
		})

		require.Len(t, calls, 2)
		assert.Equal(t, call{a, "a100"}, calls[0])
		assert.Equal(t, call{b, "h100"}, calls[1])
	})

	t.Run("bad pattern is logged and skipped", func(t *testing.T) {
		buf.Reset()
		groups := []config.DataGroup{{Files: []string{"[", a}}}

		var seen []string
		LoadGroups(groups, log, func(path string, meta map[string]any, capture map[string]string) []string {
			seen = append(seen, path)
			return nil
		})

		assert.Equal(t, []string{a}, seen)
		assert.Contains(t, buf.String(), "bad file pattern")
	})

	t.Run("empty match is not an error", func(t *testing.T) {
		groups := []config.DataGroup{{Files: []string{filepath.Join(dir, "*.jsonl")}}}
		rows := LoadGroups(groups, log, func(path string, meta map[string]any, capture map[string]string) []string {
			t.Fatal("extract should not run")
			return nil
		})
		assert.Empty(t, rows)
	})
}
