package parse

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustBench(t *testing.T, s string) *rawBenchmark {
	t.Helper()
	var b rawBenchmark
	require.NoError(t, json.Unmarshal([]byte(s), &b))
	return &b
}

func TestResolveAxisConcurrency(t *testing.T) {
	t.Run("max_concurrency under config", func(t *testing.T) {
		b := mustBench(t, `{"config": {"strategy": {"type_": "concurrent", "max_concurrency": 8}}}`)
		ax, ok := resolveAxis(b)
		require.True(t, ok)
		require.NotNil(t, ax.Concurrency)
		assert.Equal(t, 8.0, *ax.Concurrency)
		assert.Nil(t, ax.RPS)
	})

	t.Run("streams fallback", func(t *testing.T) {
		b := mustBench(t, `{"config": {"strategy": {"type_": "concurrent", "streams": 4}}}`)
		ax, ok := resolveAxis(b)
		require.True(t, ok)
		require.NotNil(t, ax.Concurrency)
		assert.Equal(t, 4.0, *ax.Concurrency)
	})

	t.Run("max_concurrency wins over streams", func(t *testing.T) {
		b := mustBench(t, `{"config": {"strategy": {"max_concurrency": 8, "streams": 4}}}`)
		ax, ok := resolveAxis(b)
		require.True(t, ok)
		assert.Equal(t, 8.0, *ax.Concurrency)
	})

	t.Run("args fallback when config strategy is empty", func(t *testing.T) {
		b := mustBench(t, `{"config": {"strategy": {}}, "args": {"strategy": {"type_": "concurrent", "max_concurrency": 16}}}`)
		ax, ok := resolveAxis(b)
		require.True(t, ok)
		assert.Equal(t, 16.0, *ax.Concurrency)
	})

	t.Run("numeric string tolerated", func(t *testing.T) {
		b := mustBench(t, `{"config": {"strategy": {"max_concurrency": "32"}}}`)
		ax, ok := resolveAxis(b)
		require.True(t, ok)
		assert.Equal(t, 32.0, *ax.Concurrency)
	})
}

func TestResolveAxisRPS(t *testing.T) {
	t.Run("strategy rate for constant runs", func(t *testing.T) {
		b := mustBench(t, `{"config": {"strategy": {"type_": "constant", "rate": 2.5}}}`)
		ax, ok := resolveAxis(b)
		require.True(t, ok)
		require.NotNil(t, ax.RPS)
		assert.Equal(t, 2.5, *ax.RPS)
		assert.Nil(t, ax.Concurrency)
	})

	t.Run("profile rate list fallback", func(t *testing.T) {
		b := mustBench(t, `{"config": {"strategy": {"type_": "constant"}, "profile": {"strategy_type": "constant", "rate": [5, 10]}}}`)
		ax, ok := resolveAxis(b)
		require.True(t, ok)
		require.NotNil(t, ax.RPS)
		assert.Equal(t, 5.0, *ax.RPS)
	})

	t.Run("strategy type from profile", func(t *testing.T) {
		b := mustBench(t, `{"config": {"strategy": {"rate": 7}, "profile": {"strategy_type": "constant"}}}`)
		ax, ok := resolveAxis(b)
		require.True(t, ok)
		require.NotNil(t, ax.RPS)
		assert.Equal(t, 7.0, *ax.RPS)
	})

	t.Run("rate ignored for non-constant runs", func(t *testing.T) {
		b := mustBench(t, `{"config": {"strategy": {"type_": "throughput", "rate": 10}}}`)
		_, ok := resolveAxis(b)
		assert.False(t, ok)
	})

	t.Run("scalar profile rate ignored", func(t *testing.T) {
		b := mustBench(t, `{"config": {"strategy": {"type_": "constant"}, "profile": {"strategy_type": "constant", "rate": 3.5}}}`)
		_, ok := resolveAxis(b)
		assert.False(t, ok)
	})
}

func TestResolveAxisUnusable(t *testing.T) {
	for name, doc := range map[string]string{
		"empty entry":           `{}`,
		"empty strategies":      `{"config": {"strategy": {}}, "args": {"strategy": {}}}`,
		"null axis values":      `{"config": {"strategy": {"type_": "concurrent", "max_concurrency": null}}}`,
		"constant without rate": `{"config": {"strategy": {"type_": "constant"}}}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, ok := resolveAxis(mustBench(t, doc))
			assert.False(t, ok)
		})
	}
}

func TestRunStart(t *testing.T) {
	t.Run("run_stats wins over top level", func(t *testing.T) {
		b := mustBench(t, `{"run_stats": {"start_time": 2000}, "start_time": 1}`)
		v, ok := runStart(b)
		require.True(t, ok)
		assert.Equal(t, 2000.0, v)
	})

	t.Run("top level fallback", func(t *testing.T) {
		b := mustBench(t, `{"start_time": 1234.5}`)
		v, ok := runStart(b)
		require.True(t, ok)
		assert.Equal(t, 1234.5, v)
	})

	t.Run("unknown", func(t *testing.T) {
		_, ok := runStart(mustBench(t, `{}`))
		assert.False(t, ok)
	})
}

func TestChooseLoader(t *testing.T) {
	t.Run("config requests preferred", func(t *testing.T) {
		b := mustBench(t, `{"config": {"requests": {"processor": "a"}}, "request_loader": {"processor": "b"}}`)
		loader := chooseLoader(b)
		require.NotNil(t, loader)
		assert.Equal(t, "a", loader.Processor)
	})

	t.Run("empty config requests falls through", func(t *testing.T) {
		b := mustBench(t, `{"config": {"requests": {}}, "request_loader": {"processor": "b"}}`)
		loader := chooseLoader(b)
		require.NotNil(t, loader)
		assert.Equal(t, "b", loader.Processor)
	})

	t.Run("null config requests falls through", func(t *testing.T) {
		b := mustBench(t, `{"config": {"requests": null}, "request_loader": {"processor": "b"}}`)
		loader := chooseLoader(b)
		require.NotNil(t, loader)
		assert.Equal(t, "b", loader.Processor)
	})

	t.Run("none present", func(t *testing.T) {
		assert.Nil(t, chooseLoader(mustBench(t, `{}`)))
	})
}

func TestDatasetSettings(t *testing.T) {
	t.Run("missing loader uses defaults", func(t *testing.T) {
		settings := datasetSettingsFrom(nil)
		assert.Equal(t, 400, settings.PromptTokens)
		assert.Equal(t, 200, settings.OutputTokens)
		assert.Equal(t, "multiturn", settings.Processor)
		assert.Zero(t, settings.PromptTokensStdev)
		assert.Zero(t, settings.OutputTokensStdev)
	})

	t.Run("json object data", func(t *testing.T) {
		loader := &rawLoader{
			Data:      json.RawMessage(`"{\"prompt_tokens\": 512, \"prompt_tokens_stdev\": 10.5, \"output_tokens\": 128, \"output_tokens_stdev\": 2}"`),
			Processor: "llama-3",
		}
		settings := datasetSettingsFrom(loader)
		assert.Equal(t, 512, settings.PromptTokens)
		assert.Equal(t, 10.5, settings.PromptTokensStdev)
		assert.Equal(t, 128, settings.OutputTokens)
		assert.Equal(t, 2.0, settings.OutputTokensStdev)
		assert.Equal(t, "llama-3", settings.Processor)
	})

	t.Run("inline list data", func(t *testing.T) {
		loader := &rawLoader{
			Data:      json.RawMessage(`"['prompt_tokens=256,output_tokens=64']"`),
			Processor: "qwen",
		}
		settings := datasetSettingsFrom(loader)
		assert.Equal(t, 256, settings.PromptTokens)
		assert.Equal(t, 64, settings.OutputTokens)
		assert.Equal(t, "qwen", settings.Processor)
		assert.Zero(t, settings.PromptTokensStdev)
	})

	t.Run("inline list ignores non-digit values", func(t *testing.T) {
		loader := &rawLoader{Data: json.RawMessage(`"['prompt_tokens=abc,output_tokens=64']"`)}
		settings := datasetSettingsFrom(loader)
		assert.Zero(t, settings.PromptTokens)
		assert.Equal(t, 64, settings.OutputTokens)
	})

	t.Run("inline list ignores unknown keys", func(t *testing.T) {
		loader := &rawLoader{Data: json.RawMessage(`"['prompt_tokens=10,samples=3']"`)}
		settings := datasetSettingsFrom(loader)
		assert.Equal(t, 10, settings.PromptTokens)
		assert.Zero(t, settings.OutputTokens)
	})

	t.Run("empty data", func(t *testing.T) {
		loader := &rawLoader{Data: json.RawMessage(`""`), Processor: "x"}
		assert.Equal(t, datasetSettings{}, datasetSettingsFrom(loader))
	})

	t.Run("unparseable data", func(t *testing.T) {
		loader := &rawLoader{Data: json.RawMessage(`"not json at all"`)}
		assert.Equal(t, datasetSettings{}, datasetSettingsFrom(loader))
	})

	t.Run("non-string data", func(t *testing.T) {
		loader := &rawLoader{Data: json.RawMessage(`{"prompt_tokens": 1}`)}
		assert.Equal(t, datasetSettings{}, datasetSettingsFrom(loader))
	})

	t.Run("float token counts truncate", func(t *testing.T) {
		loader := &rawLoader{Data: json.RawMessage(`"{\"prompt_tokens\": 512.0, \"output_tokens\": 127.9}"`)}
		settings := datasetSettingsFrom(loader)
		assert.Equal(t, 512, settings.PromptTokens)
		assert.Equal(t, 127, settings.OutputTokens)
	})
}

func TestMeanWithTotalFallback(t *testing.T) {
	decode := func(t *testing.T, s string) rawMetricSummary {
		t.Helper()
		var m rawMetricSummary
		require.NoError(t, json.Unmarshal([]byte(s), &m))
		return m
	}

	assert.Equal(t, 100.5, meanWithTotalFallback(decode(t, `{"successful": {"mean": 100.5}, "total": {"mean": 90}}`)))
	assert.Equal(t, 90.0, meanWithTotalFallback(decode(t, `{"successful": {"mean": 0}, "total": {"mean": 90}}`)))
	assert.Equal(t, 90.0, meanWithTotalFallback(decode(t, `{"total": {"mean": 90}}`)))
	assert.Zero(t, meanWithTotalFallback(decode(t, `{}`)))
}

func TestLooseFloat(t *testing.T) {
	for name, tc := range map[string]struct {
		in  string
		val float64
		ok  bool
	}{
		"number":         {`3.5`, 3.5, true},
		"integer":        {`42`, 42, true},
		"numeric string": {`"2.25"`, 2.25, true},
		"padded string":  {`" 7 "`, 7, true},
		"null":           {`null`, 0, false},
		"garbage string": {`"fast"`, 0, false},
		"object":         {`{}`, 0, false},
	} {
		t.Run(name, func(t *testing.T) {
			var f looseFloat
			require.NoError(t, json.Unmarshal([]byte(tc.in), &f))
			assert.Equal(t, tc.ok, f.ok)
			assert.Equal(t, tc.val, f.val)
		})
	}
}
