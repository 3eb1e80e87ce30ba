package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ilkoid/pilates-vision/pkg/config"
	"github.com/ilkoid/pilates-vision/pkg/pose"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, promptsDir string) *config.AppConfig {
	t.Helper()
	dir := t.TempDir()
	cfg, err := config.Parse([]byte(`
models:
  default_interpretation: gpt
  definitions:
    gpt:
      provider: openai
      model_name: gpt-4o-mini
      api_key: test-key
`))
	require.NoError(t, err)
	cfg.Posture.PromptsDir = promptsDir
	cfg.Storage.DBPath = filepath.Join(dir, "app.db")
	cfg.App.LogsDir = filepath.Join(dir, "logs")
	return cfg
}

func writeAnalysisPrompt(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "postural_analysis.txt"),
		[]byte("Answer in {{.OutputLanguage}}."), 0o644))
	return dir
}

func TestInitialize_WiresComponents(t *testing.T) {
	cfg := testConfig(t, writeAnalysisPrompt(t))
	cfg.Planner.DebugTraces = true

	c, err := Initialize(context.Background(), cfg, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	assert.NotNil(t, c.Store)
	assert.NotNil(t, c.Pipeline)
	assert.NotNil(t, c.Planner)
	assert.NotNil(t, c.Analysis)
	assert.NotNil(t, c.Plans)
	assert.NoError(t, c.Store.Ping(context.Background()))
}

func TestInitialize_SkipStore(t *testing.T) {
	cfg := testConfig(t, writeAnalysisPrompt(t))

	c, err := Initialize(context.Background(), cfg, Options{
		SkipStore: true,
		Estimator: pose.NewFileEstimator("detection.json"),
	})
	require.NoError(t, err)
	defer c.Close()

	assert.Nil(t, c.Store)
	assert.Nil(t, c.Analysis)
	assert.NotNil(t, c.Planner)
	_, statErr := os.Stat(cfg.Storage.DBPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestInitialize_MissingPrompt(t *testing.T) {
	cfg := testConfig(t, t.TempDir())

	_, err := Initialize(context.Background(), cfg, Options{SkipStore: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load analysis prompt")
}

func TestInitialize_UnknownProvider(t *testing.T) {
	cfg := testConfig(t, writeAnalysisPrompt(t))
	def := cfg.Models.Definitions["gpt"]
	def.Provider = "anthropic-x"
	cfg.Models.Definitions["gpt"] = def

	_, err := Initialize(context.Background(), cfg, Options{SkipStore: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider type")
}

func TestDefaultConfigPathFinder_Flag(t *testing.T) {
	f := &DefaultConfigPathFinder{ConfigFlag: "conf/custom.yaml"}
	got := f.FindConfigPath()

	assert.True(t, filepath.IsAbs(got))
	assert.Equal(t, "custom.yaml", filepath.Base(got))
}

func TestInitializeConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PV_APP_TEST_KEY=from-env\n"), 0o644))
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
models:
  default_interpretation: gpt
  definitions:
    gpt:
      model_name: m
      api_key: ${PV_APP_TEST_KEY}
`), 0o644))
	t.Cleanup(func() { os.Unsetenv("PV_APP_TEST_KEY") })

	cfg, path, err := InitializeConfig(&DefaultConfigPathFinder{ConfigFlag: cfgPath})
	require.NoError(t, err)
	assert.Equal(t, cfgPath, path)
	assert.Equal(t, "from-env", cfg.Models.Definitions["gpt"].APIKey)
}
