package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"menushock/internal/models"
	"menushock/internal/parser"
	"menushock/internal/risk"
	"menushock/internal/substitution"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadShippedConfig(t *testing.T) {
	cfg, err := Load("../../configs/config.yaml")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, risk.DefaultTable(), cfg.Analysis.RiskTable)
	assert.Equal(t, substitution.DefaultRanking(), cfg.Analysis.Ranking)
	assert.Equal(t, models.DefaultEventLimits(), cfg.Analysis.Limits)
	assert.Equal(t, 5*time.Minute, cfg.Analysis.Cache.TTL)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, SourceDir, cfg.Data.Source)
	assert.Equal(t, parser.DefaultConfig().Model, cfg.Parser.Model)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8181
analysis:
  monthly_units_per_dish: 250
  ranking:
    version: v2
    price_change: [compatibility, cost_delta]
    supply_delay: [lead_time_delta]
    baseline: [cost_delta]
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8181, cfg.Server.Port)
	assert.Equal(t, 9090, cfg.Server.MetricsPort)
	assert.Equal(t, 250, cfg.Analysis.MonthlyUnitsPerDish)
	assert.Equal(t, []substitution.SortKey{substitution.KeyCompatibility, substitution.KeyCostDelta}, cfg.Analysis.Ranking.PriceChange)

	opts, err := cfg.AnalysisOptions()
	require.NoError(t, err)
	assert.Equal(t, 250, opts.Costs.MonthlyUnitsPerDish)
	assert.Equal(t, "v2", opts.Recommender.Ranking().Version)
}

func TestLoadRejectsBadRiskTable(t *testing.T) {
	path := writeConfig(t, `
analysis:
  risk_table:
    version: v9
    rows:
      - {metric: rainfall, threshold: 3, tier: high}
`)
	_, err := Load(path)
	var cfgErr *risk.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestLoadRiskTablePath(t *testing.T) {
	dir := t.TempDir()
	tablePath := filepath.Join(dir, "risk.yaml")
	require.NoError(t, os.WriteFile(tablePath, []byte("version: strict\nrows:\n  - {metric: affected_dishes, threshold: 1, tier: high}\n"), 0o644))
	path := writeConfig(t, "analysis:\n  risk_table_path: "+tablePath+"\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "strict", cfg.Analysis.RiskTable.Version)
}

func TestLoadRejectsBadValues(t *testing.T) {
	testCases := map[string]string{
		"port":   "server:\n  port: 70000\n",
		"source": "data:\n  source: ftp\n",
		"limits": "analysis:\n  limits:\n    max_percent_increase: 0\n",
		"yaml":   "server: [\n",
	}
	for name, body := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"DATA_PATH":    "/srv/menu",
		"OLLAMA_URL":   "http://ollama:11434",
		"OLLAMA_MODEL": "llama3.1:8b",
		"JWT_SECRET":   "s3cret",
	}
	cfg := Default()
	cfg.applyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})

	assert.Equal(t, "/srv/menu", cfg.Data.Path)
	assert.Equal(t, "http://ollama:11434", cfg.Parser.BaseURL)
	assert.Equal(t, "llama3.1:8b", cfg.Parser.Model)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, parser.ProviderOllama, cfg.Parser.Provider)
}

func TestApplyEnvOpenAIKeySwitchesProvider(t *testing.T) {
	cfg := Default()
	cfg.applyEnv(func(k string) (string, bool) {
		if k == "OPENAI_API_KEY" {
			return "sk-test", true
		}
		return "", false
	})

	assert.Equal(t, parser.ProviderOpenAI, cfg.Parser.Provider)
	assert.Equal(t, "sk-test", cfg.Parser.APIKey)
}
