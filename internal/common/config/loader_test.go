package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const minimalConfig = `
camunda:
  broker_address: localhost:26500
database:
  redis:
    address: localhost:6379
`

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("NEXT_PUBLIC_OPENAI_API_KEY", "")

	cfg, err := LoadFromFile(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "admissions-workers", cfg.App.Name)
	assert.Equal(t, cfg.App.Name, cfg.Observability.ServiceName)
	assert.Equal(t, KnowledgeSourceFile, cfg.Knowledge.Source)
	assert.Equal(t, "knowledge", cfg.Knowledge.Dir)
	assert.Equal(t, []string{"openrouter", "openai", "groq", "lmstudio"}, cfg.Providers.Order)
	assert.Equal(t, "whisper-1", cfg.Providers.OpenAI.TranscriptionModel)
	assert.Equal(t, "http://localhost:1234/v1", cfg.Providers.LMStudio.BaseURL)
	assert.Equal(t, "browser", cfg.Settings.VoiceProvider)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 30*time.Minute, GetDuration(cfg.Cache.ResultTTL))
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Empty(t, cfg.Providers.OpenAI.APIKey)
}

func TestLoadFromFile_ExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_ZEEBE_ADDRESS", "zeebe:26500")
	t.Setenv("OPENROUTER_API_KEY", "or-from-env")

	cfg, err := LoadFromFile(writeConfig(t, `
camunda:
  broker_address: ${TEST_ZEEBE_ADDRESS}
database:
  redis:
    address: redis:6379
`))
	require.NoError(t, err)

	assert.Equal(t, "zeebe:26500", cfg.Camunda.BrokerAddress)
	assert.Equal(t, "or-from-env", cfg.Providers.OpenRouter.APIKey)
}

func TestLoadFromFile_ExplicitValueWinsOverEnvironment(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "from-env")

	cfg, err := LoadFromFile(writeConfig(t, minimalConfig+`
providers:
  groq:
    api_key: from-file
`))
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Providers.Groq.APIKey)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "missing broker",
			body:    "database:\n  redis:\n    address: localhost:6379\n",
			wantErr: "camunda.broker_address is required",
		},
		{
			name:    "missing redis",
			body:    "camunda:\n  broker_address: localhost:26500\n",
			wantErr: "database.redis.address is required",
		},
		{
			name:    "postgres source without host",
			body:    minimalConfig + "knowledge:\n  source: postgres\n",
			wantErr: "required for postgres knowledge source",
		},
		{
			name:    "elasticsearch source without addresses",
			body:    minimalConfig + "knowledge:\n  source: elasticsearch\n",
			wantErr: "required for elasticsearch knowledge source",
		},
		{
			name:    "unknown source",
			body:    minimalConfig + "knowledge:\n  source: sqlite\n",
			wantErr: `knowledge.source "sqlite" is not supported`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestGetWorkerConfig(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, minimalConfig+`
workers:
  rank-knowledge-base:
    enabled: false
  analyze-quiz-response:
    enabled: true
    timeout: 90000
`))
	require.NoError(t, err)

	rank := GetWorkerConfig(cfg, "rank-knowledge-base")
	assert.False(t, rank.Enabled)
	assert.Equal(t, 5, rank.MaxJobsActive)
	assert.False(t, IsWorkerEnabled(cfg, "rank-knowledge-base"))

	analyze := GetWorkerConfig(cfg, "analyze-quiz-response")
	assert.Equal(t, 90000, analyze.Timeout)
	assert.Equal(t, 3, analyze.MaxRetries)

	unknown := GetWorkerConfig(cfg, "send-tour-notification")
	assert.True(t, unknown.Enabled)
	assert.Equal(t, 30000, unknown.Timeout)
	assert.True(t, IsWorkerEnabled(cfg, "send-tour-notification"))
}

func TestLoadFromFile_ShippedConfig(t *testing.T) {
	t.Setenv("ZEEBE_ADDRESS", "localhost:26500")
	t.Setenv("REDIS_ADDRESS", "localhost:6379")

	cfg, err := LoadFromFile(filepath.Join("..", "..", "..", "configs", "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "localhost:26500", cfg.Camunda.BrokerAddress)
	assert.Len(t, cfg.Workers, 4)
	assert.True(t, IsWorkerEnabled(cfg, "transcribe-voice-note"))
	assert.Equal(t, "kb", cfg.Database.Elasticsearch.IndexPrefix)
}

func TestPostgresConfig_GetDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, User: "kb", Password: "secret", Database: "admissions", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=kb password=secret dbname=admissions sslmode=disable", p.GetDSN())
}
