// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // environment overlay is optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

func setFromEnv(target *string, keys ...string) {
	if *target != "" {
		return
	}
	for _, key := range keys {
		if val := os.Getenv(key); val != "" {
			*target = val
			return
		}
	}
}

// overrideEmptyConfig fills secrets and endpoints that are still empty after expansion.
func overrideEmptyConfig(cfg *Config) {
	setFromEnv(&cfg.Providers.OpenRouter.APIKey, "OPENROUTER_API_KEY")
	setFromEnv(&cfg.Providers.OpenRouter.BaseURL, "OPENROUTER_BASE_URL")
	setFromEnv(&cfg.Providers.OpenRouter.Model, "OPENROUTER_MODEL")
	setFromEnv(&cfg.Providers.OpenAI.APIKey, "OPENAI_API_KEY", "NEXT_PUBLIC_OPENAI_API_KEY")
	setFromEnv(&cfg.Providers.Groq.APIKey, "GROQ_API_KEY", "NEXT_PUBLIC_GROQ_API_KEY")
	setFromEnv(&cfg.Providers.LMStudio.BaseURL, "LMSTUDIO_URL")
	setFromEnv(&cfg.Settings.AIProvider, "AI_PROVIDER")
	setFromEnv(&cfg.App.SiteURL, "SITE_URL", "NEXT_PUBLIC_SITE_URL")

	setFromEnv(&cfg.Database.Redis.Password, "REDIS_PASSWORD")
	setFromEnv(&cfg.Database.Postgres.User, "DB_USER")
	setFromEnv(&cfg.Database.Postgres.Password, "DB_PASSWORD")
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "admissions-workers"
	}
	if cfg.App.SchoolName == "" {
		cfg.App.SchoolName = "Saint Stephen's Episcopal School"
	}
	if cfg.App.SiteURL == "" {
		cfg.App.SiteURL = "https://visit.saintstephens.org"
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 10
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 2
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.IndexPrefix == "" {
		cfg.Database.Elasticsearch.IndexPrefix = "kb"
	}

	if cfg.Knowledge.Source == "" {
		cfg.Knowledge.Source = KnowledgeSourceFile
	}
	if cfg.Knowledge.Dir == "" {
		cfg.Knowledge.Dir = "knowledge"
	}
	if cfg.Knowledge.CacheTTL == 0 {
		cfg.Knowledge.CacheTTL = 300000
	}

	if len(cfg.Providers.Order) == 0 {
		cfg.Providers.Order = []string{"openrouter", "openai", "groq", "lmstudio"}
	}
	if cfg.Providers.OpenRouter.BaseURL == "" {
		cfg.Providers.OpenRouter.BaseURL = "https://openrouter.ai/api/v1"
	}
	if cfg.Providers.OpenRouter.Model == "" {
		cfg.Providers.OpenRouter.Model = "openai/gpt-4o-mini"
	}
	if cfg.Providers.OpenRouter.Title == "" {
		cfg.Providers.OpenRouter.Title = "Saint Stephens Tour Matching"
	}
	if cfg.Providers.OpenRouter.Timeout == 0 {
		cfg.Providers.OpenRouter.Timeout = 60000
	}
	if cfg.Providers.OpenAI.BaseURL == "" {
		cfg.Providers.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Providers.OpenAI.Model == "" {
		cfg.Providers.OpenAI.Model = "gpt-4o-mini"
	}
	if cfg.Providers.OpenAI.TranscriptionModel == "" {
		cfg.Providers.OpenAI.TranscriptionModel = "whisper-1"
	}
	if cfg.Providers.OpenAI.Timeout == 0 {
		cfg.Providers.OpenAI.Timeout = 60000
	}
	if cfg.Providers.Groq.BaseURL == "" {
		cfg.Providers.Groq.BaseURL = "https://api.groq.com/openai/v1"
	}
	if cfg.Providers.Groq.Model == "" {
		cfg.Providers.Groq.Model = "llama-3.1-8b-instant"
	}
	if cfg.Providers.Groq.TranscriptionModel == "" {
		cfg.Providers.Groq.TranscriptionModel = "whisper-large-v3"
	}
	if cfg.Providers.Groq.Timeout == 0 {
		cfg.Providers.Groq.Timeout = 60000
	}
	if cfg.Providers.LMStudio.BaseURL == "" {
		cfg.Providers.LMStudio.BaseURL = "http://localhost:1234/v1"
	}
	if cfg.Providers.LMStudio.ProbeTimeout == 0 {
		cfg.Providers.LMStudio.ProbeTimeout = 5000
	}
	if cfg.Providers.LMStudio.CompletionTimeout == 0 {
		cfg.Providers.LMStudio.CompletionTimeout = 30000
	}

	if cfg.Settings.VoiceProvider == "" {
		cfg.Settings.VoiceProvider = "browser"
	}

	if cfg.Notifications.AWS.Region == "" {
		cfg.Notifications.AWS.Region = "us-east-1"
	}

	if cfg.Cache.ResultTTL == 0 {
		cfg.Cache.ResultTTL = 1800000
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "release"
	}

	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = cfg.App.Name
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}

	if cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required")
	}

	switch cfg.Knowledge.Source {
	case KnowledgeSourceFile:
		if cfg.Knowledge.Dir == "" {
			return fmt.Errorf("knowledge.dir is required for file source")
		}
	case KnowledgeSourcePostgres:
		if cfg.Database.Postgres.Host == "" || cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.host and database are required for postgres knowledge source")
		}
	case KnowledgeSourceElasticsearch:
		if len(cfg.Database.Elasticsearch.Addresses) == 0 {
			return fmt.Errorf("database.elasticsearch.addresses is required for elasticsearch knowledge source")
		}
	default:
		return fmt.Errorf("knowledge.source %q is not supported", cfg.Knowledge.Source)
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}

	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
