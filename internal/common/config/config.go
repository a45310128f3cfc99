// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Knowledge     KnowledgeConfig         `mapstructure:"knowledge"`
	Providers     ProvidersConfig         `mapstructure:"providers"`
	Settings      SettingsConfig          `mapstructure:"settings"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Cache         CacheConfig             `mapstructure:"cache"`
	Server        ServerConfig            `mapstructure:"server"`
	Observability ObservabilityConfig     `mapstructure:"observability"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Logging       LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	SiteURL     string `mapstructure:"site_url"`
	SchoolName  string `mapstructure:"school_name"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses   []string `mapstructure:"addresses"`
	Username    string   `mapstructure:"username"`
	Password    string   `mapstructure:"password"`
	IndexPrefix string   `mapstructure:"index_prefix"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// --- Knowledge base ---

const (
	KnowledgeSourceFile          = "file"
	KnowledgeSourcePostgres      = "postgres"
	KnowledgeSourceElasticsearch = "elasticsearch"
)

// KnowledgeConfig selects where stories, faculty and facts are read from.
type KnowledgeConfig struct {
	Source   string `mapstructure:"source"`
	Dir      string `mapstructure:"dir"`
	CacheTTL int    `mapstructure:"cache_ttl"` // milliseconds
}

// --- Providers ---

type ProvidersConfig struct {
	Order      []string         `mapstructure:"order"`
	OpenRouter OpenRouterConfig `mapstructure:"openrouter"`
	OpenAI     HostedConfig     `mapstructure:"openai"`
	Groq       HostedConfig     `mapstructure:"groq"`
	LMStudio   LMStudioConfig   `mapstructure:"lmstudio"`
}

type OpenRouterConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
	Title   string `mapstructure:"title"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

// HostedConfig covers the OpenAI-compatible hosted completion APIs.
type HostedConfig struct {
	APIKey             string `mapstructure:"api_key"`
	BaseURL            string `mapstructure:"base_url"`
	Model              string `mapstructure:"model"`
	TranscriptionModel string `mapstructure:"transcription_model"`
	Timeout            int    `mapstructure:"timeout"` // milliseconds
}

type LMStudioConfig struct {
	BaseURL           string `mapstructure:"base_url"`
	RelayURL          string `mapstructure:"relay_url"`
	Model             string `mapstructure:"model"`
	ProbeTimeout      int    `mapstructure:"probe_timeout"`      // milliseconds
	CompletionTimeout int    `mapstructure:"completion_timeout"` // milliseconds
}

// SettingsConfig is the persisted provider/voice settings record.
type SettingsConfig struct {
	AIProvider    string `mapstructure:"ai_provider"`
	OpenAIKey     string `mapstructure:"openai_key"`
	GroqKey       string `mapstructure:"groq_key"`
	OpenRouterKey string `mapstructure:"openrouter_key"`
	LMStudioURL   string `mapstructure:"lmstudio_url"`
	VoiceEnabled  bool   `mapstructure:"voice_enabled"`
	VoiceProvider string `mapstructure:"voice_provider"`
}

// NotificationConfig holds settings for the send-tour-notification worker.
type NotificationConfig struct {
	Email struct {
		Enabled         bool   `mapstructure:"enabled"`
		FromEmail       string `mapstructure:"from_email"`
		AdmissionsEmail string `mapstructure:"admissions_email"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled         bool   `mapstructure:"enabled"`
		AdmissionsPhone string `mapstructure:"admissions_phone"`
	} `mapstructure:"sms"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

type CacheConfig struct {
	ResultTTL int `mapstructure:"result_ttl"` // milliseconds
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Mode    string `mapstructure:"mode"`
}

type ObservabilityConfig struct {
	ServiceName    string `mapstructure:"service_name"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
