// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Cache         CacheConfig         `mapstructure:"cache"`
	NLP           NLPConfig           `mapstructure:"nlp"`
	APIs          APIsConfig          `mapstructure:"apis"`
	Chatbot       ChatbotConfig       `mapstructure:"chatbot"`
	Auth          AuthConfig          `mapstructure:"auth"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// IsDevelopment reports whether debugging detail may be returned to callers.
func (a AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

type ServerConfig struct {
	Port            int      `mapstructure:"port"`
	BasePath        string   `mapstructure:"base_path"`
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	ReadTimeout     int      `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int      `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int      `mapstructure:"shutdown_timeout"` // milliseconds
}

// GetAddress returns the listen address for the HTTP server.
func (s ServerConfig) GetAddress() string {
	return fmt.Sprintf(":%d", s.Port)
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
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
	QueryTimeout   int    `mapstructure:"query_timeout"` // milliseconds
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// IsConfigured reports whether enough settings exist to attempt a connection.
func (p PostgresConfig) IsConfigured() bool {
	return p.Host != "" && p.Database != "" && p.User != ""
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CacheConfig holds TTLs for the two cache tiers. All values are seconds.
type CacheConfig struct {
	Prefix           string `mapstructure:"prefix"`
	MemoryTTL        int    `mapstructure:"memory_ttl"`
	MemoryMaxEntries int    `mapstructure:"memory_max_entries"`
	PromotionTTL     int    `mapstructure:"promotion_ttl"`
	IntentTTL        int    `mapstructure:"intent_ttl"`
	ResponseTTL      int    `mapstructure:"response_ttl"`
}

// NLPConfig selects and tunes the intent classifier.
type NLPConfig struct {
	Provider            string  `mapstructure:"provider"` // keyword | remote | openai
	BaseURL             string  `mapstructure:"base_url"`
	Timeout             int     `mapstructure:"timeout"` // milliseconds
	MaxRetries          int     `mapstructure:"max_retries"`
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold"`

	OpenAI struct {
		APIKey      string  `mapstructure:"api_key"`
		Model       string  `mapstructure:"model"`
		MaxTokens   int     `mapstructure:"max_tokens"`
		Temperature float64 `mapstructure:"temperature"`
	} `mapstructure:"openai"`
}

// APIsConfig holds settings for external API integrations.
type APIsConfig struct {
	Gemini struct {
		BaseURL           string `mapstructure:"base_url"`
		APIKey            string `mapstructure:"api_key"`
		Model             string `mapstructure:"model"`
		Timeout           int    `mapstructure:"timeout"` // milliseconds
		MaxRetries        int    `mapstructure:"max_retries"`
		RequestsPerMinute int    `mapstructure:"requests_per_minute"`
	} `mapstructure:"gemini"`
}

// ChatbotConfig holds request policy for the orchestrator.
type ChatbotConfig struct {
	MaxMessageLength int `mapstructure:"max_message_length"`
}

// AuthConfig selects how caller identity is resolved.
type AuthConfig struct {
	Mode string `mapstructure:"mode"` // header | keycloak

	Keycloak struct {
		URL          string `mapstructure:"url"`
		Realm        string `mapstructure:"realm"`
		ClientID     string `mapstructure:"client_id"`
		ClientSecret string `mapstructure:"client_secret"`
		AdminRole    string `mapstructure:"admin_role"`
	} `mapstructure:"keycloak"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// ObservabilityConfig holds metrics and tracing settings.
type ObservabilityConfig struct {
	ServiceName    string `mapstructure:"service_name"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}
