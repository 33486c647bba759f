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

const (
	ProviderKeyword = "keyword"
	ProviderRemote  = "remote"
	ProviderOpenAI  = "openai"

	AuthModeHeader   = "header"
	AuthModeKeycloak = "keycloak"
)

func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// environment overlay is optional
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	cfg, err := finalize(v)
	if err != nil {
		return nil, err
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = env
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finalize(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	// APIS_GEMINI_API_KEY overrides apis.gemini.api_key
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func finalize(v *viper.Viper) (*Config, error) {
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
			// unset placeholders collapse to "" so defaults and validation apply
			if expanded := os.ExpandEnv(strVal); expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig fills secrets from their conventional env var names.
func overrideEmptyConfig(cfg *Config) {
	setFromEnv(&cfg.APIs.Gemini.APIKey, "GEMINI_API_KEY")
	setFromEnv(&cfg.APIs.Gemini.Model, "GEMINI_MODEL_NAME")
	setFromEnv(&cfg.NLP.OpenAI.APIKey, "OPENAI_API_KEY")
	setFromEnv(&cfg.Database.Postgres.User, "DB_USER")
	setFromEnv(&cfg.Database.Postgres.Password, "DB_PASSWORD")
	setFromEnv(&cfg.Database.Redis.Password, "REDIS_PASSWORD")
	setFromEnv(&cfg.Auth.Keycloak.ClientSecret, "KEYCLOAK_CLIENT_SECRET")
}

func setFromEnv(target *string, envName string) {
	if *target != "" {
		return
	}
	if val := os.Getenv(envName); val != "" {
		*target = val
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "vanlang-chatbot"
	}
	if cfg.App.Version == "" {
		cfg.App.Version = "1.0.0"
	}

	// Server defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.BasePath == "" {
		cfg.Server.BasePath = "/api/chatbot"
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 90000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30000
	}

	// Database defaults
	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Postgres.QueryTimeout == 0 {
		cfg.Database.Postgres.QueryTimeout = 5000
	}

	// Cache defaults (seconds)
	if cfg.Cache.Prefix == "" {
		cfg.Cache.Prefix = "chatbot:"
	}
	if cfg.Cache.MemoryTTL == 0 {
		cfg.Cache.MemoryTTL = 900
	}
	if cfg.Cache.MemoryMaxEntries == 0 {
		cfg.Cache.MemoryMaxEntries = 10000
	}
	if cfg.Cache.PromotionTTL == 0 {
		cfg.Cache.PromotionTTL = 300
	}
	if cfg.Cache.IntentTTL == 0 {
		cfg.Cache.IntentTTL = 7200
	}
	if cfg.Cache.ResponseTTL == 0 {
		cfg.Cache.ResponseTTL = 1800
	}

	// NLP defaults
	if cfg.NLP.Provider == "" {
		cfg.NLP.Provider = ProviderKeyword
	}
	if cfg.NLP.Timeout == 0 {
		cfg.NLP.Timeout = 5000
	}
	if cfg.NLP.MaxRetries == 0 {
		cfg.NLP.MaxRetries = 2
	}
	if cfg.NLP.ConfidenceThreshold == 0 {
		cfg.NLP.ConfidenceThreshold = 0.5
	}
	if cfg.NLP.OpenAI.Model == "" {
		cfg.NLP.OpenAI.Model = "gpt-4o-mini"
	}
	if cfg.NLP.OpenAI.MaxTokens == 0 {
		cfg.NLP.OpenAI.MaxTokens = 150
	}

	// Gemini defaults
	if cfg.APIs.Gemini.BaseURL == "" {
		cfg.APIs.Gemini.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.APIs.Gemini.Timeout == 0 {
		cfg.APIs.Gemini.Timeout = 30000
	}
	if cfg.APIs.Gemini.MaxRetries == 0 {
		cfg.APIs.Gemini.MaxRetries = 3
	}
	if cfg.APIs.Gemini.RequestsPerMinute == 0 {
		cfg.APIs.Gemini.RequestsPerMinute = 60
	}

	if cfg.Chatbot.MaxMessageLength == 0 {
		cfg.Chatbot.MaxMessageLength = 1000
	}

	if cfg.Auth.Mode == "" {
		cfg.Auth.Mode = AuthModeHeader
	}
	if cfg.Auth.Keycloak.AdminRole == "" {
		cfg.Auth.Keycloak.AdminRole = "admin"
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = cfg.App.Name
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}

	if cfg.Database.Redis.Enabled && cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required when redis is enabled")
	}

	switch cfg.NLP.Provider {
	case ProviderKeyword:
	case ProviderRemote:
		if cfg.NLP.BaseURL == "" {
			return fmt.Errorf("nlp.base_url is required for the remote provider")
		}
	case ProviderOpenAI:
		if cfg.NLP.OpenAI.APIKey == "" {
			return fmt.Errorf("nlp.openai.api_key is required for the openai provider")
		}
	default:
		return fmt.Errorf("nlp.provider %q is not supported", cfg.NLP.Provider)
	}

	if cfg.NLP.ConfidenceThreshold < 0 || cfg.NLP.ConfidenceThreshold > 1 {
		return fmt.Errorf("nlp.confidence_threshold must be between 0 and 1")
	}

	switch cfg.Auth.Mode {
	case AuthModeHeader:
	case AuthModeKeycloak:
		if cfg.Auth.Keycloak.URL == "" || cfg.Auth.Keycloak.Realm == "" || cfg.Auth.Keycloak.ClientID == "" {
			return fmt.Errorf("auth.keycloak url, realm and client_id are required in keycloak mode")
		}
	default:
		return fmt.Errorf("auth.mode %q is not supported", cfg.Auth.Mode)
	}

	return nil
}

// Warnings lists settings that load fine but are unsafe for the environment.
func Warnings(cfg *Config) []string {
	var out []string
	if cfg.Auth.Mode == AuthModeHeader && !cfg.App.IsDevelopment() {
		out = append(out, fmt.Sprintf(
			"auth.mode is %q in %q: X-User-ID and X-User-Role are trusted as sent, so the service must sit behind a gateway that sets them; use %q otherwise",
			AuthModeHeader, cfg.App.Environment, AuthModeKeycloak))
	}
	return out
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetSeconds converts seconds from config to time.Duration
func GetSeconds(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}
