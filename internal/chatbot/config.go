// internal/chatbot/config.go
package chatbot

import "time"

const (
	DefaultMaxMessageLength    = 1000
	DefaultConfidenceThreshold = 0.5
)

type Config struct {
	Environment      string
	Version          string
	MaxMessageLength int
	// ConfidenceThreshold is the minimum classifier confidence for a canned reply.
	ConfidenceThreshold float64
	// DatabaseConfigured is reported by GetSystemStatus.
	DatabaseConfigured bool
	Location           *time.Location
}

func LoadConfig() *Config {
	return &Config{
		Environment:         "production",
		MaxMessageLength:    DefaultMaxMessageLength,
		ConfidenceThreshold: DefaultConfidenceThreshold,
		Location:            time.Local,
	}
}

func (c *Config) withDefaults() *Config {
	out := *c
	if out.MaxMessageLength <= 0 {
		out.MaxMessageLength = DefaultMaxMessageLength
	}
	if out.ConfidenceThreshold < 0 {
		out.ConfidenceThreshold = 0
	}
	if out.Location == nil {
		out.Location = time.Local
	}
	return &out
}

func (c *Config) isDevelopment() bool {
	return c.Environment == "development"
}
