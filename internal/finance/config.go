// internal/finance/config.go
package finance

import "time"

type Config struct {
	// QueryTimeout bounds the five aggregate queries together.
	QueryTimeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		QueryTimeout: 5 * time.Second,
	}
}

func (c *Config) withDefaults() *Config {
	out := *c
	if out.QueryTimeout <= 0 {
		out.QueryTimeout = 5 * time.Second
	}
	return &out
}
