package cache

import "time"

type Config struct {
	Prefix           string
	MemoryTTL        time.Duration
	MemoryMaxEntries int
	PromotionTTL     time.Duration
	IntentTTL        time.Duration
	ResponseTTL      time.Duration
	SweepInterval    time.Duration
	OperationTimeout time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		Prefix:           "chatbot:",
		MemoryTTL:        15 * time.Minute,
		MemoryMaxEntries: 10000,
		PromotionTTL:     5 * time.Minute,
		IntentTTL:        2 * time.Hour,
		ResponseTTL:      30 * time.Minute,
		SweepInterval:    time.Minute,
		OperationTimeout: 500 * time.Millisecond,
	}
}
