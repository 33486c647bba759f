package chatbot

import (
	"sync/atomic"
	"time"
)

// Analytics holds the process-wide chat counters. Counters are independent
// atomics; a snapshot taken under load may be momentarily inconsistent.
type Analytics struct {
	requests           atomic.Int64
	errors             atomic.Int64
	ruleBasedResponses atomic.Int64
	geminiResponses    atomic.Int64
	cacheHitsIntent    atomic.Int64
	cacheHitsGemini    atomic.Int64

	started time.Time
}

type AnalyticsSnapshot struct {
	Requests           int64   `json:"requests"`
	Errors             int64   `json:"errors"`
	RuleBasedResponses int64   `json:"ruleBasedResponses"`
	GeminiResponses    int64   `json:"geminiResponses"`
	CacheHitsIntent    int64   `json:"cacheHitsIntent"`
	CacheHitsGemini    int64   `json:"cacheHitsGemini"`
	Uptime             float64 `json:"uptime"`
}

func NewAnalytics() *Analytics {
	return &Analytics{started: time.Now()}
}

func (a *Analytics) Snapshot() AnalyticsSnapshot {
	return AnalyticsSnapshot{
		Requests:           a.requests.Load(),
		Errors:             a.errors.Load(),
		RuleBasedResponses: a.ruleBasedResponses.Load(),
		GeminiResponses:    a.geminiResponses.Load(),
		CacheHitsIntent:    a.cacheHitsIntent.Load(),
		CacheHitsGemini:    a.cacheHitsGemini.Load(),
		Uptime:             a.Uptime().Seconds(),
	}
}

func (a *Analytics) Uptime() time.Duration {
	return time.Since(a.started)
}
