package chatbot

import (
	"context"
	"runtime"
	"time"

	"vanlang-chatbot/internal/cache"
	"vanlang-chatbot/internal/models"
)

type MemoryStats struct {
	Alloc      uint64 `json:"alloc"`
	HeapAlloc  uint64 `json:"heapAlloc"`
	Sys        uint64 `json:"sys"`
	NumGC      uint32 `json:"numGC"`
	Goroutines int    `json:"goroutines"`
}

type AnalyticsReport struct {
	ControllerAnalytics AnalyticsSnapshot `json:"controllerAnalytics"`
	Cache               cache.Stats       `json:"cache"`
	Uptime              float64           `json:"uptime"`
	Memory              MemoryStats       `json:"memory"`
}

type HealthReport struct {
	Status    string                          `json:"status"`
	Timestamp time.Time                       `json:"timestamp"`
	Services  map[string]models.ServiceHealth `json:"services"`
}

type SystemStatus struct {
	Server      ServerStatus      `json:"server"`
	Environment EnvironmentStatus `json:"environment"`
	Services    map[string]string `json:"services"`
	Timestamp   time.Time         `json:"timestamp"`
}

type ServerStatus struct {
	Uptime     float64     `json:"uptime"`
	MemoryUsed MemoryStats `json:"memoryUsed"`
	NumCPU     int         `json:"numCPU"`
	GoVersion  string      `json:"goVersion"`
	Platform   string      `json:"platform"`
}

type EnvironmentStatus struct {
	Environment     string `json:"environment"`
	Version         string `json:"version,omitempty"`
	GeminiModelUsed string `json:"geminiModelUsed"`
	HasGeminiAPIKey bool   `json:"hasGeminiApiKey"`
	Database        string `json:"database"`
}

func (o *Orchestrator) GetAnalytics(_ context.Context) AnalyticsReport {
	snapshot := o.analytics.Snapshot()
	return AnalyticsReport{
		ControllerAnalytics: snapshot,
		Cache:               o.cache.GetStats(),
		Uptime:              snapshot.Uptime,
		Memory:              readMemory(),
	}
}

// HealthCheck is degraded whenever the generator is not healthy; the other
// collaborators are reported but do not change the verdict.
func (o *Orchestrator) HealthCheck(ctx context.Context) HealthReport {
	services := map[string]models.ServiceHealth{
		"nlp":     o.classifier.Health(ctx),
		"cache":   o.cache.Health(ctx),
		"gemini":  o.generator.Health(ctx),
		"chatbot": {Status: models.StatusHealthy},
	}
	if o.finance != nil {
		services["finance"] = o.finance.Health(ctx)
	}

	status := models.StatusHealthy
	if services["gemini"].Status != models.StatusHealthy {
		status = models.StatusDegraded
	}

	return HealthReport{
		Status:    status,
		Timestamp: o.now().UTC(),
		Services:  services,
	}
}

func (o *Orchestrator) GetSystemStatus(ctx context.Context) SystemStatus {
	database := "missing"
	if o.config.DatabaseConfigured {
		database = "configured"
	}

	services := map[string]string{
		"chatbotService": "active",
		"nlpService":     serviceState(o.classifier.Health(ctx)),
		"cacheService":   serviceState(o.cache.Health(ctx)),
		"geminiService":  o.generator.Health(ctx).Status,
	}
	if o.finance != nil {
		services["financeService"] = serviceState(o.finance.Health(ctx))
	}

	return SystemStatus{
		Server: ServerStatus{
			Uptime:     o.analytics.Uptime().Seconds(),
			MemoryUsed: readMemory(),
			NumCPU:     runtime.NumCPU(),
			GoVersion:  runtime.Version(),
			Platform:   runtime.GOOS + "/" + runtime.GOARCH,
		},
		Environment: EnvironmentStatus{
			Environment:     o.config.Environment,
			Version:         o.config.Version,
			GeminiModelUsed: o.generator.Model(),
			HasGeminiAPIKey: o.generator.HasAPIKey(),
			Database:        database,
		},
		Services:  services,
		Timestamp: o.now().UTC(),
	}
}

func (o *Orchestrator) ClearCache(ctx context.Context) error {
	if err := o.cache.ClearAll(ctx); err != nil {
		o.logger.Error("failed to clear caches", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}
	o.logger.Info("all caches cleared", nil)
	return nil
}

func serviceState(h models.ServiceHealth) string {
	if h.Status == models.StatusUnhealthy {
		return "unavailable"
	}
	return "active"
}

func readMemory() MemoryStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemoryStats{
		Alloc:      m.Alloc,
		HeapAlloc:  m.HeapAlloc,
		Sys:        m.Sys,
		NumGC:      m.NumGC,
		Goroutines: runtime.NumGoroutine(),
	}
}
