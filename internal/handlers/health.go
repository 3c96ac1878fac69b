// internal/handlers/health.go
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/stock-ledger/internal/core/ports"
	"github.com/ammerola/stock-ledger/internal/pkg/config"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
	statusDisabled  = "disabled"
	statusDegraded  = "degraded"
)

// QueueInspector is the part of *asynq.Inspector the health check reads.
type QueueInspector interface {
	Queues() ([]string, error)
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
}

// HealthHandler handles health check endpoints. Any dependency may be nil
// when the process runs without it; it is then reported as disabled.
type HealthHandler struct {
	db        ports.Database
	cache     ports.CacheRepository
	queues    QueueInspector
	config    *config.Config
	logger    *slog.Logger
	startTime time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(
	database ports.Database,
	cache ports.CacheRepository,
	queues QueueInspector,
	cfg *config.Config,
	logger *slog.Logger,
) *HealthHandler {
	return &HealthHandler{
		db:        database,
		cache:     cache,
		queues:    queues,
		config:    cfg,
		logger:    logger.With(slog.String("handler", "health")),
		startTime: time.Now(),
	}
}

// HealthStatus represents the health status of the application
type HealthStatus struct {
	Status        string                 `json:"status"`
	Version       string                 `json:"version"`
	Environment   string                 `json:"environment"`
	StorageDriver string                 `json:"storage_driver"`
	Uptime        string                 `json:"uptime"`
	Timestamp     time.Time              `json:"timestamp"`
	Services      map[string]ServiceInfo `json:"services"`
	System        SystemInfo             `json:"system"`
}

// ServiceInfo represents the status of a service dependency
type ServiceInfo struct {
	Status       string         `json:"status"`
	Message      string         `json:"message,omitempty"`
	ResponseTime string         `json:"response_time,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
}

// SystemInfo represents system-level information
type SystemInfo struct {
	GoVersion      string `json:"go_version"`
	NumGoroutines  int    `json:"num_goroutines"`
	NumCPU         int    `json:"num_cpu"`
	MemoryAllocMB  uint64 `json:"memory_alloc_mb"`
	MemorySysMB    uint64 `json:"memory_sys_mb"`
	GCPauseTotalMs uint64 `json:"gc_pause_total_ms"`
	NumGC          uint32 `json:"num_gc"`
}

// Health handles the /health endpoint
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := HealthStatus{
		Status:        statusHealthy,
		Version:       h.config.App.Version,
		Environment:   h.config.App.Environment,
		StorageDriver: h.config.Ledger.StorageDriver,
		Uptime:        time.Since(h.startTime).Round(time.Second).String(),
		Timestamp:     time.Now(),
		Services: map[string]ServiceInfo{
			"database": h.checkDatabase(ctx),
			"redis":    h.checkCache(ctx),
			"asynq":    h.checkQueues(ctx),
		},
		System: h.getSystemInfo(),
	}

	for _, svc := range health.Services {
		if svc.Status == statusUnhealthy {
			health.Status = statusDegraded
		}
	}

	statusCode := http.StatusOK
	if health.Status == statusDegraded {
		statusCode = http.StatusServiceUnavailable
	}

	h.write(ctx, w, statusCode, health)
}

// Readiness handles the /ready endpoint. Only the stores the ledger cannot
// run without are consulted.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ready := true
	details := map[string]string{"database": statusDisabled, "redis": statusDisabled}

	if h.db != nil {
		details["database"] = "ready"
		if err := h.db.Ping(ctx); err != nil {
			ready = false
			details["database"] = "not ready"
		}
	}

	if h.cache != nil {
		details["redis"] = "ready"
		if err := h.cache.Ping(ctx); err != nil {
			ready = false
			details["redis"] = "not ready"
		}
	}

	statusCode := http.StatusOK
	if !ready {
		statusCode = http.StatusServiceUnavailable
	}

	h.write(ctx, w, statusCode, map[string]any{
		"ready":   ready,
		"details": details,
	})
}

func (h *HealthHandler) write(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.ErrorContext(ctx, "failed to encode health response",
			slog.String("error", err.Error()))
	}
}

func (h *HealthHandler) checkDatabase(ctx context.Context) ServiceInfo {
	if h.db == nil {
		return ServiceInfo{Status: statusDisabled}
	}

	start := time.Now()
	if err := h.db.Ping(ctx); err != nil {
		h.logger.ErrorContext(ctx, "database health check failed",
			slog.String("error", err.Error()))
		return ServiceInfo{Status: statusUnhealthy, Message: err.Error()}
	}

	return ServiceInfo{
		Status:       statusHealthy,
		Details:      h.db.Health(ctx),
		ResponseTime: time.Since(start).String(),
	}
}

func (h *HealthHandler) checkCache(ctx context.Context) ServiceInfo {
	if h.cache == nil {
		return ServiceInfo{Status: statusDisabled}
	}

	start := time.Now()
	if err := h.cache.Ping(ctx); err != nil {
		h.logger.ErrorContext(ctx, "redis health check failed",
			slog.String("error", err.Error()))
		return ServiceInfo{Status: statusUnhealthy, Message: err.Error()}
	}

	return ServiceInfo{Status: statusHealthy, ResponseTime: time.Since(start).String()}
}

func (h *HealthHandler) checkQueues(ctx context.Context) ServiceInfo {
	if h.queues == nil {
		return ServiceInfo{Status: statusDisabled}
	}

	start := time.Now()
	queues, err := h.queues.Queues()
	if err != nil {
		h.logger.ErrorContext(ctx, "asynq health check failed",
			slog.String("error", err.Error()))
		return ServiceInfo{Status: statusUnhealthy, Message: err.Error()}
	}

	stats := make(map[string]any, len(queues))
	for _, queue := range queues {
		qInfo, err := h.queues.GetQueueInfo(queue)
		if err != nil {
			continue
		}
		stats[queue] = map[string]any{
			"size":      qInfo.Size,
			"active":    qInfo.Active,
			"pending":   qInfo.Pending,
			"scheduled": qInfo.Scheduled,
			"retry":     qInfo.Retry,
			"archived":  qInfo.Archived,
		}
	}

	return ServiceInfo{
		Status:       statusHealthy,
		Details:      map[string]any{"queues": stats},
		ResponseTime: time.Since(start).String(),
	}
}

func (h *HealthHandler) getSystemInfo() SystemInfo {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return SystemInfo{
		GoVersion:      runtime.Version(),
		NumGoroutines:  runtime.NumGoroutine(),
		NumCPU:         runtime.NumCPU(),
		MemoryAllocMB:  memStats.Alloc / 1024 / 1024,
		MemorySysMB:    memStats.Sys / 1024 / 1024,
		GCPauseTotalMs: memStats.PauseTotalNs / 1000 / 1000,
		NumGC:          memStats.NumGC,
	}
}
