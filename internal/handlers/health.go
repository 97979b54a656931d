package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"shoppinglist/internal/persist"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	healthCheckTimeout = 2 * time.Second
	probeKey           = "health:probe"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	kv        persist.KVStore
	db        *gorm.DB // set for the sqlite and postgres backends
	version   string
	startTime time.Time
}

// NewHealthHandler creates a health handler for the given persistence backend
func NewHealthHandler(kv persist.KVStore, version string) *HealthHandler {
	h := &HealthHandler{
		kv:        kv,
		version:   version,
		startTime: time.Now(),
	}
	if gormKV, ok := kv.(*persist.GormKV); ok {
		h.db = gormKV.DB()
	}
	return h
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Uptime    string                 `json:"uptime"`
	Version   string                 `json:"version"`
	Checks    map[string]HealthCheck `json:"checks"`
}

// HealthCheck represents an individual health check
type HealthCheck struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// BasicHealth handles GET /health
func (h *HealthHandler) BasicHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}

// DetailedHealth handles GET /health/detailed. It answers 503 when the
// persistence backend is unusable.
func (h *HealthHandler) DetailedHealth(c *gin.Context) {
	checks := make(map[string]HealthCheck)
	overallStatus := "healthy"

	persistenceCheck := h.checkPersistence(c.Request.Context())
	checks["persistence"] = persistenceCheck
	if persistenceCheck.Status != "healthy" {
		overallStatus = "unhealthy"
	}

	if h.db != nil {
		checks["migrations"] = h.checkMigrations()
	}
	checks["system"] = h.getSystemInfo()

	response := HealthResponse{
		Status:    overallStatus,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    formatDuration(time.Since(h.startTime)),
		Version:   h.version,
		Checks:    checks,
	}

	if overallStatus == "unhealthy" {
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}
	c.JSON(http.StatusOK, response)
}

// ReadinessProbe handles GET /health/ready
func (h *HealthHandler) ReadinessProbe(c *gin.Context) {
	check := h.checkPersistence(c.Request.Context())
	if check.Status != "healthy" {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "not_ready",
			"reason":  "persistence_unavailable",
			"message": check.Message,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// LivenessProbe handles GET /health/live
func (h *HealthHandler) LivenessProbe(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}

// checkPersistence pings the database backends and round-trips a probe
// record through the others
func (h *HealthHandler) checkPersistence(ctx context.Context) HealthCheck {
	if h.kv == nil {
		return HealthCheck{
			Status:  "unhealthy",
			Message: "Persistence backend not initialized",
		}
	}
	if h.db != nil {
		return h.checkDatabase(ctx)
	}
	return h.probeKV(ctx)
}

func (h *HealthHandler) checkDatabase(ctx context.Context) HealthCheck {
	sqlDB, err := h.db.DB()
	if err != nil {
		return HealthCheck{
			Status:  "unhealthy",
			Message: "Failed to get database instance",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return HealthCheck{
			Status:  "unhealthy",
			Message: "Database ping failed",
			Details: map[string]interface{}{
				"error": err.Error(),
			},
		}
	}

	stats := sqlDB.Stats()
	return HealthCheck{
		Status:  "healthy",
		Message: "Database connection is healthy",
		Details: map[string]interface{}{
			"backend":          h.db.Dialector.Name(),
			"open_connections": stats.OpenConnections,
			"in_use":           stats.InUse,
			"idle":             stats.Idle,
			"wait_count":       stats.WaitCount,
			"wait_duration_ms": stats.WaitDuration.Milliseconds(),
		},
	}
}

func (h *HealthHandler) probeKV(ctx context.Context) HealthCheck {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	unhealthy := func(message string, err error) HealthCheck {
		return HealthCheck{
			Status:  "unhealthy",
			Message: message,
			Details: map[string]interface{}{"error": err.Error()},
		}
	}

	start := time.Now()
	want := []byte(strconv.FormatInt(start.UnixNano(), 10))

	if err := h.kv.SetItem(ctx, probeKey, want); err != nil {
		return unhealthy("Storage write failed", err)
	}
	got, err := h.kv.GetItem(ctx, probeKey)
	if err != nil {
		return unhealthy("Storage read failed", err)
	}
	if err := h.kv.RemoveItem(ctx, probeKey); err != nil {
		return unhealthy("Storage remove failed", err)
	}
	if !bytes.Equal(want, got) {
		return HealthCheck{
			Status:  "unhealthy",
			Message: "Storage returned a different value than written",
		}
	}

	return HealthCheck{
		Status:  "healthy",
		Message: "Storage round trip succeeded",
		Details: map[string]interface{}{
			"backend":    fmt.Sprintf("%T", h.kv),
			"latency_ms": time.Since(start).Milliseconds(),
		},
	}
}

// checkMigrations reports the golang-migrate version on PostgreSQL
func (h *HealthHandler) checkMigrations() HealthCheck {
	if h.db == nil {
		return HealthCheck{
			Status:  "unknown",
			Message: "Database not available",
		}
	}

	var exists bool
	err := h.db.Raw(`
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_name = 'schema_migrations'
		)
	`).Scan(&exists).Error
	if err != nil || !exists {
		return HealthCheck{
			Status:  "unknown",
			Message: "Migration table not found",
		}
	}

	var version uint
	var dirty bool
	err = h.db.Raw(`
		SELECT version, dirty
		FROM schema_migrations
		LIMIT 1
	`).Row().Scan(&version, &dirty)
	if err != nil {
		return HealthCheck{
			Status:  "unknown",
			Message: "Could not read migration status",
		}
	}

	if dirty {
		return HealthCheck{
			Status:  "warning",
			Message: "Database is in dirty state - manual intervention required",
			Details: map[string]interface{}{"version": version, "dirty": dirty},
		}
	}
	return HealthCheck{
		Status:  "healthy",
		Message: "Migrations are up to date",
		Details: map[string]interface{}{"version": version, "dirty": dirty},
	}
}

func (h *HealthHandler) getSystemInfo() HealthCheck {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return HealthCheck{
		Status:  "info",
		Message: "System information",
		Details: map[string]interface{}{
			"goroutines":      runtime.NumGoroutine(),
			"memory_alloc_mb": m.Alloc / 1024 / 1024,
			"memory_sys_mb":   m.Sys / 1024 / 1024,
			"num_gc":          m.NumGC,
			"go_version":      runtime.Version(),
		},
	}
}

// formatDuration formats a duration as "1d 2h 3m 4s", dropping leading zero units
func formatDuration(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}
