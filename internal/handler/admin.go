package handler

import (
	"net/http"
	"runtime"
	"time"

	"itemmarket-rest-api/internal/market"
	"itemmarket-rest-api/internal/repository"
	"itemmarket-rest-api/internal/service"
	"itemmarket-rest-api/pkg/response"
)

// AdminHandler handles admin-related HTTP requests.
type AdminHandler struct {
	ledger    *market.Ledger
	repo      repository.MarketRepository
	sweeper   *service.ExpirySweeper
	dbType    string
	startTime time.Time
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(ledger *market.Ledger, repo repository.MarketRepository, sweeper *service.ExpirySweeper, dbType string) *AdminHandler {
	return &AdminHandler{
		ledger:    ledger,
		repo:      repo,
		sweeper:   sweeper,
		dbType:    dbType,
		startTime: time.Now(),
	}
}

// GetStats handles GET /api/v1/admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats := make(map[string]interface{})

	// System info
	stats["uptime_seconds"] = int64(time.Since(h.startTime).Seconds())
	stats["uptime_human"] = time.Since(h.startTime).Round(time.Second).String()
	stats["server_time"] = time.Now().Format(time.RFC3339)
	stats["db_type"] = h.dbType

	// Memory stats
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	stats["memory"] = map[string]interface{}{
		"alloc_mb":      float64(memStats.Alloc) / 1024 / 1024,
		"sys_mb":        float64(memStats.Sys) / 1024 / 1024,
		"heap_alloc_mb": float64(memStats.HeapAlloc) / 1024 / 1024,
		"num_gc":        memStats.NumGC,
		"goroutines":    runtime.NumGoroutine(),
	}

	// Live market index
	if h.ledger != nil {
		stats["market"] = map[string]interface{}{
			"active_listings": h.ledger.ActiveCount(),
		}
	}

	// Store stats
	if h.repo != nil {
		dbStats, err := h.repo.GetStats(ctx)
		if err == nil {
			dbStats["status"] = "connected"
			stats["database"] = dbStats
		} else {
			stats["database"] = map[string]interface{}{
				"status": "error",
				"error":  err.Error(),
			}
		}
	} else {
		stats["database"] = map[string]interface{}{
			"status": "not_configured",
		}
	}

	// Runtime info
	stats["runtime"] = map[string]interface{}{
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"cpus":       runtime.NumCPU(),
	}

	response.OK(w, stats)
}

// TriggerSweep handles POST /api/v1/admin/sweep
func (h *AdminHandler) TriggerSweep(w http.ResponseWriter, r *http.Request) {
	retired := h.sweeper.RunNow()
	response.OK(w, map[string]interface{}{
		"retired": retired,
		"time":    time.Now().Format(time.RFC3339),
	})
}
