package aggregator

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/ObiAU/techpulse/internal/logger"
	"github.com/ObiAU/techpulse/internal/storage"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
)

type historyEntry struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	Pulse     json.RawMessage `json:"pulse"`
}

func (a *Aggregator) newServer() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	e.GET("/health", a.healthHandler)
	e.GET("/stats", a.statsHandler)
	e.GET("/api/pulse/latest", a.latestHandler)
	if history, ok := a.deps.Remote.(storage.History); ok {
		e.GET("/api/pulse/history", a.historyHandler(history))
	}
	if a.deps.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(a.deps.Metrics.Handler()))
	}

	return e
}

// Handler exposes the status routes, mainly for tests.
func (a *Aggregator) Handler() http.Handler {
	return a.server
}

func (a *Aggregator) healthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *Aggregator) statsHandler(c echo.Context) error {
	a.mu.RLock()
	stats := map[string]interface{}{
		"running":  a.running,
		"runs":     a.runs,
		"last_run": a.lastRun,
	}
	a.mu.RUnlock()

	stats["oracle_enabled"] = a.config.OracleEnabled()
	if a.deps.Remote != nil {
		stats["record_store"] = a.deps.Remote.Name()
	}
	if a.deps.Cache != nil {
		stats["cache"] = a.deps.Cache.Stats()
	}

	return c.JSON(http.StatusOK, stats)
}

func (a *Aggregator) latestHandler(c echo.Context) error {
	runID, pulse := a.Latest()
	if pulse == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "no pulse yet"})
	}
	if runID != "" {
		c.Response().Header().Set("X-Run-ID", runID)
	}
	return c.JSON(http.StatusOK, pulse)
}

// historyHandler lists the newest stored pulses, ?limit=N (1..100).
func (a *Aggregator) historyHandler(history storage.History) echo.HandlerFunc {
	return func(c echo.Context) error {
		limit := defaultHistoryLimit
		if raw := c.QueryParam("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 || n > maxHistoryLimit {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "limit must be between 1 and 100"})
			}
			limit = n
		}

		rows, err := history.Recent(c.Request().Context(), limit)
		if err != nil {
			a.log.Error("history query failed", logger.Error(err))
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "history unavailable"})
		}

		entries := make([]historyEntry, 0, len(rows))
		for _, row := range rows {
			entry := historyEntry{ID: row.ID, CreatedAt: row.CreatedAt}
			if json.Valid([]byte(row.PulseData)) {
				entry.Pulse = json.RawMessage(row.PulseData)
			}
			entries = append(entries, entry)
		}
		return c.JSON(http.StatusOK, entries)
	}
}
