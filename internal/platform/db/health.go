package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// PingTimeout bounds a health-check round trip.
const PingTimeout = 5 * time.Second

// PoolStats represents database connection pool statistics.
type PoolStats struct {
	TotalConns      int32  `json:"total_conns"`
	IdleConns       int32  `json:"idle_conns"`
	AcquiredConns   int32  `json:"acquired_conns"`
	MaxConns        int32  `json:"max_conns"`
	AcquireCount    int64  `json:"acquire_count"`
	AcquireDuration string `json:"acquire_duration"`
}

// GetPoolStats returns connection pool statistics.
func GetPoolStats(pool *pgxpool.Pool) *PoolStats {
	stat := pool.Stat()
	return &PoolStats{
		TotalConns:      stat.TotalConns(),
		IdleConns:       stat.IdleConns(),
		AcquiredConns:   stat.AcquiredConns(),
		MaxConns:        stat.MaxConns(),
		AcquireCount:    stat.AcquireCount(),
		AcquireDuration: stat.AcquireDuration().String(),
	}
}

// PingFunc checks a backing store.
type PingFunc func(ctx context.Context) error

// PingHandler reports whether the named backend answers a ping. details, when
// non-nil, adds backend-specific fields to the response.
func PingHandler(backend string, ping PingFunc, details func() interface{}) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), PingTimeout)
		defer cancel()

		body := map[string]interface{}{"backend": backend}
		if details != nil {
			body["details"] = details()
		}

		if err := ping(ctx); err != nil {
			body["status"] = "unhealthy"
			body["error"] = err.Error()
			return c.JSON(http.StatusServiceUnavailable, body)
		}
		body["status"] = "healthy"
		return c.JSON(http.StatusOK, body)
	}
}

// HealthHandler returns a handler for the postgres health check endpoint.
func HealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return PingHandler("postgres", pool.Ping, func() interface{} { return GetPoolStats(pool) })
}
