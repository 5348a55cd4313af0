package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// HealthHandler handles GET /health — liveness probe.
// Returns 200 immediately; confirms the process is alive.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// ReadinessHandler handles GET /health/ready — readiness probe.
// Checks Redis connectivity before declaring the service ready. The
// ledger itself is in-memory and needs no check once loaded.
type ReadinessHandler struct {
	redis *redis.Client
}

func NewReadinessHandler(rdb *redis.Client) *ReadinessHandler {
	return &ReadinessHandler{redis: rdb}
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

func (h *ReadinessHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	resp := readinessResponse{
		Status:       "ok",
		Dependencies: map[string]dependencyStatus{},
	}
	code := http.StatusOK

	if h.redis == nil {
		resp.Dependencies["redis"] = dependencyStatus{Status: "disabled"}
		return c.JSON(code, resp)
	}

	if err := h.redis.Ping(ctx).Err(); err != nil {
		resp.Dependencies["redis"] = dependencyStatus{Status: "down", Error: err.Error()}
		resp.Status = "degraded"
		code = http.StatusServiceUnavailable
	} else {
		resp.Dependencies["redis"] = dependencyStatus{Status: "ok"}
	}

	return c.JSON(code, resp)
}
