package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/onebank/atm-terminal/internal/api/handler"
	"github.com/onebank/atm-terminal/internal/api/middleware"
	"github.com/onebank/atm-terminal/internal/core/ports"
	redisdb "github.com/onebank/atm-terminal/internal/infrastructure/db/redis"
)

// NewRouter builds and returns the Echo instance with all routes registered.
// rdb may be nil, which disables the Idempotency-Key replay guard.
func NewRouter(terminal ports.TerminalService, rdb *redis.Client, jwtSecret string, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("atm"))

	// --- Dependencies ---
	var replay handler.ReplayGuard
	if rdb != nil {
		replay = redisdb.NewReplayGuard(rdb)
	}
	terminalHandler := handler.NewTerminalHandler(terminal, replay, log)
	authMiddleware := middleware.Auth(jwtSecret)

	// --- Session routes (no token yet) ---
	e.POST("/terminal/card", terminalHandler.InsertCard)
	e.POST("/terminal/pin", terminalHandler.EnterPIN)
	e.POST("/terminal/eject", terminalHandler.EjectCard)

	// --- Authenticated routes ---
	g := e.Group("/terminal", authMiddleware)
	g.GET("/balance", terminalHandler.Balance)
	g.POST("/deposit", terminalHandler.Deposit)
	g.POST("/withdraw", terminalHandler.Withdraw)
	g.POST("/transfer", terminalHandler.Transfer)

	// --- Observability ---
	e.GET("/metrics", echoprometheus.NewHandler())

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(rdb)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?

	return e
}
