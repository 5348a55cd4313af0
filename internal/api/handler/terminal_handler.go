package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/onebank/atm-terminal/internal/api/metrics"
	"github.com/onebank/atm-terminal/internal/core/domain"
	"github.com/onebank/atm-terminal/internal/core/ports"
)

// ReplayGuard abstracts the idempotency store (Redis).
type ReplayGuard interface {
	Seen(ctx context.Context, cardNumber, operation, key string) (bool, error)
	Mark(ctx context.Context, cardNumber, operation, key string) error
}

// TerminalHandler exposes one cash-machine terminal over HTTP.
type TerminalHandler struct {
	service ports.TerminalService
	replay  ReplayGuard // nil disables Idempotency-Key checks
	log     zerolog.Logger
}

func NewTerminalHandler(service ports.TerminalService, replay ReplayGuard, log zerolog.Logger) *TerminalHandler {
	return &TerminalHandler{service: service, replay: replay, log: log}
}

// InsertCard handles POST /terminal/card. Inserting a card always succeeds
// and unconditionally resets any prior session.
func (h *TerminalHandler) InsertCard(c echo.Context) error {
	var req insertCardRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	state := h.service.InsertCard(c.Request().Context(), req.CardNumber)
	return c.JSON(http.StatusOK, stateResponse{State: string(state)})
}

// EnterPIN handles POST /terminal/pin. On success the response carries the
// session token required by the authenticated routes.
func (h *TerminalHandler) EnterPIN(c echo.Context) error {
	var req enterPINRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token, err := h.service.EnterPIN(c.Request().Context(), req.PIN)
	if err != nil {
		metrics.PinAttemptsTotal.WithLabelValues("rejected").Inc()
		return err
	}

	metrics.PinAttemptsTotal.WithLabelValues("accepted").Inc()
	return c.JSON(http.StatusOK, sessionResponse{
		Token: token,
		State: string(domain.StateAuthenticated),
	})
}

// EjectCard handles POST /terminal/eject. Ejecting is a physical action
// and needs no token.
func (h *TerminalHandler) EjectCard(c echo.Context) error {
	state := h.service.EjectCard(c.Request().Context())
	return c.JSON(http.StatusOK, stateResponse{State: string(state)})
}

// Balance handles GET /terminal/balance.
func (h *TerminalHandler) Balance(c echo.Context) error {
	timer := prometheus.NewTimer(metrics.OperationDuration.WithLabelValues("balance"))
	defer timer.ObserveDuration()

	if err := h.sessionCard(c); err != nil {
		return err
	}

	balance, err := h.service.Balance(c.Request().Context())
	metrics.OperationsTotal.WithLabelValues("balance", resultLabel(err)).Inc()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, balanceResponse{Balance: balance})
}

// Deposit handles POST /terminal/deposit.
func (h *TerminalHandler) Deposit(c echo.Context) error {
	return h.mutate(c, "deposit", func(ctx context.Context, req amountRequest) (int64, error) {
		return h.service.Deposit(ctx, req.Amount)
	})
}

// Withdraw handles POST /terminal/withdraw.
func (h *TerminalHandler) Withdraw(c echo.Context) error {
	return h.mutate(c, "withdraw", func(ctx context.Context, req amountRequest) (int64, error) {
		return h.service.Withdraw(ctx, req.Amount)
	})
}

// mutate implements the shared flow of deposit and withdraw: bind, check
// the session, honor Idempotency-Key, run the operation, record metrics.
func (h *TerminalHandler) mutate(c echo.Context, operation string, op func(context.Context, amountRequest) (int64, error)) error {
	timer := prometheus.NewTimer(metrics.OperationDuration.WithLabelValues(operation))
	defer timer.ObserveDuration()

	var req amountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	if err := h.sessionCard(c); err != nil {
		return err
	}
	if err := h.checkReplay(c, operation); err != nil {
		return err
	}

	balance, err := op(c.Request().Context(), req)
	metrics.OperationsTotal.WithLabelValues(operation, resultLabel(err)).Inc()
	if err != nil {
		return err
	}

	h.markReplay(c, operation)
	return c.JSON(http.StatusOK, balanceResponse{Balance: balance})
}

// Transfer handles POST /terminal/transfer.
func (h *TerminalHandler) Transfer(c echo.Context) error {
	timer := prometheus.NewTimer(metrics.OperationDuration.WithLabelValues("transfer"))
	defer timer.ObserveDuration()

	var req transferRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.sessionCard(c); err != nil {
		return err
	}
	if err := h.checkReplay(c, "transfer"); err != nil {
		return err
	}

	balance, err := h.service.Transfer(c.Request().Context(), req.ToCardNumber, req.Amount)
	metrics.OperationsTotal.WithLabelValues("transfer", resultLabel(err)).Inc()
	if err != nil {
		return err
	}

	h.markReplay(c, "transfer")
	return c.JSON(http.StatusOK, balanceResponse{Balance: balance})
}

// sessionCard cross-checks the token claim injected by the Auth middleware
// against the live terminal session. A token for a previously inserted
// card stops working the moment a new card resets the session.
func (h *TerminalHandler) sessionCard(c echo.Context) error {
	card, _ := c.Get("card_number").(string)
	if card == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	active, authenticated := h.service.ActiveCard()
	if !authenticated || active != card {
		return echo.NewHTTPError(http.StatusUnauthorized, "token does not match the active session")
	}
	return nil
}

// checkReplay rejects requests whose Idempotency-Key was already accepted.
// Guard errors are logged and the request proceeds, mirroring the stance
// that losing the guard must not take the terminal down.
func (h *TerminalHandler) checkReplay(c echo.Context, operation string) error {
	key := c.Request().Header.Get("Idempotency-Key")
	if h.replay == nil || key == "" {
		return nil
	}

	card, _ := c.Get("card_number").(string)
	seen, err := h.replay.Seen(c.Request().Context(), card, operation, key)
	if err != nil {
		h.log.Warn().Err(err).Str("operation", operation).Msg("replay check failed, processing anyway")
		return nil
	}
	if seen {
		metrics.ReplaysBlockedTotal.WithLabelValues(operation).Inc()
		return echo.NewHTTPError(http.StatusConflict, "duplicate request")
	}
	return nil
}

// markReplay records an accepted Idempotency-Key. Failures are non-fatal.
func (h *TerminalHandler) markReplay(c echo.Context, operation string) {
	key := c.Request().Header.Get("Idempotency-Key")
	if h.replay == nil || key == "" {
		return
	}

	card, _ := c.Get("card_number").(string)
	if err := h.replay.Mark(c.Request().Context(), card, operation, key); err != nil {
		h.log.Warn().Err(err).Str("operation", operation).Msg("failed to set replay key")
	}
}

// resultLabel maps an operation outcome to its metrics label.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrUnknownDestination):
		return "unknown_destination"
	case errors.Is(err, domain.ErrNotAuthenticated):
		return "not_authenticated"
	default:
		return "error"
	}
}
