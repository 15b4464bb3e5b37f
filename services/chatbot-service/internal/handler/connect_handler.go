package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/salesbot/gomicro/logger"
	gomicro "github.com/suteetoe/salesbot/gomicro/middleware"
	"github.com/suteetoe/salesbot/services/chatbot-service/internal/onboarding"
	"go.uber.org/zap"
)

// IdempotencyKeyHeader lets clients retry onboarding without creating a second account
const IdempotencyKeyHeader = "Idempotency-Key"

// MaxIdempotencyKeyLength matches the attempt key column
const MaxIdempotencyKeyLength = 255

// Onboarder runs connected account onboarding for a caller
type Onboarder interface {
	Onboard(ctx context.Context, caller onboarding.Caller, idempotencyKey string) (*onboarding.Result, error)
	RefreshLink(ctx context.Context, caller onboarding.Caller) (*onboarding.Result, error)
}

// ConnectHandler serves payment processor onboarding
type ConnectHandler struct {
	onboarder Onboarder
	timeout   time.Duration
}

// NewConnectHandler creates a ConnectHandler; timeout <= 0 leaves the request context as is
func NewConnectHandler(onboarder Onboarder, timeout time.Duration) *ConnectHandler {
	return &ConnectHandler{onboarder: onboarder, timeout: timeout}
}

// Connect handles GET /api/stripe/connect and answers {"url": ...}
func (h *ConnectHandler) Connect(c echo.Context) error {
	key := c.Request().Header.Get(IdempotencyKeyHeader)
	if len(key) > MaxIdempotencyKeyLength {
		return c.String(http.StatusBadRequest, "Idempotency-Key is too long")
	}

	ctx, cancel := h.context(c)
	defer cancel()

	res, err := h.onboarder.Onboard(ctx, caller(c), key)
	if err != nil {
		return onboardingError(c, err)
	}

	return c.JSON(http.StatusOK, res)
}

// Refresh handles the processor's refresh redirect by sending the browser to a new link
func (h *ConnectHandler) Refresh(c echo.Context) error {
	ctx, cancel := h.context(c)
	defer cancel()

	res, err := h.onboarder.RefreshLink(ctx, caller(c))
	if err != nil {
		return onboardingError(c, err)
	}

	return c.Redirect(http.StatusFound, res.URL)
}

func (h *ConnectHandler) context(c echo.Context) (context.Context, context.CancelFunc) {
	ctx := logger.WithContext(c.Request().Context(), logger.FromEcho(c))
	if h.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.timeout)
}

func caller(c echo.Context) onboarding.Caller {
	caller := onboarding.Caller{IP: c.RealIP()}
	if claims, ok := gomicro.CurrentUser(c); ok {
		caller.ExternalID = claims.ExternalID()
	}
	return caller
}

// onboardingError answers in plain text; details stay in the log
func onboardingError(c echo.Context, err error) error {
	log := logger.FromEcho(c)

	switch {
	case errors.Is(err, onboarding.ErrUnauthenticated):
		return c.String(http.StatusUnauthorized, gomicro.UnauthenticatedMessage)
	case errors.Is(err, onboarding.ErrOnboardingInProgress):
		log.Info("Onboarding rejected, another run is in progress")
		return c.String(http.StatusConflict, "Onboarding already in progress")
	case errors.Is(err, onboarding.ErrNoAccount):
		return c.String(http.StatusNotFound, "No connected account")
	}

	fields := []zap.Field{zap.Error(err)}
	var stepErr *onboarding.StepError
	if errors.As(err, &stepErr) {
		fields = append(fields, zap.String("step", string(stepErr.Step)))
	}
	var procErr *onboarding.ProcessorError
	if errors.As(err, &procErr) {
		fields = append(fields,
			zap.Int("processor_status", procErr.StatusCode),
			zap.String("processor_request_id", procErr.RequestID))
	}
	log.Error("Onboarding failed", fields...)

	return c.String(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}
