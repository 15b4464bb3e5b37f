package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/salesbot/gomicro/logger"
	gomicro "github.com/suteetoe/salesbot/gomicro/middleware"
	"github.com/suteetoe/salesbot/services/chatbot-service/internal/model"
	"go.uber.org/zap"
)

// UserEnsurer creates or refreshes the local record of an authenticated user
type UserEnsurer interface {
	Ensure(ctx context.Context, externalID, email string) (*model.User, error)
}

// SyncUser makes sure every authenticated caller has a local user row before
// the handler runs. It must be chained after gomicro's JWTAuthMiddleware.
func SyncUser(users UserEnsurer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			claims, ok := gomicro.CurrentUser(c)
			if !ok {
				log.Warn("No session claims on request")
				return c.String(http.StatusUnauthorized, gomicro.UnauthenticatedMessage)
			}

			if _, err := users.Ensure(c.Request().Context(), claims.ExternalID(), claims.Email); err != nil {
				log.Error("Failed to sync user", zap.Error(err))
				return c.String(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
			}

			return next(c)
		}
	}
}
