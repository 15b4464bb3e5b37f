package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/salesbot/gomicro/jwtutil"
	"github.com/suteetoe/salesbot/gomicro/logger"
	"go.uber.org/zap"
)

// UserKey is the echo.Context key holding *jwtutil.UserClaims
const UserKey = "user"

// SessionCookie is read when the request carries no Authorization header,
// as with browser redirects from the payment processor
const SessionCookie = "__session"

// UnauthenticatedMessage is the plain-text body of every 401 response
const UnauthenticatedMessage = "User not authenticated"

// JWTAuthMiddleware creates a middleware that validates session tokens.
// Rejected requests never reach the handler.
func JWTAuthMiddleware(jwtUtil *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			token, ok := sessionToken(c)
			if !ok {
				log.Warn("Missing or malformed session token")
				return c.String(http.StatusUnauthorized, UnauthenticatedMessage)
			}

			claims, err := jwtUtil.ValidateToken(token)
			if err != nil {
				log.Warn("Invalid or expired token", zap.Error(err))
				return c.String(http.StatusUnauthorized, UnauthenticatedMessage)
			}

			c.Set(UserKey, claims)
			logger.SetEcho(c, log.With(zap.String("user", claims.ExternalID())))

			return next(c)
		}
	}
}

// CurrentUser returns the session claims stored by JWTAuthMiddleware
func CurrentUser(c echo.Context) (*jwtutil.UserClaims, bool) {
	claims, ok := c.Get(UserKey).(*jwtutil.UserClaims)
	if !ok || claims == nil || claims.ExternalID() == "" {
		return nil, false
	}
	return claims, true
}

// sessionToken takes the bearer token from the Authorization header, falling back to SessionCookie
func sessionToken(c echo.Context) (string, bool) {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		cookie, err := c.Cookie(SessionCookie)
		if err != nil || cookie.Value == "" {
			return "", false
		}
		return cookie.Value, true
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
