package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/suteetoe/salesbot/gomicro/jwtutil"
	gomicro "github.com/suteetoe/salesbot/gomicro/middleware"
	"github.com/suteetoe/salesbot/services/chatbot-service/internal/middleware"
)

// Routes is the HTTP surface of the service
type Routes struct {
	JWT     *jwtutil.JWTUtil
	Users   middleware.UserEnsurer
	Connect *ConnectHandler
	Domains *DomainHandler
}

// Register mounts every route on e
func (r Routes) Register(e *echo.Echo) {
	// Public routes
	e.GET("/health", HealthCheck)
	e.GET("/chatbot/:domain_id", r.Domains.Bootstrap)

	// Secured routes - require a session and a local user row
	auth := []echo.MiddlewareFunc{gomicro.JWTAuthMiddleware(r.JWT), middleware.SyncUser(r.Users)}

	api := e.Group("/api", auth...)
	api.GET("/stripe/connect", r.Connect.Connect)

	domains := api.Group("/domains")
	domains.POST("", r.Domains.CreateDomain)
	domains.GET("", r.Domains.ListDomains)
	domains.POST("/:id/helpdesk", r.Domains.AddHelpDesk)
	domains.GET("/:id/helpdesk", r.Domains.ListHelpDesk)
	domains.PATCH("/:id/chatbot", r.Domains.UpdateChatBot)

	callback := e.Group("/callback", auth...)
	callback.GET("/stripe/refresh", r.Connect.Refresh)
}
