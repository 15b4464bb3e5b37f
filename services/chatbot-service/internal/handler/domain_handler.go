package handler

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/salesbot/gomicro/logger"
	gomicro "github.com/suteetoe/salesbot/gomicro/middleware"
	"github.com/suteetoe/salesbot/services/chatbot-service/internal/model"
	"github.com/suteetoe/salesbot/services/chatbot-service/internal/store"
	"github.com/suteetoe/salesbot/services/chatbot-service/prometheus"
	"go.uber.org/zap"
)

var domainPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?(\.[a-z0-9]([a-z0-9-]*[a-z0-9])?)+$`)

// DomainHandler manages the domains a user installs the chatbot on
type DomainHandler struct {
	domains *store.DomainStore
}

func NewDomainHandler(domains *store.DomainStore) *DomainHandler {
	return &DomainHandler{domains: domains}
}

// CreateDomain handles domain registration
func (h *DomainHandler) CreateDomain(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, ok := gomicro.CurrentUser(c)
	if !ok {
		return c.String(http.StatusUnauthorized, gomicro.UnauthenticatedMessage)
	}

	var req struct {
		Name string `json:"name"`
		Icon string `json:"icon"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse domain creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	name := strings.ToLower(strings.TrimSpace(req.Name))
	if !domainPattern.MatchString(name) {
		log.Warn("Invalid domain name", zap.String("name", req.Name))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "a valid domain name is required"})
	}

	domain, err := h.domains.Create(c.Request().Context(), claims.ExternalID(), name, req.Icon)
	if errors.Is(err, store.ErrDomainExists) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "domain already registered"})
	}
	if err != nil {
		log.Error("Failed to create domain", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "domain creation failed"})
	}

	log.Info("Domain created", zap.String("id", domain.ID), zap.String("name", domain.Name))

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Domain created successfully",
		"domain":  domain,
	})
}

// ListDomains retrieves the caller's domains
func (h *DomainHandler) ListDomains(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, ok := gomicro.CurrentUser(c)
	if !ok {
		return c.String(http.StatusUnauthorized, gomicro.UnauthenticatedMessage)
	}

	domains, err := h.domains.ListByOwner(c.Request().Context(), claims.ExternalID())
	if err != nil {
		log.Error("Failed to list domains", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve domains"})
	}

	return c.JSON(http.StatusOK, domains)
}

// AddHelpDesk adds a help desk question to a domain
func (h *DomainHandler) AddHelpDesk(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, ok := gomicro.CurrentUser(c)
	if !ok {
		return c.String(http.StatusUnauthorized, gomicro.UnauthenticatedMessage)
	}

	var req struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse help desk request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if strings.TrimSpace(req.Question) == "" || strings.TrimSpace(req.Answer) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "question and answer are required"})
	}

	entry, err := h.domains.AddHelpDesk(c.Request().Context(), claims.ExternalID(), c.Param("id"), req.Question, req.Answer)
	if err != nil {
		return domainError(c, err, "failed to add question")
	}

	return c.JSON(http.StatusCreated, entry)
}

// ListHelpDesk retrieves the help desk questions of a domain
func (h *DomainHandler) ListHelpDesk(c echo.Context) error {
	claims, ok := gomicro.CurrentUser(c)
	if !ok {
		return c.String(http.StatusUnauthorized, gomicro.UnauthenticatedMessage)
	}

	entries, err := h.domains.ListHelpDesk(c.Request().Context(), claims.ExternalID(), c.Param("id"))
	if err != nil {
		return domainError(c, err, "failed to retrieve questions")
	}

	return c.JSON(http.StatusOK, entries)
}

// UpdateChatBot changes the widget appearance of a domain
func (h *DomainHandler) UpdateChatBot(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, ok := gomicro.CurrentUser(c)
	if !ok {
		return c.String(http.StatusUnauthorized, gomicro.UnauthenticatedMessage)
	}

	var req struct {
		WelcomeMessage *string `json:"welcome_message"`
		Icon           *string `json:"icon"`
		Background     *string `json:"background"`
		TextColor      *string `json:"text_color"`
		HelpDesk       *bool   `json:"help_desk"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse chatbot update request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.WelcomeMessage != nil && strings.TrimSpace(*req.WelcomeMessage) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "welcome_message cannot be empty"})
	}

	bot, err := h.domains.UpdateChatBot(c.Request().Context(), claims.ExternalID(), c.Param("id"), store.ChatBotUpdate{
		WelcomeMessage: req.WelcomeMessage,
		Icon:           req.Icon,
		Background:     req.Background,
		TextColor:      req.TextColor,
		HelpDesk:       req.HelpDesk,
	})
	if err != nil {
		return domainError(c, err, "chatbot update failed")
	}

	return c.JSON(http.StatusOK, bot)
}

// Bootstrap serves the public widget configuration of a domain
func (h *DomainHandler) Bootstrap(c echo.Context) error {
	prometheus.HelpDeskLookupCounter.Inc()

	domain, err := h.domains.Bootstrap(c.Request().Context(), c.Param("domain_id"))
	if err != nil {
		return domainError(c, err, "failed to load chatbot")
	}

	res := struct {
		ID       string           `json:"id"`
		Name     string           `json:"name"`
		Icon     string           `json:"icon,omitempty"`
		ChatBot  *model.ChatBot   `json:"chat_bot"`
		HelpDesk []model.HelpDesk `json:"help_desk"`
	}{
		ID:       domain.ID,
		Name:     domain.Name,
		Icon:     domain.Icon,
		ChatBot:  domain.ChatBot,
		HelpDesk: []model.HelpDesk{},
	}
	if domain.ChatBot != nil && domain.ChatBot.HelpDesk {
		res.HelpDesk = append(res.HelpDesk, domain.HelpDesk...)
	}

	return c.JSON(http.StatusOK, res)
}

func domainError(c echo.Context, err error, message string) error {
	if errors.Is(err, store.ErrDomainNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "domain not found"})
	}
	logger.FromEcho(c).Error("Domain request failed", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": message})
}
