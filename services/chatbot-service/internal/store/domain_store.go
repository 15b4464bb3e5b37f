package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/suteetoe/salesbot/services/chatbot-service/internal/model"
	"gorm.io/gorm"
)

var (
	ErrDomainNotFound = errors.New("domain not found")
	ErrDomainExists   = errors.New("domain already registered")
)

// ChatBotUpdate changes the widget appearance; nil fields are left untouched
type ChatBotUpdate struct {
	WelcomeMessage *string
	Icon           *string
	Background     *string
	TextColor      *string
	HelpDesk       *bool
}

// DomainStore manages domains, their chatbot settings and help desk questions
type DomainStore struct {
	db *gorm.DB
}

// NewDomainStore creates a DomainStore
func NewDomainStore(db *gorm.DB) *DomainStore {
	return &DomainStore{db: db}
}

// Create registers a domain for ownerID together with a default chatbot
func (s *DomainStore) Create(ctx context.Context, ownerID, name, icon string) (*model.Domain, error) {
	domain := model.Domain{
		Name:    name,
		Icon:    icon,
		OwnerID: ownerID,
		ChatBot: &model.ChatBot{
			WelcomeMessage: "Hey there, have a question? Text us here",
		},
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Domain{}).Where("name = ?", name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDomainExists
		}
		return tx.Create(&domain).Error
	})
	if err != nil {
		if errors.Is(err, ErrDomainExists) {
			return nil, err
		}
		return nil, fmt.Errorf("create domain %s: %w", name, err)
	}

	return &domain, nil
}

// ListByOwner returns the domains of ownerID with their chatbot settings
func (s *DomainStore) ListByOwner(ctx context.Context, ownerID string) ([]model.Domain, error) {
	var domains []model.Domain
	err := s.db.WithContext(ctx).
		Preload("ChatBot").
		Where("owner_id = ?", ownerID).
		Order("name").
		Find(&domains).Error
	if err != nil {
		return nil, fmt.Errorf("list domains of %s: %w", ownerID, err)
	}
	return domains, nil
}

// GetOwned loads a domain only when it belongs to ownerID
func (s *DomainStore) GetOwned(ctx context.Context, ownerID, domainID string) (*model.Domain, error) {
	var domain model.Domain
	err := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", domainID, ownerID).
		First(&domain).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDomainNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get domain %s: %w", domainID, err)
	}
	return &domain, nil
}

// Bootstrap loads everything the public widget needs for a domain
func (s *DomainStore) Bootstrap(ctx context.Context, domainID string) (*model.Domain, error) {
	var domain model.Domain
	err := s.db.WithContext(ctx).
		Preload("ChatBot").
		Preload("HelpDesk", func(db *gorm.DB) *gorm.DB { return db.Order("created_at, id") }).
		Where("id = ?", domainID).
		First(&domain).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDomainNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("bootstrap domain %s: %w", domainID, err)
	}
	return &domain, nil
}

// AddHelpDesk appends a question to a domain owned by ownerID
func (s *DomainStore) AddHelpDesk(ctx context.Context, ownerID, domainID, question, answer string) (*model.HelpDesk, error) {
	if _, err := s.GetOwned(ctx, ownerID, domainID); err != nil {
		return nil, err
	}

	entry := model.HelpDesk{Question: question, Answer: answer, DomainID: &domainID}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("add help desk question to %s: %w", domainID, err)
	}
	return &entry, nil
}

// ListHelpDesk returns the questions of a domain owned by ownerID
func (s *DomainStore) ListHelpDesk(ctx context.Context, ownerID, domainID string) ([]model.HelpDesk, error) {
	if _, err := s.GetOwned(ctx, ownerID, domainID); err != nil {
		return nil, err
	}

	var entries []model.HelpDesk
	err := s.db.WithContext(ctx).
		Where("domain_id = ?", domainID).
		Order("created_at, id").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("list help desk of %s: %w", domainID, err)
	}
	return entries, nil
}

// UpdateChatBot applies update to the chatbot of a domain owned by ownerID
func (s *DomainStore) UpdateChatBot(ctx context.Context, ownerID, domainID string, update ChatBotUpdate) (*model.ChatBot, error) {
	if _, err := s.GetOwned(ctx, ownerID, domainID); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if update.WelcomeMessage != nil {
		fields["welcome_message"] = *update.WelcomeMessage
	}
	if update.Icon != nil {
		fields["icon"] = *update.Icon
	}
	if update.Background != nil {
		fields["background"] = *update.Background
	}
	if update.TextColor != nil {
		fields["text_color"] = *update.TextColor
	}
	if update.HelpDesk != nil {
		fields["help_desk"] = *update.HelpDesk
	}

	var bot model.ChatBot
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("domain_id = ?", domainID).First(&bot).Error; err != nil {
			return err
		}
		if len(fields) == 0 {
			return nil
		}
		if err := tx.Model(&bot).Updates(fields).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", bot.ID).First(&bot).Error
	})
	if err != nil {
		return nil, fmt.Errorf("update chatbot of %s: %w", domainID, err)
	}
	return &bot, nil
}
