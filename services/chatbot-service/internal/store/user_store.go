package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/suteetoe/salesbot/services/chatbot-service/internal/model"
	"github.com/suteetoe/salesbot/services/chatbot-service/internal/onboarding"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserStore keeps local user records keyed by the auth provider identity
type UserStore struct {
	db *gorm.DB
}

// NewUserStore creates a UserStore
func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// Ensure creates the user on first sight and keeps the email current
func (s *UserStore) Ensure(ctx context.Context, externalID, email string) (*model.User, error) {
	user := model.User{ExternalID: externalID, Email: email}

	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "updated_at"}),
	}).Create(&user)
	if result.Error != nil {
		return nil, fmt.Errorf("ensure user %s: %w", externalID, result.Error)
	}

	return s.Get(ctx, externalID)
}

// Get loads a user by external identity
func (s *UserStore) Get(ctx context.Context, externalID string) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).Where("external_id = ?", externalID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, onboarding.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", externalID, err)
	}
	return &user, nil
}

// GetProcessorAccountID implements onboarding.UserStore
func (s *UserStore) GetProcessorAccountID(ctx context.Context, externalID string) (string, error) {
	user, err := s.Get(ctx, externalID)
	if err != nil {
		return "", err
	}
	if user.ProcessorAccountID == nil || *user.ProcessorAccountID == "" {
		return "", onboarding.ErrNoAccount
	}
	return *user.ProcessorAccountID, nil
}

// SetProcessorAccountID implements onboarding.UserStore
func (s *UserStore) SetProcessorAccountID(ctx context.Context, externalID string, accountID *string) error {
	result := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("external_id = ?", externalID).
		Update("processor_account_id", accountID)
	if result.Error != nil {
		return fmt.Errorf("update processor account of %s: %w", externalID, result.Error)
	}
	if result.RowsAffected == 0 {
		return onboarding.ErrUserNotFound
	}
	return nil
}
