package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/suteetoe/salesbot/services/chatbot-service/internal/model"
	"github.com/suteetoe/salesbot/services/chatbot-service/internal/onboarding"
	"gorm.io/gorm"
)

// DefaultStaleAfter is how long a pending attempt may run before a new run may take it over
const DefaultStaleAfter = 10 * time.Minute

// AttemptStore keeps onboarding attempts keyed by (user, idempotency key)
type AttemptStore struct {
	db         *gorm.DB
	staleAfter time.Duration
	now        func() time.Time
}

// NewAttemptStore creates an AttemptStore
func NewAttemptStore(db *gorm.DB, staleAfter time.Duration) *AttemptStore {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &AttemptStore{db: db, staleAfter: staleAfter, now: time.Now}
}

// Start implements onboarding.AttemptStore. Failed, compensated and stale
// pending attempts are restarted with an incremented run number.
func (s *AttemptStore) Start(ctx context.Context, externalID, key string) (*model.OnboardingAttempt, bool, error) {
	var (
		attempt model.OnboardingAttempt
		started bool
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_external_id = ? AND idempotency_key = ?", externalID, key).First(&attempt).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			attempt = model.OnboardingAttempt{
				UserExternalID: externalID,
				IdempotencyKey: key,
				Runs:           1,
				Status:         model.AttemptPending,
			}
			if err := tx.Create(&attempt).Error; err != nil {
				return err
			}
			started = true
			return nil
		}
		if err != nil {
			return err
		}

		switch attempt.Status {
		case model.AttemptCompleted:
			return nil
		case model.AttemptPending:
			if s.now().Sub(attempt.UpdatedAt) < s.staleAfter {
				return nil
			}
		}

		attempt.Runs++
		attempt.Status = model.AttemptPending
		attempt.FailedStep = ""
		attempt.Error = ""
		if err := tx.Save(&attempt).Error; err != nil {
			return err
		}
		started = true
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("start attempt for %s: %w", externalID, err)
	}

	return &attempt, started, nil
}

// Complete implements onboarding.AttemptStore
func (s *AttemptStore) Complete(ctx context.Context, id uint, accountID string) error {
	return s.update(ctx, id, map[string]interface{}{
		"status":      model.AttemptCompleted,
		"account_id":  accountID,
		"failed_step": "",
		"error":       "",
	})
}

// Fail implements onboarding.AttemptStore
func (s *AttemptStore) Fail(ctx context.Context, id uint, status model.AttemptStatus, step onboarding.Step, accountID, reason string) error {
	return s.update(ctx, id, map[string]interface{}{
		"status":      status,
		"account_id":  accountID,
		"failed_step": string(step),
		"error":       reason,
	})
}

func (s *AttemptStore) update(ctx context.Context, id uint, fields map[string]interface{}) error {
	result := s.db.WithContext(ctx).Model(&model.OnboardingAttempt{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("update attempt %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("update attempt %d: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}
