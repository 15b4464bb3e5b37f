package model

import (
	"time"
)

// AttemptStatus is the lifecycle state of an onboarding attempt
type AttemptStatus string

const (
	AttemptPending     AttemptStatus = "pending"
	AttemptCompleted   AttemptStatus = "completed"
	AttemptFailed      AttemptStatus = "failed"
	AttemptCompensated AttemptStatus = "compensated"
)

// OnboardingAttempt records one run of the connected account onboarding flow.
// (UserExternalID, IdempotencyKey) is unique; retries of a failed run reuse the row.
type OnboardingAttempt struct {
	ID             uint          `json:"id" gorm:"primaryKey"`
	UserExternalID string        `json:"user_external_id" gorm:"type:varchar(255);not null;uniqueIndex:idx_attempt_user_key"`
	IdempotencyKey string        `json:"idempotency_key" gorm:"type:varchar(255);not null;uniqueIndex:idx_attempt_user_key"`
	Runs           int           `json:"runs" gorm:"not null;default:1"`
	Status         AttemptStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	AccountID      string        `json:"account_id,omitempty" gorm:"type:varchar(255)"`
	FailedStep     string        `json:"failed_step,omitempty" gorm:"type:varchar(50)"`
	Error          string        `json:"error,omitempty" gorm:"type:text"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}
