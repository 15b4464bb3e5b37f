package model

import (
	"time"

	"gorm.io/gorm"
)

// User is the local record of a caller known to the authentication provider
type User struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	ExternalID string `json:"external_id" gorm:"type:varchar(255);uniqueIndex;not null"` // Subject issued by the auth provider
	Email      string `json:"email" gorm:"type:varchar(255)"`
	// ProcessorAccountID is the connected account created by onboarding, nil before it completes
	ProcessorAccountID *string        `json:"processor_account_id,omitempty" gorm:"type:varchar(255);index"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `json:"-" gorm:"index"`
}
