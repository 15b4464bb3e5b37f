package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Domain is a customer website the chatbot widget is installed on
type Domain struct {
	ID        string         `json:"id" gorm:"type:varchar(36);primaryKey"`
	Name      string         `json:"name" gorm:"type:varchar(255);uniqueIndex;not null"`
	Icon      string         `json:"icon,omitempty" gorm:"type:varchar(255)"`
	OwnerID   string         `json:"owner_id" gorm:"type:varchar(255);index;not null"` // User.ExternalID
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	ChatBot  *ChatBot   `json:"chat_bot,omitempty" gorm:"foreignKey:DomainID"`
	HelpDesk []HelpDesk `json:"help_desk,omitempty" gorm:"foreignKey:DomainID"`
}

// BeforeCreate assigns a UUID when the caller did not
func (d *Domain) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// ChatBot holds the widget appearance for a domain
type ChatBot struct {
	ID             string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	WelcomeMessage string    `json:"welcome_message,omitempty" gorm:"type:text"`
	Icon           string    `json:"icon,omitempty" gorm:"type:varchar(255)"`
	Background     *string   `json:"background,omitempty" gorm:"type:varchar(50)"`
	TextColor      *string   `json:"text_color,omitempty" gorm:"type:varchar(50)"`
	HelpDesk       bool      `json:"help_desk" gorm:"default:false"`
	DomainID       string    `json:"domain_id" gorm:"type:varchar(36);uniqueIndex;not null"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// BeforeCreate assigns a UUID when the caller did not
func (b *ChatBot) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// HelpDesk is one frequently asked question shown in the widget's help desk tab
type HelpDesk struct {
	ID        string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	Question  string    `json:"question" gorm:"type:text;not null"`
	Answer    string    `json:"answer" gorm:"type:text;not null"`
	DomainID  *string   `json:"domain_id" gorm:"type:varchar(36);index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a UUID when the caller did not
func (h *HelpDesk) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	return nil
}

// Models lists every model the service migrates
func Models() []interface{} {
	return []interface{}{&User{}, &OnboardingAttempt{}, &Domain{}, &ChatBot{}, &HelpDesk{}}
}
