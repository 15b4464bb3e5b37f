package onboarding

import (
	"context"
	"time"
)

// AccountParams creates a connected account
type AccountParams struct {
	Country              string
	Type                 string
	BusinessType         string
	Capabilities         []string
	ExternalAccountToken string
	TOSAcceptedAt        time.Time
	TOSAcceptanceIP      string
	// IdempotencyKey makes a retried create return the account of the first call
	IdempotencyKey string
}

// AccountUpdate changes an existing connected account; nil fields are left untouched
type AccountUpdate struct {
	BusinessProfile *BusinessProfile
	Company         *Company
	OwnersProvided  *bool
}

// Account is a connected account as reported by the processor
type Account struct {
	ID               string
	Country          string
	DetailsSubmitted bool
	ChargesEnabled   bool
}

// Relationship classifies a person's role at the company
type Relationship struct {
	Representative   bool
	Executive        bool
	Owner            bool
	Title            string
	PercentOwnership float64
}

// PersonParams creates or updates a person; empty fields are not sent
type PersonParams struct {
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	SSNLast4     string
	Address      *Address
	DOB          *DateOfBirth
	Relationship Relationship
}

// Person is a processor-side individual attached to an account
type Person struct {
	ID        string
	AccountID string
}

// LinkParams requests a hosted onboarding link
type LinkParams struct {
	AccountID        string
	RefreshURL       string
	ReturnURL        string
	CollectionFields string
}

// Link is a single-use onboarding URL
type Link struct {
	URL       string
	ExpiresAt time.Time
}

// Processor is the payment processor API the onboarding flow drives
type Processor interface {
	CreateAccount(ctx context.Context, params AccountParams) (*Account, error)
	UpdateAccount(ctx context.Context, accountID string, update AccountUpdate) (*Account, error)
	DeleteAccount(ctx context.Context, accountID string) error
	CreatePerson(ctx context.Context, accountID string, params PersonParams) (*Person, error)
	UpdatePerson(ctx context.Context, accountID, personID string, params PersonParams) (*Person, error)
	DeletePerson(ctx context.Context, accountID, personID string) error
	CreateAccountLink(ctx context.Context, params LinkParams) (*Link, error)
}
