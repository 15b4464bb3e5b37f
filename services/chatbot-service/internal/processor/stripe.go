package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/suteetoe/salesbot/gomicro/config"
	"github.com/suteetoe/salesbot/services/chatbot-service/internal/onboarding"
	"github.com/suteetoe/salesbot/services/chatbot-service/prometheus"
	"go.uber.org/zap"
)

// StripeProcessor implements onboarding.Processor with Stripe Connect custom accounts
type StripeProcessor struct {
	api *client.API
}

var _ onboarding.Processor = (*StripeProcessor)(nil)

// NewStripeProcessor builds a Stripe API client from configuration
func NewStripeProcessor(cfg config.StripeConfig, log *zap.Logger) *StripeProcessor {
	backendConfig := &stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(cfg.MaxNetworkRetries),
		LeveledLogger:     log.Sugar(),
	}
	if cfg.APIURL != "" {
		backendConfig.URL = stripe.String(cfg.APIURL)
	}

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, backendConfig)
	return &StripeProcessor{
		api: client.New(cfg.SecretKey, &stripe.Backends{
			API:     backend,
			Connect: backend,
			Uploads: backend,
		}),
	}
}

// CreateAccount implements onboarding.Processor
func (p *StripeProcessor) CreateAccount(ctx context.Context, in onboarding.AccountParams) (_ *onboarding.Account, err error) {
	done := prometheus.TrackProcessorCall("accounts.create")
	defer func() { done(err) }()

	params := &stripe.AccountParams{
		Country:      optional(in.Country),
		Type:         optional(in.Type),
		BusinessType: optional(in.BusinessType),
		Capabilities: capabilities(in.Capabilities),
	}
	if in.ExternalAccountToken != "" {
		params.ExternalAccount = &stripe.AccountExternalAccountParams{Token: stripe.String(in.ExternalAccountToken)}
	}
	if !in.TOSAcceptedAt.IsZero() {
		params.TOSAcceptance = &stripe.AccountTOSAcceptanceParams{
			Date: stripe.Int64(in.TOSAcceptedAt.Unix()),
			IP:   optional(in.TOSAcceptanceIP),
		}
	}
	params.Context = ctx
	if in.IdempotencyKey != "" {
		params.SetIdempotencyKey(in.IdempotencyKey)
	}

	acct, err := p.api.Accounts.New(params)
	if err != nil {
		return nil, wrap("accounts.create", err)
	}
	return toAccount(acct), nil
}

// UpdateAccount implements onboarding.Processor
func (p *StripeProcessor) UpdateAccount(ctx context.Context, accountID string, in onboarding.AccountUpdate) (_ *onboarding.Account, err error) {
	done := prometheus.TrackProcessorCall("accounts.update")
	defer func() { done(err) }()

	params := &stripe.AccountParams{}
	if in.BusinessProfile != nil {
		params.BusinessProfile = &stripe.AccountBusinessProfileParams{
			MCC: optional(in.BusinessProfile.MCC),
			URL: optional(in.BusinessProfile.URL),
		}
	}
	if in.Company != nil || in.OwnersProvided != nil {
		params.Company = &stripe.AccountCompanyParams{}
	}
	if c := in.Company; c != nil {
		params.Company.Name = optional(c.Name)
		params.Company.TaxID = optional(c.TaxID)
		params.Company.Phone = optional(c.Phone)
		params.Company.Address = address(c.Address)
	}
	if in.OwnersProvided != nil {
		params.Company.OwnersProvided = stripe.Bool(*in.OwnersProvided)
	}
	params.Context = ctx

	acct, err := p.api.Accounts.Update(accountID, params)
	if err != nil {
		return nil, wrap("accounts.update", err)
	}
	return toAccount(acct), nil
}

// DeleteAccount implements onboarding.Processor
func (p *StripeProcessor) DeleteAccount(ctx context.Context, accountID string) (err error) {
	done := prometheus.TrackProcessorCall("accounts.delete")
	defer func() { done(err) }()

	params := &stripe.AccountParams{}
	params.Context = ctx
	if _, err = p.api.Accounts.Del(accountID, params); err != nil {
		return wrap("accounts.delete", err)
	}
	return nil
}

// CreatePerson implements onboarding.Processor
func (p *StripeProcessor) CreatePerson(ctx context.Context, accountID string, in onboarding.PersonParams) (_ *onboarding.Person, err error) {
	done := prometheus.TrackProcessorCall("persons.create")
	defer func() { done(err) }()

	params := personParams(accountID, in)
	params.Context = ctx

	person, err := p.api.Persons.New(params)
	if err != nil {
		return nil, wrap("persons.create", err)
	}
	return toPerson(person, accountID), nil
}

// UpdatePerson implements onboarding.Processor
func (p *StripeProcessor) UpdatePerson(ctx context.Context, accountID, personID string, in onboarding.PersonParams) (_ *onboarding.Person, err error) {
	done := prometheus.TrackProcessorCall("persons.update")
	defer func() { done(err) }()

	params := personParams(accountID, in)
	params.Context = ctx

	person, err := p.api.Persons.Update(personID, params)
	if err != nil {
		return nil, wrap("persons.update", err)
	}
	return toPerson(person, accountID), nil
}

// DeletePerson implements onboarding.Processor
func (p *StripeProcessor) DeletePerson(ctx context.Context, accountID, personID string) (err error) {
	done := prometheus.TrackProcessorCall("persons.delete")
	defer func() { done(err) }()

	params := &stripe.PersonParams{Account: stripe.String(accountID)}
	params.Context = ctx
	if _, err = p.api.Persons.Del(personID, params); err != nil {
		return wrap("persons.delete", err)
	}
	return nil
}

// CreateAccountLink implements onboarding.Processor
func (p *StripeProcessor) CreateAccountLink(ctx context.Context, in onboarding.LinkParams) (_ *onboarding.Link, err error) {
	done := prometheus.TrackProcessorCall("account_links.create")
	defer func() { done(err) }()

	params := &stripe.AccountLinkParams{
		Account:    stripe.String(in.AccountID),
		RefreshURL: stripe.String(in.RefreshURL),
		ReturnURL:  stripe.String(in.ReturnURL),
		Type:       stripe.String(string(stripe.AccountLinkTypeAccountOnboarding)),
	}
	if in.CollectionFields != "" {
		params.CollectionOptions = &stripe.AccountLinkCollectionOptionsParams{
			Fields: stripe.String(in.CollectionFields),
		}
	}
	params.Context = ctx

	link, err := p.api.AccountLinks.New(params)
	if err != nil {
		return nil, wrap("account_links.create", err)
	}
	if link == nil {
		return nil, nil
	}
	return &onboarding.Link{URL: link.URL, ExpiresAt: time.Unix(link.ExpiresAt, 0)}, nil
}

func personParams(accountID string, in onboarding.PersonParams) *stripe.PersonParams {
	params := &stripe.PersonParams{
		Account:   stripe.String(accountID),
		FirstName: optional(in.FirstName),
		LastName:  optional(in.LastName),
		Email:     optional(in.Email),
		Phone:     optional(in.Phone),
		SSNLast4:  optional(in.SSNLast4),
		Address:   address(in.Address),
	}
	if in.DOB != nil {
		params.DOB = &stripe.PersonDOBParams{
			Day:   stripe.Int64(int64(in.DOB.Day)),
			Month: stripe.Int64(int64(in.DOB.Month)),
			Year:  stripe.Int64(int64(in.DOB.Year)),
		}
	}

	rel := in.Relationship
	if rel != (onboarding.Relationship{}) {
		params.Relationship = &stripe.PersonRelationshipParams{
			Representative: flag(rel.Representative),
			Executive:      flag(rel.Executive),
			Owner:          flag(rel.Owner),
			Title:          optional(rel.Title),
		}
		if rel.Owner && rel.PercentOwnership > 0 {
			params.Relationship.PercentOwnership = stripe.Float64(rel.PercentOwnership)
		}
	}
	return params
}

func capabilities(names []string) *stripe.AccountCapabilitiesParams {
	if len(names) == 0 {
		return nil
	}
	caps := &stripe.AccountCapabilitiesParams{}
	for _, name := range names {
		switch name {
		case "card_payments":
			caps.CardPayments = &stripe.AccountCapabilitiesCardPaymentsParams{Requested: stripe.Bool(true)}
		case "transfers":
			caps.Transfers = &stripe.AccountCapabilitiesTransfersParams{Requested: stripe.Bool(true)}
		}
	}
	return caps
}

func address(a *onboarding.Address) *stripe.AddressParams {
	if a == nil {
		return nil
	}
	return &stripe.AddressParams{
		Line1:      optional(a.Line1),
		Line2:      optional(a.Line2),
		City:       optional(a.City),
		State:      optional(a.State),
		PostalCode: optional(a.PostalCode),
		Country:    optional(a.Country),
	}
}

func toAccount(acct *stripe.Account) *onboarding.Account {
	if acct == nil {
		return nil
	}
	return &onboarding.Account{
		ID:               acct.ID,
		Country:          acct.Country,
		DetailsSubmitted: acct.DetailsSubmitted,
		ChargesEnabled:   acct.ChargesEnabled,
	}
}

func toPerson(person *stripe.Person, accountID string) *onboarding.Person {
	if person == nil {
		return nil
	}
	if person.Account != "" {
		accountID = person.Account
	}
	return &onboarding.Person{ID: person.ID, AccountID: accountID}
}

// wrap turns *stripe.Error into *onboarding.ProcessorError and keeps other errors as they are
func wrap(operation string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return &onboarding.ProcessorError{
			Operation:  operation,
			StatusCode: stripeErr.HTTPStatusCode,
			Code:       string(stripeErr.Code),
			Message:    stripeErr.Msg,
			RequestID:  stripeErr.RequestID,
		}
	}
	return fmt.Errorf("%s: %w", operation, err)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return stripe.String(s)
}

func flag(b bool) *bool {
	if !b {
		return nil
	}
	return stripe.Bool(true)
}
