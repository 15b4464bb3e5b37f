package onboarding

import (
	"context"
	"errors"
	"fmt"

	"github.com/suteetoe/salesbot/gomicro/logger"
	"go.uber.org/zap"
)

// run holds the typed result of every step of one onboarding run
type run struct {
	o              *Orchestrator
	caller         Caller
	idempotencyKey string
	saga           saga

	account        *Account
	profiled       *Account
	representative *Person
	owners         []*Person
	finalized      *Account
	link           *Link
}

type step struct {
	name Step
	do   func(ctx context.Context) error
}

func (r *run) steps() []step {
	return []step{
		{StepCreateAccount, r.createAccount},
		{StepUpdateProfile, r.updateProfile},
		{StepCreateRepresentative, r.createRepresentative},
		{StepUpdateRepresentative, r.updateRepresentative},
		{StepCreateOwner, r.createOwners},
		{StepFinalize, r.finalize},
		{StepPersist, r.persist},
		{StepIssueLink, r.issueLink},
	}
}

// execute runs the steps in order and stops at the first failure
func (r *run) execute(ctx context.Context) error {
	log := logger.FromContext(ctx)

	for _, s := range r.steps() {
		if err := ctx.Err(); err != nil {
			return &StepError{Step: s.name, Err: err}
		}
		if err := s.do(ctx); err != nil {
			return &StepError{Step: s.name, Err: err}
		}
		log.Debug("Onboarding step done", zap.String("step", string(s.name)))
	}
	return nil
}

func (r *run) createAccount(ctx context.Context) error {
	p := r.o.profile

	ip := p.TOSAcceptanceIP
	if ip == "" {
		ip = r.caller.IP
	}

	account, err := r.o.processor.CreateAccount(ctx, AccountParams{
		Country:              p.Country,
		Type:                 p.AccountType,
		BusinessType:         p.BusinessType,
		Capabilities:         p.Capabilities,
		ExternalAccountToken: p.ExternalAccountToken,
		TOSAcceptedAt:        r.o.now(),
		TOSAcceptanceIP:      ip,
		IdempotencyKey:       r.idempotencyKey,
	})
	if err != nil {
		return err
	}
	if account == nil || account.ID == "" {
		return ErrEmptyResult
	}

	r.account = account
	r.saga.record("account", account.ID, func(ctx context.Context) error {
		return r.o.processor.DeleteAccount(ctx, account.ID)
	})
	return nil
}

func (r *run) updateProfile(ctx context.Context) error {
	p := r.o.profile

	profile := p.BusinessProfile
	company := p.Company
	account, err := r.o.processor.UpdateAccount(ctx, r.account.ID, AccountUpdate{
		BusinessProfile: &profile,
		Company:         &company,
	})
	if err != nil {
		return err
	}
	if account == nil {
		return ErrEmptyResult
	}

	r.profiled = account
	return nil
}

// createRepresentative registers the legal representative with name and title only;
// identity details follow in updateRepresentative
func (r *run) createRepresentative(ctx context.Context) error {
	rep := r.o.profile.Representative

	person, err := r.o.processor.CreatePerson(ctx, r.account.ID, PersonParams{
		FirstName: rep.FirstName,
		LastName:  rep.LastName,
		Relationship: Relationship{
			Representative: true,
			Title:          rep.Title,
		},
	})
	if err != nil {
		return err
	}
	if person == nil || person.ID == "" {
		return ErrEmptyResult
	}

	r.representative = person
	r.recordPerson(person)
	return nil
}

func (r *run) updateRepresentative(ctx context.Context) error {
	rep := r.o.profile.Representative

	person, err := r.o.processor.UpdatePerson(ctx, r.account.ID, r.representative.ID, PersonParams{
		Email:    rep.Email,
		Phone:    rep.Phone,
		SSNLast4: rep.SSNLast4,
		Address:  rep.Address,
		DOB:      rep.DOB,
		Relationship: Relationship{
			Executive: rep.Executive,
		},
	})
	if err != nil {
		return err
	}
	if person == nil {
		return ErrEmptyResult
	}
	return nil
}

func (r *run) createOwners(ctx context.Context) error {
	for i, owner := range r.o.profile.Owners {
		person, err := r.o.processor.CreatePerson(ctx, r.account.ID, PersonParams{
			FirstName: owner.FirstName,
			LastName:  owner.LastName,
			Email:     owner.Email,
			Phone:     owner.Phone,
			SSNLast4:  owner.SSNLast4,
			Address:   owner.Address,
			DOB:       owner.DOB,
			Relationship: Relationship{
				Owner:            true,
				Executive:        owner.Executive,
				Title:            owner.Title,
				PercentOwnership: owner.PercentOwnership,
			},
		})
		if err != nil {
			return fmt.Errorf("owner %d: %w", i, err)
		}
		if person == nil || person.ID == "" {
			return fmt.Errorf("owner %d: %w", i, ErrEmptyResult)
		}

		r.owners = append(r.owners, person)
		r.recordPerson(person)
	}
	return nil
}

func (r *run) finalize(ctx context.Context) error {
	provided := true
	account, err := r.o.processor.UpdateAccount(ctx, r.account.ID, AccountUpdate{
		OwnersProvided: &provided,
	})
	if err != nil {
		return err
	}
	if account == nil {
		return ErrEmptyResult
	}

	r.finalized = account
	logger.FromContext(ctx).Info("Connected account finalized",
		zap.String("account_id", account.ID),
		zap.Bool("details_submitted", account.DetailsSubmitted),
		zap.Bool("charges_enabled", account.ChargesEnabled))
	return nil
}

// persist stores the new account id on the caller and remembers the previous
// one so a failed link issuance can put it back
func (r *run) persist(ctx context.Context) error {
	users := r.o.users
	externalID := r.caller.ExternalID

	previous, err := users.GetProcessorAccountID(ctx, externalID)
	if err != nil && !errors.Is(err, ErrNoAccount) {
		return err
	}

	accountID := r.account.ID
	if err := users.SetProcessorAccountID(ctx, externalID, &accountID); err != nil {
		return err
	}

	r.saga.record("user_account_id", externalID, func(ctx context.Context) error {
		if previous == "" {
			return users.SetProcessorAccountID(ctx, externalID, nil)
		}
		return users.SetProcessorAccountID(ctx, externalID, &previous)
	})
	return nil
}

func (r *run) issueLink(ctx context.Context) error {
	link, err := r.o.issueLink(ctx, r.account.ID)
	if err != nil {
		return err
	}
	r.link = link
	return nil
}

func (r *run) recordPerson(person *Person) {
	accountID := r.account.ID
	r.saga.record("person", person.ID, func(ctx context.Context) error {
		return r.o.processor.DeletePerson(ctx, accountID, person.ID)
	})
}
