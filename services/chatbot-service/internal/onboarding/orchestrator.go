package onboarding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/suteetoe/salesbot/gomicro/logger"
	"github.com/suteetoe/salesbot/services/chatbot-service/internal/model"
	"github.com/suteetoe/salesbot/services/chatbot-service/prometheus"
	"go.uber.org/zap"
)

// UserStore persists the connected account id of a caller
type UserStore interface {
	// GetProcessorAccountID returns ErrUserNotFound or ErrNoAccount when there is nothing stored
	GetProcessorAccountID(ctx context.Context, externalID string) (string, error)
	// SetProcessorAccountID stores accountID, or clears it when nil
	SetProcessorAccountID(ctx context.Context, externalID string, accountID *string) error
}

// AttemptStore records onboarding runs per idempotency key
type AttemptStore interface {
	// Start returns the attempt for (externalID, key). started is false when the
	// attempt already exists and is completed or still running.
	Start(ctx context.Context, externalID, key string) (attempt *model.OnboardingAttempt, started bool, err error)
	Complete(ctx context.Context, id uint, accountID string) error
	Fail(ctx context.Context, id uint, status model.AttemptStatus, step Step, accountID, reason string) error
}

// Locker serialises onboarding runs of the same caller
type Locker interface {
	// Lock returns ErrLocked when key is already held
	Lock(ctx context.Context, key string) (release func(), err error)
}

// Caller is the authenticated user starting onboarding
type Caller struct {
	ExternalID string
	IP         string
}

// Result of a successful run
type Result struct {
	URL       string `json:"url"`
	AccountID string `json:"-"`
	Replayed  bool   `json:"-"`
}

// Orchestrator drives connected account onboarding: account, profile,
// representative, owners, finalization, persistence and link issuance,
// one step after the other
type Orchestrator struct {
	processor Processor
	users     UserStore
	attempts  AttemptStore
	locker    Locker
	profile   *Profile
	now       func() time.Time

	compensationTimeout time.Duration
}

// NewOrchestrator validates profile up front so no run can reach the processor with incomplete data
func NewOrchestrator(processor Processor, users UserStore, attempts AttemptStore, locker Locker, profile *Profile) (*Orchestrator, error) {
	if profile == nil {
		return nil, errors.New("onboarding profile is required")
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	return &Orchestrator{
		processor: processor,
		users:     users,
		attempts:  attempts,
		locker:    locker,
		profile:   profile,
		now:       time.Now,

		compensationTimeout: DefaultCompensationTimeout,
	}, nil
}

// WithCompensationTimeout bounds the cleanup after a failed run; d <= 0 keeps the default
func (o *Orchestrator) WithCompensationTimeout(d time.Duration) *Orchestrator {
	if d > 0 {
		o.compensationTimeout = d
	}
	return o
}

// Onboard runs the pipeline for caller. A completed attempt with the same
// idempotency key is replayed with a fresh link instead of creating a new
// account; an empty key always creates a new account.
func (o *Orchestrator) Onboard(ctx context.Context, caller Caller, idempotencyKey string) (*Result, error) {
	if caller.ExternalID == "" {
		return nil, ErrUnauthenticated
	}
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}

	log := logger.FromContext(ctx).With(
		zap.String("user", caller.ExternalID),
		zap.String("idempotency_key", idempotencyKey))
	ctx = logger.WithContext(ctx, log)

	release, err := o.locker.Lock(ctx, "onboarding:"+caller.ExternalID)
	if errors.Is(err, ErrLocked) {
		return nil, ErrOnboardingInProgress
	}
	if err != nil {
		return nil, fmt.Errorf("acquire onboarding lock: %w", err)
	}
	defer release()

	attempt, started, err := o.attempts.Start(ctx, caller.ExternalID, idempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("start onboarding attempt: %w", err)
	}
	if !started {
		if attempt.Status != model.AttemptCompleted {
			return nil, ErrOnboardingInProgress
		}
		return o.replay(ctx, attempt)
	}

	prometheus.OnboardingStartedCounter.Inc()
	log.Info("Onboarding started", zap.Int("run", attempt.Runs))

	r := &run{
		o:              o,
		caller:         caller,
		idempotencyKey: processorKey(caller.ExternalID, idempotencyKey, attempt.Runs),
		saga:           saga{timeout: o.compensationTimeout},
	}
	if err := r.execute(ctx); err != nil {
		o.fail(ctx, attempt, r, err)
		return nil, err
	}

	if err := o.attempts.Complete(ctx, attempt.ID, r.account.ID); err != nil {
		// the account exists and the link is valid, only the bookkeeping is behind
		log.Error("Failed to mark onboarding attempt completed", zap.Error(err))
	}

	prometheus.OnboardingCompletedCounter.WithLabelValues("created").Inc()
	log.Info("Onboarding link issued",
		zap.String("account_id", r.account.ID),
		zap.Time("link_expires_at", r.link.ExpiresAt))

	return &Result{URL: r.link.URL, AccountID: r.account.ID}, nil
}

// RefreshLink issues a new onboarding link for the caller's stored account
func (o *Orchestrator) RefreshLink(ctx context.Context, caller Caller) (*Result, error) {
	if caller.ExternalID == "" {
		return nil, ErrUnauthenticated
	}

	accountID, err := o.users.GetProcessorAccountID(ctx, caller.ExternalID)
	if err != nil {
		return nil, err
	}

	link, err := o.issueLink(ctx, accountID)
	if err != nil {
		return nil, &StepError{Step: StepIssueLink, Err: err}
	}
	return &Result{URL: link.URL, AccountID: accountID}, nil
}

func (o *Orchestrator) replay(ctx context.Context, attempt *model.OnboardingAttempt) (*Result, error) {
	link, err := o.issueLink(ctx, attempt.AccountID)
	if err != nil {
		prometheus.OnboardingFailedCounter.WithLabelValues(string(StepIssueLink)).Inc()
		return nil, &StepError{Step: StepIssueLink, Err: err}
	}

	prometheus.OnboardingCompletedCounter.WithLabelValues("replayed").Inc()
	logger.FromContext(ctx).Info("Onboarding replayed for completed attempt",
		zap.String("account_id", attempt.AccountID))

	return &Result{URL: link.URL, AccountID: attempt.AccountID, Replayed: true}, nil
}

// processorKey scopes the client key to the caller and run. The processor
// shares idempotency keys across the whole platform account.
func processorKey(externalID, key string, run int) string {
	sum := sha256.Sum256([]byte(externalID + ":" + key))
	return fmt.Sprintf("%s-%d", hex.EncodeToString(sum[:]), run)
}

func (o *Orchestrator) issueLink(ctx context.Context, accountID string) (*Link, error) {
	link, err := o.processor.CreateAccountLink(ctx, LinkParams{
		AccountID:        accountID,
		RefreshURL:       o.profile.Callbacks.RefreshURL,
		ReturnURL:        o.profile.Callbacks.ReturnURL,
		CollectionFields: o.profile.CollectionFields,
	})
	if err != nil {
		return nil, err
	}
	if link == nil || link.URL == "" {
		return nil, ErrEmptyResult
	}
	return link, nil
}

// fail compensates what the run created and records the outcome
func (o *Orchestrator) fail(ctx context.Context, attempt *model.OnboardingAttempt, r *run, runErr error) {
	log := logger.FromContext(ctx)

	step := Step("")
	var stepErr *StepError
	if errors.As(runErr, &stepErr) {
		step = stepErr.Step
	}
	prometheus.OnboardingFailedCounter.WithLabelValues(string(step)).Inc()
	log.Error("Onboarding failed", zap.String("step", string(step)), zap.Error(runErr))

	status := model.AttemptFailed
	if len(r.saga.done) > 0 && r.saga.unwind(ctx) {
		status = model.AttemptCompensated
	}

	accountID := ""
	if r.account != nil {
		accountID = r.account.ID
	}
	if err := o.attempts.Fail(context.WithoutCancel(ctx), attempt.ID, status, step, accountID, runErr.Error()); err != nil {
		log.Error("Failed to record onboarding failure", zap.Error(err))
	}
}
