package onboarding

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/suteetoe/salesbot/gomicro/logger"
	"github.com/suteetoe/salesbot/services/chatbot-service/internal/model"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type mockProcessor struct {
	mock.Mock
}

func (m *mockProcessor) CreateAccount(ctx context.Context, in AccountParams) (*Account, error) {
	args := m.Called(ctx, in)
	acct, _ := args.Get(0).(*Account)
	return acct, args.Error(1)
}

func (m *mockProcessor) UpdateAccount(ctx context.Context, accountID string, in AccountUpdate) (*Account, error) {
	args := m.Called(ctx, accountID, in)
	acct, _ := args.Get(0).(*Account)
	return acct, args.Error(1)
}

func (m *mockProcessor) DeleteAccount(ctx context.Context, accountID string) error {
	return m.Called(ctx, accountID).Error(0)
}

func (m *mockProcessor) CreatePerson(ctx context.Context, accountID string, in PersonParams) (*Person, error) {
	args := m.Called(ctx, accountID, in)
	p, _ := args.Get(0).(*Person)
	return p, args.Error(1)
}

func (m *mockProcessor) UpdatePerson(ctx context.Context, accountID, personID string, in PersonParams) (*Person, error) {
	args := m.Called(ctx, accountID, personID, in)
	p, _ := args.Get(0).(*Person)
	return p, args.Error(1)
}

func (m *mockProcessor) DeletePerson(ctx context.Context, accountID, personID string) error {
	return m.Called(ctx, accountID, personID).Error(0)
}

func (m *mockProcessor) CreateAccountLink(ctx context.Context, in LinkParams) (*Link, error) {
	args := m.Called(ctx, in)
	link, _ := args.Get(0).(*Link)
	return link, args.Error(1)
}

type memoryUsers struct {
	mu       sync.Mutex
	accounts map[string]*string
	setErr   error
}

func newMemoryUsers(ids ...string) *memoryUsers {
	u := &memoryUsers{accounts: map[string]*string{}}
	for _, id := range ids {
		u.accounts[id] = nil
	}
	return u
}

func (u *memoryUsers) GetProcessorAccountID(_ context.Context, externalID string) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	acct, ok := u.accounts[externalID]
	if !ok {
		return "", ErrUserNotFound
	}
	if acct == nil {
		return "", ErrNoAccount
	}
	return *acct, nil
}

func (u *memoryUsers) SetProcessorAccountID(_ context.Context, externalID string, accountID *string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.setErr != nil {
		return u.setErr
	}
	if _, ok := u.accounts[externalID]; !ok {
		return ErrUserNotFound
	}
	u.accounts[externalID] = accountID
	return nil
}

type memoryAttempts struct {
	mu     sync.Mutex
	nextID uint
	byKey  map[string]*model.OnboardingAttempt
}

func newMemoryAttempts() *memoryAttempts {
	return &memoryAttempts{byKey: map[string]*model.OnboardingAttempt{}}
}

func (a *memoryAttempts) Start(_ context.Context, externalID, key string) (*model.OnboardingAttempt, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	existing, ok := a.byKey[externalID+"/"+key]
	if !ok {
		a.nextID++
		attempt := &model.OnboardingAttempt{ID: a.nextID, UserExternalID: externalID, IdempotencyKey: key, Runs: 1, Status: model.AttemptPending}
		a.byKey[externalID+"/"+key] = attempt
		copied := *attempt
		return &copied, true, nil
	}
	if existing.Status == model.AttemptPending || existing.Status == model.AttemptCompleted {
		copied := *existing
		return &copied, false, nil
	}
	existing.Runs++
	existing.Status = model.AttemptPending
	copied := *existing
	return &copied, true, nil
}

func (a *memoryAttempts) find(id uint) *model.OnboardingAttempt {
	for _, attempt := range a.byKey {
		if attempt.ID == id {
			return attempt
		}
	}
	return nil
}

func (a *memoryAttempts) Complete(_ context.Context, id uint, accountID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	attempt := a.find(id)
	if attempt == nil {
		return errors.New("attempt not found")
	}
	attempt.Status = model.AttemptCompleted
	attempt.AccountID = accountID
	return nil
}

func (a *memoryAttempts) Fail(_ context.Context, id uint, status model.AttemptStatus, step Step, accountID, reason string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	attempt := a.find(id)
	if attempt == nil {
		return errors.New("attempt not found")
	}
	attempt.Status = status
	attempt.FailedStep = string(step)
	attempt.AccountID = accountID
	attempt.Error = reason
	return nil
}

func (a *memoryAttempts) get(externalID, key string) *model.OnboardingAttempt {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.byKey[externalID+"/"+key]
}

type noopLocker struct {
	err error
}

func (l noopLocker) Lock(context.Context, string) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	return func() {}, nil
}

type fixture struct {
	proc     *mockProcessor
	users    *memoryUsers
	attempts *memoryAttempts
	o        *Orchestrator
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		proc:     &mockProcessor{},
		users:    newMemoryUsers("U1"),
		attempts: newMemoryAttempts(),
	}
	o, err := NewOrchestrator(f.proc, f.users, f.attempts, noopLocker{}, DefaultProfile())
	require.NoError(t, err)
	o.now = func() time.Time { return time.Unix(1700000000, 0) }
	f.o = o
	return f
}

func isRepresentative(p PersonParams) bool { return p.Relationship.Representative }
func isOwner(p PersonParams) bool          { return p.Relationship.Owner }
func isProfileUpdate(u AccountUpdate) bool { return u.Company != nil && u.BusinessProfile != nil }
func isFinalize(u AccountUpdate) bool      { return u.OwnersProvided != nil && *u.OwnersProvided }

// expectPipeline wires a happy path for accountID; steps can be overridden afterwards by callers
func (f *fixture) expectAccount(accountID string) {
	f.proc.On("UpdateAccount", mock.Anything, accountID, mock.MatchedBy(isProfileUpdate)).
		Return(&Account{ID: accountID}, nil)
	f.proc.On("CreatePerson", mock.Anything, accountID, mock.MatchedBy(isRepresentative)).
		Return(&Person{ID: "person_rep", AccountID: accountID}, nil)
	f.proc.On("UpdatePerson", mock.Anything, accountID, "person_rep", mock.Anything).
		Return(&Person{ID: "person_rep", AccountID: accountID}, nil)
	f.proc.On("CreatePerson", mock.Anything, accountID, mock.MatchedBy(isOwner)).
		Return(&Person{ID: "person_owner", AccountID: accountID}, nil)
	f.proc.On("UpdateAccount", mock.Anything, accountID, mock.MatchedBy(isFinalize)).
		Return(&Account{ID: accountID}, nil)
}

func (f *fixture) expectLink(accountID, url string) {
	f.proc.On("CreateAccountLink", mock.Anything, mock.MatchedBy(func(p LinkParams) bool {
		return p.AccountID == accountID
	})).Return(&Link{URL: url}, nil)
}

func TestOnboard_Success(t *testing.T) {
	f := newFixture(t)
	f.proc.On("CreateAccount", mock.Anything, mock.MatchedBy(func(p AccountParams) bool {
		return p.Country == "US" &&
			p.Type == "custom" &&
			p.IdempotencyKey == processorKey("U1", "key-1", 1) &&
			p.TOSAcceptanceIP == "8.8.8.8" &&
			p.TOSAcceptedAt.Equal(time.Unix(1700000000, 0))
	})).Return(&Account{ID: "acct_123"}, nil)
	f.expectAccount("acct_123")
	f.expectLink("acct_123", "https://processor/onboard/abc")

	res, err := f.o.Onboard(context.Background(), Caller{ExternalID: "U1", IP: "8.8.8.8"}, "key-1")
	require.NoError(t, err)
	assert.Equal(t, "https://processor/onboard/abc", res.URL)
	assert.Equal(t, "acct_123", res.AccountID)
	assert.False(t, res.Replayed)

	stored, err := f.users.GetProcessorAccountID(context.Background(), "U1")
	require.NoError(t, err)
	assert.Equal(t, "acct_123", stored)
	assert.Equal(t, model.AttemptCompleted, f.attempts.get("U1", "key-1").Status)

	f.proc.AssertExpectations(t)
	f.proc.AssertNotCalled(t, "DeleteAccount", mock.Anything, mock.Anything)
}

func TestOnboard_OwnerCarriesPercentage(t *testing.T) {
	f := newFixture(t)
	f.proc.On("CreateAccount", mock.Anything, mock.Anything).Return(&Account{ID: "acct_123"}, nil)
	f.expectAccount("acct_123")
	f.expectLink("acct_123", "https://processor/onboard/abc")

	_, err := f.o.Onboard(context.Background(), Caller{ExternalID: "U1"}, "key-1")
	require.NoError(t, err)

	for _, call := range f.proc.Calls {
		if call.Method != "CreatePerson" {
			continue
		}
		params := call.Arguments.Get(2).(PersonParams)
		if params.Relationship.Owner {
			assert.Equal(t, "Kathleen", params.FirstName)
			assert.Equal(t, 80.0, params.Relationship.PercentOwnership)
		} else {
			assert.Equal(t, "CEO", params.Relationship.Title)
			assert.Empty(t, params.SSNLast4)
		}
	}
}

func TestOnboard_CreateAccountFails(t *testing.T) {
	f := newFixture(t)
	f.proc.On("CreateAccount", mock.Anything, mock.Anything).
		Return(nil, &ProcessorError{Operation: "accounts.create", StatusCode: 400, Message: "bad"})

	_, err := f.o.Onboard(context.Background(), Caller{ExternalID: "U1"}, "key-1")
	require.Error(t, err)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, StepCreateAccount, stepErr.Step)
	var procErr *ProcessorError
	assert.ErrorAs(t, err, &procErr)

	f.proc.AssertNotCalled(t, "CreatePerson", mock.Anything, mock.Anything, mock.Anything)
	f.proc.AssertNotCalled(t, "CreateAccountLink", mock.Anything, mock.Anything)

	_, err = f.users.GetProcessorAccountID(context.Background(), "U1")
	assert.ErrorIs(t, err, ErrNoAccount)
	assert.Equal(t, model.AttemptFailed, f.attempts.get("U1", "key-1").Status)
	assert.Equal(t, "create_account", f.attempts.get("U1", "key-1").FailedStep)
}

func TestOnboard_EmptyResultStopsPipeline(t *testing.T) {
	f := newFixture(t)
	f.proc.On("CreateAccount", mock.Anything, mock.Anything).Return(nil, nil)

	_, err := f.o.Onboard(context.Background(), Caller{ExternalID: "U1"}, "key-1")
	assert.ErrorIs(t, err, ErrEmptyResult)
	f.proc.AssertNotCalled(t, "UpdateAccount", mock.Anything, mock.Anything, mock.Anything)
}

func TestOnboard_PersistFailsCompensates(t *testing.T) {
	f := newFixture(t)
	f.users.setErr = errors.New("database is down")

	var order []string
	f.proc.On("CreateAccount", mock.Anything, mock.Anything).Return(&Account{ID: "acct_123"}, nil)
	f.expectAccount("acct_123")
	f.proc.On("DeletePerson", mock.Anything, "acct_123", mock.Anything).
		Run(func(args mock.Arguments) { order = append(order, args.String(2)) }).
		Return(nil)
	f.proc.On("DeleteAccount", mock.Anything, "acct_123").
		Run(func(args mock.Arguments) { order = append(order, args.String(1)) }).
		Return(nil)

	_, err := f.o.Onboard(context.Background(), Caller{ExternalID: "U1"}, "key-1")
	require.Error(t, err)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, StepPersist, stepErr.Step)

	f.proc.AssertNotCalled(t, "CreateAccountLink", mock.Anything, mock.Anything)
	assert.Equal(t, []string{"person_owner", "person_rep", "acct_123"}, order)
	assert.Equal(t, model.AttemptCompensated, f.attempts.get("U1", "key-1").Status)
}

func TestOnboard_LinkFailureRestoresStoredAccount(t *testing.T) {
	f := newFixture(t)
	previous := "acct_old"
	f.users.accounts["U1"] = &previous

	f.proc.On("CreateAccount", mock.Anything, mock.Anything).Return(&Account{ID: "acct_123"}, nil)
	f.expectAccount("acct_123")
	f.proc.On("CreateAccountLink", mock.Anything, mock.Anything).Return(&Link{}, nil)
	f.proc.On("DeletePerson", mock.Anything, "acct_123", mock.Anything).Return(nil)
	f.proc.On("DeleteAccount", mock.Anything, "acct_123").Return(nil)

	_, err := f.o.Onboard(context.Background(), Caller{ExternalID: "U1"}, "key-1")
	assert.ErrorIs(t, err, ErrEmptyResult)

	stored, err := f.users.GetProcessorAccountID(context.Background(), "U1")
	require.NoError(t, err)
	assert.Equal(t, "acct_old", stored)
	f.proc.AssertCalled(t, "DeleteAccount", mock.Anything, "acct_123")
}

func TestOnboard_FailedCompensationMarksFailed(t *testing.T) {
	f := newFixture(t)
	f.proc.On("CreateAccount", mock.Anything, mock.Anything).Return(&Account{ID: "acct_123"}, nil)
	f.proc.On("UpdateAccount", mock.Anything, "acct_123", mock.Anything).Return(nil, errors.New("timeout"))
	f.proc.On("DeleteAccount", mock.Anything, "acct_123").Return(errors.New("still down"))

	_, err := f.o.Onboard(context.Background(), Caller{ExternalID: "U1"}, "key-1")
	require.Error(t, err)

	attempt := f.attempts.get("U1", "key-1")
	assert.Equal(t, model.AttemptFailed, attempt.Status)
	assert.Equal(t, "acct_123", attempt.AccountID)
	assert.Equal(t, "update_profile", attempt.FailedStep)
}

func TestOnboard_SameKeyReplays(t *testing.T) {
	f := newFixture(t)
	f.proc.On("CreateAccount", mock.Anything, mock.Anything).Return(&Account{ID: "acct_123"}, nil)
	f.expectAccount("acct_123")
	f.expectLink("acct_123", "https://processor/onboard/abc")

	ctx := context.Background()
	first, err := f.o.Onboard(ctx, Caller{ExternalID: "U1"}, "key-1")
	require.NoError(t, err)

	second, err := f.o.Onboard(ctx, Caller{ExternalID: "U1"}, "key-1")
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.AccountID, second.AccountID)

	f.proc.AssertNumberOfCalls(t, "CreateAccount", 1)
	f.proc.AssertNumberOfCalls(t, "CreateAccountLink", 2)
}

func TestOnboard_RetryAfterFailureUsesNextRunKey(t *testing.T) {
	f := newFixture(t)
	f.proc.On("CreateAccount", mock.Anything, mock.MatchedBy(func(p AccountParams) bool {
		return p.IdempotencyKey == processorKey("U1", "key-1", 1)
	})).Return(nil, errors.New("network")).Once()
	f.proc.On("CreateAccount", mock.Anything, mock.MatchedBy(func(p AccountParams) bool {
		return p.IdempotencyKey == processorKey("U1", "key-1", 2)
	})).Return(&Account{ID: "acct_123"}, nil).Once()
	f.expectAccount("acct_123")
	f.expectLink("acct_123", "https://processor/onboard/abc")

	ctx := context.Background()
	_, err := f.o.Onboard(ctx, Caller{ExternalID: "U1"}, "key-1")
	require.Error(t, err)

	res, err := f.o.Onboard(ctx, Caller{ExternalID: "U1"}, "key-1")
	require.NoError(t, err)
	assert.Equal(t, "acct_123", res.AccountID)
	assert.Equal(t, 2, f.attempts.get("U1", "key-1").Runs)
}

func TestOnboard_WithoutKeyCreatesNewAccountEachTime(t *testing.T) {
	f := newFixture(t)
	f.proc.On("CreateAccount", mock.Anything, mock.Anything).Return(&Account{ID: "acct_1"}, nil).Once()
	f.proc.On("CreateAccount", mock.Anything, mock.Anything).Return(&Account{ID: "acct_2"}, nil).Once()
	f.expectAccount("acct_1")
	f.expectAccount("acct_2")
	f.expectLink("acct_1", "https://processor/onboard/1")
	f.expectLink("acct_2", "https://processor/onboard/2")

	ctx := context.Background()
	first, err := f.o.Onboard(ctx, Caller{ExternalID: "U1"}, "")
	require.NoError(t, err)
	second, err := f.o.Onboard(ctx, Caller{ExternalID: "U1"}, "")
	require.NoError(t, err)

	assert.NotEqual(t, first.AccountID, second.AccountID)
	stored, err := f.users.GetProcessorAccountID(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, "acct_2", stored)

	keys := createAccountKeys(f.proc)
	require.Len(t, keys, 2)
	assert.NotEqual(t, keys[0], keys[1])
}

func createAccountKeys(m *mockProcessor) []string {
	var keys []string
	for _, call := range m.Calls {
		if call.Method == "CreateAccount" {
			keys = append(keys, call.Arguments.Get(1).(AccountParams).IdempotencyKey)
		}
	}
	return keys
}

func TestOnboard_SameKeyFromDifferentUsers(t *testing.T) {
	f := newFixture(t)
	f.users.accounts["U2"] = nil
	f.proc.On("CreateAccount", mock.Anything, mock.Anything).Return(&Account{ID: "acct_1"}, nil).Once()
	f.proc.On("CreateAccount", mock.Anything, mock.Anything).Return(&Account{ID: "acct_2"}, nil).Once()
	f.expectAccount("acct_1")
	f.expectAccount("acct_2")
	f.expectLink("acct_1", "https://processor/onboard/1")
	f.expectLink("acct_2", "https://processor/onboard/2")

	ctx := context.Background()
	first, err := f.o.Onboard(ctx, Caller{ExternalID: "U1"}, "order-1")
	require.NoError(t, err)
	second, err := f.o.Onboard(ctx, Caller{ExternalID: "U2"}, "order-1")
	require.NoError(t, err)

	assert.False(t, second.Replayed)
	assert.Equal(t, "acct_1", first.AccountID)
	assert.Equal(t, "acct_2", second.AccountID)

	keys := createAccountKeys(f.proc)
	require.Len(t, keys, 2)
	assert.NotEqual(t, keys[0], keys[1])
	assert.NotContains(t, keys[0], "order-1")
}

func TestProcessorKey(t *testing.T) {
	assert.Equal(t, processorKey("U1", "k", 1), processorKey("U1", "k", 1))
	assert.NotEqual(t, processorKey("U1", "k", 1), processorKey("U2", "k", 1))
	assert.NotEqual(t, processorKey("U1", "k", 1), processorKey("U1", "k", 2))
	assert.True(t, strings.HasSuffix(processorKey("U1", "k", 12), "-12"))

	long := processorKey("U1", strings.Repeat("x", 1000), 99)
	assert.LessOrEqual(t, len(long), 255)
}

func TestOnboard_LogsAccountStatusAndLinkExpiry(t *testing.T) {
	f := newFixture(t)
	expires := time.Unix(1700000300, 0)
	f.proc.On("CreateAccount", mock.Anything, mock.Anything).Return(&Account{ID: "acct_123"}, nil)
	f.proc.On("UpdateAccount", mock.Anything, "acct_123", mock.MatchedBy(isProfileUpdate)).
		Return(&Account{ID: "acct_123"}, nil)
	f.proc.On("CreatePerson", mock.Anything, "acct_123", mock.Anything).
		Return(&Person{ID: "person_1", AccountID: "acct_123"}, nil)
	f.proc.On("UpdatePerson", mock.Anything, "acct_123", "person_1", mock.Anything).
		Return(&Person{ID: "person_1", AccountID: "acct_123"}, nil)
	f.proc.On("UpdateAccount", mock.Anything, "acct_123", mock.MatchedBy(isFinalize)).
		Return(&Account{ID: "acct_123", DetailsSubmitted: true}, nil)
	f.proc.On("CreateAccountLink", mock.Anything, mock.Anything).
		Return(&Link{URL: "https://processor/onboard/abc", ExpiresAt: expires}, nil)

	core, logs := observer.New(zap.InfoLevel)
	ctx := logger.WithContext(context.Background(), zap.New(core))

	_, err := f.o.Onboard(ctx, Caller{ExternalID: "U1"}, "key-1")
	require.NoError(t, err)

	finalized := logs.FilterMessage("Connected account finalized").All()
	require.Len(t, finalized, 1)
	fields := finalized[0].ContextMap()
	assert.Equal(t, true, fields["details_submitted"])
	assert.Equal(t, false, fields["charges_enabled"])

	issued := logs.FilterMessage("Onboarding link issued").All()
	require.Len(t, issued, 1)
	logged, ok := issued[0].ContextMap()["link_expires_at"].(time.Time)
	require.True(t, ok)
	assert.True(t, expires.Equal(logged))
}

func TestOnboard_Rejections(t *testing.T) {
	t.Run("unauthenticated", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.o.Onboard(context.Background(), Caller{}, "key-1")
		assert.ErrorIs(t, err, ErrUnauthenticated)
		f.proc.AssertNotCalled(t, "CreateAccount", mock.Anything, mock.Anything)
	})

	t.Run("locked", func(t *testing.T) {
		f := newFixture(t)
		f.o.locker = noopLocker{err: ErrLocked}
		_, err := f.o.Onboard(context.Background(), Caller{ExternalID: "U1"}, "key-1")
		assert.ErrorIs(t, err, ErrOnboardingInProgress)
	})

	t.Run("lock backend down", func(t *testing.T) {
		f := newFixture(t)
		f.o.locker = noopLocker{err: errors.New("connection refused")}
		_, err := f.o.Onboard(context.Background(), Caller{ExternalID: "U1"}, "key-1")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrOnboardingInProgress)
	})

	t.Run("pending attempt", func(t *testing.T) {
		f := newFixture(t)
		_, _, err := f.attempts.Start(context.Background(), "U1", "key-1")
		require.NoError(t, err)

		_, err = f.o.Onboard(context.Background(), Caller{ExternalID: "U1"}, "key-1")
		assert.ErrorIs(t, err, ErrOnboardingInProgress)
		f.proc.AssertNotCalled(t, "CreateAccount", mock.Anything, mock.Anything)
	})

	t.Run("cancelled request", func(t *testing.T) {
		f := newFixture(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := f.o.Onboard(ctx, Caller{ExternalID: "U1"}, "key-1")
		assert.ErrorIs(t, err, context.Canceled)
		f.proc.AssertNotCalled(t, "CreateAccount", mock.Anything, mock.Anything)
	})
}

func TestRefreshLink(t *testing.T) {
	t.Run("issues a link for the stored account", func(t *testing.T) {
		f := newFixture(t)
		acct := "acct_123"
		f.users.accounts["U1"] = &acct
		f.expectLink("acct_123", "https://processor/onboard/again")

		res, err := f.o.RefreshLink(context.Background(), Caller{ExternalID: "U1"})
		require.NoError(t, err)
		assert.Equal(t, "https://processor/onboard/again", res.URL)
	})

	t.Run("not onboarded", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.o.RefreshLink(context.Background(), Caller{ExternalID: "U1"})
		assert.ErrorIs(t, err, ErrNoAccount)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.o.RefreshLink(context.Background(), Caller{})
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})
}

func TestNewOrchestrator_RejectsInvalidProfile(t *testing.T) {
	p := DefaultProfile()
	p.Owners[0].PercentOwnership = 120

	_, err := NewOrchestrator(&mockProcessor{}, newMemoryUsers(), newMemoryAttempts(), noopLocker{}, p)
	var v *ValidationError
	require.ErrorAs(t, err, &v)

	_, err = NewOrchestrator(&mockProcessor{}, newMemoryUsers(), newMemoryAttempts(), noopLocker{}, nil)
	assert.Error(t, err)
}

func TestWithCompensationTimeout(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, DefaultCompensationTimeout, f.o.compensationTimeout)

	f.o.WithCompensationTimeout(0)
	assert.Equal(t, DefaultCompensationTimeout, f.o.compensationTimeout)

	assert.Same(t, f.o, f.o.WithCompensationTimeout(45*time.Second))
	assert.Equal(t, 45*time.Second, f.o.compensationTimeout)
}
