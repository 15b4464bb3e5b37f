package onboarding

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnauthenticated is returned when no caller identity is present
	ErrUnauthenticated = errors.New("caller not authenticated")
	// ErrEmptyResult is returned when the processor answers without an error but also without a resource
	ErrEmptyResult = errors.New("processor returned an empty result")
	// ErrOnboardingInProgress is returned when another run for the same caller or key has not finished
	ErrOnboardingInProgress = errors.New("onboarding already in progress")
	// ErrUserNotFound is returned when the caller has no local user record
	ErrUserNotFound = errors.New("user not found")
	// ErrNoAccount is returned when the caller has not been onboarded yet
	ErrNoAccount = errors.New("no connected account")
	// ErrLocked is returned by a Locker when the key is held elsewhere
	ErrLocked = errors.New("lock already held")
)

// Step names one stage of the onboarding pipeline
type Step string

const (
	StepCreateAccount        Step = "create_account"
	StepUpdateProfile        Step = "update_profile"
	StepCreateRepresentative Step = "create_representative"
	StepUpdateRepresentative Step = "update_representative"
	StepCreateOwner          Step = "create_owner"
	StepFinalize             Step = "finalize"
	StepPersist              Step = "persist"
	StepIssueLink            Step = "issue_link"
)

// StepError reports which pipeline step failed
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("onboarding step %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// ProcessorError is a failure reported by the payment processor API
type ProcessorError struct {
	Operation  string
	StatusCode int
	Code       string
	Message    string
	RequestID  string
}

func (e *ProcessorError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: processor returned %d (%s): %s", e.Operation, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: processor returned %d: %s", e.Operation, e.StatusCode, e.Message)
}

// ValidationError lists every problem found in an onboarding profile
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid onboarding profile: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) add(format string, args ...interface{}) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

func (e *ValidationError) required(field string) {
	e.add("%s is required", field)
}

func (e *ValidationError) orNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}
