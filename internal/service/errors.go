package service

import (
	"errors"

	"gorm.io/gorm"
)

// Error classes. Handlers map these to HTTP statuses with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrDependency   = errors.New("dependency failure")
)

// Error is a user-facing failure. Msg is safe to return to clients.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func newError(kind error, msg string) *Error { return &Error{Kind: kind, Msg: msg} }

var (
	ErrCampaignNotFound   = newError(ErrNotFound, "Campaign not found")
	ErrCampaignClosed     = newError(ErrInvalidState, "This campaign is completed")
	ErrInvalidWindow      = newError(ErrValidation, "Start time must be before end time")
	ErrOnlyCompletion     = newError(ErrValidation, "You can only end a Campaign")
	ErrReferrerNotFound   = newError(ErrNotFound, "Referrer not found")
	ErrReferralNotFound   = newError(ErrNotFound, "Referral not found")
	ErrReferralNotPending = newError(ErrInvalidState, "This referral has already been used")
	ErrDuplicateReferral  = newError(ErrInvalidState, "This email has already been referred")
	ErrAlreadyRegistered  = newError(ErrInvalidState, "Already Registered with Company")
	ErrCustomerExists     = newError(ErrInvalidState, "Customer already exists")
	ErrInvalidEmail       = newError(ErrValidation, "Invalid email address")
	ErrImportRace         = newError(ErrInvalidState, "Customers changed during import, try again")
	ErrCompanyNotFound    = newError(ErrNotFound, "Company not found")
	ErrEmailExists        = newError(ErrInvalidState, "Company already exists")
	ErrInvalidCreds       = newError(ErrUnauthorized, "Invalid email or password")
	ErrAssistantDown      = newError(ErrDependency, "I'm having trouble answering that. Please try again later.")
)

func validation(msg string) error { return newError(ErrValidation, msg) }

// dependency wraps a storage or transport failure.
func dependency(msg string, err error) error {
	return &Error{Kind: ErrDependency, Msg: msg, Err: err}
}

// lookup converts a repository read error, mapping a missing row to notFound.
func lookup(err error, notFound error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return dependency("load "+what, err)
}

// Message returns the client-facing text for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Kind == ErrDependency && e.Err != nil {
			return "Something went wrong, please try again"
		}
		return e.Msg
	}
	return "Something went wrong, please try again"
}
