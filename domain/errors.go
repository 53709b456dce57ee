package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation                  = errors.New("validation error")
	ErrInvalidFieldValue           = errors.New("invalid field value")
	ErrInsufficientProfitBalance   = errors.New("insufficient profit balance")
	ErrInsufficientDeployableFunds = errors.New("insufficient deployable funds")
	ErrRefundNotEligible           = errors.New("refund not eligible")
	ErrInvalidTransition           = errors.New("invalid contract state transition")
	ErrDuplicateAccrual            = errors.New("profit already accrued for period")
	ErrAlreadyDecided              = errors.New("already decided")
	ErrTermsNotAccepted            = errors.New("terms not accepted")
	ErrProfileIncomplete           = errors.New("investor profile incomplete")
	ErrInvestorInactive            = errors.New("investor account is inactive")
	ErrDepositsClosed              = errors.New("deposits are currently closed")
	ErrForbidden                   = errors.New("forbidden")
	ErrUnauthenticated             = errors.New("unauthenticated")
	ErrUnknownInvestor             = errors.New("unknown investor")
	ErrUnknownContract             = errors.New("unknown contract")
	ErrUnknownRequest              = errors.New("unknown approval request")
)

// ValidationError reports a malformed input. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %s", e.Message)
	}
	return fmt.Sprintf("validation error: %s %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError builds a ValidationError for the given field.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// InvalidFieldError is returned when an admin correction carries an out of range value.
type InvalidFieldError struct {
	Field string
	Value string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("invalid field value: %s=%s", e.Field, e.Value)
}

func (e *InvalidFieldError) Is(target error) bool {
	return target == ErrInvalidFieldValue
}

// TransitionError describes a rejected contract state edge.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid contract state transition: %s -> %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
