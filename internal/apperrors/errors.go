package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates that the operation conflicts with the current state
// of the resource (e.g. reversing an act that is already reversed).
var ErrConflict = errors.New("conflict with current state")

// ErrInternal indicates an unexpected internal failure.
var ErrInternal = errors.New("internal error")

// AppError carries an error code alongside a message and optional cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates an AppError with the given code, message and cause.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// RuleCode identifies a customer account rule violation. Message wording is a
// presentation concern; callers match on the code.
type RuleCode string

const (
	// MissingCustomer: an account act has no owning customer.
	MissingCustomer RuleCode = "MissingCustomer"
	// InvalidBalance: the definitive balance disagrees with the incrementally
	// maintained one.
	InvalidBalance RuleCode = "InvalidBalance"
	// CannotCreateInitialBalance: an initial balance act was saved for a
	// customer that already has account acts.
	CannotCreateInitialBalance RuleCode = "CannotCreateInitialBalance"
)

// RuleError is a customer account rule violation, carrying the rule code and
// the arguments the message is formatted from.
type RuleError struct {
	Code RuleCode
	Args []any
}

func (e *RuleError) Error() string {
	switch e.Code {
	case MissingCustomer:
		return fmt.Sprintf("act %v has no customer", e.Args...)
	case InvalidBalance:
		return fmt.Sprintf("customer %v balance is invalid: expected %v but was %v", e.Args...)
	case CannotCreateInitialBalance:
		return fmt.Sprintf("cannot create initial balance for customer %v: account acts already exist", e.Args...)
	default:
		return string(e.Code)
	}
}

// NewRuleError creates a RuleError for the given code and message arguments.
func NewRuleError(code RuleCode, args ...any) *RuleError {
	return &RuleError{Code: code, Args: args}
}

// IsRule reports whether err is a rule violation with the given code.
func IsRule(err error, code RuleCode) bool {
	var re *RuleError
	return errors.As(err, &re) && re.Code == code
}
