// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Pipeline and model errors.
	ErrParse          = errors.New("parse error")
	ErrMissingField   = errors.New("missing required field")
	ErrSchemaMismatch = errors.New("feature schema mismatch")

	// Credential store errors.
	ErrDuplicateUsername = errors.New("username already exists")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUserNotFound      = errors.New("user not found")
	ErrStore             = errors.New("store error")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ParseError reports a raw field whose value could not be parsed.
type ParseError struct {
	Err   error
	Field string
	Value string
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: cannot parse %s %q: %v", ErrParse, e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("%s: cannot parse %s %q", ErrParse, e.Field, e.Value)
}

// Is reports whether target is ErrParse.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// MissingFieldError reports a raw input that lacks a required field.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingField, e.Field)
}

// Is reports whether target is ErrMissingField.
func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingField
}

// SchemaMismatchError signals that a feature vector does not have the shape a
// loaded artifact was trained on. It indicates pipeline/model drift and must
// never be retried or hidden.
type SchemaMismatchError struct {
	Component string
	Detail    string
	Expected  int
	Got       int
}

func (e *SchemaMismatchError) Error() string {
	msg := fmt.Sprintf("%s: %s expects %d features, got %d", ErrSchemaMismatch, e.Component, e.Expected, e.Got)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

// Is reports whether target is ErrSchemaMismatch.
func (e *SchemaMismatchError) Is(target error) bool {
	return target == ErrSchemaMismatch
}

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimit) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}

// IsInputError reports whether err was caused by bad caller input rather than
// by a fault in the system.
func IsInputError(err error) bool {
	return errors.Is(err, ErrParse) ||
		errors.Is(err, ErrMissingField) ||
		errors.Is(err, ErrInvalidInput)
}
