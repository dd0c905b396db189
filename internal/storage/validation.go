package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/fraudwatch/internal/common"
	"github.com/Veraticus/fraudwatch/internal/model"
)

// Validation errors.
var (
	ErrNilContext       = errors.New("context cannot be nil")
	ErrEmptyString      = fmt.Errorf("%w: string parameter cannot be empty", common.ErrInvalidInput)
	ErrNilParameter     = fmt.Errorf("%w: parameter cannot be nil", common.ErrInvalidInput)
	ErrInvalidRecord    = fmt.Errorf("%w: invalid prediction record", common.ErrInvalidInput)
	ErrEmptyCredentials = fmt.Errorf("%w: username and password cannot be empty", common.ErrInvalidInput)
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateCredentials ensures neither username nor password is empty.
func validateCredentials(username, password string) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return ErrEmptyCredentials
	}
	return nil
}

// validateRecord checks a prediction record before it is stored.
func validateRecord(rec *model.PredictionRecord) error {
	if rec == nil {
		return fmt.Errorf("%w: record", ErrNilParameter)
	}
	if rec.UserID <= 0 {
		return fmt.Errorf("%w: user id %d", ErrInvalidRecord, rec.UserID)
	}
	if rec.Label != model.LabelFraud && rec.Label != model.LabelLegit {
		return fmt.Errorf("%w: prediction %q", ErrInvalidRecord, rec.Label)
	}
	if !(rec.Probability >= 0 && rec.Probability <= 1) {
		return fmt.Errorf("%w: probability %v outside [0, 1]", ErrInvalidRecord, rec.Probability)
	}
	return nil
}
