// Package account is the boundary between the credential store and the user
// interfaces. It turns store errors into outcomes that can be shown as-is.
package account

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/fraudwatch/internal/auth"
	"github.com/Veraticus/fraudwatch/internal/common"
	"github.com/Veraticus/fraudwatch/internal/model"
	"github.com/Veraticus/fraudwatch/internal/prediction"
	"github.com/Veraticus/fraudwatch/internal/service"
)

// Messages shown to users.
const (
	MsgEmptyCredentials   = "Username and password cannot be empty."
	MsgAllFieldsRequired  = "All fields are required."
	MsgDuplicateUsername  = "Username already exists. Please choose a different username."
	MsgUserNotFound       = "Username not found."
	MsgInvalidCredentials = "Invalid username or password"
	MsgPasswordMismatch   = "New password and confirmation do not match."
	MsgPasswordTooLong    = "Password is too long (maximum 72 bytes)."
	MsgResetSuccess       = "Your password has been successfully reset. You can now log in with your new password."
	MsgRecorded           = "Prediction successfully recorded in your transaction history."
	MsgLoginToRecord      = "Log in to record your prediction in the transaction history."
	MsgStoreFailure       = "Something went wrong while talking to the database. Please try again."
)

// Outcome is the result of an account operation as shown to a user.
type Outcome struct {
	User    *model.User
	Message string
	OK      bool
}

func fail(msg string) Outcome {
	return Outcome{Message: msg}
}

// Service performs account operations against a credential store.
type Service struct {
	store service.Storage
}

// NewService creates an account service.
func NewService(store service.Storage) *Service {
	return &Service{store: store}
}

// Register creates a new user.
func (s *Service) Register(ctx context.Context, username, password string) Outcome {
	if strings.TrimSpace(username) == "" || password == "" {
		return fail(MsgEmptyCredentials)
	}

	user, err := s.store.CreateUser(ctx, username, password)
	if err != nil {
		return s.fromError(err, "register")
	}

	slog.Info("user registered", "user_id", user.ID, "username", user.Username)
	return Outcome{
		OK:      true,
		User:    user,
		Message: "Registration successful for " + user.Username + ". Please log in.",
	}
}

// Login checks credentials. Unknown users and wrong passwords get the same
// message.
func (s *Service) Login(ctx context.Context, username, password string) Outcome {
	if strings.TrimSpace(username) == "" || password == "" {
		return fail(MsgEmptyCredentials)
	}

	user, err := s.store.AuthenticateUser(ctx, username, password)
	if err != nil {
		return s.fromError(err, "login")
	}
	if user == nil {
		slog.Debug("login rejected", "username", username)
		return fail(MsgInvalidCredentials)
	}

	return Outcome{OK: true, User: user, Message: "Logged in as " + user.Username}
}

// ResetPassword replaces a user's password after checking that both entries
// match.
func (s *Service) ResetPassword(ctx context.Context, username, newPassword, confirmation string) Outcome {
	if strings.TrimSpace(username) == "" || newPassword == "" || confirmation == "" {
		return fail(MsgAllFieldsRequired)
	}
	if newPassword != confirmation {
		return fail(MsgPasswordMismatch)
	}

	if err := s.store.ResetPassword(ctx, username, newPassword); err != nil {
		return s.fromError(err, "reset password")
	}

	slog.Info("password reset", "username", username)
	return Outcome{OK: true, Message: MsgResetSuccess}
}

// Record appends a prediction to the signed-in user's history. A zero user
// id means nobody is signed in and nothing is stored.
func (s *Service) Record(ctx context.Context, userID int64, raw model.RawTransaction, result prediction.Result) Outcome {
	if userID <= 0 {
		return fail(MsgLoginToRecord)
	}

	rec := &model.PredictionRecord{
		UserID:      userID,
		Timestamp:   time.Now().UTC(),
		RawInput:    raw,
		Label:       result.Label,
		Probability: result.Probability,
	}
	if err := s.store.RecordPrediction(ctx, rec); err != nil {
		return s.fromError(err, "record prediction")
	}

	return Outcome{OK: true, Message: MsgRecorded}
}

func (s *Service) fromError(err error, op string) Outcome {
	switch {
	case errors.Is(err, common.ErrDuplicateUsername):
		return fail(MsgDuplicateUsername)
	case errors.Is(err, common.ErrUserNotFound):
		return fail(MsgUserNotFound)
	case errors.Is(err, auth.ErrPasswordTooLong):
		return fail(MsgPasswordTooLong)
	case errors.Is(err, common.ErrInvalidInput):
		return fail(MsgEmptyCredentials)
	}

	common.LogError(err, "account operation failed", common.Fields{"operation": op})
	return fail(MsgStoreFailure)
}
