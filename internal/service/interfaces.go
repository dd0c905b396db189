// Package service defines the interfaces for all application services.
package service

import (
	"context"

	"github.com/Veraticus/fraudwatch/internal/model"
	"github.com/Veraticus/fraudwatch/internal/prediction"
)

// Storage defines the contract for our persistence layer.
type Storage interface {
	// User operations
	CreateUser(ctx context.Context, username, password string) (*model.User, error)
	AuthenticateUser(ctx context.Context, username, password string) (*model.User, error)
	ResetPassword(ctx context.Context, username, newPassword string) error
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)

	// Prediction history
	RecordPrediction(ctx context.Context, rec *model.PredictionRecord) error
	ListPredictions(ctx context.Context, userID int64) ([]model.PredictionRecord, error)
	CountPredictions(ctx context.Context, userID int64) (int, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// Predictor scores raw transactions.
type Predictor interface {
	Predict(raw model.RawTransaction) (prediction.Result, error)
}

// HistoryReader is the read side of the prediction history, used by the
// export surfaces.
type HistoryReader interface {
	ListPredictions(ctx context.Context, userID int64) ([]model.PredictionRecord, error)
}
