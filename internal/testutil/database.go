// Package testutil provides shared fixtures for fraudwatch tests: seeded
// databases and small model artifacts.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/fraudwatch/internal/auth"
	"github.com/Veraticus/fraudwatch/internal/model"
	"github.com/Veraticus/fraudwatch/internal/storage"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	CustomSetup    func(context.Context, *storage.SQLiteStorage) error
	Path           string
	SkipMigrations bool
}

// SetupTestDB creates a migrated in-memory database that is closed when the
// test ends. Passwords are hashed at the minimum bcrypt cost.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{})
}

// SetupTestDBWithOptions creates a test database with custom options.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	path := opts.Path
	if path == "" {
		path = ":memory:"
	}

	store, err := storage.NewSQLiteStorage(path, storage.WithPasswordCost(auth.MinCost))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if !opts.SkipMigrations {
		if err := store.Migrate(ctx); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	return &TestDB{Storage: store, t: t}
}

// MustCreateUser registers a user or fails the test.
func (db *TestDB) MustCreateUser(username, password string) *model.User {
	db.t.Helper()
	user, err := db.Storage.CreateUser(context.Background(), username, password)
	if err != nil {
		db.t.Fatalf("failed to create user %q: %v", username, err)
	}
	return user
}

// MustRecord appends a prediction for user at the given time or fails the test.
func (db *TestDB) MustRecord(user *model.User, at time.Time, label model.Label, probability float64) *model.PredictionRecord {
	db.t.Helper()
	rec := &model.PredictionRecord{
		UserID:      user.ID,
		Timestamp:   at,
		RawInput:    SampleTransaction(),
		Label:       label,
		Probability: probability,
	}
	if err := db.Storage.RecordPrediction(context.Background(), rec); err != nil {
		db.t.Fatalf("failed to record prediction: %v", err)
	}
	return rec
}
