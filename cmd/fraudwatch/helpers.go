package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/fraudwatch/internal/account"
	"github.com/Veraticus/fraudwatch/internal/classifier"
	"github.com/Veraticus/fraudwatch/internal/common"
	"github.com/Veraticus/fraudwatch/internal/config"
	"github.com/Veraticus/fraudwatch/internal/prediction"
	"github.com/Veraticus/fraudwatch/internal/storage"
	"github.com/spf13/viper"
)

// envKeyReplacer maps nested keys such as database.path to FRAUDWATCH_DATABASE_PATH.
var envKeyReplacer = strings.NewReplacer(".", "_")

// loadApp resolves the application configuration from the global viper.
func loadApp() (*config.App, error) {
	return config.Load(viper.GetViper())
}

// initStorage opens the credential store and brings its schema up to date.
// A failed migration is logged and the store is still returned.
func initStorage(ctx context.Context, app *config.App) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(app.DatabasePath, storage.WithPasswordCost(app.PasswordCost))
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		common.LogError(err, "database migration failed", common.Fields{"database": app.DatabasePath})
	}

	return store, nil
}

// initAccounts opens storage and wraps it in the account service.
func initAccounts(ctx context.Context, app *config.App) (*storage.SQLiteStorage, *account.Service, error) {
	store, err := initStorage(ctx, app)
	if err != nil {
		return nil, nil, err
	}
	return store, account.NewService(store), nil
}

// loadPredictor reads the model artifacts and builds the prediction service.
func loadPredictor(app *config.App) (*prediction.Service, error) {
	start := time.Now()
	artifacts, err := classifier.LoadArtifacts(app.ClassifierPath, app.ScalerPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load model artifacts: %w", err)
	}

	svc, err := prediction.NewService(artifacts)
	if err != nil {
		return nil, err
	}

	slog.Debug("model artifacts loaded",
		"classifier", app.ClassifierPath,
		"scaler", app.ScalerPath,
		"trees", len(artifacts.Forest.Trees),
		"duration", time.Since(start))
	return svc, nil
}

func formatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}

func formatRelativeTime(t time.Time) string {
	duration := time.Since(t)

	switch {
	case duration < time.Minute:
		return "just now"
	case duration < time.Hour:
		return plural(int(duration.Minutes()), "minute") + " ago"
	case duration < 24*time.Hour:
		return plural(int(duration.Hours()), "hour") + " ago"
	case duration < 48*time.Hour:
		return "yesterday"
	case duration < 7*24*time.Hour:
		return fmt.Sprintf("%d days ago", int(duration.Hours()/24))
	default:
		return t.Format("2006-01-02 15:04")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
