package config

import (
	"fmt"
	"time"

	"github.com/Veraticus/fraudwatch/internal/auth"
	"github.com/Veraticus/fraudwatch/internal/common"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables read by viper.
const EnvPrefix = "FRAUDWATCH"

// Default locations.
const (
	DefaultConfigDir      = "$HOME/.config/fraudwatch"
	DefaultDatabasePath   = "$HOME/.local/share/fraudwatch/fraudwatch.db"
	DefaultClassifierPath = DefaultConfigDir + "/model/classifier.json"
	DefaultScalerPath     = DefaultConfigDir + "/model/scaler.json"
	DefaultTokenFile      = DefaultConfigDir + "/sheets_token.json"
)

// App is the resolved application configuration.
type App struct {
	DatabasePath   string
	ClassifierPath string
	ScalerPath     string
	ServerAddr     string
	SessionKey     string
	LogLevel       string
	LogFormat      string
	SessionTTL     time.Duration
	PasswordCost   int
	SecureCookies  bool
}

// SetDefaults registers default values for every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("database.password_cost", auth.DefaultCost)
	v.SetDefault("model.classifier_path", DefaultClassifierPath)
	v.SetDefault("model.scaler_path", DefaultScalerPath)
	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("server.session_ttl", "12h")
	v.SetDefault("server.secure_cookies", false)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("sheets.token_file", DefaultTokenFile)
}

// Load resolves the configuration held by v, expanding paths.
func Load(v *viper.Viper) (*App, error) {
	app := &App{
		DatabasePath:   ExpandPath(v.GetString("database.path")),
		ClassifierPath: ExpandPath(v.GetString("model.classifier_path")),
		ScalerPath:     ExpandPath(v.GetString("model.scaler_path")),
		ServerAddr:     v.GetString("server.addr"),
		SessionKey:     v.GetString("server.session_key"),
		SessionTTL:     v.GetDuration("server.session_ttl"),
		SecureCookies:  v.GetBool("server.secure_cookies"),
		LogLevel:       v.GetString("logging.level"),
		LogFormat:      v.GetString("logging.format"),
		PasswordCost:   v.GetInt("database.password_cost"),
	}

	if app.DatabasePath == "" {
		return nil, fmt.Errorf("%w: database.path", common.ErrMissingConfig)
	}
	if app.SessionTTL <= 0 {
		return nil, fmt.Errorf("%w: server.session_ttl must be positive", common.ErrInvalidConfig)
	}
	if _, err := common.ParseLevel(app.LogLevel); err != nil {
		return nil, err
	}
	return app, nil
}
