package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/fraudwatch/internal/common"
	"github.com/Veraticus/fraudwatch/internal/sheets"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("FRAUDWATCH_TEST_DIR", "/data")

	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "~", want: home},
		{in: "~/db/app.db", want: filepath.Join(home, "db/app.db")},
		{in: "$FRAUDWATCH_TEST_DIR/app.db", want: "/data/app.db"},
		{in: "/abs/path.db", want: "/abs/path.db"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExpandPath(tt.in), tt.in)
	}
}

func TestLoadDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	app, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, ExpandPath(DefaultDatabasePath), app.DatabasePath)
	assert.Equal(t, 12*time.Hour, app.SessionTTL)
	assert.Equal(t, 12, app.PasswordCost)
	assert.Equal(t, "console", app.LogFormat)
}

func TestLoadOverridesAndValidation(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("database.path", "/tmp/fw.db")
	v.Set("server.session_ttl", "30m")

	app, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/fw.db", app.DatabasePath)
	assert.Equal(t, 30*time.Minute, app.SessionTTL)

	v.Set("logging.level", "loud")
	_, err = Load(v)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)

	v.Set("logging.level", "info")
	v.Set("database.path", "")
	_, err = Load(v)
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestLoadSheetsConfig(t *testing.T) {
	for _, key := range []string{"SERVICE_ACCOUNT_PATH", "CLIENT_ID", "CLIENT_SECRET", "REFRESH_TOKEN", "SPREADSHEET_ID", "SPREADSHEET_NAME"} {
		t.Setenv("GOOGLE_SHEETS_"+key, "")
	}

	t.Run("nothing configured", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		_, err := LoadSheetsConfig(v)
		assert.ErrorIs(t, err, sheets.ErrNoAuth)
	})

	t.Run("environment fallback", func(t *testing.T) {
		t.Setenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", "/keys/sa.json")
		t.Setenv("GOOGLE_SHEETS_SPREADSHEET_ID", "abc")
		v := viper.New()
		SetDefaults(v)

		cfg, err := LoadSheetsConfig(v)
		require.NoError(t, err)
		assert.Equal(t, "/keys/sa.json", cfg.ServiceAccountPath)
		assert.Equal(t, "abc", cfg.SpreadsheetID)
		assert.Equal(t, sheets.DefaultSpreadsheetName, cfg.SpreadsheetName)
	})

	t.Run("saved refresh token completes oauth", func(t *testing.T) {
		tokenFile := filepath.Join(t.TempDir(), "token.json")
		require.NoError(t, sheets.SaveToken(tokenFile, &oauth2.Token{RefreshToken: "saved"}))

		v := viper.New()
		SetDefaults(v)
		v.Set("sheets.token_file", tokenFile)
		v.Set("sheets.client_id", "id")
		v.Set("sheets.client_secret", "secret")

		cfg, err := LoadSheetsConfig(v)
		require.NoError(t, err)
		assert.Equal(t, "saved", cfg.RefreshToken)
	})
}
