package main

import (
	"path/filepath"
	"testing"

	"github.com/Veraticus/fraudwatch/internal/config"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useDatabase(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fraudwatch.db")
	viper.Set("database.path", path)
	viper.Set("database.password_cost", 4)
	t.Cleanup(func() {
		viper.Reset()
		config.SetDefaults(viper.GetViper())
	})
	return path
}

func TestMigrate(t *testing.T) {
	useDatabase(t)

	cmd := migrateCmd()
	tio := withIO(cmd, "")
	require.NoError(t, cmd.Flags().Set("status", "true"))
	require.NoError(t, runMigrate(cmd, nil))
	assert.Contains(t, tio.out.String(), "Current version: 0")
	assert.Contains(t, tio.out.String(), "Migrations pending")

	cmd = migrateCmd()
	tio = withIO(cmd, "")
	require.NoError(t, runMigrate(cmd, nil))
	assert.Contains(t, tio.out.String(), "Database migrations completed successfully!")
	assert.NotContains(t, tio.out.String(), "Backed up", "a new database is not backed up")

	cmd = migrateCmd()
	tio = withIO(cmd, "")
	require.NoError(t, runMigrate(cmd, nil))
	assert.Contains(t, tio.out.String(), "already up to date")
}

func TestBackupLifecycle(t *testing.T) {
	useDatabase(t)

	create := createBackupCmd()
	tio := withIO(create, "")
	require.NoError(t, create.Flags().Set("tag", "pre-audit"))
	require.NoError(t, create.RunE(create, nil))
	assert.Contains(t, tio.out.String(), "Created backup")
	assert.Contains(t, tio.out.String(), "pre-audit")

	list := listBackupsCmd()
	tio = withIO(list, "")
	require.NoError(t, list.RunE(list, nil))
	assert.Contains(t, tio.out.String(), "pre-audit")
	assert.Contains(t, tio.out.String(), "manual")

	del := deleteBackupCmd()
	tio = withIO(del, "n\n")
	require.NoError(t, del.RunE(del, []string{"pre-audit"}))
	assert.Contains(t, tio.out.String(), "Deletion cancelled.")

	del = deleteBackupCmd()
	tio = withIO(del, "y\n")
	require.NoError(t, del.RunE(del, []string{"pre-audit"}))
	assert.Contains(t, tio.out.String(), "Deleted backup")

	list = listBackupsCmd()
	tio = withIO(list, "")
	require.NoError(t, list.RunE(list, nil))
	assert.Contains(t, tio.out.String(), "No backups found.")
}
