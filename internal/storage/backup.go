package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Backup errors.
var (
	ErrBackupNotFound  = errors.New("backup not found")
	ErrBackupExists    = errors.New("backup already exists")
	ErrBackupCorrupted = errors.New("backup integrity check failed")
	ErrInvalidBackupID = errors.New("invalid backup id")
	ErrBackupInMemory  = errors.New("in-memory databases cannot be backed up")
)

const maxAutoBackups = 5

// BackupInfo describes one backup of the credential store.
type BackupInfo struct {
	CreatedAt     time.Time `json:"created_at"`
	ID            string    `json:"id"`
	Description   string    `json:"description"`
	FileSize      int64     `json:"file_size"`
	Users         int       `json:"users"`
	Predictions   int       `json:"predictions"`
	SchemaVersion int       `json:"schema_version"`
	IsAuto        bool      `json:"is_auto"`
}

// BackupManager copies the database to a backups directory next to it and
// restores from those copies.
type BackupManager struct {
	db         *sql.DB
	dbPath     string
	backupsDir string
}

// NewBackupManager creates a backup manager for the database at dbPath.
func NewBackupManager(db *sql.DB, dbPath string) (*BackupManager, error) {
	if dbPath == memoryPath {
		return nil, ErrBackupInMemory
	}

	absPath, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database path: %w", err)
	}

	backupsDir := filepath.Join(filepath.Dir(absPath), "backups")
	if err := os.MkdirAll(backupsDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create backups directory: %w", err)
	}

	return &BackupManager{db: db, dbPath: absPath, backupsDir: backupsDir}, nil
}

// Create writes a consistent copy of the database. An empty id is replaced
// with a timestamped one.
func (bm *BackupManager) Create(ctx context.Context, id, description string) (*BackupInfo, error) {
	return bm.create(ctx, id, description, false)
}

// AutoBackup creates a backup before a risky operation and prunes old
// automatic backups.
func (bm *BackupManager) AutoBackup(ctx context.Context, reason string) (*BackupInfo, error) {
	id := fmt.Sprintf("auto-%s-%s", reason, time.Now().Format("20060102-150405"))
	info, err := bm.create(ctx, id, "Automatic backup before "+reason, true)
	if err != nil {
		return nil, fmt.Errorf("failed to create automatic backup: %w", err)
	}

	if err := bm.pruneAuto(ctx); err != nil {
		slog.Warn("failed to prune old automatic backups", "error", err)
	}
	return info, nil
}

// List returns all backups, newest first. Backups with unreadable metadata
// are skipped.
func (bm *BackupManager) List(_ context.Context) ([]BackupInfo, error) {
	entries, err := os.ReadDir(bm.backupsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read backups directory: %w", err)
	}

	backups := make([]BackupInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".meta.json") {
			continue
		}
		info, err := bm.loadInfo(filepath.Join(bm.backupsDir, entry.Name()))
		if err != nil {
			slog.Debug("skipping unreadable backup metadata", "file", entry.Name(), "error", err)
			continue
		}
		backups = append(backups, *info)
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

// Restore replaces the database file with a backup. The database handle
// is closed first; callers must reopen storage afterwards.
func (bm *BackupManager) Restore(_ context.Context, id string) error {
	dbFile, metaFile, err := bm.paths(id)
	if err != nil {
		return err
	}
	if _, err := os.Stat(dbFile); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrBackupNotFound, id)
		}
		return fmt.Errorf("failed to access backup: %w", err)
	}
	if _, err := bm.loadInfo(metaFile); err != nil {
		return fmt.Errorf("failed to load backup metadata: %w", err)
	}
	if err := verifyIntegrity(dbFile); err != nil {
		return fmt.Errorf("%w: %w", ErrBackupCorrupted, err)
	}

	if err := bm.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	safety := bm.dbPath + ".restore-backup"
	if err := copyFile(bm.dbPath, safety); err != nil {
		return fmt.Errorf("failed to save current database: %w", err)
	}

	if err := copyFile(dbFile, bm.dbPath); err != nil {
		if rollbackErr := copyFile(safety, bm.dbPath); rollbackErr != nil {
			slog.Error("failed to put back database after restore failure", "error", rollbackErr)
		}
		return fmt.Errorf("failed to restore backup: %w", err)
	}

	// Stale WAL files belong to the replaced database.
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(bm.dbPath + suffix); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to remove stale WAL file", "file", bm.dbPath+suffix, "error", err)
		}
	}
	if err := os.Remove(safety); err != nil {
		slog.Warn("failed to remove restore safety copy", "error", err)
	}
	return nil
}

// Delete removes a backup and its metadata.
func (bm *BackupManager) Delete(_ context.Context, id string) error {
	dbFile, metaFile, err := bm.paths(id)
	if err != nil {
		return err
	}
	if err := os.Remove(dbFile); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrBackupNotFound, id)
		}
		return fmt.Errorf("failed to remove backup: %w", err)
	}
	if err := os.Remove(metaFile); err != nil && !os.IsNotExist(err) {
		slog.Debug("failed to remove backup metadata", "file", metaFile, "error", err)
	}
	return nil
}

func (bm *BackupManager) create(ctx context.Context, id, description string, auto bool) (*BackupInfo, error) {
	if id == "" {
		id = "backup-" + time.Now().Format("20060102-150405")
	}
	dbFile, metaFile, err := bm.paths(id)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(dbFile); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrBackupExists, id)
	}

	info := BackupInfo{
		ID:          id,
		CreatedAt:   time.Now(),
		Description: description,
		IsAuto:      auto,
	}

	if err := bm.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&info.SchemaVersion); err != nil {
		return nil, fmt.Errorf("failed to get schema version: %w", err)
	}
	info.Users = bm.count(ctx, "SELECT COUNT(*) FROM users")
	info.Predictions = bm.count(ctx, "SELECT COUNT(*) FROM transactions")

	if err := bm.vacuumInto(ctx, dbFile); err != nil {
		return nil, fmt.Errorf("failed to back up database: %w", err)
	}

	stat, err := os.Stat(dbFile)
	if err != nil {
		return nil, fmt.Errorf("failed to stat backup: %w", err)
	}
	info.FileSize = stat.Size()

	if err := saveInfo(metaFile, info); err != nil {
		if rmErr := os.Remove(dbFile); rmErr != nil {
			slog.Error("failed to remove backup after metadata failure", "error", rmErr)
		}
		return nil, fmt.Errorf("failed to save backup metadata: %w", err)
	}

	return &info, nil
}

// count returns a row count, or zero when the table does not exist yet.
func (bm *BackupManager) count(ctx context.Context, query string) int {
	var n int
	if err := bm.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0
	}
	return n
}

func (bm *BackupManager) vacuumInto(ctx context.Context, dest string) error {
	// VACUUM INTO takes a string literal, so the path must not be able to
	// break out of the quotes.
	if strings.ContainsAny(dest, `'";`) {
		return fmt.Errorf("%w: destination path contains quote characters", ErrInvalidBackupID)
	}
	// #nosec G201 - dest is built from a validated id and checked above
	_, err := bm.db.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", dest))
	return err
}

func (bm *BackupManager) pruneAuto(ctx context.Context) error {
	backups, err := bm.List(ctx)
	if err != nil {
		return err
	}

	kept := 0
	for _, b := range backups {
		if !b.IsAuto {
			continue
		}
		kept++
		if kept > maxAutoBackups {
			if err := bm.Delete(ctx, b.ID); err != nil {
				slog.Debug("failed to delete old automatic backup", "id", b.ID, "error", err)
			}
		}
	}
	return nil
}

func (bm *BackupManager) paths(id string) (string, string, error) {
	if id == "" || strings.ContainsAny(id, `/\'";`) || strings.Contains(id, "..") {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidBackupID, id)
	}
	return filepath.Join(bm.backupsDir, id+".db"), filepath.Join(bm.backupsDir, id+".meta.json"), nil
}

func (bm *BackupManager) loadInfo(path string) (*BackupInfo, error) {
	// #nosec G304 - path is inside the backups directory
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var info BackupInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func saveInfo(path string, info BackupInfo) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func verifyIntegrity(path string) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return err
	}
	if result != "ok" {
		return fmt.Errorf("integrity check: %s", result)
	}
	return nil
}

// copyFile copies src to dst through a temporary file and an atomic rename.
func copyFile(src, dst string) error {
	// #nosec G304 - both paths are derived from the configured database path
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	tmp := dst + ".tmp"
	// #nosec G304
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}
