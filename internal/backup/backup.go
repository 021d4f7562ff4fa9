// Package backup snapshots and restores the SQLite database file.
package backup

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/callboard/internal/constants"
	"github.com/julianstephens/callboard/internal/logger"
)

const (
	MaxBackups = constants.MaxBackups

	timestampFormat = "20060102-150405.000"
)

// Info describes one backup file on disk.
type Info struct {
	Path      string
	Size      int64
	Timestamp time.Time
}

type Manager struct {
	dbPath    string
	backupDir string
	now       func() time.Time
}

// NewManager manages backups for the database at dbPath. Backups live in a
// sibling "backups" directory.
func NewManager(dbPath string) *Manager {
	return &Manager{
		dbPath:    dbPath,
		backupDir: filepath.Join(filepath.Dir(dbPath), constants.BackupDirName),
		now:       time.Now,
	}
}

func (m *Manager) GetBackupDir() string {
	return m.backupDir
}

// CreateBackup writes a consistent snapshot with VACUUM INTO and prunes
// anything beyond MaxBackups.
func (m *Manager) CreateBackup() (string, error) {
	if _, err := os.Stat(m.dbPath); err != nil {
		return "", fmt.Errorf("database not found: %w", err)
	}
	if err := os.MkdirAll(m.backupDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	name := constants.BackupFilePrefix + m.now().UTC().Format(timestampFormat) + constants.BackupFileSuffix
	target := filepath.Join(m.backupDir, name)

	db, err := sql.Open("sqlite", "file:"+m.dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return "", err
	}
	defer db.Close()

	if _, err := db.ExecContext(context.Background(), `VACUUM INTO ?`, target); err != nil {
		return "", fmt.Errorf("failed to snapshot database: %w", err)
	}
	if err := os.Chmod(target, 0o600); err != nil {
		return "", err
	}

	if err := m.prune(); err != nil {
		logger.Warn("Failed to prune old backups", "error", err)
	}
	logger.Debug("Backup created", "path", target)
	return target, nil
}

// ListBackups returns backups newest first.
func (m *Manager) ListBackups() ([]Info, error) {
	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []Info
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, constants.BackupFilePrefix) || !strings.HasSuffix(name, constants.BackupFileSuffix) {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, constants.BackupFilePrefix), constants.BackupFileSuffix)
		ts, err := time.Parse(timestampFormat, stamp)
		if err != nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, err
		}
		out = append(out, Info{
			Path:      filepath.Join(m.backupDir, name),
			Size:      info.Size(),
			Timestamp: ts,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

func (m *Manager) prune() error {
	backups, err := m.ListBackups()
	if err != nil {
		return err
	}
	for i := MaxBackups; i < len(backups); i++ {
		if err := os.Remove(backups[i].Path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// RestoreBackup replaces the database with the backup at path. The current
// database is snapshotted first. Callers must close every open connection.
func (m *Manager) RestoreBackup(path string) error {
	if err := checkIntegrity(path); err != nil {
		return fmt.Errorf("backup %s is not usable: %w", filepath.Base(path), err)
	}

	if _, err := os.Stat(m.dbPath); err == nil {
		if _, err := m.CreateBackup(); err != nil {
			return fmt.Errorf("failed to back up current database: %w", err)
		}
	}

	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	dir := filepath.Dir(m.dbPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".callboard-restore-*.db")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, m.dbPath)
}

func checkIntegrity(path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return err
	}
	defer db.Close()

	var result string
	if err := db.QueryRow(`PRAGMA integrity_check`).Scan(&result); err != nil {
		return err
	}
	if result != "ok" {
		return fmt.Errorf("integrity check: %s", result)
	}
	return nil
}
