package backups

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/julianstephens/callboard/internal/backup"
	"github.com/julianstephens/callboard/internal/cli"
	"github.com/julianstephens/callboard/internal/storage/sqlite"
)

// manager refuses stores that are not SQLite files
func manager(ctx *cli.Context) (*backup.Manager, error) {
	if _, ok := ctx.Store.(*sqlite.Store); !ok {
		return nil, errors.New("backups are only supported for SQLite databases; use pg_dump for PostgreSQL")
	}
	return backup.NewManager(ctx.Store.GetConfigPath()), nil
}

type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run(ctx *cli.Context) error {
	mgr, err := manager(ctx)
	if err != nil {
		return err
	}
	out := ctx.Out()
	backupPath, err := mgr.CreateBackup()
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}

	fmt.Fprintf(out, "✓ Backup created: %s\n", filepath.Base(backupPath))
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *cli.Context) error {
	mgr, err := manager(ctx)
	if err != nil {
		return err
	}
	out := ctx.Out()
	backups, err := mgr.ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	if len(backups) == 0 {
		fmt.Fprintln(out, "No backups found.")
		fmt.Fprintf(out, "Backups are stored in: %s\n", mgr.GetBackupDir())
		return nil
	}

	fmt.Fprintf(out, "Available backups (%d total, keeping most recent %d):\n\n", len(backups), backup.MaxBackups)
	for _, b := range backups {
		sizeKB := float64(b.Size) / 1024.0
		timestamp := b.Timestamp.Format("2006-01-02 15:04:05")
		filename := filepath.Base(b.Path)
		fmt.Fprintf(out, "  %s  %s  (%.1f KB)\n", timestamp, filename, sizeKB)
	}
	fmt.Fprintf(out, "\nBackup directory: %s\n", mgr.GetBackupDir())

	return nil
}

type BackupRestoreCmd struct {
	BackupFile string `arg:"" help:"Path or filename of the backup to restore."`
	Yes        bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *BackupRestoreCmd) Run(ctx *cli.Context) error {
	mgr, err := manager(ctx)
	if err != nil {
		return err
	}

	// Determine the full path to the backup file
	backupPath := c.BackupFile

	// If it's an absolute path, use it directly
	if filepath.IsAbs(backupPath) {
		// Verify absolute path exists
		if _, err := os.Stat(backupPath); os.IsNotExist(err) {
			return fmt.Errorf("backup file not found: %s", backupPath)
		}
	} else {
		// For relative paths, first check current directory
		if _, err := os.Stat(backupPath); err == nil {
			// File exists in current directory - convert to absolute path
			absPath, err := filepath.Abs(backupPath)
			if err != nil {
				return fmt.Errorf("failed to resolve backup path: %w", err)
			}
			backupPath = absPath
		} else {
			// Check backup directory
			possiblePath := filepath.Join(mgr.GetBackupDir(), c.BackupFile)
			if _, err := os.Stat(possiblePath); err == nil {
				backupPath = possiblePath
			} else {
				return fmt.Errorf("backup file not found: tried current directory and %s", mgr.GetBackupDir())
			}
		}
	}

	out := ctx.Out()

	// Show warning and ask for confirmation
	fmt.Fprintln(out, "⚠️  WARNING: This will replace your current database with the backup.")
	fmt.Fprintln(out, "⚠️  IMPORTANT: All callboard processes (including TUI) must be stopped before restore.")
	fmt.Fprintln(out, "             Concurrent access during restore can cause data corruption.")
	fmt.Fprintln(out, "A backup of your current database will be created before restoring.")
	fmt.Fprintf(out, "\nRestore from: %s\n", backupPath)
	if !c.Yes {
		fmt.Fprint(out, "Continue? [y/N]: ")

		reader := bufio.NewReader(ctx.In())
		response, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		response = strings.TrimSpace(strings.ToLower(response))

		if response != "y" && response != "yes" {
			fmt.Fprintln(out, "Restore cancelled.")
			return nil
		}
	}

	// Close the current store connection before restoring
	if err := ctx.Store.Close(); err != nil {
		ctx.Log().Warn("Failed to close database connection", "error", err)
	}

	// Perform restore
	if err := mgr.RestoreBackup(backupPath); err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to reopen restored database: %w", err)
	}

	fmt.Fprintln(out, "✓ Database restored successfully!")
	fmt.Fprintln(out, "⚠️  Remember to restart any callboard processes that were stopped for the restore.")
	fmt.Fprintln(out, "    The restored database is now active.")

	return nil
}
