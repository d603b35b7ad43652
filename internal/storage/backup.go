package storage

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// BackupManager handles collection database backup and restore.
type BackupManager struct {
	dbPath string
}

// NewBackupManager creates a backup manager for the given database path.
func NewBackupManager(dbPath string) *BackupManager {
	return &BackupManager{dbPath: dbPath}
}

// BackupConfig holds configuration for backup operations.
type BackupConfig struct {
	// BackupDir is where backups are stored. Empty means a "backups"
	// subdirectory next to the database.
	BackupDir string

	// BackupName is the backup file name without extension. Empty means
	// a timestamp-based name.
	BackupName string

	// VerifyBackup verifies the backup after creation.
	VerifyBackup bool

	// Encryption, when non-nil, encrypts the backup file with the
	// configured password.
	Encryption *EncryptionConfig
}

// DefaultBackupConfig returns a BackupConfig with sensible defaults.
func DefaultBackupConfig() *BackupConfig {
	return &BackupConfig{VerifyBackup: true}
}

// Backup creates a backup of the database using VACUUM INTO, which is
// atomic and does not require exclusive locks. Returns the backup path.
func (bm *BackupManager) Backup(config *BackupConfig) (string, error) {
	if config == nil {
		config = DefaultBackupConfig()
	}

	backupDir := config.BackupDir
	if backupDir == "" {
		backupDir = bm.GetBackupDir()
	}
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	backupName := config.BackupName
	if backupName == "" {
		backupName = fmt.Sprintf("backup_%s", time.Now().Format("20060102_150405"))
	}
	backupPath := filepath.Join(backupDir, backupName+".db")

	sourceDB, err := sql.Open("sqlite", bm.dbPath)
	if err != nil {
		return "", fmt.Errorf("failed to open source database: %w", err)
	}
	defer func() { _ = sourceDB.Close() }()

	vacuumSQL := fmt.Sprintf("VACUUM INTO %q", backupPath)
	if _, err := sourceDB.Exec(vacuumSQL); err != nil {
		return "", fmt.Errorf("failed to vacuum into backup: %w", err)
	}

	if config.VerifyBackup {
		if err := bm.VerifyBackup(backupPath); err != nil {
			_ = os.Remove(backupPath)
			return "", fmt.Errorf("backup verification failed: %w", err)
		}
	}

	if config.Encryption != nil {
		encryptedPath := backupPath + ".enc"
		if err := EncryptFile(backupPath, encryptedPath, config.Encryption); err != nil {
			_ = os.Remove(backupPath)
			return "", fmt.Errorf("failed to encrypt backup: %w", err)
		}
		if err := os.Remove(backupPath); err != nil {
			return "", fmt.Errorf("failed to remove plaintext backup: %w", err)
		}
		return encryptedPath, nil
	}

	return backupPath, nil
}

// Restore replaces the current database with a backup. Encrypted
// backups require the matching encryption config. The caller must have
// closed any open DB connection first.
func (bm *BackupManager) Restore(backupPath string, encryption *EncryptionConfig) error {
	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		return fmt.Errorf("backup file does not exist: %s", backupPath)
	}

	tempPath := bm.dbPath + ".restore.tmp"

	encrypted, err := IsEncrypted(backupPath)
	if err != nil {
		return fmt.Errorf("failed to inspect backup file: %w", err)
	}
	if encrypted {
		if encryption == nil {
			return fmt.Errorf("backup is encrypted but no password was provided")
		}
		if err := DecryptFile(backupPath, tempPath, encryption); err != nil {
			return err
		}
	} else {
		if err := copyFile(backupPath, tempPath); err != nil {
			_ = os.Remove(tempPath)
			return fmt.Errorf("failed to copy backup file: %w", err)
		}
	}

	if err := bm.VerifyBackup(tempPath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("restored database verification failed: %w", err)
	}

	// Keep the current database around in case the rename goes wrong.
	if _, err := os.Stat(bm.dbPath); err == nil {
		oldPath := bm.dbPath + ".old." + time.Now().Format("20060102_150405")
		if err := os.Rename(bm.dbPath, oldPath); err != nil {
			_ = os.Remove(tempPath)
			return fmt.Errorf("failed to set aside current database: %w", err)
		}
	}

	if err := os.Rename(tempPath, bm.dbPath); err != nil {
		return fmt.Errorf("failed to replace database with restored backup: %w", err)
	}

	return nil
}

// VerifyBackup verifies that a backup file is a valid SQLite database.
func (bm *BackupManager) VerifyBackup(backupPath string) error {
	db, err := sql.Open("sqlite", backupPath)
	if err != nil {
		return fmt.Errorf("failed to open backup as database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping backup database: %w", err)
	}

	var version string
	if err := db.QueryRow("SELECT sqlite_version()").Scan(&version); err != nil {
		return fmt.Errorf("failed to query backup database: %w", err)
	}

	return nil
}

// BackupInfo contains information about a backup file.
type BackupInfo struct {
	Path     string
	Name     string
	Size     int64
	ModTime  time.Time
	Checksum string
}

// ListBackups returns every backup file in the backup directory.
func (bm *BackupManager) ListBackups(backupDir string) ([]BackupInfo, error) {
	if backupDir == "" {
		backupDir = bm.GetBackupDir()
	}

	if _, err := os.Stat(backupDir); os.IsNotExist(err) {
		return []BackupInfo{}, nil
	}

	entries, err := os.ReadDir(backupDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var backups []BackupInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".db" && ext != ".enc" {
			continue
		}

		backupPath := filepath.Join(backupDir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			continue
		}

		checksum, err := calculateChecksum(backupPath)
		if err != nil {
			checksum = "unknown"
		}

		backups = append(backups, BackupInfo{
			Path:     backupPath,
			Name:     entry.Name(),
			Size:     info.Size(),
			ModTime:  info.ModTime(),
			Checksum: checksum,
		})
	}

	return backups, nil
}

// GetBackupDir returns the default backup directory path.
func (bm *BackupManager) GetBackupDir() string {
	return filepath.Join(filepath.Dir(bm.dbPath), "backups")
}

// calculateChecksum calculates the SHA-256 checksum of a file.
func calculateChecksum(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer func() { _ = file.Close() }()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
