package storage

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/argon2"
)

const (
	// encryptionMagicHeader identifies encrypted backup files.
	encryptionMagicHeader = "CMDRENC1"

	// Argon2id parameters (RFC 9106 recommendations).
	defaultArgon2Time    = 1
	defaultArgon2Memory  = 64 * 1024 // 64 MB
	defaultArgon2Threads = 4
	defaultArgon2KeyLen  = 32 // 256 bits for AES-256

	saltLength = 32
)

// EncryptionConfig holds parameters for backup encryption.
type EncryptionConfig struct {
	// Password is the encryption passphrase.
	Password string

	// Argon2Time is the number of Argon2 iterations.
	Argon2Time uint32

	// Argon2Memory is the Argon2 memory cost in KB.
	Argon2Memory uint32

	// Argon2Threads is the Argon2 parallelism degree.
	Argon2Threads uint8
}

// DefaultEncryptionConfig returns encryption config with secure defaults.
func DefaultEncryptionConfig(password string) *EncryptionConfig {
	return &EncryptionConfig{
		Password:      password,
		Argon2Time:    defaultArgon2Time,
		Argon2Memory:  defaultArgon2Memory,
		Argon2Threads: defaultArgon2Threads,
	}
}

// deriveKey derives an AES-256 key from a password using Argon2id.
func deriveKey(password string, salt []byte, config *EncryptionConfig) []byte {
	if config == nil {
		config = DefaultEncryptionConfig(password)
	}
	return argon2.IDKey(
		[]byte(password),
		salt,
		config.Argon2Time,
		config.Argon2Memory,
		config.Argon2Threads,
		defaultArgon2KeyLen,
	)
}

// EncryptData encrypts data with AES-256-GCM under a password-derived
// key. Output layout: salt || nonce || ciphertext (incl. auth tag).
func EncryptData(plaintext []byte, config *EncryptionConfig) ([]byte, error) {
	if config == nil || config.Password == "" {
		return nil, fmt.Errorf("encryption config with password required")
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	key := deriveKey(config.Password, salt, config)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	result := make([]byte, 0, len(salt)+len(nonce)+len(ciphertext))
	result = append(result, salt...)
	result = append(result, nonce...)
	result = append(result, ciphertext...)

	return result, nil
}

// DecryptData decrypts data produced by EncryptData.
func DecryptData(encrypted []byte, config *EncryptionConfig) ([]byte, error) {
	if config == nil || config.Password == "" {
		return nil, fmt.Errorf("encryption config with password required")
	}

	// Minimum: salt + 12-byte GCM nonce + 16-byte auth tag.
	minSize := saltLength + 12 + 16
	if len(encrypted) < minSize {
		return nil, fmt.Errorf("encrypted data too short")
	}

	salt := encrypted[:saltLength]
	encrypted = encrypted[saltLength:]

	key := deriveKey(config.Password, salt, config)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(encrypted) < nonceSize {
		return nil, fmt.Errorf("encrypted data too short for nonce")
	}
	nonce := encrypted[:nonceSize]
	ciphertext := encrypted[nonceSize:]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed (wrong password or corrupted data): %w", err)
	}

	return plaintext, nil
}

// EncryptFile encrypts sourcePath into destPath with the magic header
// prepended.
func EncryptFile(sourcePath, destPath string, config *EncryptionConfig) error {
	plaintext, err := os.ReadFile(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to read source file: %w", err)
	}

	encrypted, err := EncryptData(plaintext, config)
	if err != nil {
		return fmt.Errorf("encryption failed: %w", err)
	}

	destFile, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer func() { _ = destFile.Close() }()

	if _, err := destFile.Write([]byte(encryptionMagicHeader)); err != nil {
		return fmt.Errorf("failed to write magic header: %w", err)
	}
	if _, err := destFile.Write(encrypted); err != nil {
		return fmt.Errorf("failed to write encrypted data: %w", err)
	}

	return nil
}

// DecryptFile decrypts an encrypted backup file into destPath.
func DecryptFile(sourcePath, destPath string, config *EncryptionConfig) error {
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to read encrypted file: %w", err)
	}

	if len(data) < len(encryptionMagicHeader) {
		return fmt.Errorf("file too short to be encrypted")
	}
	if string(data[:len(encryptionMagicHeader)]) != encryptionMagicHeader {
		return fmt.Errorf("file is not encrypted or has wrong format")
	}

	plaintext, err := DecryptData(data[len(encryptionMagicHeader):], config)
	if err != nil {
		return fmt.Errorf("decryption failed: %w", err)
	}

	if err := os.WriteFile(destPath, plaintext, 0o644); err != nil {
		return fmt.Errorf("failed to write decrypted file: %w", err)
	}

	return nil
}

// IsEncrypted checks a file for the encrypted-backup magic header.
func IsEncrypted(filePath string) (bool, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return false, err
	}
	defer func() { _ = file.Close() }()

	header := make([]byte, len(encryptionMagicHeader))
	n, err := file.Read(header)
	if err != nil && err != io.EOF {
		return false, err
	}

	return n == len(encryptionMagicHeader) && string(header) == encryptionMagicHeader, nil
}
