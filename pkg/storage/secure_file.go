package storage

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/pbkdf2"

	"github.com/Davincible/codex32/pkg/crypto/codex32"
	"github.com/Davincible/codex32/pkg/secure"
)

const (
	SaltSize   = 32
	NonceSize  = 12
	KeySize    = 32
	Iterations = 600000

	// FormatVersion is written into every backup envelope
	FormatVersion = 1
)

// ErrDecrypt is returned for a wrong password or a tampered file
var ErrDecrypt = errors.New("storage: failed to decrypt backup")

// SecureFile is a single password-encrypted file on disk
type SecureFile struct {
	path       string
	iterations int
}

type envelope struct {
	Version    int    `json:"version"`
	KDF        string `json:"kdf"`
	Iterations int    `json:"iterations"`
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

func NewSecureFile(path string) *SecureFile {
	return &SecureFile{
		path:       path,
		iterations: Iterations,
	}
}

// Path returns the file location
func (s *SecureFile) Path() string {
	return s.path
}

// Save encrypts data with a key derived from password and writes it atomically
func (s *SecureFile) Save(data, password []byte) error {
	if len(password) == 0 {
		return fmt.Errorf("password cannot be empty")
	}

	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}

	gcm, err := newGCM(password, salt, s.iterations)
	if err != nil {
		return err
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	env := envelope{
		Version:    FormatVersion,
		KDF:        "pbkdf2-sha256",
		Iterations: s.iterations,
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: gcm.Seal(nil, nonce, data, nil),
	}

	jsonData, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal encrypted data: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, jsonData, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// Load reads and decrypts the file
func (s *SecureFile) Load(password []byte) ([]byte, error) {
	if len(password) == 0 {
		return nil, fmt.Errorf("password cannot be empty")
	}

	jsonData, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(jsonData, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal encrypted data: %w", err)
	}

	if env.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported backup version %d", env.Version)
	}
	if len(env.Salt) != SaltSize || len(env.Nonce) != NonceSize || env.Iterations <= 0 {
		return nil, fmt.Errorf("malformed backup header")
	}

	gcm, err := newGCM(password, env.Salt, env.Iterations)
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, env.Nonce, env.Ciphertext, nil)
	if err != nil {
		return nil, ErrDecrypt
	}

	return plaintext, nil
}

func (s *SecureFile) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Delete overwrites the file with random bytes before removing it
func (s *SecureFile) Delete() error {
	if !s.Exists() {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read file for secure deletion: %w", err)
	}

	if _, err := rand.Read(data); err != nil {
		return fmt.Errorf("failed to overwrite file: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to overwrite file: %w", err)
	}

	return os.Remove(s.path)
}

func newGCM(password, salt []byte, iterations int) (cipher.AEAD, error) {
	key := pbkdf2.Key(password, salt, iterations, KeySize, sha256.New)
	defer secure.Zero(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return gcm, nil
}

// Backup is the plaintext content of a share backup file
type Backup struct {
	Name       string    `json:"name"`
	Identifier string    `json:"identifier"`
	Threshold  int       `json:"threshold"`
	Created    time.Time `json:"created"`
	Tags       []string  `json:"tags,omitempty"`
	Shares     []string  `json:"shares"`
}

// BackupFile keeps one set of codex32 shares in a SecureFile
type BackupFile struct {
	file *SecureFile
}

func NewBackupFile(path string) *BackupFile {
	return &BackupFile{
		file: NewSecureFile(path),
	}
}

// SaveShares validates the shares and writes them encrypted
func (b *BackupFile) SaveShares(name string, tags, shares []string, password []byte) error {
	parsed, err := codex32.ParseShares(shares)
	if err != nil {
		return err
	}

	backup := Backup{
		Name:       name,
		Identifier: parsed[0].Identifier(),
		Threshold:  parsed[0].Threshold(),
		Created:    time.Now().UTC(),
		Tags:       tags,
		Shares:     make([]string, len(parsed)),
	}
	for i, s := range parsed {
		if s.Identifier() != backup.Identifier {
			return fmt.Errorf("share %d: %w", i+1, codex32.ErrIdentifierMismatch)
		}
		backup.Shares[i] = s.String()
	}

	data, err := json.Marshal(backup)
	if err != nil {
		return fmt.Errorf("failed to marshal shares: %w", err)
	}
	defer secure.Zero(data)

	return b.file.Save(data, password)
}

// LoadShares decrypts the backup and re-checks every share
func (b *BackupFile) LoadShares(password []byte) (*Backup, error) {
	data, err := b.file.Load(password)
	if err != nil {
		return nil, err
	}
	defer secure.Zero(data)

	var backup Backup
	if err := json.Unmarshal(data, &backup); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shares: %w", err)
	}

	for i, s := range backup.Shares {
		share, err := codex32.ParseShare(s)
		if err != nil {
			return nil, fmt.Errorf("backup share %d: %w", i+1, err)
		}
		if share.Identifier() != backup.Identifier {
			return nil, fmt.Errorf("backup share %d: %w", i+1, codex32.ErrIdentifierMismatch)
		}
	}

	return &backup, nil
}

func (b *BackupFile) Exists() bool {
	return b.file.Exists()
}

func (b *BackupFile) Delete() error {
	return b.file.Delete()
}
