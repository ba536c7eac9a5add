// Package sharestore keeps codex32 share sets on disk, optionally encrypted
package sharestore

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/Davincible/codex32/pkg/crypto/codex32"
	"github.com/Davincible/codex32/pkg/secure"
)

var (
	// ErrNotFound is returned for an unknown share set ID
	ErrNotFound = errors.New("sharestore: share set not found")

	// ErrChecksumMismatch means a share set changed outside the store
	ErrChecksumMismatch = errors.New("sharestore: checksum mismatch, data may be corrupted")

	// ErrLocked is returned when an encrypted file is read without a passphrase
	ErrLocked = errors.New("sharestore: share set is encrypted")
)

// encryptedMagic prefixes encrypted share set files
var encryptedMagic = []byte("C32E")

const (
	saltSize = 32
	keySize  = 32
)

// ShareSet is a named group of share strings from one split
type ShareSet struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Identifier     string        `json:"identifier"`
	Threshold      int           `json:"threshold"`
	Created        time.Time     `json:"created"`
	Modified       time.Time     `json:"modified"`
	Tags           []string      `json:"tags"`
	Shares         []StoredShare `json:"shares"`
	ChecksumSHA256 []byte        `json:"checksum_sha256"`
}

// StoredShare is one share string and its verification state
type StoredShare struct {
	Index        string      `json:"index"`
	Encoded      string      `json:"encoded"`
	Status       ShareStatus `json:"status"`
	LastVerified *time.Time  `json:"last_verified,omitempty"`
}

// ShareStatus represents the status of a share
type ShareStatus string

const (
	ShareStatusAvailable  ShareStatus = "available"
	ShareStatusCorrupted  ShareStatus = "corrupted"
	ShareStatusUnverified ShareStatus = "unverified"
)

// NewShareSet builds a share set from share strings. All shares must carry
// the same identifier and threshold.
func NewShareSet(name string, encoded []string, tags []string) (*ShareSet, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("share set name cannot be empty")
	}

	shares, err := codex32.ParseShares(encoded)
	if err != nil {
		return nil, err
	}

	first := shares[0]
	set := &ShareSet{
		Name:       name,
		Identifier: first.Identifier(),
		Threshold:  first.Threshold(),
		Tags:       tags,
		Shares:     make([]StoredShare, 0, len(shares)),
	}

	for i, s := range shares {
		if s.Identifier() != first.Identifier() {
			return nil, fmt.Errorf("share %d: %w", i+1, codex32.ErrIdentifierMismatch)
		}
		if s.Threshold() != first.Threshold() {
			return nil, fmt.Errorf("share %d: %w", i+1, codex32.ErrThresholdMismatch)
		}

		set.Shares = append(set.Shares, StoredShare{
			Index:   s.Index().String(),
			Encoded: s.String(),
			Status:  ShareStatusUnverified,
		})
	}

	return set, nil
}

// KeyDerivationParams are the argon2id parameters for the store key
type KeyDerivationParams struct {
	Time    uint32
	Memory  uint32
	Threads uint8
}

// DefaultKeyDerivationParams is used by EnableEncryption
var DefaultKeyDerivationParams = KeyDerivationParams{
	Time:    3,
	Memory:  64 * 1024, // 64MB
	Threads: 4,
}

// ShareStore manages collections of share sets
type ShareStore struct {
	storePath  string
	shareSets  map[string]*ShareSet
	passphrase []byte
	kdf        KeyDerivationParams
	skipped    []string
	now        func() time.Time
}

// NewShareStore opens the store directory, creating it if needed, and loads
// every plaintext share set. Encrypted sets load after EnableEncryption.
func NewShareStore(storePath string) (*ShareStore, error) {
	store := &ShareStore{
		storePath: storePath,
		shareSets: make(map[string]*ShareSet),
		kdf:       DefaultKeyDerivationParams,
		now:       time.Now,
	}

	if err := os.MkdirAll(storePath, 0700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	if err := store.loadShareSets(); err != nil {
		return nil, fmt.Errorf("failed to load share sets: %w", err)
	}

	return store, nil
}

// EnableEncryption sets the passphrase used to encrypt saved sets and reloads
// the store so encrypted sets become visible
func (ss *ShareStore) EnableEncryption(passphrase string) error {
	if passphrase == "" {
		return fmt.Errorf("passphrase cannot be empty")
	}

	secure.Zero(ss.passphrase)
	ss.passphrase = []byte(passphrase)

	return ss.loadShareSets()
}

// Close wipes the passphrase from memory
func (ss *ShareStore) Close() {
	secure.ClearBytes(&ss.passphrase)
}

// Encrypted reports whether the store writes encrypted files
func (ss *ShareStore) Encrypted() bool {
	return len(ss.passphrase) > 0
}

// Skipped lists files that could not be loaded on the last scan
func (ss *ShareStore) Skipped() []string {
	out := make([]string, len(ss.skipped))
	copy(out, ss.skipped)
	return out
}

// AddShareSet stores a share set, assigning an ID if it has none
func (ss *ShareStore) AddShareSet(shareSet *ShareSet) error {
	if shareSet.ID == "" {
		id, err := generateID()
		if err != nil {
			return err
		}
		shareSet.ID = id
	}

	now := ss.now()
	if shareSet.Created.IsZero() {
		shareSet.Created = now
	}
	shareSet.Modified = now

	if err := calculateChecksum(shareSet); err != nil {
		return fmt.Errorf("failed to calculate checksum: %w", err)
	}

	if err := ss.saveShareSet(shareSet); err != nil {
		return err
	}

	ss.shareSets[shareSet.ID] = shareSet
	return nil
}

// GetShareSet retrieves a share set by ID, ID prefix or exact name
func (ss *ShareStore) GetShareSet(ref string) (*ShareSet, error) {
	shareSet, err := ss.lookup(ref)
	if err != nil {
		return nil, err
	}

	if err := verifyChecksum(shareSet); err != nil {
		return nil, err
	}

	return shareSet, nil
}

// ListShareSets returns all share sets carrying every given tag, newest first
func (ss *ShareStore) ListShareSets(tags []string) []*ShareSet {
	var result []*ShareSet

	for _, shareSet := range ss.shareSets {
		if hasAllTags(shareSet, tags) {
			result = append(result, shareSet)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Created.Equal(result[j].Created) {
			return result[i].ID < result[j].ID
		}
		return result[i].Created.After(result[j].Created)
	})

	return result
}

// DeleteShareSet removes a share set from the store
func (ss *ShareStore) DeleteShareSet(ref string) error {
	shareSet, err := ss.lookup(ref)
	if err != nil {
		return err
	}

	if err := os.Remove(ss.filename(shareSet)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	delete(ss.shareSets, shareSet.ID)
	return nil
}

// VerificationReport contains the results of share verification
type VerificationReport struct {
	ShareSetID    string                    `json:"share_set_id"`
	Timestamp     time.Time                 `json:"timestamp"`
	TotalShares   int                       `json:"total_shares"`
	ValidShares   int                       `json:"valid_shares"`
	IsRecoverable bool                      `json:"is_recoverable"`
	Results       []ShareVerificationResult `json:"results"`
}

// ShareVerificationResult contains verification results for a single share
type ShareVerificationResult struct {
	Index   string      `json:"index"`
	Status  ShareStatus `json:"status"`
	IsValid bool        `json:"is_valid"`
	Error   string      `json:"error,omitempty"`
}

// VerifyShares re-parses every stored share string, records the outcome on
// the set and reports whether a quorum of valid shares remains
func (ss *ShareStore) VerifyShares(ref string) (*VerificationReport, error) {
	shareSet, err := ss.GetShareSet(ref)
	if err != nil {
		return nil, err
	}

	now := ss.now()
	report := &VerificationReport{
		ShareSetID:  shareSet.ID,
		Timestamp:   now,
		TotalShares: len(shareSet.Shares),
		Results:     make([]ShareVerificationResult, 0, len(shareSet.Shares)),
	}

	for i := range shareSet.Shares {
		stored := &shareSet.Shares[i]
		result := ShareVerificationResult{Index: stored.Index}

		if err := checkStoredShare(shareSet, stored); err != nil {
			result.Status = ShareStatusCorrupted
			result.Error = err.Error()
		} else {
			result.Status = ShareStatusAvailable
			result.IsValid = true
			report.ValidShares++
		}

		verified := now
		stored.LastVerified = &verified
		stored.Status = result.Status
		report.Results = append(report.Results, result)
	}

	report.IsRecoverable = report.ValidShares >= quorumSize(shareSet)

	shareSet.Modified = now
	if err := calculateChecksum(shareSet); err != nil {
		return nil, err
	}
	if err := ss.saveShareSet(shareSet); err != nil {
		return nil, err
	}

	return report, nil
}

// RecoveryShares returns a quorum of parsed shares ready for
// codex32.RecoverSecret. Shares that fail to parse are skipped.
func (ss *ShareStore) RecoveryShares(ref string) ([]*codex32.Share, error) {
	shareSet, err := ss.GetShareSet(ref)
	if err != nil {
		return nil, err
	}

	need := quorumSize(shareSet)
	shares := make([]*codex32.Share, 0, need)
	for i := range shareSet.Shares {
		if checkStoredShare(shareSet, &shareSet.Shares[i]) != nil {
			continue
		}

		share, err := codex32.ParseShare(shareSet.Shares[i].Encoded)
		if err != nil {
			continue
		}

		// The secret share alone recovers everything
		if share.Index().IsSecret() {
			return []*codex32.Share{share}, nil
		}

		if len(shares) < need {
			shares = append(shares, share)
		}
	}

	if len(shares) < need {
		return nil, fmt.Errorf("%w: need %d, have %d", codex32.ErrInsufficientShares, need, len(shares))
	}

	return shares, nil
}

// checkStoredShare parses a stored share and checks it still belongs to the set
func checkStoredShare(set *ShareSet, stored *StoredShare) error {
	share, err := codex32.ParseShare(stored.Encoded)
	if err != nil {
		return err
	}

	switch {
	case share.Identifier() != set.Identifier:
		return codex32.ErrIdentifierMismatch
	case share.Threshold() != set.Threshold:
		return codex32.ErrThresholdMismatch
	case share.Index().String() != stored.Index:
		return fmt.Errorf("share index %s does not match recorded index %s", share.Index(), stored.Index)
	}

	return nil
}

func quorumSize(set *ShareSet) int {
	if set.Threshold == 0 {
		return 1
	}
	return set.Threshold
}

func (ss *ShareStore) lookup(ref string) (*ShareSet, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrNotFound
	}

	if set, ok := ss.shareSets[ref]; ok {
		return set, nil
	}

	var matches []*ShareSet
	for id, set := range ss.shareSets {
		if strings.HasPrefix(id, ref) || set.Name == ref {
			matches = append(matches, set)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %q", ErrNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%q matches %d share sets, use the full ID", ref, len(matches))
	}
}

func (ss *ShareStore) loadShareSets() error {
	entries, err := os.ReadDir(ss.storePath)
	if err != nil {
		return err
	}

	ss.shareSets = make(map[string]*ShareSet)
	ss.skipped = nil

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		filename := filepath.Join(ss.storePath, entry.Name())
		if err := ss.loadShareSetFromFile(filename); err != nil {
			ss.skipped = append(ss.skipped, entry.Name())
		}
	}

	return nil
}

func (ss *ShareStore) loadShareSetFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	if bytes.HasPrefix(data, encryptedMagic) {
		data, err = ss.decrypt(data)
		if err != nil {
			return err
		}
	}

	var shareSet ShareSet
	if err := json.Unmarshal(data, &shareSet); err != nil {
		return err
	}

	if err := verifyChecksum(&shareSet); err != nil {
		return err
	}

	ss.shareSets[shareSet.ID] = &shareSet
	return nil
}

func (ss *ShareStore) saveShareSet(shareSet *ShareSet) error {
	data, err := json.MarshalIndent(shareSet, "", "  ")
	if err != nil {
		return err
	}

	if ss.Encrypted() {
		plain := data
		data, err = ss.encrypt(plain)
		secure.Zero(plain)
		if err != nil {
			return err
		}
	}

	return os.WriteFile(ss.filename(shareSet), data, 0600)
}

func (ss *ShareStore) filename(shareSet *ShareSet) string {
	safeName := strings.Map(func(r rune) rune {
		if r == ' ' || r == '/' || r == '\\' || r == os.PathSeparator {
			return '_'
		}
		return r
	}, shareSet.Name)
	if len(safeName) > 50 {
		safeName = safeName[:50]
	}

	id := shareSet.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return filepath.Join(ss.storePath, fmt.Sprintf("%s_%s.json", safeName, id))
}

func (ss *ShareStore) deriveKey(salt []byte) []byte {
	return argon2.IDKey(ss.passphrase, salt, ss.kdf.Time, ss.kdf.Memory, ss.kdf.Threads, keySize)
}

// encrypt lays out magic | salt | nonce | ciphertext
func (ss *ShareStore) encrypt(data []byte) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	key := ss.deriveKey(salt)
	defer secure.Zero(key)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	result := make([]byte, 0, len(encryptedMagic)+saltSize+len(nonce)+len(data)+aead.Overhead())
	result = append(result, encryptedMagic...)
	result = append(result, salt...)
	result = append(result, nonce...)
	return aead.Seal(result, nonce, data, encryptedMagic), nil
}

func (ss *ShareStore) decrypt(data []byte) ([]byte, error) {
	if !ss.Encrypted() {
		return nil, ErrLocked
	}

	header := len(encryptedMagic) + saltSize + chacha20poly1305.NonceSize
	if len(data) < header+chacha20poly1305.Overhead {
		return nil, fmt.Errorf("encrypted data too short")
	}

	salt := data[len(encryptedMagic) : len(encryptedMagic)+saltSize]
	nonce := data[len(encryptedMagic)+saltSize : header]

	key := ss.deriveKey(salt)
	defer secure.Zero(key)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}

	plain, err := aead.Open(nil, nonce, data[header:], encryptedMagic)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}

	return plain, nil
}

func calculateChecksum(shareSet *ShareSet) error {
	temp := *shareSet
	temp.ChecksumSHA256 = nil

	data, err := json.Marshal(temp)
	if err != nil {
		return err
	}

	hash := sha256.Sum256(data)
	shareSet.ChecksumSHA256 = hash[:]
	return nil
}

func verifyChecksum(shareSet *ShareSet) error {
	temp := *shareSet
	if err := calculateChecksum(&temp); err != nil {
		return err
	}

	if !secure.ConstantTimeCompare(shareSet.ChecksumSHA256, temp.ChecksumSHA256) {
		return ErrChecksumMismatch
	}

	return nil
}

func hasAllTags(shareSet *ShareSet, tags []string) bool {
	have := make(map[string]bool, len(shareSet.Tags))
	for _, tag := range shareSet.Tags {
		have[strings.ToLower(tag)] = true
	}

	for _, tag := range tags {
		if !have[strings.ToLower(tag)] {
			return false
		}
	}

	return true
}

func generateID() (string, error) {
	b := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", fmt.Errorf("failed to generate ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}
