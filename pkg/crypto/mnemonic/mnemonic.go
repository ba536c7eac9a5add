// Package mnemonic converts between BIP-39 phrases and codex32 secret shares.
package mnemonic

import (
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"

	"github.com/Davincible/codex32/pkg/crypto/codex32"
)

const (
	MinEntropyBits = 128
	MaxEntropyBits = 256
)

// Mnemonic is a validated BIP-39 phrase
type Mnemonic struct {
	words      []string
	passphrase string
}

// NewMnemonic generates a fresh phrase with the given entropy size
func NewMnemonic(entropyBits int) (*Mnemonic, error) {
	if entropyBits < MinEntropyBits || entropyBits > MaxEntropyBits {
		return nil, fmt.Errorf("entropy bits must be between %d and %d", MinEntropyBits, MaxEntropyBits)
	}

	if entropyBits%32 != 0 {
		return nil, fmt.Errorf("entropy bits must be a multiple of 32")
	}

	entropy, err := bip39.NewEntropy(entropyBits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate entropy: %w", err)
	}

	return FromEntropy(entropy)
}

// FromWords parses and validates a phrase. Extra whitespace and upper case
// are tolerated.
func FromWords(words string) (*Mnemonic, error) {
	normalized := strings.Join(strings.Fields(strings.ToLower(words)), " ")
	if !bip39.IsMnemonicValid(normalized) {
		return nil, fmt.Errorf("invalid mnemonic phrase")
	}

	return &Mnemonic{
		words: strings.Split(normalized, " "),
	}, nil
}

// FromEntropy encodes 16 to 32 bytes of entropy as a phrase
func FromEntropy(entropy []byte) (*Mnemonic, error) {
	if len(entropy) < 16 || len(entropy) > 32 {
		return nil, fmt.Errorf("entropy must be between 16 and 32 bytes, got %d", len(entropy))
	}

	if len(entropy)%4 != 0 {
		return nil, fmt.Errorf("entropy length must be a multiple of 4, got %d", len(entropy))
	}

	phrase, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, fmt.Errorf("failed to generate mnemonic from entropy: %w", err)
	}

	return &Mnemonic{
		words: strings.Split(phrase, " "),
	}, nil
}

func (m *Mnemonic) Words() string {
	return strings.Join(m.words, " ")
}

func (m *Mnemonic) WordCount() int {
	return len(m.words)
}

func (m *Mnemonic) SetPassphrase(passphrase string) {
	m.passphrase = passphrase
}

// Seed returns the BIP-39 seed for the phrase and passphrase
func (m *Mnemonic) Seed() []byte {
	return bip39.NewSeed(m.Words(), m.passphrase)
}

// Entropy returns the entropy the phrase encodes
func (m *Mnemonic) Entropy() ([]byte, error) {
	entropy, err := bip39.EntropyFromMnemonic(m.Words())
	if err != nil {
		return nil, fmt.Errorf("failed to get entropy from mnemonic: %w", err)
	}
	return entropy, nil
}

func (m *Mnemonic) Validate() error {
	if !bip39.IsMnemonicValid(m.Words()) {
		return fmt.Errorf("invalid mnemonic phrase")
	}
	return nil
}

// ToShare encodes the phrase's entropy as a codex32 secret share
func ToShare(m *Mnemonic, k int, identifier string) (*codex32.Share, error) {
	entropy, err := m.Entropy()
	if err != nil {
		return nil, err
	}

	return codex32.NewMasterShare(entropy, k, identifier)
}

// FromShare turns a secret share back into a phrase. Only secrets of a
// length BIP-39 can express are accepted.
func FromShare(share *codex32.Share) (*Mnemonic, error) {
	secret, err := share.Secret()
	if err != nil {
		return nil, err
	}

	m, err := FromEntropy(secret)
	if err != nil {
		return nil, fmt.Errorf("secret cannot be expressed as BIP-39: %w", err)
	}
	return m, nil
}

// ValidateWordCount reports whether count is a valid BIP-39 phrase length
func ValidateWordCount(count int) bool {
	switch count {
	case 12, 15, 18, 21, 24:
		return true
	}
	return false
}
