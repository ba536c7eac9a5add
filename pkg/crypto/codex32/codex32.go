// Package codex32 implements codex32 (BIP-93 style) secret sharing:
// GF(32) arithmetic, BCH checksums over 5-bit symbols (bech32, bech32m and
// the 13-symbol MS32 code), the bech32 character encoding, and Lagrange
// interpolation to reconstruct a master secret or derive new shares.
//
// A share is written as
//
//	ms1 <k> <identifier> <index> <payload+checksum>
//
// where k is the threshold (0 for an unshared secret), the identifier is
// four bech32 characters, and index "s" denotes the master secret itself.
//
// The package never reads randomness on its own; callers pass an io.Reader.
package codex32

import (
	"fmt"
	"io"
)

// MinSecretLength is the minimum master secret length in bytes
const MinSecretLength = 16 // 128 bits

// MaxSecretLength is the maximum master secret length in bytes
const MaxSecretLength = 64 // 512 bits

// MaxShares is the largest number of numbered shares a secret can have
const MaxShares = 31

// NewMasterShare encodes a master secret as the secret share
func NewMasterShare(secret []byte, k int, identifier string) (*Share, error) {
	if len(secret) < MinSecretLength || len(secret) > MaxSecretLength {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSecretLength, len(secret))
	}

	return NewShareFromBytes(MS32, k, identifier, SecretIndex, secret)
}

// SplitMasterSecret splits a master secret into n share strings, any k of
// which recover it
func SplitMasterSecret(secret []byte, k, n int, identifier string, rand io.Reader) ([]string, error) {
	master, err := NewMasterShare(secret, k, identifier)
	if err != nil {
		return nil, err
	}

	shares, err := Split(master, n, rand)
	if err != nil {
		return nil, err
	}

	return shareStrings(shares), nil
}

// RecoverMasterSecret recovers the master secret bytes from share strings
func RecoverMasterSecret(encoded []string) ([]byte, error) {
	shares, err := ParseShares(encoded)
	if err != nil {
		return nil, err
	}

	secret, err := RecoverSecret(shares)
	if err != nil {
		return nil, err
	}

	return secret.Secret()
}

// DeriveShares derives new share strings at the given indices
func DeriveShares(encoded []string, indices []Index) ([]string, error) {
	shares, err := ParseShares(encoded)
	if err != nil {
		return nil, err
	}

	derived, err := ReconstructShares(shares, indices)
	if err != nil {
		return nil, err
	}

	return shareStrings(derived), nil
}

// ParseShares parses a list of share strings
func ParseShares(encoded []string) ([]*Share, error) {
	if len(encoded) == 0 {
		return nil, ErrNoShares
	}

	shares := make([]*Share, len(encoded))
	for i, s := range encoded {
		share, err := ParseShare(s)
		if err != nil {
			return nil, fmt.Errorf("invalid share %d: %w", i+1, err)
		}
		shares[i] = share
	}

	return shares, nil
}

// ValidateShare checks that a string is a well-formed share with a valid checksum
func ValidateShare(s string) error {
	_, err := ParseShare(s)
	return err
}

// GetShareInfo extracts information from a share string
func GetShareInfo(s string) (*ShareInfo, error) {
	share, err := ParseShare(s)
	if err != nil {
		return nil, err
	}

	info := share.Info()
	return &info, nil
}

func shareStrings(shares []*Share) []string {
	out := make([]string, len(shares))
	for i, s := range shares {
		out[i] = s.String()
	}
	return out
}
