package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Davincible/codex32/pkg/crypto/codex32"
)

var (
	hexPattern        = regexp.MustCompile(`^[0-9a-fA-F]+$`)
	identifierPattern = regexp.MustCompile(`^[qpzry9x8gf2tvdw0s3jn54khce6mua7l]{4}$`)
)

func ValidateHex(input string) error {
	input = strings.TrimSpace(input)
	if len(input) == 0 {
		return fmt.Errorf("hex string cannot be empty")
	}

	if len(input)%2 != 0 {
		return fmt.Errorf("hex string must have even length")
	}

	if !hexPattern.MatchString(input) {
		return fmt.Errorf("invalid hex characters")
	}

	return nil
}

// ValidateSecretLength checks a master secret size in bytes
func ValidateSecretLength(n int) error {
	if n < codex32.MinSecretLength || n > codex32.MaxSecretLength {
		return fmt.Errorf("secret must be between %d and %d bytes (got %d)",
			codex32.MinSecretLength, codex32.MaxSecretLength, n)
	}
	return nil
}

// ValidateIdentifier checks a four-character share identifier
func ValidateIdentifier(id string) error {
	if len(id) != 4 {
		return fmt.Errorf("identifier must be 4 characters (got %d)", len(id))
	}

	if !identifierPattern.MatchString(strings.ToLower(id)) {
		return fmt.Errorf("identifier %q contains characters outside %s", id, codex32.Charset)
	}

	return nil
}

func ValidateSplitParams(threshold, shares int) error {
	if threshold < 2 || threshold > codex32.MaxThreshold {
		return fmt.Errorf("threshold must be between 2 and %d (got %d)", codex32.MaxThreshold, threshold)
	}

	if shares < threshold || shares > codex32.MaxShares {
		return fmt.Errorf("shares must be between %d and %d (got %d)", threshold, codex32.MaxShares, shares)
	}

	return nil
}

// ParseIndexList parses a comma separated list of share indices. Each entry
// is either a decimal number ("24") or a single charset letter ("c", "s").
// Digits are always read as decimal.
func ParseIndexList(input string) ([]codex32.Index, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("index list cannot be empty")
	}

	parts := strings.Split(input, ",")
	indices := make([]codex32.Index, 0, len(parts))

	for _, part := range parts {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}

		index, err := parseIndex(part)
		if err != nil {
			return nil, err
		}
		indices = append(indices, index)
	}

	if len(indices) == 0 {
		return nil, fmt.Errorf("index list cannot be empty")
	}

	return indices, nil
}

func parseIndex(part string) (codex32.Index, error) {
	if n, err := strconv.Atoi(part); err == nil {
		if n == 16 {
			return codex32.Index{}, fmt.Errorf("index 16 is the secret, use 's'")
		}
		return codex32.ShareIndex(n)
	}

	if len(part) != 1 {
		return codex32.Index{}, fmt.Errorf("invalid index %q", part)
	}

	symbols, err := codex32.Decode(part)
	if err != nil {
		return codex32.Index{}, fmt.Errorf("invalid index %q: %w", part, err)
	}

	return codex32.IndexFromX(symbols[0])
}

func ValidatePassphrase(passphrase string) error {
	if len(passphrase) > 256 {
		return fmt.Errorf("passphrase too long (max 256 characters)")
	}

	for i, ch := range passphrase {
		if ch == 0 {
			return fmt.Errorf("passphrase contains null character at position %d", i)
		}
	}

	return nil
}

func SanitizeInput(input string) string {
	input = strings.TrimSpace(input)

	input = strings.ReplaceAll(input, "\r\n", "\n")
	input = strings.ReplaceAll(input, "\r", "\n")

	lines := strings.Split(input, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}

	return strings.Join(lines, "\n")
}
