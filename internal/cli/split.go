package cli

import (
	"bufio"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Davincible/codex32/internal/validation"
	"github.com/Davincible/codex32/pkg/config"
	"github.com/Davincible/codex32/pkg/crypto/codex32"
	"github.com/Davincible/codex32/pkg/crypto/hdkey"
	"github.com/Davincible/codex32/pkg/crypto/mnemonic"
	"github.com/Davincible/codex32/pkg/secure"
	"github.com/Davincible/codex32/pkg/sharestore"
)

// SplitResult is the JSON form of split output
type SplitResult struct {
	Identifier  string   `json:"identifier"`
	Threshold   int      `json:"threshold"`
	Total       int      `json:"total"`
	Fingerprint string   `json:"fingerprint"`
	Shares      []string `json:"shares"`
	StoredAs    string   `json:"stored_as,omitempty"`
}

func NewSplitCommand() *cobra.Command {
	var (
		threshold    int
		shares       int
		identifier   string
		secretHex    string
		bip39Phrase  string
		secretLength int
		storeName    string
		tags         []string
	)

	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split a master secret into codex32 shares",
		Long: `Split a 16 to 64 byte master secret into codex32 shares. Any
threshold of the shares recovers the secret.

The secret comes from --secret (hex), --bip39 (the entropy of a BIP-39
phrase), --length (fresh random bytes), or is read from stdin as hex.

The identifier defaults to the first four bech32 characters of the
BIP-32 master key fingerprint. A threshold of 0 encodes the secret as a
single unshared "ms10" string.`,
		Example: `  # 2-of-3 from a random 128-bit secret
  codex32 split --threshold 2 --shares 3 --length 16

  # 3-of-5 from an existing BIP-39 phrase, saved to the share store
  codex32 split -t 3 -n 5 --bip39 "abandon ... about" --store "cold wallet"

  # Encode a hex secret without splitting
  codex32 split --threshold 0 --secret 000102030405060708090a0b0c0d0e0f`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			in := bufio.NewReader(cmd.InOrStdin())

			if !cmd.Flags().Changed("threshold") {
				threshold = cfg.Defaults.Threshold
			}
			if !cmd.Flags().Changed("shares") {
				shares = cfg.Defaults.Shares
			}
			if identifier == "" {
				identifier = cfg.Defaults.Identifier
			}

			if threshold != 0 {
				if err := validation.ValidateSplitParams(threshold, shares); err != nil {
					return err
				}
			}

			secret, err := resolveSecret(cmd, in, secretHex, bip39Phrase, secretLength)
			if err != nil {
				return err
			}
			if cfg.Security.WipeMemory {
				defer secure.Zero(secret)
			}

			master, err := hdkey.NewMasterKey(secret)
			if err != nil {
				return err
			}

			if identifier == "" {
				if identifier, err = hdkey.DefaultIdentifier(secret); err != nil {
					return err
				}
			}
			identifier = strings.ToLower(identifier)
			if err := validation.ValidateIdentifier(identifier); err != nil {
				return err
			}

			slog.Debug("Splitting master secret",
				"threshold", threshold, "shares", shares,
				"identifier", identifier, "bytes", len(secret))

			masterShare, err := codex32.NewMasterShare(secret, threshold, identifier)
			if err != nil {
				return fmt.Errorf("failed to encode master secret: %w", err)
			}

			encoded := []string{masterShare.String()}
			if threshold != 0 {
				split, err := codex32.Split(masterShare, shares, rand.Reader)
				if err != nil {
					return fmt.Errorf("failed to split secret: %w", err)
				}
				encoded = make([]string, len(split))
				for i, s := range split {
					encoded[i] = s.String()
				}
			}

			result := SplitResult{
				Identifier:  identifier,
				Threshold:   threshold,
				Total:       len(encoded),
				Fingerprint: master.FingerprintHex(),
				Shares:      encoded,
			}

			if storeName != "" {
				id, err := storeShares(cmd, in, cfg, storeName, tags, encoded)
				if err != nil {
					return err
				}
				result.StoredAs = id
			}

			if jsonOutput(cmd) {
				return writeJSON(cmd.OutOrStdout(), result)
			}

			displaySplit(cmd, result)
			return nil
		},
	}

	cmd.Flags().IntVarP(&threshold, "threshold", "t", 2, "Shares required to recover (2-9, or 0 for no split)")
	cmd.Flags().IntVarP(&shares, "shares", "n", 3, "Number of shares to create (threshold-31)")
	cmd.Flags().StringVar(&identifier, "id", "", "Four character identifier (default: from the master fingerprint)")
	cmd.Flags().StringVar(&secretHex, "secret", "", "Master secret in hex")
	cmd.Flags().StringVar(&bip39Phrase, "bip39", "", "BIP-39 phrase whose entropy is the master secret")
	cmd.Flags().IntVarP(&secretLength, "length", "l", 0, "Generate a random secret of this many bytes (16-64)")
	cmd.Flags().StringVar(&storeName, "store", "", "Save the shares to the share store under this name")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "Tags for the stored share set")
	cmd.MarkFlagsMutuallyExclusive("secret", "bip39", "length")

	return cmd
}

// resolveSecret picks the master secret from the first source given
func resolveSecret(cmd *cobra.Command, in *bufio.Reader, secretHex, phrase string, length int) ([]byte, error) {
	switch {
	case secretHex != "":
		return decodeSecretHex(secretHex)

	case phrase != "":
		m, err := mnemonic.FromWords(phrase)
		if err != nil {
			return nil, err
		}
		return m.Entropy()

	case length > 0:
		if err := validation.ValidateSecretLength(length); err != nil {
			return nil, err
		}
		return secure.SecureRandom(length)

	default:
		input, err := readHidden(cmd, in, "Master secret (hex): ")
		if err != nil {
			return nil, fmt.Errorf("failed to read secret: %w", err)
		}
		return decodeSecretHex(input)
	}
}

func decodeSecretHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if err := validation.ValidateHex(s); err != nil {
		return nil, fmt.Errorf("invalid secret: %w", err)
	}

	secret, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid secret: %w", err)
	}

	if err := validation.ValidateSecretLength(len(secret)); err != nil {
		secure.Zero(secret)
		return nil, err
	}
	return secret, nil
}

func storeShares(cmd *cobra.Command, in *bufio.Reader, cfg *config.Config, name string, tags, encoded []string) (string, error) {
	store, err := openStore(cmd, in, cfg, "")
	if err != nil {
		return "", err
	}
	defer store.Close()

	set, err := sharestore.NewShareSet(name, encoded, tags)
	if err != nil {
		return "", err
	}

	if err := store.AddShareSet(set); err != nil {
		return "", fmt.Errorf("failed to store shares: %w", err)
	}

	slog.Debug("Stored share set", "id", set.ID, "name", name, "encrypted", store.Encrypted())
	return set.ID, nil
}

func displaySplit(cmd *cobra.Command, result SplitResult) {
	w := cmd.OutOrStdout()

	fmt.Fprintln(w)
	if result.Threshold == 0 {
		yellow.Fprintln(w, "=== CODEX32 SECRET (UNSHARED) ===")
	} else {
		yellow.Fprintln(w, "=== CODEX32 SHARES ===")
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Identifier:  %s\n", result.Identifier)
	fmt.Fprintf(w, "Fingerprint: %s\n", result.Fingerprint)
	if result.Threshold != 0 {
		green.Fprintf(w, "Created %d shares, any %d recover the secret\n", result.Total, result.Threshold)
	}
	fmt.Fprintln(w)

	printShareList(w, result.Shares)

	if result.StoredAs != "" {
		fmt.Fprintln(w)
		green.Fprintf(w, "✓ Stored as share set %s\n", result.StoredAs)
	}

	fmt.Fprintln(w)
	red.Fprintln(w, "⚠️  SECURITY WARNING:")
	fmt.Fprintln(w, "- Store each share in a different secure location")
	fmt.Fprintln(w, "- Never keep a threshold of shares together")
	fmt.Fprintln(w, "- Test recovery before relying on this backup")
}
