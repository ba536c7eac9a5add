package cli

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Davincible/codex32/pkg/crypto/codex32"
	"github.com/Davincible/codex32/pkg/crypto/hdkey"
	"github.com/Davincible/codex32/pkg/crypto/mnemonic"
	"github.com/Davincible/codex32/pkg/secure"
)

// CombineResult is the JSON form of combine output
type CombineResult struct {
	Secret       string `json:"secret"`
	MasterShare  string `json:"master_share"`
	Identifier   string `json:"identifier"`
	Fingerprint  string `json:"fingerprint"`
	Mnemonic     string `json:"mnemonic,omitempty"`
	Path         string `json:"path,omitempty"`
	PublicKey    string `json:"public_key,omitempty"`
	Xpub         string `json:"xpub,omitempty"`
	Xprv         string `json:"xprv,omitempty"`
	XpubVerified bool   `json:"xpub_verified,omitempty"`
}

// keyOptions selects which views of the recovered secret are printed
type keyOptions struct {
	mnemonic   bool
	xpub       bool
	xprv       bool
	path       string
	account    int
	expectXpub string
	wipe       bool
}

func addKeyFlags(cmd *cobra.Command, opts *keyOptions) {
	cmd.Flags().BoolVar(&opts.mnemonic, "bip39", false, "Also print the secret as a BIP-39 phrase")
	cmd.Flags().BoolVar(&opts.xpub, "xpub", false, "Also print the extended public key (at --path or --account, default m)")
	cmd.Flags().BoolVar(&opts.xprv, "xprv", false, "Also print the extended private key (sensitive)")
	cmd.Flags().StringVar(&opts.path, "path", "", "BIP-32 derivation path for --xpub/--xprv, e.g. m/84'/0'/0'")
	cmd.Flags().IntVar(&opts.account, "account", -1, "Use the BIP-84 account path m/84'/0'/N'")
	cmd.Flags().StringVar(&opts.expectXpub, "expect-xpub", "", "Fail unless the recovered key at the chosen path has this xpub")
	cmd.MarkFlagsMutuallyExclusive("path", "account")
}

// deriveKey walks from the master key to the path selected by opts
func (opts keyOptions) deriveKey(master *hdkey.HDKey) (*hdkey.HDKey, error) {
	switch {
	case opts.account >= 0:
		return master.DeriveAccount(hdkey.PurposeBIP84, hdkey.CoinTypeBitcoin, uint32(opts.account))
	case opts.path != "":
		return master.DerivePath(opts.path)
	default:
		return master, nil
	}
}

func NewCombineCommand() *cobra.Command {
	var opts keyOptions

	cmd := &cobra.Command{
		Use:   "combine [share...]",
		Short: "Recover the master secret from a quorum of shares",
		Long: `Recover the master secret from at least threshold shares with the
same identifier. Shares are taken from the arguments, or read from
stdin one per line.`,
		Example: `  # Recover from two shares
  codex32 combine ms12test... ms12test...

  # Also print the BIP-39 phrase and master xpub
  codex32 combine --bip39 --xpub < shares.txt

  # Check the recovered seed against a watch-only wallet's account xpub
  codex32 combine --account 0 --expect-xpub xpub6... < shares.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			encoded, err := readShares(cmd, bufio.NewReader(cmd.InOrStdin()), args)
			if err != nil {
				return err
			}

			slog.Debug("Combining shares", "count", len(encoded))

			shares, err := codex32.ParseShares(encoded)
			if err != nil {
				return err
			}

			opts.wipe = cfg.Security.WipeMemory
			result, err := combineShares(shares, opts)
			if err != nil {
				return err
			}

			if jsonOutput(cmd) {
				return writeJSON(cmd.OutOrStdout(), result)
			}

			displayCombine(cmd, result)
			return nil
		},
	}

	addKeyFlags(cmd, &opts)

	return cmd
}

// combineShares recovers the secret share and renders the requested views of it
func combineShares(shares []*codex32.Share, opts keyOptions) (*CombineResult, error) {
	masterShare, err := codex32.RecoverSecret(shares)
	if err != nil {
		return nil, fmt.Errorf("failed to recover secret: %w", err)
	}

	secret, err := masterShare.Secret()
	if err != nil {
		return nil, err
	}
	if opts.wipe {
		defer secure.Zero(secret)
	}

	master, err := hdkey.NewMasterKey(secret)
	if err != nil {
		return nil, err
	}

	result := &CombineResult{
		Secret:      hex.EncodeToString(secret),
		MasterShare: masterShare.String(),
		Identifier:  masterShare.Identifier(),
		Fingerprint: master.FingerprintHex(),
	}

	if opts.mnemonic {
		m, err := mnemonic.FromShare(masterShare)
		if err != nil {
			return nil, err
		}
		result.Mnemonic = m.Words()
	}

	if !opts.xpub && !opts.xprv && opts.expectXpub == "" {
		return result, nil
	}

	key, err := opts.deriveKey(master)
	if err != nil {
		return nil, err
	}
	slog.Debug("Derived key", "path", key.Path())

	result.Path = key.Path()
	result.PublicKey = key.PublicKeyHex()
	result.Xpub = key.ExtendedPublicKey()
	if opts.xprv {
		result.Xprv = key.ExtendedPrivateKey()
	}

	if opts.expectXpub != "" {
		expected, err := hdkey.FromExtendedKey(strings.TrimSpace(opts.expectXpub))
		if err != nil {
			return nil, err
		}
		if expected.IsPrivate() {
			return nil, fmt.Errorf("--expect-xpub takes a public key, not an xprv")
		}
		if expected.ExtendedPublicKey() != result.Xpub {
			return nil, fmt.Errorf("recovered key at %s does not match the expected xpub", key.Path())
		}
		result.XpubVerified = true
	}

	return result, nil
}

func displayCombine(cmd *cobra.Command, result *CombineResult) {
	w := cmd.OutOrStdout()

	fmt.Fprintln(w)
	green.Fprintln(w, "✓ Successfully recovered master secret!")
	fmt.Fprintln(w)

	cyan.Fprintln(w, "Master Secret:")
	fmt.Fprintf(w, "  Hex:         %s\n", result.Secret)
	fmt.Fprintf(w, "  Share:       %s\n", result.MasterShare)
	fmt.Fprintf(w, "  Fingerprint: %s\n", result.Fingerprint)

	if result.Mnemonic != "" {
		fmt.Fprintln(w)
		cyan.Fprintln(w, "BIP-39 Mnemonic:")
		fmt.Fprintf(w, "  %s\n", result.Mnemonic)
	}

	if result.Xpub != "" {
		fmt.Fprintln(w)
		cyan.Fprintf(w, "Extended keys (%s):\n", result.Path)
		fmt.Fprintf(w, "  Public key: %s\n", result.PublicKey)
		fmt.Fprintf(w, "  xpub:       %s\n", result.Xpub)
		if result.Xprv != "" {
			red.Fprintf(w, "  xprv:       %s\n", result.Xprv)
		}
		if result.XpubVerified {
			green.Fprintln(w, "  ✓ Matches the expected xpub")
		}
	}
}
