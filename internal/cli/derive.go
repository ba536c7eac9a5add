package cli

import (
	"bufio"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Davincible/codex32/internal/validation"
	"github.com/Davincible/codex32/pkg/crypto/codex32"
)

// DeriveResult is the JSON form of derive output
type DeriveResult struct {
	Identifier string   `json:"identifier"`
	Threshold  int      `json:"threshold"`
	Shares     []string `json:"shares"`
}

func NewDeriveCommand() *cobra.Command {
	var indexList string

	cmd := &cobra.Command{
		Use:   "derive [share...]",
		Short: "Derive new shares at chosen indices from a quorum",
		Long: `Interpolate a quorum of shares to produce shares at new indices,
for example to replace a lost share. Indices are decimal numbers
(0-31 except 16) or bech32 characters; "s" derives the secret share.`,
		Example: `  # Replace lost shares 1 and 24
  codex32 derive --index 1,c ms12test... ms12test...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(); err != nil {
				return err
			}

			indices, err := validation.ParseIndexList(indexList)
			if err != nil {
				return err
			}

			encoded, err := readShares(cmd, bufio.NewReader(cmd.InOrStdin()), args)
			if err != nil {
				return err
			}

			slog.Debug("Deriving shares", "inputs", len(encoded), "targets", len(indices))

			shares, err := codex32.ParseShares(encoded)
			if err != nil {
				return err
			}

			derived, err := codex32.ReconstructShares(shares, indices)
			if err != nil {
				return fmt.Errorf("failed to derive shares: %w", err)
			}

			result := DeriveResult{
				Identifier: shares[0].Identifier(),
				Threshold:  shares[0].Threshold(),
				Shares:     make([]string, len(derived)),
			}
			for i, s := range derived {
				result.Shares[i] = s.String()
			}

			if jsonOutput(cmd) {
				return writeJSON(cmd.OutOrStdout(), result)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w)
			green.Fprintf(w, "✓ Derived %d share(s) for identifier %s\n", len(derived), result.Identifier)
			fmt.Fprintln(w)
			printShareList(w, result.Shares)
			return nil
		},
	}

	cmd.Flags().StringVarP(&indexList, "index", "i", "", "Comma separated indices to derive (e.g. 1,c,s)")
	_ = cmd.MarkFlagRequired("index")

	return cmd
}
