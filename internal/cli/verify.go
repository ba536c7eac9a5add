package cli

import (
	"bufio"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Davincible/codex32/pkg/crypto/codex32"
)

// VerifyResult reports one checked share
type VerifyResult struct {
	Share string             `json:"share"`
	Valid bool               `json:"valid"`
	Info  *codex32.ShareInfo `json:"info,omitempty"`
	Error string             `json:"error,omitempty"`
}

func NewVerifyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify [share...]",
		Short: "Verify the checksum of shares",
		Long: `Check that each share is well formed and that its MS32 checksum
verifies, then print its threshold, identifier and index.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(); err != nil {
				return err
			}

			encoded, err := readShares(cmd, bufio.NewReader(cmd.InOrStdin()), args)
			if err != nil {
				return err
			}

			results := verifyShares(encoded)

			invalid := 0
			for _, r := range results {
				if !r.Valid {
					invalid++
				}
			}

			if jsonOutput(cmd) {
				if err := writeJSON(cmd.OutOrStdout(), results); err != nil {
					return err
				}
			} else {
				displayVerify(cmd, results)
			}

			if invalid > 0 {
				return fmt.Errorf("%d of %d shares invalid", invalid, len(results))
			}
			return nil
		},
	}

	return cmd
}

func verifyShares(encoded []string) []VerifyResult {
	results := make([]VerifyResult, len(encoded))
	for i, s := range encoded {
		results[i] = VerifyResult{Share: s}

		info, err := codex32.GetShareInfo(s)
		if err != nil {
			results[i].Error = err.Error()
			continue
		}

		results[i].Valid = true
		results[i].Info = info
	}
	return results
}

func displayVerify(cmd *cobra.Command, results []VerifyResult) {
	w := cmd.OutOrStdout()

	for i, r := range results {
		fmt.Fprintln(w)
		if !r.Valid {
			red.Fprintf(w, "Share %d: ✗ Invalid - %s\n", i+1, r.Error)
			continue
		}

		green.Fprintf(w, "Share %d: ✓ Checksum valid\n", i+1)
		fmt.Fprintln(w, r.Info.String())
	}
}
