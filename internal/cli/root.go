package cli

import (
	"log/slog"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the codex32 command tree. level is the log level of
// the process logger; --verbose lowers it to debug.
func NewRootCommand(version string, level *slog.LevelVar) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "codex32",
		Short: "Codex32 secret sharing for BIP-32 master seeds",
		Long: `Codex32 splits a 128 to 512 bit master secret into k-of-n shares
written in the bech32 alphabet, each protected by a 13 character BCH
checksum that can be verified by hand.

Shares look like:

  ms12testpnnnjenxencqngkn3980jxq8g9v89kejpkjzyd0xxqem9a2n6qx7s3hmp7jw8vwq92

  ms1   human readable prefix
  2     threshold k (0 for an unshared secret)
  test  four character identifier
  p     share index ("s" is the secret itself)

Any k shares with the same identifier recover the secret or derive
further shares.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose && level != nil {
				level.Set(slog.LevelDebug)
			}
		},
	}

	rootCmd.AddCommand(
		NewSplitCommand(),
		NewCombineCommand(),
		NewDeriveCommand(),
		NewVerifyCommand(),
		NewCheckCommand(),
		NewStoreCommand(),
	)

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")

	return rootCmd
}
