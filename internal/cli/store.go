package cli

import (
	"bufio"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Davincible/codex32/pkg/secure"
	"github.com/Davincible/codex32/pkg/sharestore"
	"github.com/Davincible/codex32/pkg/storage"
)

// NewStoreCommand groups the share store operations
func NewStoreCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage share sets saved with split --store",
		Long: `The share store keeps share sets in a directory, encrypted with
argon2id and ChaCha20-Poly1305 unless storage.encrypt is off in the
config. The passphrase is read from $CODEX32_PASSPHRASE or prompted.

Share sets are referenced by full ID, a unique ID prefix, or name.`,
		Example: `  codex32 store list --tags btc
  codex32 store verify 3f2a
  codex32 store recover "cold wallet"
  codex32 store export 3f2a backup.json`,
	}

	cmd.PersistentFlags().String("path", "", "Share store directory (default: storage.path from config)")

	cmd.AddCommand(
		newStoreListCommand(),
		newStoreShowCommand(),
		newStoreVerifyCommand(),
		newStoreRecoverCommand(),
		newStoreDeleteCommand(),
		newStoreExportCommand(),
		newStoreImportCommand(),
	)

	return cmd
}

// withStore opens the store for a subcommand and closes it afterwards
func withStore(cmd *cobra.Command, fn func(*sharestore.ShareStore, *bufio.Reader) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path, _ := cmd.Flags().GetString("path")
	in := bufio.NewReader(cmd.InOrStdin())

	store, err := openStore(cmd, in, cfg, path)
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(store, in)
}

func newStoreListCommand() *cobra.Command {
	var tags []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored share sets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store *sharestore.ShareStore, _ *bufio.Reader) error {
				sets := store.ListShareSets(tags)

				if jsonOutput(cmd) {
					return writeJSON(cmd.OutOrStdout(), sets)
				}

				w := cmd.OutOrStdout()
				if len(sets) == 0 {
					fmt.Fprintln(w, "No share sets found")
					return nil
				}

				for _, set := range sets {
					cyan.Fprintf(w, "%s  %s\n", set.ID[:8], set.Name)
					fmt.Fprintf(w, "  Identifier: %s  Threshold: %d  Shares: %d\n",
						set.Identifier, set.Threshold, len(set.Shares))
					fmt.Fprintf(w, "  Created: %s\n", set.Created.Format("2006-01-02 15:04:05"))
					if len(set.Tags) > 0 {
						fmt.Fprintf(w, "  Tags: %s\n", strings.Join(set.Tags, ", "))
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&tags, "tags", nil, "Only list sets carrying all of these tags")

	return cmd
}

func newStoreShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print the shares of a stored set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store *sharestore.ShareStore, _ *bufio.Reader) error {
				set, err := store.GetShareSet(args[0])
				if err != nil {
					return err
				}

				if jsonOutput(cmd) {
					return writeJSON(cmd.OutOrStdout(), set)
				}

				w := cmd.OutOrStdout()
				cyan.Fprintf(w, "%s (%s)\n", set.Name, set.ID)
				fmt.Fprintf(w, "Identifier: %s  Threshold: %d\n\n", set.Identifier, set.Threshold)
				for _, s := range set.Shares {
					fmt.Fprintf(w, "  [%s] %-10s %s\n", s.Index, s.Status, s.Encoded)
				}
				return nil
			})
		},
	}
}

func newStoreVerifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <id>",
		Short: "Re-check every stored share's checksum",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store *sharestore.ShareStore, _ *bufio.Reader) error {
				report, err := store.VerifyShares(args[0])
				if err != nil {
					return err
				}

				slog.Debug("Verified share set", "id", report.ShareSetID, "valid", report.ValidShares)

				if jsonOutput(cmd) {
					return writeJSON(cmd.OutOrStdout(), report)
				}

				w := cmd.OutOrStdout()
				for _, r := range report.Results {
					if r.IsValid {
						green.Fprintf(w, "  [%s] ✓ %s\n", r.Index, r.Status)
					} else {
						red.Fprintf(w, "  [%s] ✗ %s: %s\n", r.Index, r.Status, r.Error)
					}
				}

				fmt.Fprintf(w, "\n%d of %d shares valid\n", report.ValidShares, report.TotalShares)
				if report.IsRecoverable {
					green.Fprintln(w, "✅ Secret is recoverable")
				} else {
					red.Fprintln(w, "❌ Not enough valid shares to recover the secret")
				}
				return nil
			})
		},
	}
}

func newStoreRecoverCommand() *cobra.Command {
	var opts keyOptions

	cmd := &cobra.Command{
		Use:   "recover <id>",
		Short: "Recover the master secret from a stored set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			return withStore(cmd, func(store *sharestore.ShareStore, _ *bufio.Reader) error {
				shares, err := store.RecoveryShares(args[0])
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
			})
		},
	}

	addKeyFlags(cmd, &opts)

	return cmd
}

func newStoreDeleteCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored share set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store *sharestore.ShareStore, in *bufio.Reader) error {
				set, err := store.GetShareSet(args[0])
				if err != nil {
					return err
				}

				if !force {
					fmt.Fprintf(cmd.ErrOrStderr(), "Delete share set %q (%s)? [y/N]: ", set.Name, set.ID[:8])
					answer, _ := in.ReadString('\n')
					if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
						return fmt.Errorf("aborted")
					}
				}

				if err := store.DeleteShareSet(set.ID); err != nil {
					return err
				}

				green.Fprintf(cmd.OutOrStdout(), "✓ Deleted share set %s\n", set.Name)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Do not ask for confirmation")

	return cmd
}

func newStoreExportCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "export <id> <file>",
		Short: "Write a stored set to a password-encrypted backup file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store *sharestore.ShareStore, in *bufio.Reader) error {
				set, err := store.GetShareSet(args[0])
				if err != nil {
					return err
				}

				backup := storage.NewBackupFile(args[1])
				if backup.Exists() && !force {
					return fmt.Errorf("%s already exists, use --force to overwrite", args[1])
				}

				password, err := readPassphrase(cmd, in, "Backup password: ")
				if err != nil {
					return err
				}
				pw := []byte(password)
				defer secure.Zero(pw)

				encoded := make([]string, len(set.Shares))
				for i, s := range set.Shares {
					encoded[i] = s.Encoded
				}

				if err := backup.SaveShares(set.Name, set.Tags, encoded, pw); err != nil {
					return fmt.Errorf("failed to export share set: %w", err)
				}

				slog.Debug("Exported share set", "id", set.ID, "file", args[1])
				green.Fprintf(cmd.OutOrStdout(), "✓ Exported %s to %s\n", set.Name, args[1])
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	return cmd
}

func newStoreImportCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Add the shares of a backup file to the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store *sharestore.ShareStore, in *bufio.Reader) error {
				password, err := readPassphrase(cmd, in, "Backup password: ")
				if err != nil {
					return err
				}
				pw := []byte(password)
				defer secure.Zero(pw)

				backup, err := storage.NewBackupFile(args[0]).LoadShares(pw)
				if err != nil {
					return fmt.Errorf("failed to read backup: %w", err)
				}

				if name == "" {
					name = backup.Name
				}

				set, err := sharestore.NewShareSet(name, backup.Shares, backup.Tags)
				if err != nil {
					return err
				}
				if err := store.AddShareSet(set); err != nil {
					return err
				}

				green.Fprintf(cmd.OutOrStdout(), "✓ Imported %d shares as %s (%s)\n", len(set.Shares), set.Name, set.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Name for the imported set (default: the name in the backup)")

	return cmd
}
