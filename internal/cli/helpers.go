package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Davincible/codex32/internal/validation"
	"github.com/Davincible/codex32/pkg/config"
	"github.com/Davincible/codex32/pkg/sharestore"
)

// passphraseEnv supplies the store passphrase without a prompt
const passphraseEnv = "CODEX32_PASSPHRASE"

var (
	green  = color.New(color.FgGreen, color.Bold)
	yellow = color.New(color.FgYellow, color.Bold)
	cyan   = color.New(color.FgCyan, color.Bold)
	red    = color.New(color.FgRed, color.Bold)
)

// loadConfig reads the user configuration and applies the UI settings
func loadConfig() (*config.Config, error) {
	path, err := config.Path()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if !cfg.UI.UseColor {
		color.NoColor = true
	}

	return cfg, nil
}

func jsonOutput(cmd *cobra.Command) bool {
	v, err := cmd.Flags().GetBool("json")
	return err == nil && v
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// stdinIsTerminal reports whether the command reads from an interactive terminal
func stdinIsTerminal(cmd *cobra.Command) bool {
	return cmd.InOrStdin() == os.Stdin && term.IsTerminal(int(os.Stdin.Fd()))
}

// readHidden reads one line without echo on a terminal, or a plain line otherwise
func readHidden(cmd *cobra.Command, in *bufio.Reader, prompt string) (string, error) {
	if stdinIsTerminal(cmd) {
		fmt.Fprint(cmd.ErrOrStderr(), prompt)
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// readPassphrase takes the passphrase from the environment or prompts for it
func readPassphrase(cmd *cobra.Command, in *bufio.Reader, prompt string) (string, error) {
	if p := os.Getenv(passphraseEnv); p != "" {
		return p, nil
	}

	p, err := readHidden(cmd, in, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to read passphrase: %w", err)
	}

	if err := validation.ValidatePassphrase(p); err != nil {
		return "", err
	}
	return p, nil
}

// readShares returns share strings from args, or one per line from stdin
// until EOF or an empty line
func readShares(cmd *cobra.Command, in *bufio.Reader, args []string) ([]string, error) {
	if len(args) > 0 {
		shares := make([]string, 0, len(args))
		for _, a := range args {
			if s := strings.TrimSpace(a); s != "" {
				shares = append(shares, s)
			}
		}
		return shares, nil
	}

	interactive := stdinIsTerminal(cmd)
	if interactive {
		yellow.Fprintln(cmd.ErrOrStderr(), "Enter shares, one per line. Press Enter on an empty line when done.")
	}

	var shares []string
	for {
		if interactive {
			fmt.Fprintf(cmd.ErrOrStderr(), "Share %d: ", len(shares)+1)
		}

		line, err := in.ReadString('\n')
		line = validation.SanitizeInput(line)
		if line != "" {
			shares = append(shares, line)
		}

		if errors.Is(err, io.EOF) || (line == "" && len(shares) > 0) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read shares: %w", err)
		}
	}

	if len(shares) == 0 {
		return nil, fmt.Errorf("no shares provided")
	}

	return shares, nil
}

// openStore opens the configured share store, unlocking it when encryption is on
func openStore(cmd *cobra.Command, in *bufio.Reader, cfg *config.Config, path string) (*sharestore.ShareStore, error) {
	if path == "" {
		path = cfg.Storage.Path
	}

	store, err := sharestore.NewShareStore(path)
	if err != nil {
		return nil, err
	}

	if !cfg.Storage.Encrypt {
		if cfg.Security.RequireStorePassphrase {
			return nil, fmt.Errorf("security policy requires an encrypted store, enable storage.encrypt")
		}
		return store, nil
	}

	passphrase, err := readPassphrase(cmd, in, "Store passphrase: ")
	if err != nil {
		return nil, err
	}

	if len(passphrase) < cfg.Security.MinPassphraseLength {
		return nil, fmt.Errorf("passphrase must be at least %d characters", cfg.Security.MinPassphraseLength)
	}

	if err := store.EnableEncryption(passphrase); err != nil {
		return nil, err
	}

	if skipped := store.Skipped(); len(skipped) > 0 {
		yellow.Fprintf(cmd.ErrOrStderr(), "Skipped %d share set file(s) that could not be read with this passphrase\n", len(skipped))
	}

	return store, nil
}

func printShareList(w io.Writer, shares []string) {
	for i, s := range shares {
		fmt.Fprintf(w, "  %2d. %s\n", i+1, s)
	}
}
