package cli

import (
	"bufio"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Davincible/codex32/pkg/crypto/codex32"
)

// QuorumGroup summarises the shares seen for one identifier
type QuorumGroup struct {
	Identifier string   `json:"identifier"`
	Threshold  int      `json:"threshold"`
	Indices    []string `json:"indices"`
	Duplicates []string `json:"duplicates,omitempty"`
	Conflicts  []string `json:"conflicts,omitempty"`
	HasSecret  bool     `json:"has_secret"`
	Missing    int      `json:"missing"`
	Ready      bool     `json:"ready"`
}

// QuorumReport is the result of checking a set of shares
type QuorumReport struct {
	Invalid []VerifyResult `json:"invalid,omitempty"`
	Groups  []QuorumGroup  `json:"groups"`
}

// NewCheckCommand creates a command to check share compatibility
func NewCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [share...]",
		Short: "Check whether shares form a recoverable quorum",
		Long: `Group shares by identifier and report, for each secret, which
indices are present, whether the thresholds agree and how many more
shares are needed for recovery.`,
		Example: `  # Check specific shares
  codex32 check ms12test... ms12test... ms13cash...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(); err != nil {
				return err
			}

			encoded, err := readShares(cmd, bufio.NewReader(cmd.InOrStdin()), args)
			if err != nil {
				return err
			}

			report := analyzeShares(encoded)

			if jsonOutput(cmd) {
				return writeJSON(cmd.OutOrStdout(), report)
			}

			displayCheck(cmd, report)
			return nil
		},
	}

	return cmd
}

func analyzeShares(encoded []string) QuorumReport {
	var report QuorumReport
	groups := make(map[string]*QuorumGroup)
	seen := make(map[string]map[string]bool)

	for _, s := range encoded {
		share, err := codex32.ParseShare(s)
		if err != nil {
			report.Invalid = append(report.Invalid, VerifyResult{Share: s, Error: err.Error()})
			continue
		}

		id := share.Identifier()
		g, ok := groups[id]
		if !ok {
			g = &QuorumGroup{Identifier: id, Threshold: share.Threshold()}
			groups[id] = g
			seen[id] = make(map[string]bool)
		}

		index := share.Index().String()
		switch {
		case share.Threshold() != g.Threshold:
			g.Conflicts = append(g.Conflicts, fmt.Sprintf("share %s has threshold %d, expected %d", index, share.Threshold(), g.Threshold))
		case seen[id][index]:
			g.Duplicates = append(g.Duplicates, index)
		default:
			seen[id][index] = true
			g.Indices = append(g.Indices, index)
			if share.Index().IsSecret() {
				g.HasSecret = true
			}
		}
	}

	for _, g := range groups {
		need := g.Threshold
		if need == 0 {
			need = 1
		}

		if g.HasSecret {
			g.Missing = 0
		} else if len(g.Indices) < need {
			g.Missing = need - len(g.Indices)
		}
		g.Ready = g.Missing == 0 && len(g.Conflicts) == 0

		sort.Strings(g.Indices)
		report.Groups = append(report.Groups, *g)
	}

	sort.Slice(report.Groups, func(i, j int) bool {
		return report.Groups[i].Identifier < report.Groups[j].Identifier
	})

	return report
}

func displayCheck(cmd *cobra.Command, report QuorumReport) {
	w := cmd.OutOrStdout()

	fmt.Fprintln(w)
	cyan.Fprintln(w, "SHARE COMPATIBILITY CHECK")
	fmt.Fprintln(w, strings.Repeat("=", 41))

	for _, inv := range report.Invalid {
		red.Fprintf(w, "✗ Invalid share %s: %s\n", abbreviate(inv.Share), inv.Error)
	}

	if len(report.Groups) > 1 {
		yellow.Fprintf(w, "\n⚠ Shares belong to %d different secrets and cannot be combined together\n", len(report.Groups))
	}

	for _, g := range report.Groups {
		fmt.Fprintln(w)
		cyan.Fprintf(w, "Identifier %s (threshold %d)\n", g.Identifier, g.Threshold)
		fmt.Fprintf(w, "  Indices: %s\n", strings.Join(g.Indices, ", "))

		for _, d := range g.Duplicates {
			yellow.Fprintf(w, "  ⚠ Duplicate share index %s ignored\n", d)
		}
		for _, c := range g.Conflicts {
			red.Fprintf(w, "  ✗ %s\n", c)
		}

		switch {
		case g.Ready:
			green.Fprintln(w, "  ✅ Sufficient shares for recovery")
		case len(g.Conflicts) > 0:
			red.Fprintln(w, "  ❌ Conflicting thresholds, these shares were not split together")
		default:
			red.Fprintf(w, "  ❌ Need %d more share(s)\n", g.Missing)
		}
	}
}

func abbreviate(s string) string {
	if len(s) <= 20 {
		return s
	}
	return s[:16] + "..."
}
