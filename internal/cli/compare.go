package cli

import (
	"github.com/spf13/cobra"

	"github.com/bootaudit/bootaudit/pkg/model"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare the boot surface against the baseline, read-only",
	Long: `Compare the boot surface against the recorded baseline.

Like audit, but the captured state is only reported, never stored:
repeated compares keep diffing against the same pinned baseline.
Without a baseline the first run bootstraps one and says so.

Use this from a timer when snapshots should only ever be recorded by
an explicit operator decision.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runAudit(model.ModeCompare, "")
	},
}

func init() {
	rootCmd.AddCommand(compareCmd)
}
