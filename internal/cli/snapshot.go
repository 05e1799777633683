package cli

import (
	"github.com/spf13/cobra"

	"github.com/bootaudit/bootaudit/pkg/model"
)

var (
	snapshotNote string
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Record a fresh baseline snapshot",
	Long: `Record a fresh baseline snapshot of the boot surface.

Hashes the mounted EFI System Partition and /boot and stores the
result as the new baseline. No comparison is performed; the next
audit compares against this snapshot.

The note supports placeholders, expanded at capture time:
  {date}, {time}, {datetime}, {iso8601}, {unix}
  {user}, {hostname}, {arch}, {kernel}

Examples:
  bootaudit snapshot
  bootaudit snapshot --note "pre-upgrade {kernel}"
  bootaudit snapshot --note "golden {date}"`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runAudit(model.ModeSnapshot, snapshotNote)
	},
}

func init() {
	snapshotCmd.Flags().StringVar(&snapshotNote, "note", "", "note stored in the snapshot header (supports placeholders)")
	rootCmd.AddCommand(snapshotCmd)
}
