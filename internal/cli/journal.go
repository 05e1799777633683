package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bootaudit/bootaudit/pkg/color"
)

var (
	journalLimit  int
	journalVerify bool
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Show past audit runs",
	Long: `Show the run journal, newest first.

Every audit, snapshot, compare and prune appends one record with the
change counts of that run. Records form a hash chain; --verify walks
the chain from the start and reports the first break.

Examples:
  bootaudit journal              # All recorded runs
  bootaudit journal -n 10        # The ten most recent
  bootaudit journal --verify     # Check the hash chain`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		_, _, jrnl := openStore(cfg)

		if journalVerify {
			count, err := jrnl.VerifyChain()
			if err != nil {
				fmtErr("journal chain broken after %d intact records: %v", count, err)
				os.Exit(1)
			}
			if !jsonOutput {
				fmt.Printf("Journal chain intact (%d records).\n", count)
			}
			outputJSON(map[string]any{"intact": true, "records": count})
			return
		}

		records, err := jrnl.List(journalLimit)
		if err != nil {
			fmtErr("read journal: %v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(records)
			return
		}

		if len(records) == 0 {
			fmt.Println("Journal is empty.")
			return
		}

		for _, rec := range records {
			line := fmt.Sprintf("%s  %-8s  +%d -%d ~%d",
				color.Dim(rec.Timestamp.Local().Format("2006-01-02 15:04")),
				rec.Event,
				rec.Added, rec.Removed, rec.Modified)
			if rec.Unmanaged > 0 {
				line += "  " + color.Error(fmt.Sprintf("%d unmanaged", rec.Unmanaged))
			}
			if rec.ModulesFlagged > 0 {
				line += "  " + color.Warning(fmt.Sprintf("%d modules flagged", rec.ModulesFlagged))
			}
			if rec.SnapshotID != "" {
				line += "  " + color.SnapshotID(rec.SnapshotID.ShortID())
			}
			if rec.BaselineID != "" {
				line += "  vs " + color.SnapshotID(rec.BaselineID.ShortID())
			}
			fmt.Println(line)
		}
	},
}

func init() {
	journalCmd.Flags().IntVarP(&journalLimit, "limit", "n", 0, "limit number of records (0 = all)")
	journalCmd.Flags().BoolVar(&journalVerify, "verify", false, "verify the journal hash chain")
	rootCmd.AddCommand(journalCmd)
}
