package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bootaudit/bootaudit/pkg/logging"
	"github.com/bootaudit/bootaudit/pkg/model"
)

var (
	pruneKeep   int
	pruneDryRun bool
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old snapshots, keeping the most recent",
	Long: `Delete stored snapshots beyond a retention count, oldest first.

The baseline (the latest pointer target) always survives, even when
retention says otherwise. Without --keep the keep_snapshots config
value applies.

Examples:
  bootaudit prune --keep 10
  bootaudit prune --keep 10 --dry-run`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		_, snaps, jrnl := openStore(cfg)

		keep := pruneKeep
		if !cmd.Flags().Changed("keep") {
			keep = cfg.KeepSnapshots
		}
		if keep < 1 {
			fmtErr("refusing to prune to %d snapshots; keep at least one", keep)
			os.Exit(1)
		}

		victims, err := snaps.Prune(keep, pruneDryRun)
		if err != nil {
			fmtErr("prune: %v", err)
			os.Exit(1)
		}

		if !pruneDryRun && len(victims) > 0 {
			rec := model.RunRecord{
				Event:   model.EventPrune,
				Details: map[string]any{"deleted": len(victims), "keep": keep},
			}
			if err := jrnl.Append(rec); err != nil {
				logging.Warnw("journal append failed", "error", err)
			}
		}

		if jsonOutput {
			outputJSON(map[string]any{
				"keep":    keep,
				"dry_run": pruneDryRun,
				"deleted": victims,
			})
			return
		}

		if len(victims) == 0 {
			fmt.Println("Nothing to prune.")
			return
		}

		if pruneDryRun {
			fmt.Printf("Would delete %d snapshots:\n", len(victims))
		} else {
			fmt.Printf("Deleted %d snapshots:\n", len(victims))
		}
		for _, id := range victims {
			fmt.Printf("  %s\n", id)
		}
	},
}

func init() {
	pruneCmd.Flags().IntVar(&pruneKeep, "keep", 0, "number of snapshots to keep (default keep_snapshots from config)")
	pruneCmd.Flags().BoolVar(&pruneDryRun, "dry-run", false, "show what would be deleted without deleting")
	rootCmd.AddCommand(pruneCmd)
}
