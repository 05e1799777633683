package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bootaudit/bootaudit/pkg/color"
	"github.com/bootaudit/bootaudit/pkg/model"
)

var (
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List stored snapshots",
	Long: `List stored snapshots, newest first.

The snapshot the next audit compares against is marked [baseline].

Examples:
  bootaudit history              # All stored snapshots
  bootaudit history -n 5         # The five most recent`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		_, snaps, _ := openStore(cfg)

		list, err := snaps.List()
		if err != nil {
			fmtErr("list snapshots: %v", err)
			os.Exit(1)
		}
		if historyLimit > 0 && len(list) > historyLimit {
			list = list[:historyLimit]
		}

		var baselineID model.SnapshotID
		if ptr, err := snaps.Latest(); err == nil && ptr != nil {
			baselineID = ptr.TargetID
		}

		if jsonOutput {
			type entry struct {
				ID        model.SnapshotID `json:"id"`
				CreatedAt time.Time        `json:"created_at"`
				Kernel    string           `json:"kernel_version"`
				Algorithm string           `json:"algorithm"`
				Entries   int              `json:"entries"`
				Note      string           `json:"note,omitempty"`
				Baseline  bool             `json:"baseline"`
			}
			out := make([]entry, 0, len(list))
			for _, snap := range list {
				out = append(out, entry{
					ID:        snap.ID,
					CreatedAt: snap.CreatedAt,
					Kernel:    snap.KernelVersion,
					Algorithm: snap.Algorithm,
					Entries:   snap.EntryCount(),
					Note:      snap.Note,
					Baseline:  snap.ID == baselineID,
				})
			}
			outputJSON(out)
			return
		}

		if len(list) == 0 {
			fmt.Println("No snapshots yet.")
			return
		}

		for _, snap := range list {
			note := snap.Note
			if note == "" {
				note = color.Dim("(no note)")
			}
			marker := ""
			if snap.ID == baselineID {
				marker = "  " + color.Header("[baseline]")
			}
			fmt.Printf("%s  %s  %4d files  %s%s\n",
				color.SnapshotID(snap.ID.ShortID()),
				color.Dim(snap.CreatedAt.Local().Format("2006-01-02 15:04")),
				snap.EntryCount(),
				note,
				marker,
			)
		}
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "limit number of entries (0 = all)")
	rootCmd.AddCommand(historyCmd)
}
