package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bootaudit/bootaudit/pkg/color"
	"github.com/bootaudit/bootaudit/pkg/errclass"
)

var (
	showEntries bool
)

var showCmd = &cobra.Command{
	Use:   "show <id|prefix|latest>",
	Short: "Show one stored snapshot",
	Long: `Show the header and section summary of one stored snapshot.

The argument is a full snapshot ID, a unique prefix, or "latest".
With --entries every hash entry is listed, in the stored order.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		_, snaps, _ := openStore(cfg)

		id, err := snaps.Resolve(args[0])
		if err != nil {
			if errors.Is(err, errclass.ErrSnapshotNotFound) {
				fmt.Fprintln(os.Stderr, formatSnapshotNotFoundError(snaps, args[0]))
			} else {
				fmtErr("resolve %q: %v", args[0], err)
			}
			os.Exit(1)
		}

		snap, err := snaps.Load(id)
		if err != nil {
			fmtErr("load snapshot: %v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(snap)
			return
		}

		fmt.Printf("Snapshot %s\n", color.SnapshotID(string(snap.ID)))
		fmt.Printf("  Created:   %s\n", snap.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("  Host:      %s (kernel %s)\n", snap.Hostname, snap.KernelVersion)
		fmt.Printf("  Algorithm: %s\n", snap.Algorithm)
		if snap.Note != "" {
			fmt.Printf("  Note:      %s\n", snap.Note)
		}

		for _, sec := range snap.Sections {
			status := fmt.Sprintf("%d entries", len(sec.Entries))
			if len(sec.Skipped) > 0 {
				status += fmt.Sprintf(", %d skipped", len(sec.Skipped))
			}
			if !sec.Present {
				status = color.Warning("absent")
			}
			fmt.Printf("  %s root=%s: %s\n", color.Section(string(sec.Label)), sec.Root, status)
		}

		if !showEntries {
			return
		}
		for _, sec := range snap.Sections {
			if len(sec.Entries) == 0 {
				continue
			}
			fmt.Printf("\n[%s]\n", sec.Label)
			for _, e := range sec.Entries {
				fmt.Printf("%s  %s\n", color.Dim(string(e.Digest)), e.Path)
			}
		}
	},
}

func init() {
	showCmd.Flags().BoolVar(&showEntries, "entries", false, "list every hash entry")
	rootCmd.AddCommand(showCmd)
}
