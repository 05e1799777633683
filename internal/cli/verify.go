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
	verifyAll bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify [<id|prefix|latest>]",
	Short: "Verify stored snapshot integrity",
	Long: `Verify the structural integrity of stored snapshots.

Checks the checksum trailer, parseability, per-section sort order and
the header against the filename. This catches snapshots edited after
they were written; it does not re-hash the live boot surface.

Examples:
  bootaudit verify              # Verify every stored snapshot
  bootaudit verify latest       # Verify the baseline
  bootaudit verify 1756ab       # Verify by unique prefix`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		_, snaps, _ := openStore(cfg)

		if verifyAll || len(args) == 0 {
			results, err := snaps.VerifyAll()
			if err != nil {
				fmtErr("verify: %v", err)
				os.Exit(1)
			}

			if jsonOutput {
				outputJSON(results)
				return
			}

			if len(results) == 0 {
				fmt.Println("No snapshots yet.")
				return
			}

			tampered := false
			for _, res := range results {
				status := color.Success("OK")
				if res.TamperDetected {
					status = color.Error("TAMPERED")
					tampered = true
				}
				fmt.Printf("%s  %s\n", res.ID, status)
			}

			if tampered {
				os.Exit(1)
			}
			return
		}

		id, err := snaps.Resolve(args[0])
		if err != nil {
			if errors.Is(err, errclass.ErrSnapshotNotFound) {
				fmt.Fprintln(os.Stderr, formatSnapshotNotFoundError(snaps, args[0]))
			} else {
				fmtErr("resolve %q: %v", args[0], err)
			}
			os.Exit(1)
		}

		res, err := snaps.Verify(id)
		if err != nil {
			fmtErr("verify: %v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(res)
			return
		}

		fmt.Printf("Snapshot: %s\n", res.ID)
		fmt.Printf("  Checksum valid:  %v\n", res.ChecksumValid)
		fmt.Printf("  Structure valid: %v\n", res.StructureValid)
		fmt.Printf("  Entries sorted:  %v\n", res.EntriesSorted)
		if res.TamperDetected {
			fmt.Printf("  %s\n", color.Error("TAMPER DETECTED"))
			for _, finding := range res.Findings {
				fmt.Printf("    - %s\n", finding)
			}
			os.Exit(1)
		}
	},
}

func init() {
	verifyCmd.Flags().BoolVar(&verifyAll, "all", false, "verify all snapshots")
	rootCmd.AddCommand(verifyCmd)
}
