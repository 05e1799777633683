package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bootaudit/bootaudit/internal/auditor"
	"github.com/bootaudit/bootaudit/internal/report"
	"github.com/bootaudit/bootaudit/pkg/model"
	"github.com/bootaudit/bootaudit/pkg/pathutil"
	"github.com/bootaudit/bootaudit/pkg/progress"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit the boot surface against the recorded baseline",
	Long: `Audit the boot surface against the recorded baseline.

Hashes the mounted EFI System Partition and /boot, diffs the result
against the latest stored snapshot, attributes changed files to their
owning packages, classifies enabled services, and triages loaded
kernel modules. On a first run, with no baseline to compare against,
the captured snapshot is stored as the baseline instead.

Sub-checks that cannot run (no dpkg, no systemctl, unreadable files)
degrade to report notes. The audit itself always completes and exits
zero, so timers and cron jobs can tell "audit ran" from "audit could
not run".`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runAudit(model.ModeAuto, "")
	},
}

// runAudit executes one audit in the given mode and prints the report.
func runAudit(mode model.Mode, note string) {
	if err := pathutil.ValidateNote(note); err != nil {
		fmtErr("invalid note: %v", err)
		os.Exit(1)
	}

	cfg := loadConfig()
	_, snaps, jrnl := openOrInitStore(cfg)

	a := auditor.New(cfg, snaps, jrnl)

	var term *progress.Terminal
	if progressEnabled() {
		term = progress.NewTerminal("hash", 0, true)
		a.Progress = term.Callback()
	}

	rep, err := a.Run(context.Background(), mode, note)
	if term != nil {
		term.Done("")
	}
	if err != nil {
		fmtErr("audit: %v", err)
		os.Exit(1)
	}

	printReport(rep)
}

// printReport writes the report in the selected output format.
func printReport(rep *model.Report) {
	if jsonOutput {
		data, err := report.JSON(rep)
		if err != nil {
			fmtErr("encode report: %v", err)
			os.Exit(1)
		}
		os.Stdout.Write(data)
		return
	}
	fmt.Print(report.Human(rep))
}

func init() {
	rootCmd.AddCommand(auditCmd)
}
