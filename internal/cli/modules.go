package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bootaudit/bootaudit/internal/kmod"
	"github.com/bootaudit/bootaudit/internal/platform"
	"github.com/bootaudit/bootaudit/pkg/color"
	"github.com/bootaudit/bootaudit/pkg/model"
)

var (
	modulesAll bool
)

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "Triage loaded kernel modules",
	Long: `Triage the loaded kernel modules.

Flags modules whose taint state includes a suspicious flag (O, E, P
or F by default), modules with no signature, and modules signed by a
key outside the trusted list. A module can be flagged for several
independent reasons at once.

By default only flagged modules are listed; --all shows every loaded
module.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		runner := &platform.ExecRunner{}
		triage := &kmod.Triage{
			Lister:           &platform.ProcModules{},
			Taints:           &platform.SysfsTaint{},
			Info:             &platform.Modinfo{Runner: runner},
			SuspiciousTaints: cfg.Modules.SuspiciousTaints,
			TrustedSigners:   cfg.Modules.TrustedSigners,
		}

		findings, err := triage.Run(context.Background())
		if err != nil {
			fmtErr("list modules: %v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(findings)
			return
		}

		flagged := 0
		for _, f := range findings {
			if f.Flagged() {
				flagged++
			}
		}
		fmt.Printf("Kernel modules: %d loaded, %d flagged\n", len(findings), flagged)

		for _, f := range findings {
			if !f.Flagged() && !modulesAll {
				continue
			}
			fmt.Print(moduleLine(f))
		}
	},
}

func moduleLine(f model.ModuleFinding) string {
	var details []string
	if f.TaintFlags != "" {
		details = append(details, "taint "+f.TaintFlags)
	}
	if f.Signer != "" {
		details = append(details, "signer "+strconv.Quote(f.Signer))
	} else {
		details = append(details, "no signer")
	}

	if !f.Flagged() {
		return fmt.Sprintf("  %s: %s (%s)\n", f.Name, color.Success("ok"), strings.Join(details, ", "))
	}

	reasons := make([]string, len(f.Reasons))
	for i, reason := range f.Reasons {
		reasons[i] = string(reason)
	}
	return fmt.Sprintf("  %s: %s (%s)\n",
		color.Highlight(f.Name),
		color.Warning(strings.Join(reasons, ", ")),
		strings.Join(details, ", "))
}

func init() {
	modulesCmd.Flags().BoolVar(&modulesAll, "all", false, "list clean modules too")
	rootCmd.AddCommand(modulesCmd)
}
