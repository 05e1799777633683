package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bootaudit/bootaudit/pkg/color"
	"github.com/bootaudit/bootaudit/pkg/logging"
)

var (
	jsonOutput   bool
	verbose      bool
	noColor      bool
	configPath   string
	stateDirFlag string

	rootCmd = &cobra.Command{
		Use:   "bootaudit",
		Short: "bootaudit - boot surface integrity auditing",
		Long: `bootaudit is a read-only auditor for the boot surface of a Linux
system. It hashes the EFI System Partition and /boot, compares the
result against a recorded baseline, attributes changed files to their
owning packages, classifies enabled services, and triages loaded
kernel modules for taint and signature problems.

It never modifies the files it audits.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Init(verbose)
			color.Init(noColor)
		},
	}
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&jsonOutput, "json", false, "output in JSON format")
	pf.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	pf.BoolVar(&noColor, "no-color", false, "disable colored output")
	pf.StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/bootaudit/config.yaml)")
	pf.StringVar(&stateDirFlag, "state-dir", "", "state directory (default $XDG_STATE_HOME/bootaudit)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		logging.Sync()
		os.Exit(1)
	}
	logging.Sync()
}

// outputJSON prints v as JSON if --json flag is set, otherwise does nothing.
func outputJSON(v any) error {
	if !jsonOutput {
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
