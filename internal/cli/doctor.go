package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bootaudit/bootaudit/internal/doctor"
	"github.com/bootaudit/bootaudit/pkg/color"
)

var (
	doctorStrict bool
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check audit state and host tooling health",
	Long: `Check audit state and host tooling health.

Verifies the state directory, the latest pointer, the run journal
chain, and the availability of the host tools the audit relies on
(dpkg or rpm, systemctl, modinfo). Use --strict to also verify every
stored snapshot structurally.

Exits non-zero only when a critical problem makes audits unreliable;
missing tools degrade audits and are reported as warnings.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		doc := doctor.New(cfg, resolveStateDir(cfg))

		result := doc.Check(context.Background(), doctorStrict)

		if jsonOutput {
			outputJSON(result)
			if !result.Healthy {
				os.Exit(1)
			}
			return
		}

		if len(result.Findings) == 0 {
			fmt.Println("Audit state is healthy.")
			return
		}

		fmt.Printf("Findings (%d):\n", len(result.Findings))
		for _, f := range result.Findings {
			line := fmt.Sprintf("  [%s] %s: %s", severityLabel(f.Severity), f.Category, f.Description)
			if f.Path != "" {
				line += " (" + f.Path + ")"
			}
			fmt.Println(line)
		}

		if !result.Healthy {
			os.Exit(1)
		}
	},
}

func severityLabel(severity string) string {
	switch severity {
	case "critical":
		return color.Error(severity)
	case "warning":
		return color.Warning(severity)
	default:
		return color.Info(severity)
	}
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorStrict, "strict", false, "include full snapshot verification")
	rootCmd.AddCommand(doctorCmd)
}
