package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bootaudit/bootaudit/internal/platform"
	"github.com/bootaudit/bootaudit/internal/services"
	"github.com/bootaudit/bootaudit/pkg/color"
	"github.com/bootaudit/bootaudit/pkg/model"
)

var servicesCmd = &cobra.Command{
	Use:   "services",
	Short: "Classify boot-enabled services",
	Long: `Classify the services enabled at boot.

Every enabled service is sorted into exactly one category:
  SAFE    matches the safe whitelist (standard system services)
  UNSAFE  matches the unsafe blacklist (debug shells, legacy daemons)
  REVIEW  matches neither list and deserves a look

The built-in pattern tables can be replaced per table in the config
file under services.safe_patterns and services.unsafe_patterns.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		rules, err := services.FromConfig(cfg.Services.SafePatterns, cfg.Services.UnsafePatterns)
		if err != nil {
			fmtErr("service patterns: %v", err)
			os.Exit(1)
		}

		collector := &services.Collector{
			Lister: &platform.SystemdLister{Runner: &platform.ExecRunner{}},
			Rules:  rules,
		}

		records, err := collector.Collect(context.Background())
		if err != nil {
			fmtErr("list services: %v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(records)
			return
		}

		counts := map[model.ServiceCategory]int{}
		for _, rec := range records {
			counts[rec.Category]++
		}
		fmt.Printf("Services: %d enabled, %d SAFE, %d UNSAFE, %d REVIEW\n",
			len(records),
			counts[model.CategorySafe],
			counts[model.CategoryUnsafe],
			counts[model.CategoryReview])

		for _, rec := range records {
			fmt.Printf("  %s  %s\n", categoryLabel(rec.Category), rec.Name)
		}
	},
}

func categoryLabel(cat model.ServiceCategory) string {
	switch cat {
	case model.CategorySafe:
		return color.Success("SAFE  ")
	case model.CategoryUnsafe:
		return color.Error("UNSAFE")
	default:
		return color.Warning("REVIEW")
	}
}

func init() {
	rootCmd.AddCommand(servicesCmd)
}
