package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v4/host"
	"github.com/spf13/cobra"

	"github.com/bootaudit/bootaudit/pkg/color"
	"github.com/bootaudit/bootaudit/pkg/config"
	"github.com/bootaudit/bootaudit/pkg/model"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show audit state information",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		st, snaps, jrnl := openStore(cfg)

		ids, _ := snaps.ListIDs()
		records, _ := jrnl.List(0)

		var baselineID model.SnapshotID
		baselineAge := ""
		if ptr, err := snaps.Latest(); err == nil && ptr != nil {
			baselineID = ptr.TargetID
			baselineAge = time.Since(ptr.UpdatedAt).Round(time.Minute).String()
		}

		cfgPath := configPath
		if cfgPath == "" {
			cfgPath = config.DefaultPath()
		}

		hostname, kernel := "unknown", "unknown"
		var bootTime time.Time
		if hi, err := host.InfoWithContext(context.Background()); err == nil {
			hostname = hi.Hostname
			kernel = hi.KernelVersion
			bootTime = time.Unix(int64(hi.BootTime), 0)
		}

		info := map[string]any{
			"state_dir":       st.Dir,
			"state_id":        st.StateID,
			"format_version":  st.FormatVersion,
			"snapshot_count":  len(ids),
			"baseline_id":     string(baselineID),
			"journal_records": len(records),
			"config_path":     cfgPath,
			"hostname":        hostname,
			"kernel_version":  kernel,
		}
		if !bootTime.IsZero() {
			info["boot_time"] = bootTime.UTC().Format(time.RFC3339)
		}

		if jsonOutput {
			outputJSON(info)
			return
		}

		fmt.Printf("Host: %s (kernel %s)\n", hostname, kernel)
		if !bootTime.IsZero() {
			fmt.Printf("  Booted: %s\n", bootTime.Local().Format("2006-01-02 15:04:05"))
		}
		fmt.Printf("State: %s\n", st.Dir)
		fmt.Printf("  State ID:       %s\n", st.StateID)
		fmt.Printf("  Format version: %d\n", st.FormatVersion)
		fmt.Printf("  Snapshots:      %d\n", len(ids))
		if baselineID != "" {
			fmt.Printf("  Baseline:       %s (%s old)\n", color.SnapshotID(baselineID.ShortID()), baselineAge)
		} else {
			fmt.Printf("  Baseline:       %s\n", color.Dim("none yet"))
		}
		fmt.Printf("  Journal:        %d records\n", len(records))
		fmt.Printf("Config: %s\n", cfgPath)
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
