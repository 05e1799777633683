package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bootaudit/bootaudit/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config <command>",
	Short: "Manage bootaudit configuration",
	Long: `Manage the bootaudit configuration file.

The file lives at $XDG_CONFIG_HOME/bootaudit/config.yaml by default;
--config or BOOTAUDIT_CONFIG select another location.

Configuration keys:
  esp_root                     - ESP mount override (default: discover from mount table)
  boot_root                    - boot tree to audit (default /boot)
  algorithm                    - file digest: sha256 or blake3
  hash_workers                 - concurrent hashing bound (0 = one per CPU)
  state_dir                    - snapshot state directory
  keep_snapshots               - default retention for prune
  attribution.rate_limit       - package ownership lookups per second
  attribution.timeout_seconds  - single lookup timeout
  services.safe_patterns       - replaces the built-in safe table (YAML list)
  services.unsafe_patterns     - replaces the built-in unsafe table (YAML list)
  modules.suspicious_taints    - taint characters that flag a module
  modules.trusted_signers      - trusted signer substrings (YAML list)

Available commands:
  show              - Show current configuration
  set <key> <value> - Set a configuration value
  get <key>         - Get a configuration value`,
	DisableFlagsInUseLine: true,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(configPath)
		if err != nil {
			fmtErr("load config: %v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(cfg)
			return
		}

		path := configPath
		if path == "" {
			path = config.DefaultPath()
		}
		fmt.Printf("# bootaudit configuration\n")
		fmt.Printf("# Location: %s\n\n", path)

		data, err := yaml.Marshal(cfg)
		if err != nil {
			fmtErr("marshal config: %v", err)
			os.Exit(1)
		}
		os.Stdout.Write(data)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value and write the config file.

Examples:
  bootaudit config set algorithm blake3
  bootaudit config set keep_snapshots 10
  bootaudit config set esp_root /efi
  bootaudit config set services.unsafe_patterns '[".*telnet.*", "debug-shell"]'`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(configPath)
		if err != nil {
			fmtErr("load config: %v", err)
			os.Exit(1)
		}

		key, value := args[0], args[1]
		if err := cfg.Set(key, value); err != nil {
			fmtErr("set config: %v", err)
			os.Exit(1)
		}
		if err := config.Save(configPath, cfg); err != nil {
			fmtErr("save config: %v", err)
			os.Exit(1)
		}

		fmt.Printf("Set %s = %s\n", key, value)
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(configPath)
		if err != nil {
			fmtErr("load config: %v", err)
			os.Exit(1)
		}

		value, err := cfg.Get(args[0])
		if err != nil {
			fmtErr("get config: %v", err)
			os.Exit(1)
		}

		if value == "" {
			fmt.Printf("%s (not set)\n", args[0])
			return
		}
		fmt.Println(strings.TrimRight(value, "\n"))
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	rootCmd.AddCommand(configCmd)
}
