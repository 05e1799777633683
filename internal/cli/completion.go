package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion script for bootaudit.

To load completions for your shell:

Bash:
  # To load completions for each session, execute once:
  bootaudit completion bash > /etc/bash_completion.d/bootaudit

  # Or add to your ~/.bashrc:
  source <(bootaudit completion bash)

Zsh:
  # To load completions for each session, execute once:
  bootaudit completion zsh > "${fpath[1]}/_bootaudit"

  # Or add to your ~/.zshrc:
  source <(bootaudit completion zsh)

Fish:
  # To load completions for each session, execute once:
  bootaudit completion fish > ~/.config/fish/completions/bootaudit.fish

  # Or add to your ~/.config/fish/config.fish:
  bootaudit completion fish | source

PowerShell:
  # To load completions for each session, run:
  bootaudit completion powershell | Out-String | Invoke-Expression`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	Run: func(cmd *cobra.Command, args []string) {
		shell := args[0]

		var err error
		switch shell {
		case "bash":
			err = cmd.Root().GenBashCompletion(os.Stdout)
		case "zsh":
			err = cmd.Root().GenZshCompletion(os.Stdout)
		case "fish":
			err = cmd.Root().GenFishCompletion(os.Stdout, true)
		case "powershell":
			err = cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
		default:
			err = fmt.Errorf("unsupported shell type: %s", shell)
		}

		if err != nil {
			fmtErr("failed to generate completion for %s: %v", shell, err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}
