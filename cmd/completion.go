package cmd

import (
	"github.com/spf13/cobra"
)

// completionCmd prints a completion script for the requested shell,
// including depviz's flag value completions.
func completionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate completion scripts for your shell.

Besides subcommands, the scripts complete the values of --layout, --group,
--edges, --format and --risk, so a command like

  depviz render 42 --layout <TAB>

offers force and hierarchical.

  eval "$(depviz completion bash)"        # ~/.bashrc
  eval "$(depviz completion zsh)"         # ~/.zshrc
  depviz completion fish | source
  depviz completion powershell | Out-String | Invoke-Expression`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		Run: func(cmd *cobra.Command, args []string) {
			switch args[0] {
			case "bash":
				_ = rootCmd.GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				_ = rootCmd.GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				_ = rootCmd.GenFishCompletion(cmd.OutOrStdout(), true)
			case "powershell":
				_ = rootCmd.GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			default:
				fatal("unsupported shell %q", args[0])
			}
		},
	}

	return cmd
}
