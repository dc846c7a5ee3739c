package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion bash|zsh|fish|powershell",
	Short: "Generates the shell completion script",
	Long: `
Writes the completion script of the shell to stdout. The wallet names of
--wallet-name and --wallets are completed from the bolt files in --db-dir.

Load it to the current shell:
	source <(findy-exchange completion bash)
	source <(findy-exchange completion zsh)
	findy-exchange completion fish | source

Add the line to .bashrc, .zshrc or config.fish to load it in every session.
`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletionV2(out, true)
		case "zsh":
			return rootCmd.GenZshCompletion(out)
		case "fish":
			return rootCmd.GenFishCompletion(out, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletionWithDesc(out)
		}
		return fmt.Errorf("no completion for %s", args[0])
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}
