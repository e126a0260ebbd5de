package cli

import (
	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for picgraph.

Bash:
  $ source <(picgraph completion bash)
  $ picgraph completion bash > /etc/bash_completion.d/picgraph

Zsh:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc
  $ picgraph completion zsh > "${fpath[1]}/_picgraph"

Fish:
  $ picgraph completion fish > ~/.config/fish/completions/picgraph.fish

PowerShell:
  PS> picgraph completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cmd.Root()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(c.out, true)
			case "zsh":
				return root.GenZshCompletion(c.out)
			case "fish":
				return root.GenFishCompletion(c.out, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(c.out)
			}
			return nil
		},
	}

	return cmd
}
