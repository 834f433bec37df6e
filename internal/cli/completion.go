package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/traitstack/pkg/config"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for traitstack.

Bash:
  $ source <(traitstack completion bash)

Zsh:
  $ traitstack completion zsh > "${fpath[1]}/_traitstack"

Fish:
  $ traitstack completion fish > ~/.config/fish/completions/traitstack.fish

PowerShell:
  PS> traitstack completion powershell | Out-String | Invoke-Expression

Layer arguments (rename, pad) complete from the configured layer stack.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}

	return cmd
}

// completeLayers offers the configured layer names. With firstOnly it only
// completes the first positional argument.
func (c *CLI) completeLayers(firstOnly bool) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if firstOnly && len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		cfg, err := config.Load(c.configPath)
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		return cfg.Layers, cobra.ShellCompDirectiveNoFileComp
	}
}
