package cli

import (
	"github.com/spf13/cobra"
)

var (
	tableExts    = []string{"csv"}
	documentExts = []string{"drawio", "xml"}
	configExts   = []string{"toml", "yaml", "yml", "json"}
)

// completionCommand prints a shell completion script for the root command.
func (c *CLI) completionCommand() *cobra.Command {
	generators := map[string]func(*cobra.Command) error{
		"bash":       func(root *cobra.Command) error { return root.GenBashCompletionV2(c.out, true) },
		"zsh":        func(root *cobra.Command) error { return root.GenZshCompletion(c.out) },
		"fish":       func(root *cobra.Command) error { return root.GenFishCompletion(c.out, true) },
		"powershell": func(root *cobra.Command) error { return root.GenPowerShellCompletionWithDesc(c.out) },
	}

	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a shell completion script for tabledraw.

  $ source <(tabledraw completion bash)
  $ tabledraw completion zsh > "${fpath[1]}/_tabledraw"
  $ tabledraw completion fish | source

Table arguments complete to .csv files, documents to .drawio files and
--config to .toml, .yaml or .json files.`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return generators[args[0]](cmd.Root())
		},
	}
}

// completeFiles completes positional arguments to files with the given
// extensions.
func completeFiles(exts []string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return exts, cobra.ShellCompDirectiveFilterFileExt
	}
}
