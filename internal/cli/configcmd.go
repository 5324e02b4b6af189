package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tabledraw/pkg/config"
	"github.com/matzehuels/tabledraw/pkg/pipeline"
)

// configCommand creates the config management command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create, check and print geometry configs",
	}

	cmd.AddCommand(c.configInitCommand())
	cmd.AddCommand(c.configValidateCommand())
	cmd.AddCommand(c.configShowCommand())

	return cmd
}

// configInitCommand creates the "config init" subcommand.
func (c *CLI) configInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:               "init [path]",
		Short:             "Write the default config (format follows the extension)",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeFiles(configExts),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := pipeline.DefaultConfigPath
			if len(args) == 1 {
				path = args[0]
			}
			format, err := config.FormatFromPath(path)
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			var buf bytes.Buffer
			if err := config.Encode(config.Default(), format, &buf); err != nil {
				return err
			}
			if err := writeOutput(path, buf.Bytes()); err != nil {
				return err
			}
			c.success("Wrote default config")
			c.file(path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	return cmd
}

// configValidateCommand creates the "config validate" subcommand.
func (c *CLI) configValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "validate [path]",
		Short:             "Check a config file",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeFiles(configExts),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			_, source, err := pipeline.ResolveConfig(path)
			if err != nil {
				return err
			}
			if source == "" {
				c.info("No %s found, the built-in defaults apply", pipeline.DefaultConfigPath)
				return nil
			}
			c.success("%s is valid", source)
			return nil
		},
	}
}

// configShowCommand creates the "config show" subcommand.
func (c *CLI) configShowCommand() *cobra.Command {
	format := config.FormatTOML

	cmd := &cobra.Command{
		Use:               "show [path]",
		Short:             "Print the resolved config",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeFiles(configExts),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			cfg, source, err := pipeline.ResolveConfig(path)
			if err != nil {
				return err
			}
			if source == "" {
				source = "built-in defaults"
			}
			c.Logger.Debug("showing config", "source", source)
			return config.Encode(cfg, format, c.out)
		},
	}

	cmd.Flags().StringVar(&format, "format", format, "output format: toml, yaml, json")
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(
		[]string{config.FormatTOML, config.FormatYAML, config.FormatJSON}, cobra.ShellCompDirectiveNoFileComp))

	return cmd
}
