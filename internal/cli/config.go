package cli

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/matzehuels/snaplink/pkg/config"
)

// configCommand creates the config management command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and initialize the configuration file",
	}

	cmd.AddCommand(c.configShowCommand())
	cmd.AddCommand(c.configInitCommand())
	cmd.AddCommand(c.configPathCommand())

	return cmd
}

func (c *CLI) configPath() string {
	if c.ConfigPath != "" {
		return c.ConfigPath
	}
	return config.Path()
}

// configShowCommand creates the "config show" subcommand.
func (c *CLI) configShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			return toml.NewEncoder(os.Stdout).Encode(cfg)
		},
	}
}

// configInitCommand creates the "config init" subcommand.
func (c *CLI) configInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config file if none exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.configPath()
			if _, err := os.Stat(path); err == nil {
				printInfo("Config already exists")
				printFile(path)
				return nil
			}
			if err := config.EnsureExists(path); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			printSuccess("Wrote default config")
			printFile(path)
			printNextStep("Replay a scenario", appName+" simulate examples/scenarios/drag.toml")
			return nil
		},
	}
}

// configPathCommand creates the "config path" subcommand.
func (c *CLI) configPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(c.configPath())
			return nil
		},
	}
}
