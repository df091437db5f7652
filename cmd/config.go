package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/msalah0e/depviz/internal/config"
	"github.com/msalah0e/depviz/internal/ui"
	"github.com/spf13/cobra"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and initialize configuration",
	}

	cmd.AddCommand(
		configShowCmd(),
		configInitCmd(),
		configPathCmd(),
		configValidateCmd(),
	)

	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := loadConfig()
			if err != nil {
				fatal("Config: %v", err)
			}
			if err := toml.NewEncoder(os.Stdout).Encode(cfg); err != nil {
				fatal("%v", err)
			}
		},
	}
}

func configInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default config file",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			path := config.Path()
			if force {
				if err := config.Save(config.Default()); err != nil {
					fatal("%v", err)
				}
			} else {
				if _, err := os.Stat(path); err == nil {
					ui.Warn.Printf("  %s %s already exists (use --force to overwrite)\n", ui.WarnIcon(), path)
					return
				}
				if err := config.EnsureExists(); err != nil {
					fatal("%v", err)
				}
			}
			ui.Good.Printf("  %s Wrote %s\n", ui.StatusIcon(true), ui.Brand.Sprint(path))
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func configPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the global config file path",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(config.Path())
		},
	}
}

func configValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the effective configuration",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			_, err := loadConfig()
			if errors.Is(err, config.ErrInvalid) {
				fmt.Printf("  %s %v\n", ui.StatusIcon(false), err)
				os.Exit(1)
			}
			if err != nil {
				fatal("%v", err)
			}
			fmt.Printf("  %s Configuration is valid\n", ui.StatusIcon(true))
		},
	}
}
