package cli

import (
	"fmt"
	"reflect"

	"github.com/spf13/cobra"

	"github.com/odahu/odahu-mlflow-aws/internal/config"
)

func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage toolkit configuration",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List settings and their resolved values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			for _, variable := range config.Variables() {
				value, err := cfg.Value(variable.Key)
				if err != nil {
					return err
				}
				if !reflect.DeepEqual(value, variable.Default) {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %v (default: %v)\n", variable.Key, value, variable.Default)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", variable.Key, value)
				}
			}
			return nil
		},
	}

	get := &cobra.Command{
		Use:   "get <key>",
		Short: "Get a setting value (or its default)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			value, err := cfg.Value(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%v\n", value)
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a setting value in the config file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			if err := config.Update(key, value); err != nil {
				return fmt.Errorf("unable to set value of config %q: %w", key, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"Value of %q has been updated in the config file %s\n", key, config.FilePath())
			return nil
		},
	}

	unset := &cobra.Command{
		Use:   "unset <key>",
		Short: "Remove a setting from the config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if err := config.Update(key, ""); err != nil {
				return fmt.Errorf("unable to unset value of config %q: %w", key, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"Value of %q has been removed in the config file %s\n", key, config.FilePath())
			return nil
		},
	}

	path := &cobra.Command{
		Use:   "path",
		Short: "Print the location of the config file",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), config.FilePath())
		},
	}

	configCmd.AddCommand(list, get, set, unset, path)
	return configCmd
}
