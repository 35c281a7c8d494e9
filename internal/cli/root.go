// Package cli declares the mlaws command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/odahu/odahu-mlflow-aws/internal/config"
	"github.com/odahu/odahu-mlflow-aws/internal/cli/output"
	"github.com/odahu/odahu-mlflow-aws/pkg/logger"
)

var debugFlag bool

// NewRootCommand builds the mlaws root command with all subcommands attached.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "mlaws",
		Short:         "Deploy MLflow models to AWS and serve their inference adaptation layer",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			level := "INFO"
			if debugFlag || cfg.Bool(config.KeyDebug) {
				level = "DEBUG"
			}
			logger.Init(level)
			return nil
		},
	}
	root.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable verbose program output")

	root.AddCommand(
		newModelsCommand(),
		newSageMakerCommand(),
		newLambdaCommand(),
		newDeployCommand(),
		newConfigCommand(),
		newServeCommand(),
	)
	return root
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func addOutputFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", string(output.FormatTable), "Output format: table, json or yaml")
}

func outputFormat(cmd *cobra.Command) (output.Format, error) {
	value, err := cmd.Flags().GetString("output")
	if err != nil {
		return "", err
	}
	return output.ParseFormat(value)
}

// requireValue rejects settings that resolved to nothing: neither the flag
// nor the config file nor the environment provided them.
func requireValue(name, value string) error {
	if value == "" {
		return fmt.Errorf("%s is required: pass the flag or configure a default", name)
	}
	return nil
}
