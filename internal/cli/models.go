package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odahu/odahu-mlflow-aws/internal/config"
	"github.com/odahu/odahu-mlflow-aws/internal/cli/output"
	"github.com/odahu/odahu-mlflow-aws/internal/mlflow"
)

func newModelsCommand() *cobra.Command {
	models := &cobra.Command{
		Use:   "models",
		Short: "Manage models available in the registry",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List all models registered in MLflow",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			cfg, registry, err := registryClient()
			if err != nil {
				return err
			}
			items, err := registry.ListRegisteredModels(cmd.Context())
			if err != nil {
				return fmt.Errorf("unable to list models: %w", err)
			}
			return output.Print(cmd.OutOrStdout(), format, items,
				output.RegisteredModelColumns, cfg.Int(config.KeyMaxTableWidth))
		},
	}
	addOutputFlag(list)

	describe := &cobra.Command{
		Use:   "describe <name>",
		Short: "Get information about a registered model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			cfg, registry, err := registryClient()
			if err != nil {
				return err
			}
			items, err := registry.SearchRegisteredModels(cmd.Context(), fmt.Sprintf("name = '%s'", name))
			if err != nil {
				return fmt.Errorf("unable to get model %s: %w", name, err)
			}
			if len(items) == 0 {
				return fmt.Errorf("model with name %s has not been found", name)
			}
			return output.Print(cmd.OutOrStdout(), format, items[:1],
				output.RegisteredModelColumns, cfg.Int(config.KeyMaxTableWidth))
		},
	}
	addOutputFlag(describe)

	listVersions := &cobra.Command{
		Use:   "list-versions <name>",
		Short: "List versions of a registered model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			cfg, registry, err := registryClient()
			if err != nil {
				return err
			}
			items, err := registry.SearchModelVersions(cmd.Context(), fmt.Sprintf("name = '%s'", name))
			if err != nil {
				return fmt.Errorf("unable to list model %s versions: %w", name, err)
			}
			return output.Print(cmd.OutOrStdout(), format, items,
				output.ModelVersionColumns, cfg.Int(config.KeyMaxTableWidth))
		},
	}
	addOutputFlag(listVersions)

	models.AddCommand(list, describe, listVersions)
	return models
}

func registryClient() (*config.Settings, mlflow.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	return cfg, mlflow.NewClient(cfg.String(config.KeyTrackingURI)), nil
}
