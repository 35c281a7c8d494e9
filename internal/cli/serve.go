package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/odahu/odahu-mlflow-aws/internal/config"
	"github.com/odahu/odahu-mlflow-aws/internal/deploy"
	"github.com/odahu/odahu-mlflow-aws/pkg/inference"
	"github.com/odahu/odahu-mlflow-aws/pkg/inference/dispatch"
	"github.com/odahu/odahu-mlflow-aws/pkg/inference/schema"
	"github.com/odahu/odahu-mlflow-aws/pkg/metrics"
)

func newServeCommand() *cobra.Command {
	var (
		port             int
		endpoint         string
		inputSchemaPath  string
		outputSchemaPath string
		statsdAddress    string
	)

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the inference adaptation layer locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if port == 0 {
				port = cfg.Int(config.KeyServerPort)
			}
			if endpoint == "" {
				endpoint = os.Getenv(deploy.ModelEndpointEnv)
			}

			inputSchema, err := loadSchema(inputSchemaPath)
			if err != nil {
				return err
			}
			outputSchema, err := loadSchema(outputSchemaPath)
			if err != nil {
				return err
			}

			dispatcher, err := dispatch.Build(cmd.Context(), endpoint)
			if err != nil {
				return err
			}
			handler, err := inference.NewHandler(inference.Config{
				InputSchema:  inputSchema,
				OutputSchema: outputSchema,
				Dispatcher:   dispatcher,
			})
			if err != nil {
				return err
			}

			if statsdAddress != "" {
				metrics.Init(statsdAddress, "local", "mlaws")
			}
			return inference.RunServer(handler, port)
		},
	}
	serve.Flags().IntVarP(&port, "port", "p", 0, "Port to serve predictions on")
	serve.Flags().StringVar(&endpoint, "model-endpoint", "", "Model endpoint name or URL")
	serve.Flags().StringVar(&inputSchemaPath, "input-schema", "", "Path to the input schema JSON document")
	serve.Flags().StringVar(&outputSchemaPath, "output-schema", "", "Path to the output schema JSON document")
	serve.Flags().StringVar(&statsdAddress, "statsd", "", "StatsD address for serving metrics")
	_ = serve.MarkFlagRequired("input-schema")

	return serve
}

func loadSchema(path string) (schema.Schema, error) {
	if path == "" {
		return nil, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return schema.ParseJSON(content)
}
