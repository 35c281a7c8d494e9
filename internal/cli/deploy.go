package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odahu/odahu-mlflow-aws/internal/config"
	"github.com/odahu/odahu-mlflow-aws/internal/mlflow"
)

// newDeployCommand is the composite rollout: SageMaker endpoint, Lambda
// function and API Gateway route in one pass, all from configured defaults.
func newDeployCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "deploy <model-uri>",
		Short: "Deploy a model end to end (SageMaker, AWS Lambda, API Gateway)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			modelURI := args[0]
			name, _, err := mlflow.ParseModelURI(modelURI)
			if err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			smFlags := &sageMakerDeployFlags{appName: name, modelURI: modelURI}
			applySageMakerDefaults(smFlags, cfg)
			if err := runSageMakerDeploy(cmd, smFlags, cfg); err != nil {
				return err
			}

			lambdaFlags := &lambdaDeployFlags{
				functionName:  name + "-invocation",
				modelEndpoint: name,
				modelURI:      modelURI,
				publish:       true,
			}
			applyLambdaDefaults(lambdaFlags, cfg)
			arn, err := runLambdaDeploy(cmd.Context(), lambdaFlags)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), arn)

			return registerInGateway(cmd.Context(), cfg, lambdaFlags.functionName,
				name, lambdaFlags.gatewayID, lambdaFlags.gatewayStage, lambdaFlags.gatewayAuth)
		},
	}
}
