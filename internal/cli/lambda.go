package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odahu/odahu-mlflow-aws/internal/config"
	"github.com/odahu/odahu-mlflow-aws/internal/deploy"
	"github.com/odahu/odahu-mlflow-aws/internal/cli/output"
)

type lambdaDeployFlags struct {
	functionName  string
	modelEndpoint string
	modelURI      string
	layers        []string
	ram           int32
	roleARN       string
	runtime       string
	timeout       int32
	publish       bool

	publishInGateway bool
	gatewayResource  string
	gatewayID        string
	gatewayStage     string
	gatewayAuth      string
}

func newLambdaCommand() *cobra.Command {
	lambdaCmd := &cobra.Command{
		Use:   "lambda",
		Short: "Deploy and manage model-handler functions",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List deployed model-handler functions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			awsCfg, err := deploy.NewAWSConfig(cmd.Context(), "")
			if err != nil {
				return err
			}
			functions, err := deploy.NewFunctionDeployer(awsCfg).ListModelFunctions(cmd.Context())
			if err != nil {
				return err
			}
			return output.Print(cmd.OutOrStdout(), format, functions,
				output.FunctionColumns, cfg.Int(config.KeyMaxTableWidth))
		},
	}
	addOutputFlag(list)

	flags := &lambdaDeployFlags{}
	deployCmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy the model-handler function for a registered model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			applyLambdaDefaults(flags, cfg)
			arn, err := runLambdaDeploy(cmd.Context(), flags)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), arn)

			if !flags.publishInGateway {
				return nil
			}
			if !flags.publish {
				return fmt.Errorf("ignoring API Gateway publication, because publish was disabled")
			}
			if flags.gatewayResource == "" {
				return fmt.Errorf("gateway resource name has not been provided")
			}
			return registerInGateway(cmd.Context(), cfg, flags.functionName,
				flags.gatewayResource, flags.gatewayID, flags.gatewayStage, flags.gatewayAuth)
		},
	}
	deployCmd.Flags().StringVarP(&flags.functionName, "function-name", "f", "", "Function name")
	deployCmd.Flags().StringVarP(&flags.modelEndpoint, "model-endpoint", "i", "", "Model endpoint name")
	deployCmd.Flags().StringVarP(&flags.modelURI, "model-uri", "m", "", "Model URI (models:/<name>/<version>)")
	deployCmd.Flags().StringSliceVarP(&flags.layers, "layers", "l", nil, "Lambda layers")
	deployCmd.Flags().Int32VarP(&flags.ram, "ram", "r", 0, "RAM size in MB")
	deployCmd.Flags().StringVarP(&flags.roleARN, "arn", "a", "", "Execution role ARN")
	deployCmd.Flags().StringVarP(&flags.runtime, "runtime", "s", "", "Lambda runtime")
	deployCmd.Flags().Int32VarP(&flags.timeout, "timeout", "t", 0, "Lambda timeout in seconds")
	deployCmd.Flags().BoolVar(&flags.publish, "publish", true, "Publish the function version")
	deployCmd.Flags().BoolVar(&flags.publishInGateway, "publish-in-gateway", false, "Register the function in API Gateway")
	deployCmd.Flags().StringVarP(&flags.gatewayResource, "gateway-resource", "u", "", "Name of the resource in API Gateway")
	deployCmd.Flags().StringVarP(&flags.gatewayID, "gateway-id", "g", "", "ID of the AWS API Gateway")
	deployCmd.Flags().StringVar(&flags.gatewayStage, "gateway-stage", "", "AWS API Gateway stage")
	deployCmd.Flags().StringVarP(&flags.gatewayAuth, "gateway-auth", "q", "", "AWS API Gateway authorizer")
	_ = deployCmd.MarkFlagRequired("function-name")
	_ = deployCmd.MarkFlagRequired("model-endpoint")
	_ = deployCmd.MarkFlagRequired("model-uri")

	register := &cobra.Command{
		Use:   "register-in-api-gateway",
		Short: "Register a deployed function as an API Gateway route",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			functionName, _ := cmd.Flags().GetString("function-name")
			resource, _ := cmd.Flags().GetString("gateway-resource")
			gatewayID, _ := cmd.Flags().GetString("gateway-id")
			stage, _ := cmd.Flags().GetString("gateway-stage")
			auth, _ := cmd.Flags().GetString("gateway-auth")
			return registerInGateway(cmd.Context(), cfg, functionName, resource, gatewayID, stage, auth)
		},
	}
	register.Flags().StringP("function-name", "f", "", "Function name")
	register.Flags().StringP("gateway-resource", "u", "", "Name of the resource in API Gateway")
	register.Flags().StringP("gateway-id", "g", "", "ID of the AWS API Gateway")
	register.Flags().String("gateway-stage", "", "AWS API Gateway stage")
	register.Flags().StringP("gateway-auth", "q", "", "AWS API Gateway authorizer")
	_ = register.MarkFlagRequired("function-name")
	_ = register.MarkFlagRequired("gateway-resource")

	lambdaCmd.AddCommand(list, deployCmd, register)
	return lambdaCmd
}

func applyLambdaDefaults(flags *lambdaDeployFlags, cfg *config.Settings) {
	if len(flags.layers) == 0 {
		flags.layers = cfg.Strings(config.KeyLambdaLayers)
	}
	if flags.ram == 0 {
		flags.ram = int32(cfg.Int(config.KeyLambdaRAM))
	}
	if flags.roleARN == "" {
		flags.roleARN = cfg.String(config.KeyLambdaRoleARN)
	}
	if flags.runtime == "" {
		flags.runtime = cfg.String(config.KeyLambdaRuntime)
	}
	if flags.timeout == 0 {
		flags.timeout = int32(cfg.Int(config.KeyLambdaTimeout))
	}
	if flags.gatewayID == "" {
		flags.gatewayID = cfg.String(config.KeyGatewayID)
	}
	if flags.gatewayStage == "" {
		flags.gatewayStage = cfg.String(config.KeyGatewayStage)
	}
	if flags.gatewayAuth == "" {
		flags.gatewayAuth = cfg.String(config.KeyGatewayAuthorizer)
	}
}

func runLambdaDeploy(ctx context.Context, flags *lambdaDeployFlags) (string, error) {
	_, registry, err := registryClient()
	if err != nil {
		return "", err
	}
	codeDir, err := deploy.FetchInferenceCode(ctx, registry, flags.modelURI)
	if err != nil {
		return "", err
	}
	if err := deploy.ValidateFunctionDir(codeDir); err != nil {
		return "", err
	}
	code, err := deploy.ZipDirectory(codeDir)
	if err != nil {
		return "", err
	}

	awsCfg, err := deploy.NewAWSConfig(ctx, "")
	if err != nil {
		return "", err
	}
	return deploy.NewFunctionDeployer(awsCfg).Deploy(ctx, code, deploy.FunctionSpec{
		Name:          flags.functionName,
		ModelURI:      flags.modelURI,
		ModelEndpoint: flags.modelEndpoint,
		RoleARN:       flags.roleARN,
		Runtime:       flags.runtime,
		MemoryMB:      flags.ram,
		Timeout:       flags.timeout,
		Layers:        flags.layers,
		Publish:       flags.publish,
	})
}

func registerInGateway(ctx context.Context, cfg *config.Settings, functionName, resource, gatewayID, stage, auth string) error {
	if gatewayID == "" {
		gatewayID = cfg.String(config.KeyGatewayID)
	}
	if stage == "" {
		stage = cfg.String(config.KeyGatewayStage)
	}
	if auth == "" {
		auth = cfg.String(config.KeyGatewayAuthorizer)
	}
	if err := requireValue("gateway ID", gatewayID); err != nil {
		return err
	}
	if err := requireValue("gateway stage", stage); err != nil {
		return err
	}

	awsCfg, err := deploy.NewAWSConfig(ctx, "")
	if err != nil {
		return err
	}
	deployer := deploy.NewFunctionDeployer(awsCfg)
	functionARN, err := deployer.FunctionARN(ctx, functionName)
	if err != nil {
		return err
	}

	return deploy.NewRouteRegistrar(awsCfg).Register(ctx, deploy.RouteSpec{
		GatewayID:         gatewayID,
		Stage:             stage,
		Resource:          resource,
		FunctionARN:       functionARN,
		Region:            awsCfg.Region,
		Authorizer:        auth,
		InvocationRoleARN: cfg.String(config.KeyGatewayInvocationRole),
	})
}
