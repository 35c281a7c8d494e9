package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/odahu/odahu-mlflow-aws/internal/config"
	"github.com/odahu/odahu-mlflow-aws/internal/deploy"
	"github.com/odahu/odahu-mlflow-aws/pkg/logger"
)

type sageMakerDeployFlags struct {
	appName       string
	modelURI      string
	roleARN       string
	bucket        string
	image         string
	region        string
	instanceType  string
	instanceCount int32
	timeout       int
}

func newSageMakerCommand() *cobra.Command {
	sm := &cobra.Command{
		Use:   "sagemaker",
		Short: "Deploy and manage models running in SageMaker",
	}

	flags := &sageMakerDeployFlags{}
	deployModel := &cobra.Command{
		Use:   "deploy-model",
		Short: "Deploy a registered model as a SageMaker endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			applySageMakerDefaults(flags, cfg)
			return runSageMakerDeploy(cmd, flags, cfg)
		},
	}
	deployModel.Flags().StringVarP(&flags.appName, "app-name", "a", "", "Application name")
	deployModel.Flags().StringVarP(&flags.modelURI, "model-uri", "m", "", "Model URI (models:/<name>/<version>)")
	deployModel.Flags().StringVarP(&flags.roleARN, "execution-role-arn", "e", "", "SageMaker execution role")
	deployModel.Flags().StringVarP(&flags.bucket, "bucket", "b", "", "S3 bucket to store model artifacts")
	deployModel.Flags().StringVarP(&flags.image, "image-url", "i", "", "ECR URL for the Docker image")
	deployModel.Flags().StringVar(&flags.region, "region-name", "", "AWS region in which to deploy the application")
	deployModel.Flags().StringVarP(&flags.instanceType, "instance-type", "t", "", "SageMaker ML instance type")
	deployModel.Flags().Int32VarP(&flags.instanceCount, "instance-count", "c", 0, "Number of SageMaker ML instances")
	deployModel.Flags().IntVar(&flags.timeout, "timeout", 0, "Deploy timeout in seconds")
	_ = deployModel.MarkFlagRequired("app-name")
	_ = deployModel.MarkFlagRequired("model-uri")

	sm.AddCommand(deployModel)
	return sm
}

func applySageMakerDefaults(flags *sageMakerDeployFlags, cfg *config.Settings) {
	if flags.roleARN == "" {
		flags.roleARN = cfg.String(config.KeySageMakerRoleARN)
	}
	if flags.bucket == "" {
		flags.bucket = cfg.String(config.KeySageMakerBucket)
	}
	if flags.image == "" {
		flags.image = cfg.String(config.KeySageMakerImage)
	}
	if flags.region == "" {
		flags.region = cfg.String(config.KeySageMakerRegion)
	}
	if flags.instanceType == "" {
		flags.instanceType = cfg.String(config.KeySageMakerInstanceType)
	}
	if flags.instanceCount == 0 {
		flags.instanceCount = int32(cfg.Int(config.KeySageMakerInstanceCount))
	}
	if flags.timeout == 0 {
		flags.timeout = cfg.Int(config.KeySageMakerDeployTimeout)
	}
}

func runSageMakerDeploy(cmd *cobra.Command, flags *sageMakerDeployFlags, cfg *config.Settings) error {
	for name, value := range map[string]string{
		"execution role ARN": flags.roleARN,
		"artifact bucket":    flags.bucket,
		"inference image":    flags.image,
	} {
		if err := requireValue(name, value); err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	_, registry, err := registryClient()
	if err != nil {
		return err
	}

	logger.Info(fmt.Sprintf("Fetching model artifact for %s", flags.modelURI))
	archivePath, err := deploy.FetchModelArchive(ctx, registry, flags.modelURI)
	if err != nil {
		return err
	}

	awsCfg, err := deploy.NewAWSConfig(ctx, flags.region)
	if err != nil {
		return err
	}

	return deploy.NewEndpointDeployer(awsCfg).Deploy(ctx, deploy.EndpointSpec{
		AppName:           flags.appName,
		ArtifactPath:      archivePath,
		Bucket:            flags.bucket,
		RoleARN:           flags.roleARN,
		Image:             flags.image,
		InstanceType:      flags.instanceType,
		InstanceCount:     flags.instanceCount,
		VPCSecurityGroups: cfg.Strings(config.KeySageMakerVPCSecGroups),
		VPCSubnets:        cfg.Strings(config.KeySageMakerVPCSubnets),
		Timeout:           time.Duration(flags.timeout) * time.Second,
	})
}
