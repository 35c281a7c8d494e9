package deploy

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	smtypes "github.com/aws/aws-sdk-go-v2/service/sagemaker/types"
	"github.com/aws/smithy-go"

	"github.com/odahu/odahu-mlflow-aws/pkg/logger"
)

// S3API is the object upload surface used for model artifacts.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// SageMakerAPI is the subset of the SageMaker control plane the deployer uses.
type SageMakerAPI interface {
	CreateModel(ctx context.Context, params *sagemaker.CreateModelInput, optFns ...func(*sagemaker.Options)) (*sagemaker.CreateModelOutput, error)
	CreateEndpointConfig(ctx context.Context, params *sagemaker.CreateEndpointConfigInput, optFns ...func(*sagemaker.Options)) (*sagemaker.CreateEndpointConfigOutput, error)
	CreateEndpoint(ctx context.Context, params *sagemaker.CreateEndpointInput, optFns ...func(*sagemaker.Options)) (*sagemaker.CreateEndpointOutput, error)
	UpdateEndpoint(ctx context.Context, params *sagemaker.UpdateEndpointInput, optFns ...func(*sagemaker.Options)) (*sagemaker.UpdateEndpointOutput, error)
	DescribeEndpoint(ctx context.Context, params *sagemaker.DescribeEndpointInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DescribeEndpointOutput, error)
}

// EndpointSpec describes one model endpoint deployment.
type EndpointSpec struct {
	AppName      string
	ArtifactPath string
	Bucket       string
	RoleARN      string
	Image        string

	InstanceType  string
	InstanceCount int32

	VPCSecurityGroups []string
	VPCSubnets        []string

	// Deadline for the endpoint to reach the InService status.
	Timeout time.Duration
}

// EndpointDeployer publishes models as SageMaker endpoints.
type EndpointDeployer struct {
	s3        S3API
	sagemaker SageMakerAPI

	// pollInterval is shortened in tests.
	pollInterval time.Duration
}

func NewEndpointDeployer(cfg aws.Config) *EndpointDeployer {
	return &EndpointDeployer{
		s3:           s3.NewFromConfig(cfg),
		sagemaker:    sagemaker.NewFromConfig(cfg),
		pollInterval: 20 * time.Second,
	}
}

func NewEndpointDeployerWithClients(s3api S3API, smapi SageMakerAPI) *EndpointDeployer {
	return &EndpointDeployer{s3: s3api, sagemaker: smapi, pollInterval: time.Millisecond}
}

// Deploy uploads the model artifact, registers the model and endpoint config
// and creates or updates the endpoint named after the application. It blocks
// until the endpoint is in service or the spec timeout passes.
func (d *EndpointDeployer) Deploy(ctx context.Context, spec EndpointSpec) error {
	modelDataURL, err := d.uploadArtifact(ctx, spec)
	if err != nil {
		return err
	}

	suffix := time.Now().UTC().Format("20060102150405")
	modelName := fmt.Sprintf("%s-model-%s", spec.AppName, suffix)
	configName := fmt.Sprintf("%s-config-%s", spec.AppName, suffix)

	modelInput := &sagemaker.CreateModelInput{
		ModelName:        aws.String(modelName),
		ExecutionRoleArn: aws.String(spec.RoleARN),
		PrimaryContainer: &smtypes.ContainerDefinition{
			Image:        aws.String(spec.Image),
			ModelDataUrl: aws.String(modelDataURL),
		},
	}
	if len(spec.VPCSecurityGroups) > 0 || len(spec.VPCSubnets) > 0 {
		modelInput.VpcConfig = &smtypes.VpcConfig{
			SecurityGroupIds: spec.VPCSecurityGroups,
			Subnets:          spec.VPCSubnets,
		}
	}
	if _, err := d.sagemaker.CreateModel(ctx, modelInput); err != nil {
		return fmt.Errorf("failed to create model %s: %w", modelName, err)
	}

	if _, err := d.sagemaker.CreateEndpointConfig(ctx, &sagemaker.CreateEndpointConfigInput{
		EndpointConfigName: aws.String(configName),
		ProductionVariants: []smtypes.ProductionVariant{
			{
				VariantName:          aws.String("default"),
				ModelName:            aws.String(modelName),
				InstanceType:         smtypes.ProductionVariantInstanceType(spec.InstanceType),
				InitialInstanceCount: aws.Int32(spec.InstanceCount),
			},
		},
	}); err != nil {
		return fmt.Errorf("failed to create endpoint config %s: %w", configName, err)
	}

	exists, err := d.endpointExists(ctx, spec.AppName)
	if err != nil {
		return err
	}
	if exists {
		logger.Info(fmt.Sprintf("Updating existing endpoint %s", spec.AppName))
		_, err = d.sagemaker.UpdateEndpoint(ctx, &sagemaker.UpdateEndpointInput{
			EndpointName:       aws.String(spec.AppName),
			EndpointConfigName: aws.String(configName),
		})
	} else {
		logger.Info(fmt.Sprintf("Creating endpoint %s", spec.AppName))
		_, err = d.sagemaker.CreateEndpoint(ctx, &sagemaker.CreateEndpointInput{
			EndpointName:       aws.String(spec.AppName),
			EndpointConfigName: aws.String(configName),
		})
	}
	if err != nil {
		return fmt.Errorf("failed to roll out endpoint %s: %w", spec.AppName, err)
	}

	return d.waitInService(ctx, spec.AppName, spec.Timeout)
}

func (d *EndpointDeployer) uploadArtifact(ctx context.Context, spec EndpointSpec) (string, error) {
	file, err := os.Open(spec.ArtifactPath)
	if err != nil {
		return "", fmt.Errorf("failed to open model artifact: %w", err)
	}
	defer file.Close()

	key := path.Join(spec.AppName, "model.tar.gz")
	if _, err := d.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(spec.Bucket),
		Key:    aws.String(key),
		Body:   file,
	}); err != nil {
		return "", fmt.Errorf("failed to upload model artifact to bucket %s: %w", spec.Bucket, err)
	}
	return fmt.Sprintf("s3://%s/%s", spec.Bucket, key), nil
}

func (d *EndpointDeployer) endpointExists(ctx context.Context, name string) (bool, error) {
	_, err := d.sagemaker.DescribeEndpoint(ctx, &sagemaker.DescribeEndpointInput{
		EndpointName: aws.String(name),
	})
	if err == nil {
		return true, nil
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ValidationException" {
		return false, nil
	}
	return false, fmt.Errorf("failed to describe endpoint %s: %w", name, err)
}

func (d *EndpointDeployer) waitInService(ctx context.Context, name string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		info, err := d.sagemaker.DescribeEndpoint(ctx, &sagemaker.DescribeEndpointInput{
			EndpointName: aws.String(name),
		})
		if err != nil {
			return fmt.Errorf("failed to describe endpoint %s: %w", name, err)
		}
		switch info.EndpointStatus {
		case smtypes.EndpointStatusInService:
			logger.Info(fmt.Sprintf("Endpoint %s is in service", name))
			return nil
		case smtypes.EndpointStatusFailed:
			return fmt.Errorf("endpoint %s deployment failed: %s", name, aws.ToString(info.FailureReason))
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("endpoint %s did not become in-service within %s", name, timeout)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d.pollInterval):
		}
	}
}
