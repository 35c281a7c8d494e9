// Package deploy publishes registry models to AWS: the model itself to a
// SageMaker endpoint, its adaptation code to a Lambda function and the
// function to an API Gateway route.
package deploy

import (
	"context"
	"fmt"
	"os"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/odahu/odahu-mlflow-aws/internal/mlflow"
)

// Artifact folder inside a registered model holding the adaptation code.
const InferenceCodeFolder = "inference_service"

// Entry point layout expected inside the adaptation code folder.
const (
	FunctionHandlerFile = "lambda_function.py"
	FunctionHandler     = "lambda_function.lambda_handler"
)

// ModelEndpointEnv points a deployed function at its model endpoint.
const ModelEndpointEnv = "MODEL_ENDPOINT_ENV"

const (
	functionTagKey   = "type"
	functionTagValue = "mlflow-aws-model-handler"
)

// NewAWSConfig resolves AWS settings through the SDK default chain, with an
// optional region override.
func NewAWSConfig(ctx context.Context, region string) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return cfg, nil
}

// FetchInferenceCode downloads the adaptation code saved with the model into
// a temporary directory and returns its local path.
func FetchInferenceCode(ctx context.Context, registry mlflow.Client, modelURI string) (string, error) {
	name, version, err := mlflow.ParseModelURI(modelURI)
	if err != nil {
		return "", err
	}
	info, err := registry.GetModelVersion(ctx, name, version)
	if err != nil {
		return "", err
	}

	artifacts, err := registry.ListArtifacts(ctx, info.RunID, "")
	if err != nil {
		return "", err
	}
	found := false
	for _, artifact := range artifacts {
		if artifact.Path == InferenceCodeFolder {
			found = true
			break
		}
	}
	if !found {
		return "", fmt.Errorf(
			"inference code has not been saved with model %s (name: %s, version: %s, run: %s)",
			modelURI, name, version, info.RunID,
		)
	}

	destDir, err := os.MkdirTemp("", "mlaws-inference-code-")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary directory: %w", err)
	}
	return registry.DownloadArtifacts(ctx, info.RunID, InferenceCodeFolder, destDir)
}

// FetchModelArchive downloads the model artifact folder of a registered model
// version and packages it as a tar.gz archive ready for the S3 upload. It
// returns the local archive path.
func FetchModelArchive(ctx context.Context, registry mlflow.Client, modelURI string) (string, error) {
	name, version, err := mlflow.ParseModelURI(modelURI)
	if err != nil {
		return "", err
	}
	info, err := registry.GetModelVersion(ctx, name, version)
	if err != nil {
		return "", err
	}

	artifactPath := path.Base(info.Source)
	destDir, err := os.MkdirTemp("", "mlaws-model-artifact-")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary directory: %w", err)
	}
	modelDir, err := registry.DownloadArtifacts(ctx, info.RunID, artifactPath, destDir)
	if err != nil {
		return "", err
	}
	return TarGzDirectory(modelDir)
}
