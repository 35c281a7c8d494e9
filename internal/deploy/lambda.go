package deploy

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"

	"github.com/odahu/odahu-mlflow-aws/pkg/logger"
)

// LambdaAPI is the subset of the Lambda control plane the deployer uses.
type LambdaAPI interface {
	lambda.ListFunctionsAPIClient
	GetFunction(ctx context.Context, params *lambda.GetFunctionInput, optFns ...func(*lambda.Options)) (*lambda.GetFunctionOutput, error)
	CreateFunction(ctx context.Context, params *lambda.CreateFunctionInput, optFns ...func(*lambda.Options)) (*lambda.CreateFunctionOutput, error)
	UpdateFunctionCode(ctx context.Context, params *lambda.UpdateFunctionCodeInput, optFns ...func(*lambda.Options)) (*lambda.UpdateFunctionCodeOutput, error)
}

// FunctionSpec describes one model-handler function deployment.
type FunctionSpec struct {
	Name          string
	ModelURI      string
	ModelEndpoint string
	RoleARN       string
	Runtime       string
	MemoryMB      int32
	Timeout       int32
	Layers        []string
	Publish       bool
}

// FunctionDeployer publishes model-handler functions to AWS Lambda.
type FunctionDeployer struct {
	api LambdaAPI
}

func NewFunctionDeployer(cfg aws.Config) *FunctionDeployer {
	return &FunctionDeployer{api: lambda.NewFromConfig(cfg)}
}

func NewFunctionDeployerWithClient(api LambdaAPI) *FunctionDeployer {
	return &FunctionDeployer{api: api}
}

// Deploy creates the function or, when it already exists, replaces its code.
// It returns the ARN of the published function.
func (d *FunctionDeployer) Deploy(ctx context.Context, code []byte, spec FunctionSpec) (string, error) {
	existing, err := d.api.GetFunction(ctx, &lambda.GetFunctionInput{
		FunctionName: aws.String(spec.Name),
	})
	if err != nil {
		var notFound *lambdatypes.ResourceNotFoundException
		if !errors.As(err, &notFound) {
			return "", fmt.Errorf("failed to look up function %s: %w", spec.Name, err)
		}
		existing = nil
	}

	if existing != nil {
		logger.Info(fmt.Sprintf("Updating code of existing function %q", spec.Name))
		updated, err := d.api.UpdateFunctionCode(ctx, &lambda.UpdateFunctionCodeInput{
			FunctionName: aws.String(spec.Name),
			ZipFile:      code,
			Publish:      spec.Publish,
		})
		if err != nil {
			return "", fmt.Errorf("failed to update function %s: %w", spec.Name, err)
		}
		return aws.ToString(updated.FunctionArn), nil
	}

	created, err := d.api.CreateFunction(ctx, &lambda.CreateFunctionInput{
		FunctionName: aws.String(spec.Name),
		Code:         &lambdatypes.FunctionCode{ZipFile: code},
		Description:  aws.String(fmt.Sprintf("Processing layer for model %s", spec.ModelURI)),
		Handler:      aws.String(FunctionHandler),
		Publish:      spec.Publish,
		Timeout:      aws.Int32(spec.Timeout),
		MemorySize:   aws.Int32(spec.MemoryMB),
		Role:         aws.String(spec.RoleARN),
		Runtime:      lambdatypes.Runtime(spec.Runtime),
		Layers:       spec.Layers,
		Environment: &lambdatypes.Environment{
			Variables: map[string]string{
				ModelEndpointEnv: spec.ModelEndpoint,
			},
		},
		Tags: map[string]string{
			functionTagKey: functionTagValue,
			"model":        spec.ModelURI,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create function %s: %w", spec.Name, err)
	}
	logger.Info(fmt.Sprintf("Function %s has been published", spec.Name))
	return aws.ToString(created.FunctionArn), nil
}

// ListModelFunctions returns the deployed functions carrying a model endpoint
// binding, skipping unrelated functions in the account.
func (d *FunctionDeployer) ListModelFunctions(ctx context.Context) ([]lambdatypes.FunctionConfiguration, error) {
	var functions []lambdatypes.FunctionConfiguration
	paginator := lambda.NewListFunctionsPaginator(d.api, &lambda.ListFunctionsInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list functions: %w", err)
		}
		for _, function := range page.Functions {
			if function.Environment == nil {
				continue
			}
			if function.Environment.Variables[ModelEndpointEnv] != "" {
				functions = append(functions, function)
			}
		}
	}
	return functions, nil
}

// FunctionARN resolves the ARN of a deployed function by name.
func (d *FunctionDeployer) FunctionARN(ctx context.Context, name string) (string, error) {
	info, err := d.api.GetFunction(ctx, &lambda.GetFunctionInput{
		FunctionName: aws.String(name),
	})
	if err != nil {
		var notFound *lambdatypes.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return "", fmt.Errorf("lambda function with name %s is not found", name)
		}
		return "", fmt.Errorf("failed to look up function %s: %w", name, err)
	}
	return aws.ToString(info.Configuration.FunctionArn), nil
}
