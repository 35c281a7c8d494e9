package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sagemakerruntime"

	ierrors "github.com/odahu/odahu-mlflow-aws/pkg/inference/errors"
)

// SageMakerRuntimeAPI is the subset of the SageMaker runtime client used by
// the dispatcher.
type SageMakerRuntimeAPI interface {
	InvokeEndpoint(ctx context.Context, params *sagemakerruntime.InvokeEndpointInput, optFns ...func(*sagemakerruntime.Options)) (*sagemakerruntime.InvokeEndpointOutput, error)
}

// SageMaker invokes a hosted endpoint through the SageMaker runtime API.
type SageMaker struct {
	runtime      SageMakerRuntimeAPI
	endpointName string
}

func NewSageMaker(ctx context.Context, endpointName string) (*SageMaker, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return NewSageMakerWithClient(sagemakerruntime.NewFromConfig(cfg), endpointName), nil
}

func NewSageMakerWithClient(runtime SageMakerRuntimeAPI, endpointName string) *SageMaker {
	return &SageMaker{runtime: runtime, endpointName: endpointName}
}

func (d *SageMaker) Call(ctx context.Context, payload any) (any, error) {
	body, contentType, err := encodePayload(payload, EncoderJSON)
	if err != nil {
		return nil, err
	}

	output, err := d.runtime.InvokeEndpoint(ctx, &sagemakerruntime.InvokeEndpointInput{
		EndpointName: aws.String(d.endpointName),
		ContentType:  aws.String(contentType),
		Body:         []byte(body),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to invoke SageMaker endpoint %s: %w", d.endpointName, err)
	}

	var prediction any
	if err := json.Unmarshal(output.Body, &prediction); err != nil {
		return nil, fmt.Errorf("failed to parse SageMaker endpoint %s response as JSON: %w", d.endpointName, err)
	}
	return prediction, nil
}

// Build selects the dispatcher variant from the shape of the endpoint
// reference: HTTP(S) URLs go over plain HTTP, any other non-empty reference
// is treated as a SageMaker endpoint name. In-process dispatchers are always
// built explicitly.
func Build(ctx context.Context, endpoint string) (Dispatcher, error) {
	if endpoint == "" {
		return nil, &ierrors.ConfigurationError{ErrorMsg: "model endpoint is not set"}
	}
	if strings.HasPrefix(endpoint, "http") {
		return NewHTTP(endpoint), nil
	}
	return NewSageMaker(ctx, endpoint)
}
