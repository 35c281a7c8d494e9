package deploy

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigateway"
	gwtypes "github.com/aws/aws-sdk-go-v2/service/apigateway/types"

	"github.com/odahu/odahu-mlflow-aws/pkg/logger"
)

// GatewayAPI is the subset of the API Gateway control plane used to register
// a function route.
type GatewayAPI interface {
	apigateway.GetResourcesAPIClient
	GetRestApi(ctx context.Context, params *apigateway.GetRestApiInput, optFns ...func(*apigateway.Options)) (*apigateway.GetRestApiOutput, error)
	GetStage(ctx context.Context, params *apigateway.GetStageInput, optFns ...func(*apigateway.Options)) (*apigateway.GetStageOutput, error)
	CreateResource(ctx context.Context, params *apigateway.CreateResourceInput, optFns ...func(*apigateway.Options)) (*apigateway.CreateResourceOutput, error)
	DeleteMethod(ctx context.Context, params *apigateway.DeleteMethodInput, optFns ...func(*apigateway.Options)) (*apigateway.DeleteMethodOutput, error)
	PutMethod(ctx context.Context, params *apigateway.PutMethodInput, optFns ...func(*apigateway.Options)) (*apigateway.PutMethodOutput, error)
	GetMethodResponse(ctx context.Context, params *apigateway.GetMethodResponseInput, optFns ...func(*apigateway.Options)) (*apigateway.GetMethodResponseOutput, error)
	PutMethodResponse(ctx context.Context, params *apigateway.PutMethodResponseInput, optFns ...func(*apigateway.Options)) (*apigateway.PutMethodResponseOutput, error)
	GetIntegration(ctx context.Context, params *apigateway.GetIntegrationInput, optFns ...func(*apigateway.Options)) (*apigateway.GetIntegrationOutput, error)
	DeleteIntegration(ctx context.Context, params *apigateway.DeleteIntegrationInput, optFns ...func(*apigateway.Options)) (*apigateway.DeleteIntegrationOutput, error)
	PutIntegration(ctx context.Context, params *apigateway.PutIntegrationInput, optFns ...func(*apigateway.Options)) (*apigateway.PutIntegrationOutput, error)
	CreateDeployment(ctx context.Context, params *apigateway.CreateDeploymentInput, optFns ...func(*apigateway.Options)) (*apigateway.CreateDeploymentOutput, error)
}

// RouteSpec describes a POST route for a model-handler function.
type RouteSpec struct {
	GatewayID   string
	Stage       string
	Resource    string
	FunctionARN string
	Region      string

	// Authorizer enables CUSTOM authorization when set, NONE otherwise.
	Authorizer string
	// InvocationRoleARN is the credentials entry of the integration.
	InvocationRoleARN string
}

// RouteRegistrar wires model-handler functions into API Gateway.
type RouteRegistrar struct {
	api GatewayAPI
}

func NewRouteRegistrar(cfg aws.Config) *RouteRegistrar {
	return &RouteRegistrar{api: apigateway.NewFromConfig(cfg)}
}

func NewRouteRegistrarWithClient(api GatewayAPI) *RouteRegistrar {
	return &RouteRegistrar{api: api}
}

// Register creates (or refreshes) a POST method under /<resource> proxying to
// the function and deploys the change to the stage. The method and its
// integration are replaced when they already exist.
func (r *RouteRegistrar) Register(ctx context.Context, spec RouteSpec) error {
	if _, err := r.api.GetRestApi(ctx, &apigateway.GetRestApiInput{
		RestApiId: aws.String(spec.GatewayID),
	}); err != nil {
		if isGatewayNotFound(err) {
			return fmt.Errorf("unable to find API Gateway with ID: %s", spec.GatewayID)
		}
		return fmt.Errorf("failed to look up API Gateway %s: %w", spec.GatewayID, err)
	}
	if _, err := r.api.GetStage(ctx, &apigateway.GetStageInput{
		RestApiId: aws.String(spec.GatewayID),
		StageName: aws.String(spec.Stage),
	}); err != nil {
		if isGatewayNotFound(err) {
			return fmt.Errorf("unable to find stage with ID: %s", spec.Stage)
		}
		return fmt.Errorf("failed to look up stage %s: %w", spec.Stage, err)
	}

	resource, err := r.findOrCreateResource(ctx, spec)
	if err != nil {
		return err
	}
	resourceID := aws.ToString(resource.Id)

	if _, exists := resource.ResourceMethods["POST"]; exists {
		if _, err := r.api.DeleteMethod(ctx, &apigateway.DeleteMethodInput{
			RestApiId:  aws.String(spec.GatewayID),
			ResourceId: aws.String(resourceID),
			HttpMethod: aws.String("POST"),
		}); err != nil {
			return fmt.Errorf("failed to delete existing POST method: %w", err)
		}
	}

	method := &apigateway.PutMethodInput{
		RestApiId:         aws.String(spec.GatewayID),
		ResourceId:        aws.String(resourceID),
		HttpMethod:        aws.String("POST"),
		ApiKeyRequired:    false,
		OperationName:     aws.String(spec.Resource),
		AuthorizationType: aws.String("NONE"),
	}
	if spec.Authorizer != "" {
		method.AuthorizationType = aws.String("CUSTOM")
		method.AuthorizerId = aws.String(spec.Authorizer)
	}
	if _, err := r.api.PutMethod(ctx, method); err != nil {
		return fmt.Errorf("failed to create POST method: %w", err)
	}

	if err := r.ensureMethodResponse(ctx, spec, resourceID); err != nil {
		return err
	}
	if err := r.replaceIntegration(ctx, spec, resourceID); err != nil {
		return err
	}

	if _, err := r.api.CreateDeployment(ctx, &apigateway.CreateDeploymentInput{
		RestApiId: aws.String(spec.GatewayID),
		StageName: aws.String(spec.Stage),
	}); err != nil {
		return fmt.Errorf("failed to deploy stage %s: %w", spec.Stage, err)
	}

	logger.Info(fmt.Sprintf("Resource /%s has been published to stage %s", spec.Resource, spec.Stage))
	return nil
}

func (r *RouteRegistrar) findOrCreateResource(ctx context.Context, spec RouteSpec) (*gwtypes.Resource, error) {
	var root, existing *gwtypes.Resource
	paginator := apigateway.NewGetResourcesPaginator(r.api, &apigateway.GetResourcesInput{
		RestApiId: aws.String(spec.GatewayID),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list gateway resources: %w", err)
		}
		for i := range page.Items {
			item := page.Items[i]
			if aws.ToString(item.Path) == "/" {
				root = &item
			}
			if aws.ToString(item.PathPart) == spec.Resource {
				existing = &item
			}
		}
	}

	if existing != nil {
		return existing, nil
	}
	if root == nil {
		return nil, fmt.Errorf("root resource is not found in API Gateway %s", spec.GatewayID)
	}

	created, err := r.api.CreateResource(ctx, &apigateway.CreateResourceInput{
		RestApiId: aws.String(spec.GatewayID),
		ParentId:  root.Id,
		PathPart:  aws.String(spec.Resource),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create resource %s: %w", spec.Resource, err)
	}
	return &gwtypes.Resource{Id: created.Id, PathPart: created.PathPart, Path: created.Path}, nil
}

func (r *RouteRegistrar) ensureMethodResponse(ctx context.Context, spec RouteSpec, resourceID string) error {
	_, err := r.api.GetMethodResponse(ctx, &apigateway.GetMethodResponseInput{
		RestApiId:  aws.String(spec.GatewayID),
		ResourceId: aws.String(resourceID),
		HttpMethod: aws.String("POST"),
		StatusCode: aws.String("200"),
	})
	if err == nil {
		return nil
	}
	if !isGatewayNotFound(err) {
		return fmt.Errorf("failed to look up method response: %w", err)
	}

	if _, err := r.api.PutMethodResponse(ctx, &apigateway.PutMethodResponseInput{
		RestApiId:  aws.String(spec.GatewayID),
		ResourceId: aws.String(resourceID),
		HttpMethod: aws.String("POST"),
		StatusCode: aws.String("200"),
	}); err != nil {
		return fmt.Errorf("failed to create method response: %w", err)
	}
	return nil
}

func (r *RouteRegistrar) replaceIntegration(ctx context.Context, spec RouteSpec, resourceID string) error {
	_, err := r.api.GetIntegration(ctx, &apigateway.GetIntegrationInput{
		RestApiId:  aws.String(spec.GatewayID),
		ResourceId: aws.String(resourceID),
		HttpMethod: aws.String("POST"),
	})
	if err == nil {
		if _, err := r.api.DeleteIntegration(ctx, &apigateway.DeleteIntegrationInput{
			RestApiId:  aws.String(spec.GatewayID),
			ResourceId: aws.String(resourceID),
			HttpMethod: aws.String("POST"),
		}); err != nil {
			return fmt.Errorf("failed to delete existing integration: %w", err)
		}
	} else if !isGatewayNotFound(err) {
		return fmt.Errorf("failed to look up integration: %w", err)
	}

	integration := &apigateway.PutIntegrationInput{
		RestApiId:             aws.String(spec.GatewayID),
		ResourceId:            aws.String(resourceID),
		HttpMethod:            aws.String("POST"),
		IntegrationHttpMethod: aws.String("POST"),
		Type:                  gwtypes.IntegrationTypeAwsProxy,
		Uri: aws.String(fmt.Sprintf(
			"arn:aws:apigateway:%s:lambda:path/2015-03-31/functions/%s/invocations",
			spec.Region, spec.FunctionARN,
		)),
	}
	if spec.InvocationRoleARN != "" {
		integration.Credentials = aws.String(spec.InvocationRoleARN)
	}
	if _, err := r.api.PutIntegration(ctx, integration); err != nil {
		return fmt.Errorf("failed to create integration: %w", err)
	}
	return nil
}

func isGatewayNotFound(err error) bool {
	var notFound *gwtypes.NotFoundException
	return errors.As(err, &notFound)
}
