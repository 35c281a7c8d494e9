package deploy

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigateway"
	gwtypes "github.com/aws/aws-sdk-go-v2/service/apigateway/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGatewayAPI struct {
	apiID     string
	stage     string
	resources []gwtypes.Resource
	hasMethod bool

	hasMethodResponse bool
	hasIntegration    bool

	deletedMethod      bool
	deletedIntegration bool
	createdResource    *apigateway.CreateResourceInput
	methodInput        *apigateway.PutMethodInput
	integrationInput   *apigateway.PutIntegrationInput
	deploymentInput    *apigateway.CreateDeploymentInput
}

func (f *fakeGatewayAPI) GetRestApi(_ context.Context, params *apigateway.GetRestApiInput, _ ...func(*apigateway.Options)) (*apigateway.GetRestApiOutput, error) {
	if aws.ToString(params.RestApiId) != f.apiID {
		return nil, &gwtypes.NotFoundException{Message: aws.String("Invalid API identifier")}
	}
	return &apigateway.GetRestApiOutput{Id: params.RestApiId}, nil
}

func (f *fakeGatewayAPI) GetStage(_ context.Context, params *apigateway.GetStageInput, _ ...func(*apigateway.Options)) (*apigateway.GetStageOutput, error) {
	if aws.ToString(params.StageName) != f.stage {
		return nil, &gwtypes.NotFoundException{Message: aws.String("Invalid stage identifier")}
	}
	return &apigateway.GetStageOutput{StageName: params.StageName}, nil
}

func (f *fakeGatewayAPI) GetResources(_ context.Context, _ *apigateway.GetResourcesInput, _ ...func(*apigateway.Options)) (*apigateway.GetResourcesOutput, error) {
	return &apigateway.GetResourcesOutput{Items: f.resources}, nil
}

func (f *fakeGatewayAPI) CreateResource(_ context.Context, params *apigateway.CreateResourceInput, _ ...func(*apigateway.Options)) (*apigateway.CreateResourceOutput, error) {
	f.createdResource = params
	return &apigateway.CreateResourceOutput{
		Id:       aws.String("res-new"),
		PathPart: params.PathPart,
		Path:     aws.String("/" + aws.ToString(params.PathPart)),
	}, nil
}

func (f *fakeGatewayAPI) DeleteMethod(_ context.Context, _ *apigateway.DeleteMethodInput, _ ...func(*apigateway.Options)) (*apigateway.DeleteMethodOutput, error) {
	f.deletedMethod = true
	return &apigateway.DeleteMethodOutput{}, nil
}

func (f *fakeGatewayAPI) PutMethod(_ context.Context, params *apigateway.PutMethodInput, _ ...func(*apigateway.Options)) (*apigateway.PutMethodOutput, error) {
	f.methodInput = params
	return &apigateway.PutMethodOutput{}, nil
}

func (f *fakeGatewayAPI) GetMethodResponse(_ context.Context, _ *apigateway.GetMethodResponseInput, _ ...func(*apigateway.Options)) (*apigateway.GetMethodResponseOutput, error) {
	if !f.hasMethodResponse {
		return nil, &gwtypes.NotFoundException{Message: aws.String("Invalid Response status code")}
	}
	return &apigateway.GetMethodResponseOutput{}, nil
}

func (f *fakeGatewayAPI) PutMethodResponse(_ context.Context, _ *apigateway.PutMethodResponseInput, _ ...func(*apigateway.Options)) (*apigateway.PutMethodResponseOutput, error) {
	f.hasMethodResponse = true
	return &apigateway.PutMethodResponseOutput{}, nil
}

func (f *fakeGatewayAPI) GetIntegration(_ context.Context, _ *apigateway.GetIntegrationInput, _ ...func(*apigateway.Options)) (*apigateway.GetIntegrationOutput, error) {
	if !f.hasIntegration {
		return nil, &gwtypes.NotFoundException{Message: aws.String("Invalid Integration identifier")}
	}
	return &apigateway.GetIntegrationOutput{}, nil
}

func (f *fakeGatewayAPI) DeleteIntegration(_ context.Context, _ *apigateway.DeleteIntegrationInput, _ ...func(*apigateway.Options)) (*apigateway.DeleteIntegrationOutput, error) {
	f.deletedIntegration = true
	f.hasIntegration = false
	return &apigateway.DeleteIntegrationOutput{}, nil
}

func (f *fakeGatewayAPI) PutIntegration(_ context.Context, params *apigateway.PutIntegrationInput, _ ...func(*apigateway.Options)) (*apigateway.PutIntegrationOutput, error) {
	f.integrationInput = params
	return &apigateway.PutIntegrationOutput{}, nil
}

func (f *fakeGatewayAPI) CreateDeployment(_ context.Context, params *apigateway.CreateDeploymentInput, _ ...func(*apigateway.Options)) (*apigateway.CreateDeploymentOutput, error) {
	f.deploymentInput = params
	return &apigateway.CreateDeploymentOutput{}, nil
}

func newGatewayFake() *fakeGatewayAPI {
	return &fakeGatewayAPI{
		apiID: "api-1",
		stage: "prod",
		resources: []gwtypes.Resource{
			{Id: aws.String("res-root"), Path: aws.String("/")},
		},
	}
}

func wineRouteSpec() RouteSpec {
	return RouteSpec{
		GatewayID:   "api-1",
		Stage:       "prod",
		Resource:    "wine-quality",
		FunctionARN: "arn:aws:lambda:us-west-1:0:function:wine-invocation",
		Region:      "us-west-1",
	}
}

func TestRegisterCreatesResourceAndRoute(t *testing.T) {
	api := newGatewayFake()
	registrar := NewRouteRegistrarWithClient(api)

	require.NoError(t, registrar.Register(context.Background(), wineRouteSpec()))

	require.NotNil(t, api.createdResource)
	assert.Equal(t, "res-root", aws.ToString(api.createdResource.ParentId))
	assert.Equal(t, "wine-quality", aws.ToString(api.createdResource.PathPart))

	require.NotNil(t, api.methodInput)
	assert.Equal(t, "res-new", aws.ToString(api.methodInput.ResourceId))
	assert.Equal(t, "NONE", aws.ToString(api.methodInput.AuthorizationType))
	assert.Nil(t, api.methodInput.AuthorizerId)
	assert.False(t, api.deletedMethod)

	require.NotNil(t, api.integrationInput)
	assert.Equal(t, gwtypes.IntegrationTypeAwsProxy, api.integrationInput.Type)
	assert.Equal(t,
		"arn:aws:apigateway:us-west-1:lambda:path/2015-03-31/functions/arn:aws:lambda:us-west-1:0:function:wine-invocation/invocations",
		aws.ToString(api.integrationInput.Uri))
	assert.Nil(t, api.integrationInput.Credentials)

	require.NotNil(t, api.deploymentInput)
	assert.Equal(t, "prod", aws.ToString(api.deploymentInput.StageName))
}

func TestRegisterReplacesExistingRoute(t *testing.T) {
	api := newGatewayFake()
	api.resources = append(api.resources, gwtypes.Resource{
		Id:       aws.String("res-wine"),
		Path:     aws.String("/wine-quality"),
		PathPart: aws.String("wine-quality"),
		ResourceMethods: map[string]gwtypes.Method{
			"POST": {},
		},
	})
	api.hasMethodResponse = true
	api.hasIntegration = true
	registrar := NewRouteRegistrarWithClient(api)

	require.NoError(t, registrar.Register(context.Background(), wineRouteSpec()))

	assert.Nil(t, api.createdResource)
	assert.True(t, api.deletedMethod)
	assert.True(t, api.deletedIntegration)
	require.NotNil(t, api.methodInput)
	assert.Equal(t, "res-wine", aws.ToString(api.methodInput.ResourceId))
	require.NotNil(t, api.integrationInput)
}

func TestRegisterWithAuthorizerAndRole(t *testing.T) {
	api := newGatewayFake()
	registrar := NewRouteRegistrarWithClient(api)

	spec := wineRouteSpec()
	spec.Authorizer = "auth-1"
	spec.InvocationRoleARN = "arn:aws:iam::0:role/gateway-call"

	require.NoError(t, registrar.Register(context.Background(), spec))

	require.NotNil(t, api.methodInput)
	assert.Equal(t, "CUSTOM", aws.ToString(api.methodInput.AuthorizationType))
	assert.Equal(t, "auth-1", aws.ToString(api.methodInput.AuthorizerId))
	assert.Equal(t, "arn:aws:iam::0:role/gateway-call", aws.ToString(api.integrationInput.Credentials))
}

func TestRegisterUnknownGatewayAndStage(t *testing.T) {
	api := newGatewayFake()
	registrar := NewRouteRegistrarWithClient(api)

	spec := wineRouteSpec()
	spec.GatewayID = "missing"
	err := registrar.Register(context.Background(), spec)
	require.Error(t, err)
	assert.Equal(t, "unable to find API Gateway with ID: missing", err.Error())

	spec = wineRouteSpec()
	spec.Stage = "missing"
	err = registrar.Register(context.Background(), spec)
	require.Error(t, err)
	assert.Equal(t, "unable to find stage with ID: missing", err.Error())
}

func TestRegisterRequiresRootResource(t *testing.T) {
	api := newGatewayFake()
	api.resources = nil
	registrar := NewRouteRegistrarWithClient(api)

	err := registrar.Register(context.Background(), wineRouteSpec())
	require.Error(t, err)
	assert.Equal(t, "root resource is not found in API Gateway api-1", err.Error())
}
