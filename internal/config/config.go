// Package config resolves toolkit settings from three layers: declared
// defaults, the user config file and process environment variables. The
// environment wins over the file, the file wins over defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Setting keys. Values are resolved case-sensitively against the config file
// and environment variables of the same name.
const (
	KeyDebug         = "DEBUG"
	KeyMaxTableWidth = "MAX_TABLE_WIDTH"
	KeyServerPort    = "SERVER_PORT"

	KeyTrackingURI = "MLFLOW_TRACKING_URI"

	KeySageMakerInstanceType  = "DEFAULT_SAGEMAKER_INSTANCE_TYPE"
	KeySageMakerInstanceCount = "DEFAULT_SAGEMAKER_INSTANCE_COUNT"
	KeySageMakerRegion        = "DEFAULT_SAGEMAKER_REGION"
	KeySageMakerRoleARN       = "DEFAULT_SAGEMAKER_EXECUTION_ROLE_ARN"
	KeySageMakerBucket        = "DEFAULT_SAGEMAKER_S3_MODELS_ARTIFACT"
	KeySageMakerImage         = "DEFAULT_SAGEMAKER_INFERENCE_IMAGE"
	KeySageMakerDeployTimeout = "DEFAULT_SAGEMAKER_DEPLOY_TIMEOUT"
	KeySageMakerVPCSecGroups  = "DEFAULT_SAGEMAKER_VPC_SECURITY_GROUPS"
	KeySageMakerVPCSubnets    = "DEFAULT_SAGEMAKER_VPC_SUBNETS"

	KeyLambdaRoleARN = "DEFAULT_LAMBDA_ARN"
	KeyLambdaLayers  = "DEFAULT_LAMBDA_LAYERS"
	KeyLambdaRAM     = "DEFAULT_LAMBDA_RAM"
	KeyLambdaRuntime = "DEFAULT_LAMBDA_RUNTIME"
	KeyLambdaTimeout = "DEFAULT_LAMBDA_TIMEOUT"

	KeyGatewayID             = "DEFAULT_API_GATEWAY_ID"
	KeyGatewayStage          = "DEFAULT_API_GATEWAY_STAGE"
	KeyGatewayAuthorizer     = "DEFAULT_API_GATEWAY_AUTHORIZATION"
	KeyGatewayInvocationRole = "DEFAULT_API_GATEWAY_LAMBDA_CALL_ROLE"
)

// EnvConfigPath overrides the location of the config file.
const EnvConfigPath = "ODAHU_MLFLOW_AWS_CONFIG"

const defaultFileName = ".odahu-mlflow-aws.yaml"

// Variable describes one declared setting for the settings surface of the CLI.
type Variable struct {
	Key         string
	Default     any
	Description string
}

var registry = []Variable{
	{KeyDebug, false, "Enable verbose program output"},
	{KeyMaxTableWidth, 230, "Max width of the output table in console"},
	{KeyServerPort, 9000, "Port for the local serving surface"},
	{KeyTrackingURI, "http://localhost:5000/", "MLflow tracking server URL"},
	{KeySageMakerInstanceType, "ml.m4.xlarge", "Default shape for the SageMaker instance"},
	{KeySageMakerInstanceCount, 1, "Default count of instances for the SageMaker model deployment"},
	{KeySageMakerRegion, "us-west-1", "Default region where to deploy the SageMaker model"},
	{KeySageMakerRoleARN, "", "Execution role for AWS SageMaker"},
	{KeySageMakerBucket, "", "Default S3 bucket name for model artifacts"},
	{KeySageMakerImage, "", "Default Docker image for the inference process"},
	{KeySageMakerDeployTimeout, 1200, "Timeout in seconds for the SageMaker deploy process"},
	{KeySageMakerVPCSecGroups, []string(nil), "Security group IDs for the SageMaker VPC config"},
	{KeySageMakerVPCSubnets, []string(nil), "Subnet IDs for the SageMaker VPC config"},
	{KeyLambdaRoleARN, "", "Default execution role ARN for the Lambda function"},
	{KeyLambdaLayers, []string(nil), "Default Lambda layers"},
	{KeyLambdaRAM, 256, "Default Lambda RAM size in MB"},
	{KeyLambdaRuntime, "python3.8", "Default Lambda runtime"},
	{KeyLambdaTimeout, 120, "Default Lambda timeout in seconds"},
	{KeyGatewayID, "", "Default API Gateway where to publish the function"},
	{KeyGatewayStage, "", "Default stage to use on the API Gateway"},
	{KeyGatewayAuthorizer, "", "Default API Gateway authorizer ID"},
	{KeyGatewayInvocationRole, "", "Default API Gateway role for Lambda invocation"},
}

// Variables lists the declared settings sorted by key.
func Variables() []Variable {
	out := make([]Variable, len(registry))
	copy(out, registry)
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Lookup finds a declared setting by key.
func Lookup(key string) (Variable, bool) {
	for _, variable := range registry {
		if variable.Key == key {
			return variable, true
		}
	}
	return Variable{}, false
}

// Settings is the resolved configuration view.
type Settings struct {
	v *viper.Viper
}

var (
	mu     sync.Mutex
	cached *Settings
)

// FilePath returns the config file location, honoring the override variable.
func FilePath() string {
	if override := os.Getenv(EnvConfigPath); override != "" {
		return override
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return defaultFileName
	}
	return filepath.Join(home, defaultFileName)
}

// Load resolves the settings once and caches them. Use Reset to invalidate.
func Load() (*Settings, error) {
	mu.Lock()
	defer mu.Unlock()

	if cached != nil {
		return cached, nil
	}
	settings, err := load()
	if err != nil {
		return nil, err
	}
	cached = settings
	return cached, nil
}

func load() (*Settings, error) {
	v := viper.New()
	for _, variable := range registry {
		v.SetDefault(variable.Key, variable.Default)
		if err := v.BindEnv(variable.Key, variable.Key); err != nil {
			return nil, fmt.Errorf("failed to bind variable %s: %w", variable.Key, err)
		}
	}

	path := FilePath()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		if _, missing := err.(viper.ConfigFileNotFoundError); !missing && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}
	return &Settings{v: v}, nil
}

// Reset drops the cached settings so the next Load re-reads all layers.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	cached = nil
}

func (s *Settings) String(key string) string    { return s.v.GetString(key) }
func (s *Settings) Int(key string) int          { return s.v.GetInt(key) }
func (s *Settings) Bool(key string) bool        { return s.v.GetBool(key) }
func (s *Settings) Strings(key string) []string { return s.v.GetStringSlice(key) }

// Value returns the resolved value of a declared setting.
func (s *Settings) Value(key string) (any, error) {
	if _, ok := Lookup(key); !ok {
		return nil, fmt.Errorf("unknown setting %q", key)
	}
	return s.v.Get(key), nil
}

// Update persists a new value for a declared setting in the config file and
// invalidates the cache. An empty value removes the setting from the file.
func Update(key, value string) error {
	if _, ok := Lookup(key); !ok {
		return fmt.Errorf("unknown setting %q", key)
	}

	path := FilePath()
	content := map[string]any{}
	if raw, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(raw, &content); err != nil {
			return fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if value == "" {
		delete(content, key)
	} else {
		content[key] = value
	}

	encoded, err := yaml.Marshal(content)
	if err != nil {
		return fmt.Errorf("failed to encode config file content: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o775); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, encoded, 0o600); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	Reset()
	return nil
}
