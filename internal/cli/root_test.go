package cli

import (
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odahu/odahu-mlflow-aws/internal/cli/output"
	"github.com/odahu/odahu-mlflow-aws/internal/config"
)

func isolateConfig(t *testing.T) {
	t.Helper()
	t.Setenv(config.EnvConfigPath, filepath.Join(t.TempDir(), "config.yaml"))
	config.Reset()
	t.Cleanup(config.Reset)
}

func TestRootCommandTree(t *testing.T) {
	root := NewRootCommand()

	names := map[string]bool{}
	for _, command := range root.Commands() {
		names[command.Name()] = true
	}
	for _, expected := range []string{"models", "sagemaker", "lambda", "deploy", "config", "serve"} {
		assert.True(t, names[expected], "missing command %s", expected)
	}
}

func TestOutputFlag(t *testing.T) {
	cmd := &cobra.Command{}
	addOutputFlag(cmd)

	format, err := outputFormat(cmd)
	require.NoError(t, err)
	assert.Equal(t, output.FormatTable, format)

	require.NoError(t, cmd.Flags().Set("output", "json"))
	format, err = outputFormat(cmd)
	require.NoError(t, err)
	assert.Equal(t, output.FormatJSON, format)

	require.NoError(t, cmd.Flags().Set("output", "xml"))
	_, err = outputFormat(cmd)
	require.Error(t, err)
}

func TestRequireValue(t *testing.T) {
	assert.NoError(t, requireValue("role ARN", "arn:aws:iam::0:role/x"))

	err := requireValue("role ARN", "")
	require.Error(t, err)
	assert.Equal(t, "role ARN is required: pass the flag or configure a default", err.Error())
}

func TestConfigCommands(t *testing.T) {
	isolateConfig(t)
	root := NewRootCommand()

	root.SetArgs([]string{"config", "set", config.KeyGatewayID, "api-42"})
	require.NoError(t, root.Execute())

	settings, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "api-42", settings.String(config.KeyGatewayID))

	root.SetArgs([]string{"config", "unset", config.KeyGatewayID})
	require.NoError(t, root.Execute())

	config.Reset()
	settings, err = config.Load()
	require.NoError(t, err)
	assert.Equal(t, "", settings.String(config.KeyGatewayID))
}
