package inference

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odahu/odahu-mlflow-aws/pkg/inference/codec"
	ierrors "github.com/odahu/odahu-mlflow-aws/pkg/inference/errors"
)

func gatewayEvent(method, contentType, body string) json.RawMessage {
	event := map[string]any{
		"requestContext": map[string]any{"stage": "test"},
		"httpMethod":     method,
		"headers":        map[string]string{"Content-Type": contentType},
		"body":           body,
	}
	encoded, _ := json.Marshal(event)
	return encoded
}

func TestHandleLambdaGatewayEvent(t *testing.T) {
	handler := newDoublingHandler(t)

	result, err := handler.HandleLambda(context.Background(),
		gatewayEvent("POST", codec.ContentTypeJSON, `{"a": 1, "b": 2}`))
	require.NoError(t, err)

	response, ok := result.(*events.APIGatewayProxyResponse)
	require.True(t, ok, "expected gateway response, got %T", result)
	assert.Equal(t, 200, response.StatusCode)
	assert.JSONEq(t, `{"a": 2, "b": 4}`, response.Body)
	assert.Equal(t, codec.ContentTypeJSON, response.Headers["Content-Type"])
}

func TestHandleLambdaGatewayEventInvalidInput(t *testing.T) {
	handler := newDoublingHandler(t)

	result, err := handler.HandleLambda(context.Background(),
		gatewayEvent("POST", codec.ContentTypeJSON, `{"a": 1}`))
	require.NoError(t, err)

	response, ok := result.(*events.APIGatewayProxyResponse)
	require.True(t, ok)
	assert.Equal(t, 400, response.StatusCode)
	assert.Equal(t, "input is missing a value for column b", response.Body)
}

func TestHandleLambdaGatewayEventRejections(t *testing.T) {
	handler := newDoublingHandler(t)

	t.Run("non-POST request", func(t *testing.T) {
		_, err := handler.HandleLambda(context.Background(),
			gatewayEvent("GET", codec.ContentTypeJSON, `{"a": 1, "b": 2}`))
		require.Error(t, err)
		assert.Equal(t, "only POST HTTP requests are supported", err.Error())
	})

	t.Run("empty body", func(t *testing.T) {
		_, err := handler.HandleLambda(context.Background(),
			gatewayEvent("POST", codec.ContentTypeJSON, ""))
		require.Error(t, err)
		assert.Equal(t, "POST HTTP request does not contain a body", err.Error())
	})

	t.Run("base64 body", func(t *testing.T) {
		event := map[string]any{
			"requestContext":  map[string]any{},
			"httpMethod":      "POST",
			"headers":         map[string]string{"content-type": codec.ContentTypeJSON},
			"body":            "eyJhIjogMX0=",
			"isBase64Encoded": true,
		}
		encoded, _ := json.Marshal(event)

		_, err := handler.HandleLambda(context.Background(), encoded)
		require.Error(t, err)

		var notImplemented *ierrors.NotImplementedError
		require.ErrorAs(t, err, &notImplemented)
		assert.Equal(t, "BASE64 encoding of body is not yet supported", notImplemented.Error())
	})
}

func TestHandleLambdaFirehoseEventUnsupported(t *testing.T) {
	handler := newDoublingHandler(t)

	event := map[string]any{
		"invocationId":      "id",
		"deliveryStreamArn": "arn:aws:firehose:us-east-1:0:deliverystream/test",
		"records":           []any{},
	}
	encoded, _ := json.Marshal(event)

	_, err := handler.HandleLambda(context.Background(), encoded)
	require.Error(t, err)

	var notImplemented *ierrors.NotImplementedError
	require.ErrorAs(t, err, &notImplemented)
	assert.Equal(t, "support for Kinesis Data Firehose is not implemented yet", notImplemented.Error())
}

func TestHandleLambdaUnknownEvent(t *testing.T) {
	handler := newDoublingHandler(t)

	_, err := handler.HandleLambda(context.Background(), json.RawMessage(`{"something": "else"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported event object has been received")
}

func TestHeaderIgnoreCase(t *testing.T) {
	headers := map[string]string{"content-TYPE": codec.ContentTypeCSV}
	assert.Equal(t, codec.ContentTypeCSV, headerIgnoreCase(headers, "Content-Type"))
	assert.Equal(t, "", headerIgnoreCase(headers, "Accept"))
}
