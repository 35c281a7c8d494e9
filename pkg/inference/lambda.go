package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	ierrors "github.com/odahu/odahu-mlflow-aws/pkg/inference/errors"
)

// Event families are recognized by checking which well-known key-set is a
// subset of the event's keys.
var (
	firehoseEventKeys = []string{"invocationId", "deliveryStreamArn", "records"}
	gatewayEventKeys  = []string{"requestContext", "httpMethod", "headers", "body"}
)

// HandleLambda dispatches a raw Lambda event to the matching event-family
// handler. API Gateway and ALB events share one shape; Kinesis Data Firehose
// events are declared but not implemented.
func (h *Handler) HandleLambda(ctx context.Context, event json.RawMessage) (any, error) {
	var generic map[string]json.RawMessage
	if err := json.Unmarshal(event, &generic); err == nil && generic != nil {
		if hasKeys(generic, firehoseEventKeys) {
			return nil, &ierrors.NotImplementedError{
				ErrorMsg: "support for Kinesis Data Firehose is not implemented yet",
			}
		}
		if hasKeys(generic, gatewayEventKeys) {
			return h.handleGatewayEvent(ctx, event)
		}
	}
	return nil, fmt.Errorf(
		"unsupported event object has been received, this Lambda function can be used only with: " +
			"AWS API Gateway, AWS ELB/ALB & AWS Kinesis Data Firehose",
	)
}

func (h *Handler) handleGatewayEvent(ctx context.Context, raw json.RawMessage) (*events.APIGatewayProxyResponse, error) {
	var request events.APIGatewayProxyRequest
	if err := json.Unmarshal(raw, &request); err != nil {
		return nil, &ierrors.ConfigurationError{ErrorMsg: fmt.Sprintf("failed to parse gateway event: %v", err)}
	}

	if request.HTTPMethod != http.MethodPost {
		return nil, &ierrors.ConfigurationError{ErrorMsg: "only POST HTTP requests are supported"}
	}
	if request.Body == "" {
		return nil, &ierrors.ConfigurationError{ErrorMsg: "POST HTTP request does not contain a body"}
	}
	if request.IsBase64Encoded {
		return nil, &ierrors.NotImplementedError{ErrorMsg: "BASE64 encoding of body is not yet supported"}
	}

	result := h.HandleHTTP(ctx, []byte(request.Body), headerIgnoreCase(request.Headers, "content-type"))
	return &events.APIGatewayProxyResponse{
		StatusCode: result.StatusCode,
		Headers:    result.Headers,
		Body:       result.Body,
	}, nil
}

// StartLambda runs the handler inside the AWS Lambda runtime.
func StartLambda(h *Handler) {
	lambda.Start(func(ctx context.Context, event json.RawMessage) (any, error) {
		return h.HandleLambda(ctx, event)
	})
}

func hasKeys(event map[string]json.RawMessage, keys []string) bool {
	for _, key := range keys {
		if _, ok := event[key]; !ok {
			return false
		}
	}
	return true
}

// headerIgnoreCase finds a header value by case-insensitive name lookup.
func headerIgnoreCase(headers map[string]string, name string) string {
	for key, value := range headers {
		if strings.EqualFold(key, name) {
			return value
		}
	}
	return ""
}
