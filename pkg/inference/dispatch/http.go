package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTP posts the JSON-encoded payload to a model scoring endpoint and parses
// the JSON response body.
type HTTP struct {
	endpoint string
	client   *http.Client
}

func NewHTTP(endpoint string) *HTTP {
	return &HTTP{
		endpoint: endpoint,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (d *HTTP) Call(ctx context.Context, payload any) (any, error) {
	body, contentType, err := encodePayload(payload, EncoderJSON)
	if err != nil {
		return nil, err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request to model endpoint %s: %w", d.endpoint, err)
	}
	request.Header.Set("Content-Type", contentType)

	response, err := d.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("failed to call model endpoint %s: %w", d.endpoint, err)
	}
	defer response.Body.Close()

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read model endpoint %s response: %w", d.endpoint, err)
	}
	if response.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("model endpoint %s returned status %d: %s", d.endpoint, response.StatusCode, data)
	}

	var prediction any
	if err := json.Unmarshal(data, &prediction); err != nil {
		return nil, fmt.Errorf("failed to parse model endpoint %s response as JSON: %w", d.endpoint, err)
	}
	return prediction, nil
}
