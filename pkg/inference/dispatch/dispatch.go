// Package dispatch sends a prepared payload to a model and returns the raw
// prediction. Three variants exist: an in-process call into a loaded model,
// an HTTP call to a scoring endpoint, and a SageMaker runtime invocation.
package dispatch

import (
	"context"
	"fmt"

	"github.com/odahu/odahu-mlflow-aws/pkg/inference/codec"
	"github.com/odahu/odahu-mlflow-aws/pkg/inference/table"
)

// Model is a loaded model callable in-process.
type Model interface {
	Predict(input *table.Table) (any, error)
}

// Dispatcher sends a prepared payload to a model and returns a raw prediction.
type Dispatcher interface {
	Call(ctx context.Context, payload any) (any, error)
}

// Encoder identifies the wire encoding applied to the payload before a
// remote call.
type Encoder int

const (
	EncoderNone Encoder = iota
	EncoderJSON
)

// encodePayload converts prediction-shaped data to wire form. Unknown encoder
// kinds fail with a value error.
func encodePayload(payload any, encoder Encoder) (body string, contentType string, err error) {
	switch encoder {
	case EncoderJSON:
		body, err = codec.PredictionsToJSON(payload)
		if err != nil {
			return "", "", err
		}
		return body, codec.ContentTypeJSON, nil
	default:
		return "", "", fmt.Errorf("unknown encoder: %d", encoder)
	}
}

// InProcess calls a loaded model directly, skipping the encode step.
type InProcess struct {
	model Model
}

func NewInProcess(model Model) *InProcess {
	return &InProcess{model: model}
}

func (d *InProcess) Call(_ context.Context, payload any) (any, error) {
	input, ok := payload.(*table.Table)
	if !ok {
		return nil, fmt.Errorf("in-process model expects tabular input, got %T", payload)
	}
	return d.model.Predict(input)
}
