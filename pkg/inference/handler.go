// Package inference is the request-handling core: it receives a prediction
// request in one of the supported wire encodings, runs the validate /
// pre-process / dispatch / post-process pipeline and produces a normalized,
// schema-conformant response in the encoding the caller expects.
package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/odahu/odahu-mlflow-aws/pkg/inference/codec"
	"github.com/odahu/odahu-mlflow-aws/pkg/inference/dispatch"
	ierrors "github.com/odahu/odahu-mlflow-aws/pkg/inference/errors"
	"github.com/odahu/odahu-mlflow-aws/pkg/inference/gql"
	"github.com/odahu/odahu-mlflow-aws/pkg/inference/schema"
	"github.com/odahu/odahu-mlflow-aws/pkg/inference/table"
)

// ValidateFunc checks the decoded input before pre-processing. Implementations
// report schema or range violations as *errors.InvalidModelInputError.
type ValidateFunc func(input any) error

// TransformFunc maps input before dispatch or prediction after dispatch.
type TransformFunc func(data any) (any, error)

// Config declares the handler explicitly: schemas, dispatcher and the
// user-overridable pipeline hooks. Nil hooks default to no-op / identity.
type Config struct {
	InputSchema  schema.Schema
	OutputSchema schema.Schema
	Dispatcher   dispatch.Dispatcher

	Validate    ValidateFunc
	PreProcess  TransformFunc
	PostProcess TransformFunc
}

// Handler orchestrates one prediction request. All fields are read-only after
// construction, so a single handler may serve concurrent requests.
type Handler struct {
	cfg Config

	gqlOnce    sync.Once
	gqlAdapter *gql.Adapter
	gqlErr     error
}

func NewHandler(cfg Config) (*Handler, error) {
	if cfg.Dispatcher == nil {
		return nil, &ierrors.ConfigurationError{ErrorMsg: "dispatcher is not set for the handler"}
	}
	return &Handler{cfg: cfg}, nil
}

// Predict runs the raw pipeline: validate, pre-process, dispatch,
// post-process. Errors propagate without transport wrapping; this is the
// in-process surface used for local testing.
func (h *Handler) Predict(ctx context.Context, input any) (any, error) {
	if h.cfg.Validate != nil {
		if err := h.cfg.Validate(input); err != nil {
			return nil, err
		}
	}

	prepared := input
	if h.cfg.PreProcess != nil {
		var err error
		prepared, err = h.cfg.PreProcess(input)
		if err != nil {
			return nil, err
		}
	}

	prediction, err := h.cfg.Dispatcher.Call(ctx, prepared)
	if err != nil {
		return nil, err
	}

	if h.cfg.PostProcess != nil {
		return h.cfg.PostProcess(prediction)
	}
	return prediction, nil
}

// predictWrapped applies the boundary error policy: the distinguished
// invalid-input condition passes through unwrapped, everything else is
// wrapped once with its cause retained.
func (h *Handler) predictWrapped(ctx context.Context, input any) (any, error) {
	prediction, err := h.Predict(ctx, input)
	if err != nil {
		if _, ok := ierrors.AsInvalidInput(err); ok {
			return nil, err
		}
		return nil, &ierrors.PredictionError{Cause: err}
	}
	return prediction, nil
}

// HandleRequest decodes the request envelope by content type, runs the
// predict pipeline and encodes the normalized response. All encode paths
// produce JSON.
func (h *Handler) HandleRequest(ctx context.Context, request *Envelope) (*Envelope, error) {
	if len(h.cfg.InputSchema) == 0 {
		return nil, &ierrors.ConfigurationError{ErrorMsg: "input schema is not set for the handler"}
	}

	content, err := request.ContentText()
	if err != nil {
		return nil, fmt.Errorf("failed to read request content: %w", err)
	}

	if request.ContentType() == codec.ContentTypeGraphQL {
		return h.handleGraphQL(ctx, content)
	}

	decoded, err := codec.Decode(request.ContentType(), content, h.cfg.InputSchema)
	if err != nil {
		return nil, err
	}

	prediction, err := h.predictWrapped(ctx, decoded)
	if err != nil {
		return nil, err
	}

	encoded, err := codec.EncodeSingleObjectJSON(prediction, h.cfg.OutputSchema)
	if err != nil {
		return nil, &ierrors.PredictionError{Cause: err}
	}
	return NewEnvelope(encoded, codec.ContentTypeJSON), nil
}

func (h *Handler) handleGraphQL(ctx context.Context, query string) (*Envelope, error) {
	if len(h.cfg.OutputSchema) == 0 {
		return nil, &ierrors.ConfigurationError{ErrorMsg: "output schema should be set for the graphql handler"}
	}

	adapter, err := h.queryAdapter()
	if err != nil {
		return nil, err
	}
	data, err := adapter.Execute(ctx, query)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode graphql response: %w", err)
	}
	return NewEnvelope(string(encoded), codec.ContentTypeJSON), nil
}

// queryAdapter builds the GraphQL invocation schema once per handler.
func (h *Handler) queryAdapter() (*gql.Adapter, error) {
	h.gqlOnce.Do(func() {
		h.gqlAdapter, h.gqlErr = gql.Build(
			h.cfg.InputSchema,
			h.cfg.OutputSchema,
			func(ctx context.Context, input *table.Table) (map[string]any, error) {
				prediction, err := h.predictWrapped(ctx, input)
				if err != nil {
					return nil, err
				}
				return codec.ToSingleObject(prediction, h.cfg.OutputSchema)
			},
		)
	})
	return h.gqlAdapter, h.gqlErr
}

// HTTPResult is the transport-neutral response of the HTTP-style surface.
type HTTPResult struct {
	StatusCode int
	Body       string
	Headers    map[string]string
}

// HandleHTTP maps a body plus content type onto the fixed status classes:
// 200 with the encoded response, 400 for invalid model input with the
// original message, 500 for everything else.
func (h *Handler) HandleHTTP(ctx context.Context, body []byte, contentType string) *HTTPResult {
	response, err := h.HandleRequest(ctx, NewEnvelopeFromBytes(body, contentType))
	if err != nil {
		status := 500
		if _, ok := ierrors.AsInvalidInput(err); ok {
			status = 400
		}
		return &HTTPResult{StatusCode: status, Body: err.Error(), Headers: map[string]string{}}
	}

	content, err := response.ContentText()
	if err != nil {
		return &HTTPResult{StatusCode: 500, Body: err.Error(), Headers: map[string]string{}}
	}
	return &HTTPResult{StatusCode: 200, Body: content, Headers: response.AsHeaders()}
}
