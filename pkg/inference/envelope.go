package inference

import (
	"io"
)

// Envelope is the container for a prediction request or response body. It
// pairs raw content (string, bytes or a not-yet-read stream) with an optional
// content type and an optional attribute bag. Content backed by a stream is
// read at most once; the materialized text is cached for re-entrant reads.
type Envelope struct {
	text        string
	stream      io.Reader
	materialized bool

	contentType string
	attributes  map[string]any
}

// NewEnvelope builds an envelope over already-materialized text content.
func NewEnvelope(content string, contentType string) *Envelope {
	return &Envelope{text: content, materialized: true, contentType: contentType}
}

// NewEnvelopeFromBytes builds an envelope over a raw byte body.
func NewEnvelopeFromBytes(content []byte, contentType string) *Envelope {
	return &Envelope{text: string(content), materialized: true, contentType: contentType}
}

// NewEnvelopeFromReader builds an envelope over an unread stream. The stream
// is consumed on the first ContentText call only.
func NewEnvelopeFromReader(content io.Reader, contentType string) *Envelope {
	return &Envelope{stream: content, contentType: contentType}
}

// WithAttributes returns the envelope with the attribute bag attached.
func (e *Envelope) WithAttributes(attributes map[string]any) *Envelope {
	e.attributes = attributes
	return e
}

// ContentText materializes the body to a string exactly once and memoizes
// the result; subsequent calls never touch the underlying stream.
func (e *Envelope) ContentText() (string, error) {
	if !e.materialized {
		data, err := io.ReadAll(e.stream)
		if err != nil {
			return "", err
		}
		e.text = string(data)
		e.materialized = true
		e.stream = nil
	}
	return e.text, nil
}

func (e *Envelope) ContentType() string {
	return e.contentType
}

func (e *Envelope) Attributes() map[string]any {
	return e.attributes
}

// AsHeaders derives a minimal header mapping: a Content-Type entry is present
// only when a content type was supplied.
func (e *Envelope) AsHeaders() map[string]string {
	headers := map[string]string{}
	if e.contentType != "" {
		headers["Content-Type"] = e.contentType
	}
	return headers
}
