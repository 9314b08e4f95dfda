package inference

import (
	"context"
	"encoding/json"
	"time"
)

// ImagePayload is one preprocessed image attached to a vision request.
type ImagePayload struct {
	Data     []byte
	MimeType string
}

// VisionRequest is one structured-extraction request: N image payloads, one
// fixed instruction, and one JSON-schema constraint on the reply shape.
type VisionRequest struct {
	Instruction string
	Images      []ImagePayload
	SchemaName  string
	Schema      json.RawMessage

	// Request tracking
	RequestID string
}

// VisionResult is the reply from one inference round trip.
type VisionResult struct {
	RequestID string
	Content   string

	// Provider info
	ModelUsed string

	// Token counts
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int

	Duration time.Duration
}

// Client sends a single synchronous structured-output request to a hosted
// multimodal model. Implementations do not retry; transport failures surface
// unchanged to the caller.
type Client interface {
	// Extract performs one inference round trip.
	Extract(ctx context.Context, req *VisionRequest) (*VisionResult, error)

	// Configured reports whether a credential is present. Callers must not
	// invoke Extract when this is false.
	Configured() bool

	// Name returns the client identifier (e.g., "openai-compatible").
	Name() string
}
