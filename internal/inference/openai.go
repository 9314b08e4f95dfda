package inference

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	apperrors "go-card-extractor/internal/errors"
	"go-card-extractor/internal/logger"
)

const clientName = "openai-compatible"

// ClientConfig configures the hosted vision endpoint.
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Model   string

	// HTTPClient overrides the default client; used by tests.
	HTTPClient *http.Client
}

// OpenAIClient talks to an OpenAI-compatible chat completions endpoint with
// vision inputs and a json_schema response format. One round trip per call;
// no retries, no streaming.
type OpenAIClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// NewOpenAIClient builds a client from explicit configuration. The credential
// is a plain dependency here so a missing key is a constructor-visible state,
// not something discovered by env lookup mid-flight.
func NewOpenAIClient(cfg ClientConfig) *OpenAIClient {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:          10,
				MaxIdleConnsPerHost:   2,
				IdleConnTimeout:       30 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 60 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		}
	}
	return &OpenAIClient{
		client:  httpClient,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}
}

// Name returns the client identifier
func (c *OpenAIClient) Name() string {
	return clientName
}

// Configured reports whether an API credential is present
func (c *OpenAIClient) Configured() bool {
	return c.apiKey != ""
}

// Extract sends one structured-output vision request and returns the raw
// reply content. Transport failures and non-200 statuses surface as network
// errors; nothing is retried.
func (c *OpenAIClient) Extract(ctx context.Context, req *VisionRequest) (*VisionResult, error) {
	if !c.Configured() {
		return nil, apperrors.NewConfigurationError("vision API credential is not configured", nil)
	}

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}

	start := time.Now()
	body, err := json.Marshal(c.buildChatRequest(req))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to marshal inference request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to create inference request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"model":      c.model,
		"images":     len(req.Images),
	}).Debug("Sending vision extraction request")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, apperrors.NewNetworkError("inference request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewNetworkError("failed to read inference response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewNetworkError(
			fmt.Sprintf("inference endpoint returned status %d", resp.StatusCode),
			fmt.Errorf("%s", truncate(respBody, 512)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, apperrors.NewResponseFormatError("inference response body is not valid JSON", err)
	}
	if parsed.Error != nil {
		return nil, apperrors.NewNetworkError(
			fmt.Sprintf("inference API error: %s", parsed.Error.Message), nil)
	}
	if len(parsed.Choices) == 0 {
		return nil, apperrors.NewResponseFormatError("inference response contains no choices", nil)
	}

	result := &VisionResult{
		RequestID:        requestID,
		Content:          parsed.Choices[0].Message.Content,
		ModelUsed:        parsed.Model,
		PromptTokens:     parsed.Usage.PromptTokens,
		CompletionTokens: parsed.Usage.CompletionTokens,
		TotalTokens:      parsed.Usage.TotalTokens,
		Duration:         time.Since(start),
	}

	logger.WithFields(logrus.Fields{
		"request_id":   requestID,
		"model_used":   result.ModelUsed,
		"total_tokens": result.TotalTokens,
		"duration_ms":  result.Duration.Milliseconds(),
	}).Info("Vision extraction request completed")

	return result, nil
}

// buildChatRequest assembles one user message: the instruction text followed
// by every image as a base64 data URL.
func (c *OpenAIClient) buildChatRequest(req *VisionRequest) *chatRequest {
	parts := make([]contentPart, 0, len(req.Images)+1)
	parts = append(parts, contentPart{Type: "text", Text: req.Instruction})
	for _, img := range req.Images {
		mime := img.MimeType
		if mime == "" {
			mime = "image/jpeg"
		}
		parts = append(parts, contentPart{
			Type: "image_url",
			ImageURL: &imageURLPart{
				URL: "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img.Data),
			},
		})
	}

	out := &chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: parts}},
	}
	if len(req.Schema) > 0 {
		out.ResponseFormat = &wireRespFmt{
			Type: "json_schema",
			JSONSchema: &wireJSONSchema{
				Name:   req.SchemaName,
				Strict: true,
				Schema: req.Schema,
			},
		}
	}
	return out
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
