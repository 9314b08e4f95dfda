package models

// URLExtractionRequest represents a batch extraction request by image URL
type URLExtractionRequest struct {
	URLs []string `json:"urls" binding:"required"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
