package handlers

// ErrorResponse is the standard error response format for the API.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ChatRequest is the request body for POST /api/chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the response body for POST /api/chat.
type ChatResponse struct {
	Reply string `json:"reply"`
	Model string `json:"model"`
}

// ContextResponse is the response body for GET /api/context.
type ContextResponse struct {
	Context string `json:"context"`
}

// ImportResponse is the response body for POST /api/snapshot/import.
type ImportResponse struct {
	Message string `json:"message"`
}
