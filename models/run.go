package models

// RunRequest is the payload for POST /api/v1/runs.
type RunRequest struct {
	// Pages is the number of result pages to traverse. Required.
	Pages int `json:"pages" binding:"required,min=1,max=500"`

	// WebhookURL receives run.page and run.completed events when set.
	WebhookURL string `json:"webhook_url,omitempty" binding:"omitempty,url"`

	// WebhookSecret signs webhook bodies with HMAC-SHA256.
	WebhookSecret string `json:"webhook_secret,omitempty"`
}

// Run statuses.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusPartial   = "partial"
)

// RunResponse is the immediate response for POST /api/v1/runs.
type RunResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Pages  int    `json:"pages"`
}

// RunStatusResponse is the response for GET /api/v1/runs/:id.
type RunStatusResponse struct {
	ID          string       `json:"id"`
	Status      string       `json:"status"`
	PagesWanted int          `json:"pages_wanted"`
	Pages       []PageResult `json:"pages"`
	Summary     PageResult   `json:"summary"`
}

// RunJob tracks a pagination run.
type RunJob struct {
	ID          string
	Status      string
	PagesWanted int
	Pages       []PageResult
	Summary     PageResult
	CreatedAt   int64 // unix timestamp
	FinishedAt  int64
}

// ClassifyRequest is the payload for POST /api/v1/classify.
type ClassifyRequest struct {
	Label string `json:"label"`
}

// NormalizeRequest is the payload for POST /api/v1/normalize.
type NormalizeRequest struct {
	Variant Variant `json:"variant"`
}

// SuggestRequest is the payload for POST /api/v1/suggest.
type SuggestRequest struct {
	Product Product `json:"product" binding:"required"`
	Variant string  `json:"variant" binding:"required"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status    string `json:"status"` // "healthy" or "degraded"
	Uptime    string `json:"uptime"`
	RunActive bool   `json:"run_active"`
	Version   string `json:"version"`
}

// ClassifyResponse is the response for POST /api/v1/classify.
type ClassifyResponse struct {
	Label string `json:"label"`
	ClassifiedLabel
	Keywords []string `json:"keywords"`
}

// ErrorResponse wraps an ErrorDetail for error replies.
type ErrorResponse struct {
	Error *ErrorDetail `json:"error"`
}
