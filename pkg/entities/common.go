package entities

// Common response variable
type Response struct {
	StatusCode int         `json:"status_code"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data,omitempty"`
}

type ErrorResponse struct {
	StatusCode int    `json:"status_code"`
	Error      string `json:"error,omitempty"`
	Message    string `json:"message"`
}

// CronErrorResponse is what the scheduler sees when a nudge run is rejected
// or fails.
type CronErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}
