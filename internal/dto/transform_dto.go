package dto

type TransformRequest struct {
	Text   string `json:"text"`
	Tone   string `json:"tone,omitempty"`
	Length string `json:"length,omitempty"`
}

type UsageInfo struct {
	Count     int `json:"count"`
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`
}

type TransformResponse struct {
	Transformed string    `json:"transformed"`
	Usage       UsageInfo `json:"usage"`
}

// QuotaExceededResponse carries the upgrade-prompt data for 429 responses.
type QuotaExceededResponse struct {
	Error        string `json:"error"`
	LimitReached bool   `json:"limitReached"`
	CurrentPlan  string `json:"currentPlan"`
}

// RateLimitedResponse is returned when the generative provider itself is
// rate limited; RetryAfter is in seconds.
type RateLimitedResponse struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retryAfter"`
}
