// Package response is the JSON error envelope shared by every handler,
// including the rate limiter.
package response

// ErrorBody carries a machine-readable code next to the human message so
// the frontend can branch without string matching.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}
