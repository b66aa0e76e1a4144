package models

// Error codes returned alongside HTTP statuses so clients can branch on a
// stable identifier instead of parsing messages.
const (
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeDuplicateScene   = "DUPLICATE_SCENE_ID"
	ErrCodeDuplicateUser    = "DUPLICATE_USERNAME"
	ErrCodeWrongCredentials = "WRONG_CREDENTIALS"
	ErrCodeTokenInvalid     = "TOKEN_INVALID"
	ErrCodeTokenExpired     = "TOKEN_EXPIRED"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// ErrorResponse is the standard JSON error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
