package core

// Error codes
const (
	ErrValidation        = "VALIDATION"
	ErrRoundNotPending   = "ROUND_NOT_PENDING"
	ErrNotFinished       = "NOT_FINISHED"
	ErrRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrInvalidContent    = "INVALID_CONTENT_TYPE"
	ErrInvalidRequest    = "INVALID_REQUEST"
	ErrInternalError     = "INTERNAL_ERROR"
)
