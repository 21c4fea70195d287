package apperrors

type ErrorCode string

const (
	// System
	CodeInternalError        ErrorCode = "INTERNAL_ERROR"
	CodeDatabaseError        ErrorCode = "DATABASE_ERROR"
	CodeExternalServiceError ErrorCode = "EXTERNAL_SERVICE_ERROR"

	// Generic business codes
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeConflict         ErrorCode = "CONFLICT"
	CodeLimitExceeded    ErrorCode = "LIMIT_EXCEEDED"

	// Matching and notifications
	CodeInvalidLocation     ErrorCode = "INVALID_LOCATION"
	CodeInvalidTransition   ErrorCode = "INVALID_TRANSITION"
	CodeUpstreamUnavailable ErrorCode = "UPSTREAM_UNAVAILABLE"
)
