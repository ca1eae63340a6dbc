package appErrors

// Error codes grouped by domain
const (
	// Authentication and authorization
	CodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	CodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	CodeForbidden          ErrorCode = "FORBIDDEN"
	CodeInvalidToken       ErrorCode = "INVALID_TOKEN"

	// Validation
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeInvalidUserRole  ErrorCode = "INVALID_USER_ROLE"

	// Resources
	CodeUserNotFound         ErrorCode = "USER_NOT_FOUND"
	CodeNotificationNotFound ErrorCode = "NOTIFICATION_NOT_FOUND"
	CodeBroadcastNotFound    ErrorCode = "BROADCAST_NOT_FOUND"

	// Business logic
	CodeEmptyBroadcastTarget    ErrorCode = "EMPTY_BROADCAST_TARGET"
	CodeInconsistentTarget      ErrorCode = "INCONSISTENT_TARGET"
	CodeInsufficientPermissions ErrorCode = "INSUFFICIENT_PERMISSIONS"

	// System errors
	CodeInternalError ErrorCode = "INTERNAL_ERROR"
	CodeDatabaseError ErrorCode = "DATABASE_ERROR"
)
