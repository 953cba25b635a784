package constants

import "strings"

// Protocol error tokens. The token set is closed; codes are stable.
const (
	ErrInvalidRequest = "invalid_request"
	ErrQueueFull      = "queue_full"
	ErrParseError     = "parse_error"
	ErrInternal       = "internal_error"
	ErrCallbackFailed = "callback_failed"
)

// Numeric codes paired with the tokens above.
const (
	CodeInvalidRequest = 400
	CodeQueueFull      = 429
	CodeParseError     = 422
	CodeInternal       = 500
	CodeCallbackFailed = 502
)

// ErrorCode returns the numeric code for a protocol error token.
// Missing-field tokens share the invalid_request code; unknown tokens map
// to CodeInternal.
func ErrorCode(token string) int {
	if strings.HasPrefix(token, "missing_") {
		return CodeInvalidRequest
	}
	switch token {
	case ErrInvalidRequest:
		return CodeInvalidRequest
	case ErrQueueFull:
		return CodeQueueFull
	case ErrParseError:
		return CodeParseError
	case ErrCallbackFailed:
		return CodeCallbackFailed
	default:
		return CodeInternal
	}
}

// MissingFieldToken builds the error token reported when a required
// request field is absent, e.g. "missing_text".
func MissingFieldToken(field string) string {
	return "missing_" + field
}
