package httpapi

// Result is the response envelope for every endpoint.
//   - code: ResultSuccess (2000) or ResultError (-1)
//   - type: "success" | "error"
//   - message: "ok" or the error text
//   - result: payload; for errors, an ErrorDetail
type Result[T any] struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
	Result  T      `json:"result"`
}

const (
	ResultSuccess = 2000
	ResultError   = -1
)

// ErrorDetail names the failure class so clients can tell 409s apart.
type ErrorDetail struct {
	Reason string `json:"reason"`
}

// Error reasons.
const (
	ReasonNotFound          = "not_found"
	ReasonInvalidTransition = "invalid_transition"
	ReasonVersionConflict   = "version_conflict"
	ReasonConflict          = "conflict"
	ReasonValidation        = "validation"
	ReasonUnauthorized      = "unauthorized"
	ReasonPayloadTooLarge   = "payload_too_large"
	ReasonInternal          = "internal"
)

func Ok[T any](result T) Result[T] {
	return Result[T]{Code: ResultSuccess, Type: "success", Message: "ok", Result: result}
}

func Fail(message, reason string) Result[ErrorDetail] {
	return Result[ErrorDetail]{Code: ResultError, Type: "error", Message: message, Result: ErrorDetail{Reason: reason}}
}
