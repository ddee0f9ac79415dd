package dto

import (
	"net/http"

	"github.com/rtmanagement/backend/internal/domain/shared"
)

// Error codes carried in the response envelope
const (
	ErrCodeInternal        = "ERR_INTERNAL"
	ErrCodeValidation      = "ERR_VALIDATION"
	ErrCodeNotFound        = "ERR_NOT_FOUND"
	ErrCodeBusinessRule    = "ERR_BUSINESS_RULE"
	ErrCodePayloadTooLarge = "ERR_PAYLOAD_TOO_LARGE"
	ErrCodeConflict        = "ERR_CONFLICT"
	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeUnsupportedType = "ERR_UNSUPPORTED_MEDIA_TYPE"
	ErrCodeUnavailable     = "ERR_SERVICE_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeNotFound:        http.StatusNotFound,
	ErrCodeBusinessRule:    http.StatusUnprocessableEntity,
	ErrCodePayloadTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeConflict:        http.StatusConflict,
	ErrCodeUnsupportedType: http.StatusUnsupportedMediaType,
	ErrCodeUnavailable:     http.StatusServiceUnavailable,
}

var kindErrorCode = map[shared.ErrorKind]string{
	shared.KindValidation:      ErrCodeValidation,
	shared.KindNotFound:        ErrCodeNotFound,
	shared.KindBusinessRule:    ErrCodeBusinessRule,
	shared.KindPayloadTooLarge: ErrCodePayloadTooLarge,
	shared.KindConflict:        ErrCodeConflict,
	shared.KindPersistence:     ErrCodeInternal,
}

// GetHTTPStatus returns the status for code, 500 when unknown
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ErrorCodeForKind returns the envelope code for a failure kind. Errors
// outside the taxonomy are internal.
func ErrorCodeForKind(kind shared.ErrorKind) string {
	if code, ok := kindErrorCode[kind]; ok {
		return code
	}
	return ErrCodeInternal
}
