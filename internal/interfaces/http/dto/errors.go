package dto

import "net/http"

// Error codes returned in the error envelope. Format: ERR_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Input error codes
const (
	ErrCodeBadRequest    = "ERR_BAD_REQUEST"
	ErrCodeValidation    = "ERR_VALIDATION"
	ErrCodeInvalidInput  = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON   = "ERR_INVALID_JSON"
	ErrCodeInvalidWindow = "ERR_INVALID_WINDOW"
	ErrCodeTooLarge      = "ERR_REQUEST_TOO_LARGE"
)

// Resource error codes
const (
	ErrCodeNotFound          = "ERR_NOT_FOUND"
	ErrCodeInvalidState      = "ERR_INVALID_STATE"
	ErrCodeRebuildInProgress = "ERR_REBUILD_IN_PROGRESS"
	ErrCodeStaleGeneration   = "ERR_STALE_GENERATION"
	ErrCodeSnapshotNotReady  = "ERR_SNAPSHOT_NOT_READY"
	ErrCodeRateLimited       = "ERR_RATE_LIMITED"
	ErrCodeUnavailable       = "ERR_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeBadRequest:    http.StatusBadRequest,
	ErrCodeValidation:    http.StatusBadRequest,
	ErrCodeInvalidInput:  http.StatusBadRequest,
	ErrCodeInvalidJSON:   http.StatusBadRequest,
	ErrCodeInvalidWindow: http.StatusBadRequest,
	ErrCodeTooLarge:      http.StatusRequestEntityTooLarge,

	ErrCodeNotFound:          http.StatusNotFound,
	ErrCodeInvalidState:      http.StatusUnprocessableEntity,
	ErrCodeRebuildInProgress: http.StatusConflict,
	ErrCodeStaleGeneration:   http.StatusConflict,
	// A snapshot that has never been published is still calculating
	ErrCodeSnapshotNotReady: http.StatusAccepted,
	ErrCodeRateLimited:      http.StatusTooManyRequests,
	ErrCodeUnavailable:      http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to API error codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":           ErrCodeNotFound,
	"INVALID_INPUT":       ErrCodeInvalidInput,
	"INVALID_STATE":       ErrCodeInvalidState,
	"INVALID_WINDOW":      ErrCodeInvalidWindow,
	"SNAPSHOT_NOT_READY":  ErrCodeSnapshotNotReady,
	"REBUILD_IN_PROGRESS": ErrCodeRebuildInProgress,
	"STALE_GENERATION":    ErrCodeStaleGeneration,
}

// NormalizeErrorCode converts a domain error code to its API code.
// Codes that are already API codes are returned unchanged.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
