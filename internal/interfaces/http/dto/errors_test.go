package dto

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storepulse/backend/internal/domain/shared"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeInvalidWindow, http.StatusBadRequest},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeRebuildInProgress, http.StatusConflict},
		{ErrCodeSnapshotNotReady, http.StatusAccepted},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeInvalidWindow, NormalizeErrorCode("INVALID_WINDOW"))
	assert.Equal(t, ErrCodeSnapshotNotReady, NormalizeErrorCode("SNAPSHOT_NOT_READY"))
	assert.Equal(t, ErrCodeRebuildInProgress, NormalizeErrorCode("REBUILD_IN_PROGRESS"))
	assert.Equal(t, ErrCodeInvalidInput, NormalizeErrorCode("INVALID_INPUT"))
	assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode(ErrCodeNotFound))
	assert.Equal(t, "CUSTOM", NormalizeErrorCode("CUSTOM"))
}

func TestNewPageResponse(t *testing.T) {
	resp := NewPageResponse(shared.NewPaginated([]string(nil), 45, 2, 20))

	body, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"data":[],"meta":{"total":45,"page":2,"page_size":20,"total_pages":3}}`, string(body))
}

func TestNewCalculatingResponse(t *testing.T) {
	resp := NewCalculatingResponse("Snapshot is still calculating")
	assert.True(t, resp.Success)
	assert.Equal(t, StatusCalculating, resp.Status)
	assert.Nil(t, resp.Error)
}

func TestNewValidationErrorResponse(t *testing.T) {
	resp := NewValidationErrorResponse("Request validation failed", "req-1", []ValidationDetail{
		{Field: "kind", Message: "Must be a snapshot kind"},
	})
	require.NotNil(t, resp.Error)
	assert.False(t, resp.Success)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-1", resp.Error.RequestID)
	assert.Len(t, resp.Error.Details, 1)
}

func TestRebuildRequest_HasExplicitWindow(t *testing.T) {
	assert.False(t, RebuildRequest{AnalysisWindowDays: 7}.HasExplicitWindow())
	assert.True(t, RebuildRequest{WindowStart: new(time.Time)}.HasExplicitWindow())
}
