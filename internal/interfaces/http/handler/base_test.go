package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hsa8903-tech/ulsan-daun/internal/domain/shared"
	"github.com/hsa8903-tech/ulsan-daun/internal/interfaces/http/dto"
	"github.com/hsa8903-tech/ulsan-daun/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Set(middleware.RequestIDContextKey, "req-1")
	return c, w
}

func TestBaseHandler_Success(t *testing.T) {
	h := &BaseHandler{}
	c, w := testContext()

	h.Success(c, map[string]string{"building": "101동"})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w, nil)
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
}

func TestBaseHandler_Errors(t *testing.T) {
	h := &BaseHandler{}

	tests := []struct {
		name   string
		call   func(*gin.Context)
		status int
		code   string
	}{
		{"bad request", func(c *gin.Context) { h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, "bad") }, http.StatusBadRequest, dto.ErrCodeBadRequest},
		{"internal", func(c *gin.Context) { h.InternalError(c, "oops") }, http.StatusInternalServerError, dto.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := testContext()
			tt.call(c)

			assert.Equal(t, tt.status, w.Code)
			resp := decode(t, w, nil)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, "req-1", resp.Error.RequestID)
		})
	}
}

func TestBaseHandler_HandleError(t *testing.T) {
	h := &BaseHandler{}
	saveFailed := shared.NewDomainError("SNAPSHOT_SAVE_FAILED", "snapshot could not be saved")

	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"not found", shared.NewDomainError("NOT_FOUND", "row 20 out of range [0,20)"), http.StatusNotFound, dto.ErrCodeNotFound, "row 20 out of range [0,20)"},
		{"invalid input", shared.NewDomainError("INVALID_INPUT", `invalid process "roofing"`), http.StatusBadRequest, dto.ErrCodeInvalidInput, `invalid process "roofing"`},
		{"invalid state", shared.ErrInvalidState, http.StatusUnprocessableEntity, dto.ErrCodeInvalidState, shared.ErrInvalidState.Message},
		{"wrapped save failure", fmt.Errorf("%w: %w", saveFailed, errors.New("disk full")), http.StatusServiceUnavailable, dto.ErrCodeSnapshotSaveFailed, "snapshot could not be saved"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := testContext()
			h.HandleError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			resp := decode(t, w, nil)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, tt.message, resp.Error.Message)
			assert.Len(t, c.Errors, 1)
		})
	}
}

func TestBaseHandler_HandleError_HidesStorageCause(t *testing.T) {
	h := &BaseHandler{}
	c, w := testContext()
	saveFailed := shared.NewDomainError("SNAPSHOT_SAVE_FAILED", "snapshot could not be saved")
	cause := errors.New("rename /var/lib/site-progress/.progress-123.tmp: permission denied")

	h.HandleError(c, fmt.Errorf("%w: %w", saveFailed, cause))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotContains(t, w.Body.String(), "/var/lib")
	assert.NotContains(t, w.Body.String(), "permission denied")
	resp := decode(t, w, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "snapshot could not be saved", resp.Error.Message)
	require.Len(t, c.Errors, 1)
	assert.ErrorIs(t, c.Errors[0].Err, cause)
}

func TestBaseHandler_HandleError_Nil(t *testing.T) {
	h := &BaseHandler{}
	c, w := testContext()

	h.HandleError(c, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}
