package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/pulsechat/internal/apperr"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		err      error
		wantCode int
		wantBody string
	}{
		{fmt.Errorf("x: %w", apperr.ErrInvalidInput), http.StatusBadRequest, `{"error":"x: invalid input"}`},
		{apperr.ErrUnauthorized, http.StatusUnauthorized, `{"error":"unauthorized"}`},
		{apperr.ErrInvalidCredentials, http.StatusUnauthorized, `{"error":"invalid username or password"}`},
		{apperr.ErrForbidden, http.StatusForbidden, `{"error":"forbidden"}`},
		{apperr.ErrNotFound, http.StatusNotFound, `{"error":"not found"}`},
		{apperr.ErrDuplicateUsername, http.StatusConflict, `{"error":"username already registered"}`},
		{fmt.Errorf("get user: %w: dial tcp 10.0.0.5:5432", apperr.ErrStoreUnavailable), http.StatusInternalServerError, `{"error":"internal error"}`},
		{errors.New("boom"), http.StatusInternalServerError, `{"error":"internal error"}`},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			req := require.New(t)
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			respondError(c, zap.NewNop(), tt.err)

			req.Equal(tt.wantCode, w.Code)
			req.JSONEq(tt.wantBody, w.Body.String())
		})
	}
}
