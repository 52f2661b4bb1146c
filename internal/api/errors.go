package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/pulsechat/internal/apperr"
	"go.uber.org/zap"
)

// respondError maps the error taxonomy to a status code.
//
// Why only two kinds of message?
//   - Business errors carry something the caller can act on ("username
//     already registered"), so their text goes out as-is.
//   - Everything else is infrastructure. The detail goes to the log and
//     the caller gets "internal error": no DSNs, hostnames or driver
//     messages leak through the API.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	if !apperr.IsBusiness(err) {
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	var status int
	switch {
	case errors.Is(err, apperr.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, apperr.ErrUnauthorized), errors.Is(err, apperr.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, apperr.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrDuplicateUsername):
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
