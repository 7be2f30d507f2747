package handler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dev0xiinko/don-8-sub001/internal/logger"
	"github.com/dev0xiinko/don-8-sub001/internal/logic"
	"github.com/gin-gonic/gin"
)

// SuccessResponse writes a success envelope
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse writes an error envelope
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    nil,
	})
}

// HandleError maps a logic error to its HTTP status
func HandleError(c *gin.Context, err error) {
	var ve *logic.ValidationError
	var blocked *logic.WithdrawalBlockedError
	switch {
	case errors.As(err, &ve):
		ErrorResponse(c, http.StatusBadRequest, ve.Error())
	case errors.As(err, &blocked):
		c.JSON(http.StatusConflict, Response{
			Success: false,
			Message: blocked.Error(),
			Data:    gin.H{"canWithdraw": false, "violatingCampaigns": blocked.Violations},
		})
	case errors.Is(err, logic.ErrNotFound):
		ErrorResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, logic.ErrForbidden):
		ErrorResponse(c, http.StatusForbidden, err.Error())
	case errors.Is(err, logic.ErrInvalidTransition), errors.Is(err, logic.ErrDuplicate):
		ErrorResponse(c, http.StatusConflict, err.Error())
	case errors.Is(err, logic.ErrInvalidLogin):
		ErrorResponse(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn("%s %s timed out: %v", c.Request.Method, c.FullPath(), err)
		ErrorResponse(c, http.StatusGatewayTimeout, "store timeout")
	default:
		logger.Error("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
		ErrorResponse(c, http.StatusInternalServerError, "internal server error")
	}
}

// ETagResponse writes a success envelope with a content hash ETag, or 304
// when the client already holds it.
func ETagResponse(c *gin.Context, data interface{}) {
	body, err := json.Marshal(Response{Success: true, Message: "ok", Data: data})
	if err != nil {
		HandleError(c, err)
		return
	}
	sum := sha256.Sum256(body)
	tag := `"` + hex.EncodeToString(sum[:16]) + `"`
	c.Header("ETag", tag)
	if c.GetHeader("If-None-Match") == tag {
		c.Status(http.StatusNotModified)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// storeTimeout bounds every store call made on behalf of a request
type storeTimeout time.Duration

func (t storeTimeout) context(c *gin.Context) (context.Context, context.CancelFunc) {
	d := time.Duration(t)
	if d <= 0 {
		d = 5 * time.Second
	}
	return context.WithTimeout(c.Request.Context(), d)
}
