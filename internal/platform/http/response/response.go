// Package response writes every API response in a common envelope.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fintrack_backend/internal/shared/apperror"
)

const (
	// KindUnauthenticated is reported when the bearer token is missing or invalid.
	KindUnauthenticated = "UNAUTHENTICATED"
	// KindInternal is reported for unclassified failures.
	KindInternal = "INTERNAL"

	internalMessage = "internal server error"

	// ContextRequestID is the gin context key holding the request ID.
	ContextRequestID = "requestID"
)

// Envelope is the response shape shared by success and failure.
type Envelope struct {
	Success bool       `json:"success"`
	Message string     `json:"message,omitempty"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// ErrorBody describes a failure.
type ErrorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// OK writes a success envelope with status.
func OK(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Envelope{Success: true, Message: message, Data: data})
}

// Fail writes a failure envelope without aborting the chain.
func Fail(c *gin.Context, status int, kind, message string) {
	c.JSON(status, Envelope{Success: false, Error: &ErrorBody{Kind: kind, Message: message}})
}

// Abort writes a failure envelope and stops the handler chain.
func Abort(c *gin.Context, status int, kind, message string) {
	c.AbortWithStatusJSON(status, Envelope{Success: false, Error: &ErrorBody{Kind: kind, Message: message}})
}

// Error translates err into its status and envelope.
// Unclassified errors are logged and reported as a generic 500.
func Error(c *gin.Context, err error) {
	kind, ok := apperror.KindOf(err)
	if !ok {
		zap.L().Error("unhandled error",
			zap.Error(err),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString(ContextRequestID)),
		)
		Fail(c, http.StatusInternalServerError, KindInternal, internalMessage)
		return
	}

	status := StatusOf(kind)
	if status >= http.StatusInternalServerError {
		zap.L().Error("request failed", zap.Error(err))
	}
	Fail(c, status, string(kind), apperror.MessageOf(err))
}

// StatusOf returns the HTTP status for kind.
func StatusOf(kind apperror.Kind) int {
	switch kind {
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindConflict:
		return http.StatusConflict
	case apperror.KindBadRequest:
		return http.StatusBadRequest
	case apperror.KindUnauthorized:
		return http.StatusForbidden
	case apperror.KindInvalidCredentials:
		return http.StatusUnauthorized
	case apperror.KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
