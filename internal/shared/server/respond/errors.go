package respond

import (
	"github.com/gin-gonic/gin"

	"expiry-backend/internal/shared/telemetry"
)

// ErrorBody defines the standardized error object.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// ErrorResponse wraps the error body.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error sends a standardized error response.
func Error(c *gin.Context, status int, code, message string, details interface{}) {
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if userID := c.GetString("userId"); userID != "" {
		fields["user_id"] = userID
	}
	if documentID := c.GetString("documentId"); documentID != "" {
		fields["document_id"] = documentID
	}
	if cause, ok := c.Get("errorCause"); ok {
		fields["cause"] = cause
	}
	if status >= 500 {
		telemetry.Error("http.error", fields)
	} else {
		telemetry.Warn("http.error", fields)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// Internal logs err as the cause and sends a single user-facing message.
func Internal(c *gin.Context, status int, code, message string, err error) {
	if err != nil {
		c.Set("errorCause", err.Error())
	}
	Error(c, status, code, message, nil)
}
