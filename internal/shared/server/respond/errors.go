package respond

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"insight-backend/internal/shared/apperr"
	"insight-backend/internal/shared/telemetry"
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
	if status >= http.StatusInternalServerError {
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
		telemetry.Error("http.error", fields)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// FromError dispatches a service error to a client-visible status. Expected
// outcomes (validation, auth, not-found) pass their message through; service
// faults are logged with full detail and surfaced generically so provider
// error text never leaks to callers.
func FromError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)

	switch kind {
	case apperr.KindValidation:
		Error(c, http.StatusBadRequest, "validation_error", clientMessage(err), nil)
	case apperr.KindUnauthorized:
		Error(c, http.StatusUnauthorized, "unauthorized", clientMessage(err), nil)
	case apperr.KindForbidden:
		Error(c, http.StatusForbidden, "forbidden", clientMessage(err), nil)
	case apperr.KindNotFound:
		Error(c, http.StatusNotFound, "not_found", clientMessage(err), nil)
	default:
		fields := map[string]any{
			"path":       c.Request.URL.Path,
			"method":     c.Request.Method,
			"request_id": c.GetString("requestId"),
			"error":      err.Error(),
		}
		if userID := c.GetString("userId"); userID != "" {
			fields["user_id"] = userID
		}
		code := "internal_error"
		switch kind {
		case apperr.KindUpstream:
			code = "upstream_error"
			telemetry.Error("provider.fault", fields)
		case apperr.KindStorage:
			code = "storage_error"
			telemetry.Error("storage.fault", fields)
		default:
			telemetry.Error("http.fault", fields)
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
			Error: ErrorBody{Code: code, Message: "internal error"},
		})
	}
}

func clientMessage(err error) string {
	var e *apperr.Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return err.Error()
}
