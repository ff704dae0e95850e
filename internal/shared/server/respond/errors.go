package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docsift-backend/internal/shared/fault"
	"docsift-backend/internal/shared/telemetry"
)

// ErrorBody carries the stable error kind plus a human-readable message; no
// stack traces or internal identifiers cross this boundary.
type ErrorBody struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ErrorResponse is the failure envelope.
type ErrorResponse struct {
	OK    bool      `json:"ok"`
	Error ErrorBody `json:"error"`
}

// Error sends a failure envelope with the given status and kind.
func Error(c *gin.Context, status int, kind fault.Kind, message string) {
	telemetry.Error("http.error", map[string]any{
		"status":     status,
		"kind":       string(kind),
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	})

	c.AbortWithStatusJSON(status, ErrorResponse{
		OK:    false,
		Error: ErrorBody{Type: string(kind), Message: message},
	})
}

// FromError maps an error's kind to its transport status and responds.
func FromError(c *gin.Context, err error) {
	kind := fault.KindOf(err)
	Error(c, statusFor(kind), kind, fault.MessageOf(err))
}

func statusFor(kind fault.Kind) int {
	switch kind {
	case fault.KindSchema, fault.KindDocument:
		return http.StatusBadRequest
	case fault.KindProfile:
		return http.StatusNotFound
	case fault.KindProvider:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
