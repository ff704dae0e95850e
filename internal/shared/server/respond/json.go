package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope is the uniform success payload.
type Envelope struct {
	OK   bool `json:"ok"`
	Data any  `json:"data"`
	Meta any  `json:"meta,omitempty"`
}

// OK writes a 200 success envelope.
func OK(c *gin.Context, data any, meta any) {
	c.JSON(http.StatusOK, Envelope{OK: true, Data: data, Meta: meta})
}
