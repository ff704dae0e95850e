package server

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"docsift-backend/internal/shared/server/middleware"
)

// NewEngine builds the gin engine with routes registered.
func NewEngine(h *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(middleware.RequestID(), middleware.Logging(), middleware.Recovery())

	registerRoutes(engine, h)
	return engine
}

// Addr returns a normalized listen address for the given port.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return fmt.Sprintf(":%s", port)
}
