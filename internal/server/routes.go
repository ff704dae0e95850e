package server

import (
	"github.com/gin-gonic/gin"

	"docsift-backend/internal/shared/metrics"
)

func registerRoutes(r *gin.Engine, h *Handler) {
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")

	api.GET("/health", h.Status)
	api.POST("/extract", h.Extract)
	api.GET("/profiles", h.ListProfiles)
	api.GET("/profiles/:id", h.ShowProfile)
}
