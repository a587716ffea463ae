package main

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"novacall/internal/auth"
	"novacall/internal/config"
	"novacall/internal/httpapi"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, authManager *auth.Manager, corsCfg config.CORSConfig) {
	corsOpts := cors.DefaultConfig()
	if len(corsCfg.AllowOrigins) > 0 {
		corsOpts.AllowOrigins = corsCfg.AllowOrigins
	} else {
		corsOpts.AllowAllOrigins = true
	}
	corsOpts.AllowHeaders = append(corsOpts.AllowHeaders, "Authorization")
	r.Use(cors.New(corsOpts))

	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "NovaCall API is running"})
	})

	// tooling endpoints (schema list for CRUD builders, store probe)
	r.GET("/schema", h.Schema)
	r.GET("/test", h.StoreProbe)

	api := r.Group("/api")
	if authManager != nil {
		api.Use(auth.RequireToken(authManager))
	}
	{
		api.GET("/hello", func(c *gin.Context) {
			c.JSON(200, gin.H{"message": "Hello from the NovaCall backend API!"})
		})

		api.POST("/call-tasks", h.CreateCallTask)

		api.POST("/transcripts", h.AppendTranscript)
		api.GET("/transcripts/:call_id", h.ListTranscripts)
	}
}
