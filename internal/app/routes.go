package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/marginalia-app/core/internal/middleware"
	"github.com/marginalia-app/core/internal/modules/agents"
	"github.com/marginalia-app/core/internal/modules/conversation"
	"github.com/marginalia-app/core/internal/modules/gateway"
	"github.com/marginalia-app/core/internal/modules/identity"
	"github.com/marginalia-app/core/internal/modules/paper"
	"github.com/marginalia-app/core/internal/modules/task"
	"github.com/marginalia-app/core/internal/modules/workspace"
	pkgredis "github.com/marginalia-app/core/internal/pkg/redis"
	"github.com/marginalia-app/core/internal/pkg/response"
	"github.com/marginalia-app/core/internal/pkg/taskqueue"
)

func (a *App) registerRoutes(rc *pkgredis.Client) {
	r := a.router
	db := a.db

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	appInfo := gin.H{
		"name":     "marginalia-core",
		"version":  "1.0.0",
		"homepage": "https://github.com/marginalia-app/core",
	}

	// Shared services
	taskSvc := taskqueue.NewService(rc)
	identitySvc := identity.NewService(db, a.cfg, taskSvc, a.hub, a.logger)
	convStore := conversation.NewGormStore(db)
	prefilterCache := agents.NewPrefilterCache(rc)
	exporter := workspace.NewExporter(db, a.cfg.Share)

	// WebSocket gateway at the root so the socket.io path stays canonical.
	root := r.Group("")
	gateway.RegisterRoutes(root, a.hub)

	// Versioned API
	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit(rc.Raw(), a.logger))

	api.GET("", func(c *gin.Context) { c.PureJSON(http.StatusOK, appInfo) })
	api.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"data": "pong"}) })

	// Documents
	paper.NewHandler(db, identitySvc, taskSvc).RegisterRoutes(api)
	workspace.NewHandler(db, exporter).RegisterRoutes(api)

	// Task queue inspection (operator-only)
	task.NewHandler(taskSvc).RegisterRoutes(api)

	// Identity extraction (synchronous path)
	identity.NewHandler(a.cfg).RegisterRoutes(api)

	// Commentary pipeline
	agentsHandler := agents.NewHandler(db, a.cfg, prefilterCache, convStore, a.hub, a.logger)
	agentsHandler.RegisterRoutes(api)

	// Conversation history; clearing also invalidates the prefilter cache.
	conversation.NewHandler(convStore, agentsHandler).RegisterRoutes(api)
}
