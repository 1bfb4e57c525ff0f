// Package api exposes the backend over HTTP with gin and provides the
// matching client.
package api

import (
	"github.com/gin-gonic/gin"

	"urban3d/internal/backend"
	"urban3d/internal/geom"
	"urban3d/internal/logging"
	"urban3d/internal/observability"
)

// Deps are the collaborators of the HTTP layer.
type Deps struct {
	Service     backend.Service
	Log         logging.Logger
	Metrics     *observability.Collector
	DefaultBBox geom.BBox
}

// NewEngine returns a gin engine with recovery, request ids, access logs,
// metrics and every route registered.
func NewEngine(d Deps) *gin.Engine {
	if d.Log == nil {
		d.Log = logging.Noop()
	}
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), AccessLog(d.Log), Metrics(d.Metrics))
	SetupRouter(r, d)
	return r
}

// SetupRouter initializes all application routes
func SetupRouter(r *gin.Engine, d Deps) {
	h := &handlers{svc: d.Service, log: d.Log, bbox: d.DefaultBBox}

	r.GET("/", h.root)
	r.GET("/healthz", h.health)
	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	api := r.Group("/api")
	api.GET("/buildings", h.buildings)
	api.POST("/llm-filter", h.filter)
	api.POST("/save", h.save)
	api.GET("/projects", h.projects)
	api.GET("/load", h.load)
	api.POST("/delete", h.delete)
}
