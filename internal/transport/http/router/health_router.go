package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/setuphub/setuphub/internal/transport/http/handler"
	"github.com/setuphub/setuphub/pkg/openapi"
)

func (r *Router) healthRouter() {
	r.server.OpenAPIGenerator.RegisterDocs(http.MethodGet, "/healthz", openapi.RouteDocs{
		Summary: "Health check",
		Tags:    []string{"System"},
		Responses: map[int]openapi.ResponseDoc{
			http.StatusOK:                 {Description: "Service and database are up", Model: map[string]string{}},
			http.StatusServiceUnavailable: {Description: "Database unreachable", Model: map[string]string{}},
		},
	})

	r.server.OpenAPIGenerator.RegisterDocs(http.MethodGet, "/metrics", openapi.RouteDocs{
		Summary: "Prometheus metrics",
		Tags:    []string{"System"},
		Responses: map[int]openapi.ResponseDoc{
			http.StatusOK: {Description: "Metrics in the Prometheus text format", Model: "", ContentType: "text/plain"},
		},
	})

	r.server.GET("/healthz", handler.HealthHandler(r.Deps.DB, r.Deps.Log))
	r.server.GET("/metrics", gin.WrapH(r.Deps.Metrics.Handler()))
}
