package router

import (
	"bytes"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/setuphub/setuphub/pkg/logger"
)

// docsRouter serves the generated OpenAPI document. It is rendered on first
// request, after every route has been registered.
func (r *Router) docsRouter() {
	var (
		once     sync.Once
		jsonSpec []byte
		yamlSpec []byte
		specErr  error
	)
	render := func() {
		spec := r.server.OpenAPIGenerator.Generate()
		if jsonSpec, specErr = spec.JSON(); specErr != nil {
			return
		}
		var buf bytes.Buffer
		specErr = spec.WriteYAML(&buf)
		yamlSpec = buf.Bytes()
	}

	serve := func(contentType string, body *[]byte) gin.HandlerFunc {
		return func(c *gin.Context) {
			once.Do(render)
			if specErr != nil {
				r.Deps.Log.Error("Failed to render OpenAPI document", logger.Error(specErr))
				c.JSON(http.StatusInternalServerError, gin.H{
					"error":   "internal_error",
					"message": "An unexpected error occurred",
				})
				return
			}
			c.Data(http.StatusOK, contentType, *body)
		}
	}

	r.server.GET("/docs/openapi.json", serve("application/json", &jsonSpec))
	r.server.GET("/docs/openapi.yaml", serve("application/yaml", &yamlSpec))
}
