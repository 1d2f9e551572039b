package router

import (
	"github.com/setuphub/setuphub/internal/injectable"
	"github.com/setuphub/setuphub/internal/server"
	"github.com/setuphub/setuphub/internal/transport/http/middleware"
)

type Router struct {
	server *server.Server
	Deps   *injectable.Dependencies

	auth *middleware.AuthMiddleware
}

// NewRouter creates a new Router instance.
func NewRouter(s *server.Server, deps *injectable.Dependencies) *Router {
	return &Router{
		server: s,
		Deps:   deps,
		auth:   middleware.NewAuthMiddleware(deps.AuthResolver, deps.Log),
	}
}

// RegisterRoutes sets up the routes and middleware for the server.
func (r *Router) RegisterRoutes() {
	r.server.Use(
		middleware.RecoveryMiddleware(r.Deps.Log),
		middleware.LoggerMiddleware(r.Deps.Log),
		middleware.MetricsMiddleware(r.Deps.Metrics),
		middleware.CORSMiddleware(r.Deps.Config.Server.AllowedOrigins),
	)

	r.healthRouter()
	r.authRouter()
	r.tokenRouter()
	r.setupRouter()
	r.userRouter()

	// last, so the document covers every route above
	r.docsRouter()
}
