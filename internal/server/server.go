package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/setuphub/setuphub/internal/config"
	"github.com/setuphub/setuphub/internal/infrastructure/database"
	"github.com/setuphub/setuphub/pkg/logger"
	"github.com/setuphub/setuphub/pkg/openapi"
)

// APIVersion is reported in the OpenAPI document
const APIVersion = "1.0.0"

// Server bundles the gin engine with what the routers need
type Server struct {
	*gin.Engine

	Config           *config.Config
	DB               *database.Database
	OpenAPIGenerator *openapi.Generator
	Log              *logger.Logger

	httpServer *http.Server
}

// New creates the engine. Middleware and routes are added by the router.
func New(cfg *config.Config, db *database.Database, log *logger.Logger) *Server {
	switch cfg.Server.Mode {
	case gin.ReleaseMode, gin.TestMode, gin.DebugMode:
		gin.SetMode(cfg.Server.Mode)
	}

	engine := gin.New()
	// Only trust X-Forwarded-For from loopback proxies
	_ = engine.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	generator := openapi.NewGenerator(engine, openapi.Info{
		Title:       "SetupHub API",
		Description: "Share and discover editor setups",
		Version:     APIVersion,
	}, serversFor(cfg), []openapi.Tag{
		{Name: "Auth", Description: "Sign-in and identity"},
		{Name: "Tokens", Description: "Personal access tokens for the editor extension"},
		{Name: "Setups", Description: "Editor setups and stars"},
		{Name: "Users", Description: "Profiles and banners"},
		{Name: "System", Description: "Health and metrics"},
	}).
		WithBearerAuth("Personal access token issued at /api/v1/tokens").
		WithCookieAuth(cfg.Auth.Session.CookieName, "Browser session set by the sign-in callback")

	return &Server{
		Engine:           engine,
		Config:           cfg,
		DB:               db,
		OpenAPIGenerator: generator,
		Log:              log.WithComponent("server"),
	}
}

func serversFor(cfg *config.Config) []openapi.Server {
	if cfg.Server.BaseURL == "" {
		return nil
	}
	return []openapi.Server{{URL: cfg.Server.BaseURL}}
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.Config.ServerAddress(),
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Log.Info("HTTP server listening", logger.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.Log.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.Config.ShutdownTimeout())
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
