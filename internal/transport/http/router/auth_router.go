package router

import (
	"net/http"

	"github.com/setuphub/setuphub/internal/application/dto"
	"github.com/setuphub/setuphub/internal/transport/http/handler"
	"github.com/setuphub/setuphub/pkg/openapi"
)

// authRouter sets up sign-in, sign-out and identity routes
func (r *Router) authRouter() {
	v1 := r.server.Group("/api/v1")

	authHandler := handler.NewAuthHandler(
		r.Deps.OAuthService,
		r.Deps.SessionService,
		r.Deps.Config.Server.FrontendURL,
		r.Deps.Log,
	)

	docs := r.server.OpenAPIGenerator
	docs.RegisterDocs(http.MethodGet, "/api/v1/auth/config", openapi.RouteDocs{
		Summary:     "Sign-in configuration",
		Description: "Reports whether browser sign-in is available and which provider is used",
		Tags:        []string{"Auth"},
		Responses: map[int]openapi.ResponseDoc{
			http.StatusOK: {Description: "Sign-in configuration", Model: dto.AuthConfigResponse{}},
		},
	})

	docs.RegisterDocs(http.MethodGet, "/api/v1/auth/login", openapi.RouteDocs{
		Summary:     "Start sign-in",
		Description: "Redirects the browser to the identity provider",
		Tags:        []string{"Auth"},
		Responses: map[int]openapi.ResponseDoc{
			http.StatusFound:              {Description: "Redirect to the identity provider"},
			http.StatusServiceUnavailable: {Description: "Sign-in is not configured", Model: dto.ErrorResponse{}},
		},
	})

	docs.RegisterDocs(http.MethodGet, "/api/v1/auth/callback", openapi.RouteDocs{
		Summary:     "Sign-in callback",
		Description: "Completes the OAuth code flow, sets the session cookie and redirects to the frontend",
		Tags:        []string{"Auth"},
		QueryParams: []openapi.Parameter{
			openapi.QueryParam("code", "Authorization code"),
			openapi.QueryParam("state", "State issued by /auth/login"),
		},
		Responses: map[int]openapi.ResponseDoc{
			http.StatusFound: {Description: "Redirect to the frontend"},
		},
	})

	docs.RegisterDocs(http.MethodPost, "/api/v1/auth/logout", openapi.RouteDocs{
		Summary:     "Sign out",
		Description: "Deletes the browser session and clears the cookie",
		Tags:        []string{"Auth"},
		Auth:        openapi.AuthOptional,
		Responses: map[int]openapi.ResponseDoc{
			http.StatusOK: {Description: "Signed out", Model: dto.MessageResponse{}},
		},
	})

	docs.RegisterDocs(http.MethodGet, "/api/v1/auth/me", openapi.RouteDocs{
		Summary:     "Current identity",
		Description: "Returns the user and session resolved from a personal access token or the session cookie",
		Tags:        []string{"Auth"},
		Auth:        openapi.AuthRequired,
		Responses: map[int]openapi.ResponseDoc{
			http.StatusOK:           {Description: "Resolved identity", Model: dto.SessionResponse{}},
			http.StatusUnauthorized: {Description: "Authentication required", Model: dto.ErrorResponse{}},
		},
	})

	authGroup := v1.Group("/auth")
	{
		authGroup.GET("/config", authHandler.Config)
		authGroup.GET("/login", authHandler.Login)
		authGroup.GET("/callback", authHandler.Callback)
		authGroup.POST("/logout", authHandler.Logout)
		authGroup.GET("/me", r.auth.RequireAuth(), authHandler.Me)
	}
}
