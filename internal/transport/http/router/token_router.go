package router

import (
	"net/http"

	"github.com/setuphub/setuphub/internal/application/dto"
	"github.com/setuphub/setuphub/internal/transport/http/handler"
	"github.com/setuphub/setuphub/pkg/openapi"
)

// tokenRouter sets up personal access token management routes
func (r *Router) tokenRouter() {
	v1 := r.server.Group("/api/v1")

	tokenHandler := handler.NewTokenHandler(r.Deps.TokenService)

	docs := r.server.OpenAPIGenerator
	docs.RegisterDocs(http.MethodGet, "/api/v1/tokens", openapi.RouteDocs{
		Summary:     "Get token",
		Description: "Returns the metadata of the caller's personal access token, or null",
		Tags:        []string{"Tokens"},
		Auth:        openapi.AuthRequired,
		Responses: map[int]openapi.ResponseDoc{
			http.StatusOK:           {Description: "Token metadata", Model: dto.TokenResponse{}},
			http.StatusUnauthorized: {Description: "Authentication required", Model: dto.ErrorResponse{}},
		},
	})

	docs.RegisterDocs(http.MethodPost, "/api/v1/tokens", openapi.RouteDocs{
		Summary:     "Create token",
		Description: "Issues the caller's personal access token. The secret is returned once.",
		Tags:        []string{"Tokens"},
		Auth:        openapi.AuthRequired,
		RequestBody: dto.CreateTokenRequest{},
		Responses: map[int]openapi.ResponseDoc{
			http.StatusCreated:      {Description: "Token created", Model: dto.CreateTokenResponse{}},
			http.StatusBadRequest:   {Description: "Invalid request", Model: dto.ErrorResponse{}},
			http.StatusUnauthorized: {Description: "Authentication required", Model: dto.ErrorResponse{}},
			http.StatusConflict:     {Description: "The caller already has a token", Model: dto.ErrorResponse{}},
		},
	})

	docs.RegisterDocs(http.MethodPost, "/api/v1/tokens/rotate", openapi.RouteDocs{
		Summary:     "Rotate token",
		Description: "Replaces the secret of the caller's token; the old secret stops working immediately",
		Tags:        []string{"Tokens"},
		Auth:        openapi.AuthRequired,
		Responses: map[int]openapi.ResponseDoc{
			http.StatusOK:           {Description: "Token rotated", Model: dto.CreateTokenResponse{}},
			http.StatusUnauthorized: {Description: "Authentication required", Model: dto.ErrorResponse{}},
			http.StatusNotFound:     {Description: "The caller has no token", Model: dto.ErrorResponse{}},
		},
	})

	docs.RegisterDocs(http.MethodDelete, "/api/v1/tokens/:id", openapi.RouteDocs{
		Summary:     "Delete token",
		Description: "Deletes a personal access token owned by the caller",
		Tags:        []string{"Tokens"},
		Auth:        openapi.AuthRequired,
		Responses: map[int]openapi.ResponseDoc{
			http.StatusOK:           {Description: "Token deleted", Model: dto.MessageResponse{}},
			http.StatusUnauthorized: {Description: "Authentication required", Model: dto.ErrorResponse{}},
			http.StatusNotFound:     {Description: "Token not found or unauthorized", Model: dto.ErrorResponse{}},
		},
	})

	tokenGroup := v1.Group("/tokens", r.auth.RequireAuth())
	{
		tokenGroup.GET("", tokenHandler.GetToken)
		tokenGroup.POST("", tokenHandler.CreateToken)
		tokenGroup.POST("/rotate", tokenHandler.RotateToken)
		tokenGroup.DELETE("/:id", tokenHandler.DeleteToken)
	}
}
