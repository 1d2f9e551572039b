package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/setuphub/setuphub/internal/application/dto"
	"github.com/setuphub/setuphub/internal/transport/http/handler"
	"github.com/setuphub/setuphub/internal/transport/http/middleware"
	"github.com/setuphub/setuphub/pkg/openapi"
)

// setupRouter sets up setup sync, browsing and star routes
func (r *Router) setupRouter() {
	v1 := r.server.Group("/api/v1")

	setupHandler := handler.NewSetupHandler(r.Deps.SetupService, r.Deps.StarService)

	syncChain := []gin.HandlerFunc{r.auth.RequireAuth()}
	if r.Deps.Config.RateLimit.Enabled {
		syncChain = append(syncChain, middleware.NewRateLimiter(r.Deps.Config.RateLimit).Middleware())
	}
	syncChain = append(syncChain, setupHandler.SyncSetup)

	r.registerSetupDocs()

	setups := v1.Group("/setups")
	{
		setups.POST("/sync", syncChain...)
		setups.GET("", r.auth.Authenticate(), setupHandler.ListSetups)
		setups.GET("/:id", r.auth.Authenticate(), setupHandler.GetSetup)
		setups.PATCH("/:id", r.auth.RequireAuth(), setupHandler.UpdateSetup)
		setups.DELETE("/:id", r.auth.RequireAuth(), setupHandler.DeleteSetup)

		// the star handlers answer anonymous callers themselves
		setups.GET("/:id/star", r.auth.Authenticate(), setupHandler.StarStatus)
		setups.POST("/:id/star", r.auth.Authenticate(), setupHandler.ToggleStar)
	}
}

func (r *Router) registerSetupDocs() {
	docs := r.server.OpenAPIGenerator

	docs.RegisterDocs(http.MethodPost, "/api/v1/setups/sync", openapi.RouteDocs{
		Summary:     "Sync setup",
		Description: "Creates or replaces the caller's setup for an editor. Called by the editor extension with a personal access token.",
		Tags:        []string{"Setups"},
		Auth:        openapi.AuthRequired,
		RequestBody: dto.SyncSetupRequest{},
		Responses: map[int]openapi.ResponseDoc{
			http.StatusOK:              {Description: "Setup stored", Model: dto.SetupResponse{}},
			http.StatusBadRequest:      {Description: "Invalid setup", Model: dto.ErrorResponse{}},
			http.StatusUnauthorized:    {Description: "Authentication required", Model: dto.ErrorResponse{}},
			http.StatusTooManyRequests: {Description: "Rate limited", Model: dto.ErrorResponse{}},
		},
	})

	docs.RegisterDocs(http.MethodGet, "/api/v1/setups", openapi.RouteDocs{
		Summary:     "List public setups",
		Description: "Lists public setups with optional search, editor filter and ordering",
		Tags:        []string{"Setups"},
		Auth:        openapi.AuthOptional,
		QueryParams: []openapi.Parameter{
			openapi.QueryParam("q", "Search in display name, description and owner username"),
			openapi.QueryParam("editor", "Filter by editor name"),
			openapi.QueryParam("sort", "Ordering", "recent", "stars"),
			openapi.IntQueryParam("limit", "Page size", 1, 100),
			openapi.IntQueryParam("offset", "Page offset", 0, -1),
		},
		Responses: map[int]openapi.ResponseDoc{
			http.StatusOK:         {Description: "A page of setups", Model: dto.ListSetupsResponse{}},
			http.StatusBadRequest: {Description: "Invalid query", Model: dto.ErrorResponse{}},
		},
	})

	docs.RegisterDocs(http.MethodGet, "/api/v1/setups/:id", openapi.RouteDocs{
		Summary:     "Get setup",
		Description: "Returns a setup. Private setups are visible to their owner only.",
		Tags:        []string{"Setups"},
		Auth:        openapi.AuthOptional,
		Responses: map[int]openapi.ResponseDoc{
			http.StatusOK:       {Description: "The setup", Model: dto.SetupResponse{}},
			http.StatusNotFound: {Description: "Setup not found", Model: dto.ErrorResponse{}},
		},
	})

	docs.RegisterDocs(http.MethodPatch, "/api/v1/setups/:id", openapi.RouteDocs{
		Summary:     "Update setup",
		Description: "Updates the display name, description or visibility of an owned setup",
		Tags:        []string{"Setups"},
		Auth:        openapi.AuthRequired,
		RequestBody: dto.UpdateSetupRequest{},
		Responses: map[int]openapi.ResponseDoc{
			http.StatusOK:           {Description: "Setup updated", Model: dto.SetupResponse{}},
			http.StatusBadRequest:   {Description: "Invalid request", Model: dto.ErrorResponse{}},
			http.StatusUnauthorized: {Description: "Authentication required", Model: dto.ErrorResponse{}},
			http.StatusNotFound:     {Description: "Setup not found or unauthorized", Model: dto.ErrorResponse{}},
		},
	})

	docs.RegisterDocs(http.MethodDelete, "/api/v1/setups/:id", openapi.RouteDocs{
		Summary:     "Delete setup",
		Description: "Deletes an owned setup together with its stars",
		Tags:        []string{"Setups"},
		Auth:        openapi.AuthRequired,
		Responses: map[int]openapi.ResponseDoc{
			http.StatusOK:           {Description: "Setup deleted", Model: dto.MessageResponse{}},
			http.StatusUnauthorized: {Description: "Authentication required", Model: dto.ErrorResponse{}},
			http.StatusNotFound:     {Description: "Setup not found or unauthorized", Model: dto.ErrorResponse{}},
		},
	})

	docs.RegisterDocs(http.MethodGet, "/api/v1/setups/:id/star", openapi.RouteDocs{
		Summary:     "Star status",
		Description: "Reports whether the caller has starred the setup and its star count",
		Tags:        []string{"Setups"},
		Auth:        openapi.AuthOptional,
		Responses: map[int]openapi.ResponseDoc{
			http.StatusOK:       {Description: "Star status", Model: dto.StarStatusResponse{}},
			http.StatusNotFound: {Description: "Setup not found", Model: dto.ErrorResponse{}},
		},
	})

	docs.RegisterDocs(http.MethodPost, "/api/v1/setups/:id/star", openapi.RouteDocs{
		Summary:     "Toggle star",
		Description: "Stars the setup if the caller has not starred it yet, otherwise removes the star",
		Tags:        []string{"Setups"},
		Auth:        openapi.AuthOptional,
		Responses: map[int]openapi.ResponseDoc{
			http.StatusOK:                  {Description: "Star toggled", Model: dto.StarResponse{}},
			http.StatusUnauthorized:        {Description: "Sign in to star setups", Model: dto.StarResponse{}},
			http.StatusNotFound:            {Description: "Setup not found", Model: dto.StarResponse{}},
			http.StatusInternalServerError: {Description: "Star could not be updated", Model: dto.StarResponse{}},
		},
	})
}
