package router

import (
	"net/http"

	"github.com/setuphub/setuphub/internal/application/dto"
	"github.com/setuphub/setuphub/internal/transport/http/handler"
	"github.com/setuphub/setuphub/pkg/openapi"
)

// userRouter sets up profile, banner and starred-setup routes
func (r *Router) userRouter() {
	v1 := r.server.Group("/api/v1")

	userHandler := handler.NewUserHandler(
		r.Deps.UserService,
		r.Deps.SetupService,
		r.Deps.StarService,
		r.Deps.BannerService,
	)

	r.registerUserDocs()

	me := v1.Group("/users/me", r.auth.RequireAuth())
	{
		me.PATCH("", userHandler.UpdateProfile)
		me.PUT("/banner", userHandler.UploadBanner)
		me.DELETE("/banner", userHandler.DeleteBanner)
		me.GET("/stars", userHandler.ListStarred)
	}

	users := v1.Group("/users", r.auth.Authenticate())
	{
		users.GET("/:username", userHandler.GetProfile)
		users.GET("/:username/setups", userHandler.ListUserSetups)
		users.GET("/:username/banner", userHandler.GetBanner)
	}
}

func (r *Router) registerUserDocs() {
	docs := r.server.OpenAPIGenerator

	docs.RegisterDocs(http.MethodPatch, "/api/v1/users/me", openapi.RouteDocs{
		Summary:     "Update profile",
		Description: "Updates the caller's display name",
		Tags:        []string{"Users"},
		Auth:        openapi.AuthRequired,
		RequestBody: dto.UpdateProfileRequest{},
		Responses: map[int]openapi.ResponseDoc{
			http.StatusOK:           {Description: "Profile updated", Model: dto.UserInfo{}},
			http.StatusBadRequest:   {Description: "Invalid request", Model: dto.ErrorResponse{}},
			http.StatusUnauthorized: {Description: "Authentication required", Model: dto.ErrorResponse{}},
		},
	})

	docs.RegisterDocs(http.MethodPut, "/api/v1/users/me/banner", openapi.RouteDocs{
		Summary:            "Upload banner",
		Description:        "Stores an SVG profile banner. Scripts and event handlers are rejected.",
		Tags:               []string{"Users"},
		Auth:               openapi.AuthRequired,
		RequestBody:        "",
		RequestContentType: "image/svg+xml",
		Responses: map[int]openapi.ResponseDoc{
			http.StatusOK:                    {Description: "Banner stored", Model: dto.MessageResponse{}},
			http.StatusBadRequest:            {Description: "Invalid SVG", Model: dto.ErrorResponse{}},
			http.StatusUnauthorized:          {Description: "Authentication required", Model: dto.ErrorResponse{}},
			http.StatusRequestEntityTooLarge: {Description: "Banner too large", Model: dto.ErrorResponse{}},
		},
	})

	docs.RegisterDocs(http.MethodDelete, "/api/v1/users/me/banner", openapi.RouteDocs{
		Summary: "Remove banner",
		Tags:    []string{"Users"},
		Auth:    openapi.AuthRequired,
		Responses: map[int]openapi.ResponseDoc{
			http.StatusOK:           {Description: "Banner removed", Model: dto.MessageResponse{}},
			http.StatusUnauthorized: {Description: "Authentication required", Model: dto.ErrorResponse{}},
		},
	})

	docs.RegisterDocs(http.MethodGet, "/api/v1/users/me/stars", openapi.RouteDocs{
		Summary:     "Starred setups",
		Description: "Lists the setups the caller has starred, most recent star first",
		Tags:        []string{"Users"},
		Auth:        openapi.AuthRequired,
		QueryParams: []openapi.Parameter{
			openapi.IntQueryParam("limit", "Page size", 1, 100),
			openapi.IntQueryParam("offset", "Page offset", 0, -1),
		},
		Responses: map[int]openapi.ResponseDoc{
			http.StatusOK:           {Description: "Starred setups", Model: dto.UserSetupsResponse{}},
			http.StatusUnauthorized: {Description: "Authentication required", Model: dto.ErrorResponse{}},
		},
	})

	docs.RegisterDocs(http.MethodGet, "/api/v1/users/:username", openapi.RouteDocs{
		Summary: "Get profile",
		Tags:    []string{"Users"},
		Auth:    openapi.AuthOptional,
		Responses: map[int]openapi.ResponseDoc{
			http.StatusOK:       {Description: "Public profile", Model: dto.ProfileResponse{}},
			http.StatusNotFound: {Description: "User not found", Model: dto.ErrorResponse{}},
		},
	})

	docs.RegisterDocs(http.MethodGet, "/api/v1/users/:username/setups", openapi.RouteDocs{
		Summary:     "List user setups",
		Description: "Lists a user's setups. Private setups are included for the owner only.",
		Tags:        []string{"Users"},
		Auth:        openapi.AuthOptional,
		Responses: map[int]openapi.ResponseDoc{
			http.StatusOK:       {Description: "The user's setups", Model: dto.UserSetupsResponse{}},
			http.StatusNotFound: {Description: "User not found", Model: dto.ErrorResponse{}},
		},
	})

	docs.RegisterDocs(http.MethodGet, "/api/v1/users/:username/banner", openapi.RouteDocs{
		Summary: "Get banner",
		Tags:    []string{"Users"},
		Auth:    openapi.AuthOptional,
		Responses: map[int]openapi.ResponseDoc{
			http.StatusOK:       {Description: "SVG banner", Model: "", ContentType: "image/svg+xml"},
			http.StatusNotFound: {Description: "User or banner not found", Model: dto.ErrorResponse{}},
		},
	})
}
