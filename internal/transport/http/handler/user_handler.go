package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/setuphub/setuphub/internal/application/dto"
	"github.com/setuphub/setuphub/internal/application/service"
	"github.com/setuphub/setuphub/internal/transport/http/middleware"
	apperrors "github.com/setuphub/setuphub/pkg/errors"
)

const bannerFormField = "banner"

// UserHandler handles profiles, banners and starred setups
type UserHandler struct {
	userService   *service.UserService
	setupService  *service.SetupService
	starService   *service.StarService
	bannerService *service.BannerService
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(
	userService *service.UserService,
	setupService *service.SetupService,
	starService *service.StarService,
	bannerService *service.BannerService,
) *UserHandler {
	return &UserHandler{
		userService:   userService,
		setupService:  setupService,
		starService:   starService,
		bannerService: bannerService,
	}
}

// PageParams are limit/offset query parameters
type PageParams struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

// GetProfile handles GET /api/v1/users/:username
func (h *UserHandler) GetProfile(c *gin.Context) {
	user, err := h.userService.GetUserByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewProfileResponse(user))
}

// ListUserSetups handles GET /api/v1/users/:username/setups
func (h *UserHandler) ListUserSetups(c *gin.Context) {
	setups, err := h.setupService.ListByUser(c.Request.Context(), middleware.GetUserFromContext(c), c.Param("username"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.UserSetupsResponse{
		Setups: dto.NewSetupResponses(setups),
		Total:  len(setups),
	})
}

// GetBanner handles GET /api/v1/users/:username/banner
func (h *UserHandler) GetBanner(c *gin.Context) {
	data, err := h.bannerService.Banner(c.Request.Context(), c.Param("username"))
	if err != nil {
		handleError(c, err)
		return
	}

	c.Header("Cache-Control", "public, max-age=300")
	c.Header("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'")
	c.Header("X-Content-Type-Options", "nosniff")
	c.Data(http.StatusOK, "image/svg+xml", data)
}

// UpdateProfile handles PATCH /api/v1/users/me
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	user := middleware.GetUserFromContext(c)

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	updated, err := h.userService.UpdateProfile(c.Request.Context(), user.ID, service.UpdateProfileRequest{
		Name: req.Name,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserInfo(updated))
}

// UploadBanner handles PUT /api/v1/users/me/banner. The SVG is sent either
// as the raw request body or as the "banner" field of a multipart form.
func (h *UserHandler) UploadBanner(c *gin.Context) {
	user := middleware.GetUserFromContext(c)

	data, err := readBanner(c)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error":   "payload_too_large",
				"message": "banner must be at most 256 KiB",
			})
			return
		}
		badRequest(c, "Invalid banner upload", err)
		return
	}

	if err := h.bannerService.Upload(c.Request.Context(), user.ID, data); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Banner updated"})
}

// DeleteBanner handles DELETE /api/v1/users/me/banner
func (h *UserHandler) DeleteBanner(c *gin.Context) {
	user := middleware.GetUserFromContext(c)

	if err := h.bannerService.Remove(c.Request.Context(), user.ID); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Banner removed"})
}

// ListStarred handles GET /api/v1/users/me/stars
func (h *UserHandler) ListStarred(c *gin.Context) {
	user := middleware.GetUserFromContext(c)

	var params PageParams
	if err := c.ShouldBindQuery(&params); err != nil {
		badRequest(c, "Invalid query parameters", err)
		return
	}
	if params.Limit < 0 || params.Offset < 0 {
		handleError(c, apperrors.ValidationError("limit", "limit and offset must not be negative"))
		return
	}

	setups, err := h.starService.ListStarred(c.Request.Context(), user.ID, params.Limit, params.Offset)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.UserSetupsResponse{
		Setups: dto.NewSetupResponses(setups),
		Total:  len(setups),
	})
}

func readBanner(c *gin.Context) ([]byte, error) {
	limit := int64(service.MaxBannerBytes)

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		// room for the multipart envelope around the file
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+64<<10)
		fh, err := c.FormFile(bannerFormField)
		if err != nil {
			return nil, err
		}
		if fh.Size > limit {
			return nil, &http.MaxBytesError{Limit: limit}
		}
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(f)
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	return io.ReadAll(c.Request.Body)
}
