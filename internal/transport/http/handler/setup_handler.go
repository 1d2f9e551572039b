package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/setuphub/setuphub/internal/application/dto"
	"github.com/setuphub/setuphub/internal/application/service"
	"github.com/setuphub/setuphub/internal/transport/http/middleware"
)

// SetupHandler handles setup sync, browsing and starring
type SetupHandler struct {
	setupService *service.SetupService
	starService  *service.StarService
}

// NewSetupHandler creates a new SetupHandler instance
func NewSetupHandler(setupService *service.SetupService, starService *service.StarService) *SetupHandler {
	return &SetupHandler{
		setupService: setupService,
		starService:  starService,
	}
}

// ListSetupsParams are the query parameters of the public listing
type ListSetupsParams struct {
	Query  string `form:"q"`
	Editor string `form:"editor"`
	Sort   string `form:"sort"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

// SyncSetup handles POST /api/v1/setups/sync
func (h *SetupHandler) SyncSetup(c *gin.Context) {
	user := middleware.GetUserFromContext(c)

	var req dto.SyncSetupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	setup, err := h.setupService.SyncSetup(c.Request.Context(), user.ID, service.SyncSetupRequest{
		EditorName:  req.EditorName,
		DisplayName: req.DisplayName,
		Description: req.Description,
		Content:     req.Content,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewSetupResponse(setup))
}

// ListSetups handles GET /api/v1/setups
func (h *SetupHandler) ListSetups(c *gin.Context) {
	var params ListSetupsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		badRequest(c, "Invalid query parameters", err)
		return
	}

	page, err := h.setupService.ListPublic(c.Request.Context(), service.ListSetupsQuery{
		Query:  params.Query,
		Editor: params.Editor,
		Sort:   params.Sort,
		Limit:  params.Limit,
		Offset: params.Offset,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListSetupsResponse{
		Setups: dto.NewSetupResponses(page.Setups),
		Total:  page.Total,
		Limit:  page.Limit,
		Offset: page.Offset,
	})
}

// GetSetup handles GET /api/v1/setups/:id
func (h *SetupHandler) GetSetup(c *gin.Context) {
	setup, err := h.setupService.GetSetup(c.Request.Context(), middleware.GetUserFromContext(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSetupResponse(setup))
}

// UpdateSetup handles PATCH /api/v1/setups/:id
func (h *SetupHandler) UpdateSetup(c *gin.Context) {
	user := middleware.GetUserFromContext(c)

	var req dto.UpdateSetupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	setup, err := h.setupService.UpdateSetup(c.Request.Context(), user.ID, c.Param("id"), service.UpdateSetupRequest{
		DisplayName: req.DisplayName,
		Description: req.Description,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSetupResponse(setup))
}

// DeleteSetup handles DELETE /api/v1/setups/:id
func (h *SetupHandler) DeleteSetup(c *gin.Context) {
	user := middleware.GetUserFromContext(c)

	if err := h.setupService.DeleteSetup(c.Request.Context(), user.ID, c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Setup deleted successfully"})
}

// StarStatus handles GET /api/v1/setups/:id/star
func (h *SetupHandler) StarStatus(c *gin.Context) {
	status, err := h.starService.StarStatus(c.Request.Context(), middleware.GetUserFromContext(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.StarStatusResponse{
		IsStarred: status.IsStarred,
		StarCount: status.StarCount,
	})
}

// ToggleStar handles POST /api/v1/setups/:id/star. Anonymous callers get a
// 401 with the sign-in message in the usual result shape.
func (h *SetupHandler) ToggleStar(c *gin.Context) {
	result := h.starService.ToggleStar(c.Request.Context(), middleware.GetUserFromContext(c), c.Param("id"))

	c.JSON(starStatusCode(result), dto.StarResponse{
		Success:   result.Success,
		Message:   result.Message,
		IsStarred: result.IsStarred,
		StarCount: result.StarCount,
	})
}

func starStatusCode(result service.StarResult) int {
	if result.Success {
		return http.StatusOK
	}
	switch result.Message {
	case service.MsgSignInToStar:
		return http.StatusUnauthorized
	case service.MsgSetupNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
