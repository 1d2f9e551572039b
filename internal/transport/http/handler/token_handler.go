package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/setuphub/setuphub/internal/application/dto"
	"github.com/setuphub/setuphub/internal/application/service"
	"github.com/setuphub/setuphub/internal/transport/http/middleware"
	apperrors "github.com/setuphub/setuphub/pkg/errors"
)

// TokenHandler handles personal access token HTTP requests
type TokenHandler struct {
	tokenService *service.TokenService
}

// NewTokenHandler creates a new TokenHandler instance
func NewTokenHandler(tokenService *service.TokenService) *TokenHandler {
	return &TokenHandler{
		tokenService: tokenService,
	}
}

// GetToken handles GET /api/v1/tokens. A user without a token gets {"token": null}.
func (h *TokenHandler) GetToken(c *gin.Context) {
	user := middleware.GetUserFromContext(c)

	token, err := h.tokenService.GetToken(c.Request.Context(), user.ID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			c.JSON(http.StatusOK, dto.TokenResponse{})
			return
		}
		handleError(c, err)
		return
	}

	info := dto.NewTokenInfo(token)
	c.JSON(http.StatusOK, dto.TokenResponse{Token: &info})
}

// CreateToken handles POST /api/v1/tokens
func (h *TokenHandler) CreateToken(c *gin.Context) {
	user := middleware.GetUserFromContext(c)

	var req dto.CreateTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	issued, err := h.tokenService.CreateToken(c.Request.Context(), service.CreateTokenRequest{
		UserID:        user.ID,
		Name:          req.Name,
		ExpiresInDays: req.ExpiresInDays,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.CreateTokenResponse{
		Token:     issued.RawToken,
		Message:   "Token created. Copy it now, it will not be shown again.",
		TokenInfo: dto.NewTokenInfo(issued.Token),
	})
}

// RotateToken handles POST /api/v1/tokens/rotate
func (h *TokenHandler) RotateToken(c *gin.Context) {
	user := middleware.GetUserFromContext(c)

	issued, err := h.tokenService.RotateToken(c.Request.Context(), user.ID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.CreateTokenResponse{
		Token:     issued.RawToken,
		Message:   "Token rotated. The previous token no longer works.",
		TokenInfo: dto.NewTokenInfo(issued.Token),
	})
}

// DeleteToken handles DELETE /api/v1/tokens/:id
func (h *TokenHandler) DeleteToken(c *gin.Context) {
	user := middleware.GetUserFromContext(c)

	tokenID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handleError(c, apperrors.NotFoundOrUnauthorized("token"))
		return
	}

	if err := h.tokenService.DeleteToken(c.Request.Context(), user.ID, tokenID); err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Token deleted successfully"})
}
