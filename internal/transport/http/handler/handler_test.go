package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/setuphub/setuphub/internal/application/service"
	apperrors "github.com/setuphub/setuphub/pkg/errors"
	"github.com/setuphub/setuphub/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
		wantDetails bool
	}{
		{
			name:        "validation",
			err:         apperrors.ValidationError("editor_name", "editor name is invalid"),
			wantStatus:  http.StatusBadRequest,
			wantCode:    "bad_request",
			wantMessage: "editor name is invalid",
			wantDetails: true,
		},
		{
			name:        "ownership hidden",
			err:         fmt.Errorf("delete: %w", apperrors.NotFoundOrUnauthorized("setup")),
			wantStatus:  http.StatusNotFound,
			wantCode:    "not_found",
			wantMessage: "setup not found or unauthorized",
		},
		{
			name:        "conflict",
			err:         apperrors.Conflict("a token already exists", apperrors.ErrTokenExists),
			wantStatus:  http.StatusConflict,
			wantCode:    "conflict",
			wantMessage: "a token already exists",
		},
		{
			name:        "internal cause is not exposed",
			err:         apperrors.DatabaseError("insert star", errors.New("pq: connection refused")),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    "internal_error",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "plain error",
			err:         errors.New("boom"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    "internal_error",
			wantMessage: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			handleError(c, tt.err)

			require.Equal(t, tt.wantStatus, w.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body["error"])
			assert.Equal(t, tt.wantMessage, body["message"])
			_, hasDetails := body["details"]
			assert.Equal(t, tt.wantDetails, hasDetails)
			assert.Len(t, c.Errors, 1)
		})
	}
}

func TestStarStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusOK, starStatusCode(service.StarResult{Success: true}))
	assert.Equal(t, http.StatusUnauthorized, starStatusCode(service.StarResult{Message: service.MsgSignInToStar}))
	assert.Equal(t, http.StatusNotFound, starStatusCode(service.StarResult{Message: service.MsgSetupNotFound}))
	assert.Equal(t, http.StatusInternalServerError, starStatusCode(service.StarResult{Message: service.MsgStarUpdateFails}))
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestHealthHandler(t *testing.T) {
	engine := gin.New()
	engine.GET("/up", HealthHandler(pinger{}, logger.NewNop()))
	engine.GET("/down", HealthHandler(pinger{err: errors.New("refused")}, logger.NewNop()))

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/up", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/down", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotContains(t, w.Body.String(), "refused")
}
