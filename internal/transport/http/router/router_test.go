package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/setuphub/setuphub/internal/application/service"
	"github.com/setuphub/setuphub/internal/config"
	"github.com/setuphub/setuphub/internal/domain/models"
	"github.com/setuphub/setuphub/internal/infrastructure/database"
	"github.com/setuphub/setuphub/internal/infrastructure/storage"
	"github.com/setuphub/setuphub/internal/injectable"
	"github.com/setuphub/setuphub/internal/observability"
	"github.com/setuphub/setuphub/internal/server"
	"github.com/setuphub/setuphub/internal/testutil"
	"github.com/setuphub/setuphub/pkg/logger"
)

type testAPI struct {
	engine *gin.Engine
	deps   *injectable.Dependencies
	db     *database.Database
	cfg    *config.Config
}

func newTestAPI(t *testing.T, mutate ...func(*config.Config)) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Server: config.ServerConfig{
			Mode:        gin.TestMode,
			FrontendURL: "http://localhost:3000",
		},
		Auth: config.DefaultAuthConfig(),
	}
	cfg.Auth.Session.Secret = strings.Repeat("k", 32)
	for _, fn := range mutate {
		fn(cfg)
	}

	db := testutil.NewDatabase(t)
	blobs, err := storage.NewFilesystemStorage(t.TempDir())
	require.NoError(t, err)

	log := logger.NewNop()
	deps, err := injectable.LoadDependencies(context.Background(), cfg, db, observability.NewMetrics(), log,
		injectable.WithIdentityProvider(nil),
		injectable.WithStorage(blobs),
	)
	require.NoError(t, err)

	srv := server.New(cfg, db, log)
	NewRouter(srv, deps).RegisterRoutes()

	return &testAPI{engine: srv.Engine, deps: deps, db: db, cfg: cfg}
}

func (a *testAPI) do(t *testing.T, method, path string, body interface{}, opts ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}

	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func (a *testAPI) issueToken(t *testing.T, user *models.User) string {
	t.Helper()
	issued, err := a.deps.TokenService.CreateToken(context.Background(), service.CreateTokenRequest{
		UserID: user.ID,
		Name:   "extension",
	})
	require.NoError(t, err)
	return issued.RawToken
}

func bearer(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthz(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["database"])
}

func TestAuthMe(t *testing.T) {
	api := newTestAPI(t)
	alice := testutil.CreateUser(t, api.db.DB(), "alice")
	token := api.issueToken(t, alice)

	t.Run("anonymous", func(t *testing.T) {
		w := api.do(t, http.MethodGet, "/api/v1/auth/me", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "unauthorized", decode(t, w)["error"])
	})

	t.Run("personal access token", func(t *testing.T) {
		w := api.do(t, http.MethodGet, "/api/v1/auth/me", nil, bearer(token))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		body := decode(t, w)
		user := body["user"].(map[string]interface{})
		session := body["session"].(map[string]interface{})
		assert.Equal(t, "alice", user["username"])
		assert.Equal(t, alice.ID.String(), session["user_id"])
		assert.Nil(t, session["ip_address"])
		assert.Nil(t, session["user_agent"])
	})

	t.Run("invalid token", func(t *testing.T) {
		w := api.do(t, http.MethodGet, "/api/v1/auth/me", nil, bearer("shub_not-a-real-token"))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("session cookie", func(t *testing.T) {
		value, _, err := api.deps.SessionService.CreateSession(context.Background(), alice, "127.0.0.1", "test")
		require.NoError(t, err)

		w := api.do(t, http.MethodGet, "/api/v1/auth/me", nil, func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: api.cfg.Auth.Session.CookieName, Value: value})
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "alice", decode(t, w)["user"].(map[string]interface{})["username"])
	})
}

func TestAuthConfig_SignInDisabled(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/api/v1/auth/config", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["enabled"])
}

func TestTokens(t *testing.T) {
	api := newTestAPI(t)
	bob := testutil.CreateUser(t, api.db.DB(), "bob")
	token := api.issueToken(t, bob)

	w := api.do(t, http.MethodGet, "/api/v1/tokens", nil, bearer(token))
	require.Equal(t, http.StatusOK, w.Code)
	info := decode(t, w)["token"].(map[string]interface{})
	assert.Equal(t, "extension", info["name"])

	w = api.do(t, http.MethodPost, "/api/v1/tokens", map[string]string{"name": "second"}, bearer(token))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = api.do(t, http.MethodPost, "/api/v1/tokens/rotate", nil, bearer(token))
	require.Equal(t, http.StatusOK, w.Code)
	rotated := decode(t, w)["token"].(string)
	assert.NotEqual(t, token, rotated)

	// the old secret stops working immediately
	w = api.do(t, http.MethodGet, "/api/v1/auth/me", nil, bearer(token))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = api.do(t, http.MethodGet, "/api/v1/auth/me", nil, bearer(rotated))
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(t, http.MethodDelete, "/api/v1/tokens/not-a-uuid", nil, bearer(rotated))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStarToggle(t *testing.T) {
	api := newTestAPI(t)
	owner := testutil.CreateUser(t, api.db.DB(), "owner")
	fan := testutil.CreateUser(t, api.db.DB(), "fan")
	setup := testutil.CreateSetup(t, api.db.DB(), owner, "vscode", true)
	token := api.issueToken(t, fan)
	path := "/api/v1/setups/" + setup.ID.String() + "/star"

	t.Run("anonymous", func(t *testing.T) {
		w := api.do(t, http.MethodPost, path, nil)
		require.Equal(t, http.StatusUnauthorized, w.Code)
		body := decode(t, w)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "Sign in to star setups", body["message"])
		assert.NotContains(t, body, "star_count")
	})

	t.Run("star then unstar", func(t *testing.T) {
		w := api.do(t, http.MethodPost, path, nil, bearer(token))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		body := decode(t, w)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, true, body["is_starred"])
		assert.EqualValues(t, 1, body["star_count"])

		w = api.do(t, http.MethodGet, path, nil, bearer(token))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, decode(t, w)["is_starred"])

		w = api.do(t, http.MethodPost, path, nil, bearer(token))
		require.Equal(t, http.StatusOK, w.Code)
		body = decode(t, w)
		assert.Equal(t, false, body["is_starred"])
		assert.EqualValues(t, 0, body["star_count"])
	})

	t.Run("anonymous status", func(t *testing.T) {
		w := api.do(t, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, false, body["is_starred"])
		assert.EqualValues(t, 0, body["star_count"])
	})

	t.Run("unknown setup", func(t *testing.T) {
		w := api.do(t, http.MethodPost, "/api/v1/setups/00000000-0000-0000-0000-000000000000/star", nil, bearer(token))
		require.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Setup not found", decode(t, w)["message"])
	})
}

func TestPrivateSetupHiddenFromOthers(t *testing.T) {
	api := newTestAPI(t)
	owner := testutil.CreateUser(t, api.db.DB(), "owner")
	other := testutil.CreateUser(t, api.db.DB(), "other")
	setup := testutil.CreateSetup(t, api.db.DB(), owner, "zed", false)
	path := "/api/v1/setups/" + setup.ID.String()

	w := api.do(t, http.MethodGet, path, nil, bearer(api.issueToken(t, other)))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, http.MethodGet, path, nil, bearer(api.issueToken(t, owner)))
	assert.Equal(t, http.StatusOK, w.Code)

	// starring a setup you cannot see looks like a missing setup
	w = api.do(t, http.MethodPost, path+"/star", nil, bearer(api.issueToken(t, testutil.CreateUser(t, api.db.DB(), "third"))))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSyncAndList(t *testing.T) {
	api := newTestAPI(t)
	carol := testutil.CreateUser(t, api.db.DB(), "carol")
	token := api.issueToken(t, carol)

	sync := map[string]interface{}{
		"editor_name":  "cursor",
		"display_name": "Carol's Cursor",
		"description":  "Minimal and dark",
		"content": map[string]interface{}{
			"theme":      "Tokyo Night",
			"extensions": []map[string]string{{"id": "esbenp.prettier-vscode"}},
			"settings":   map[string]interface{}{"editor.tabSize": 2},
		},
	}

	w := api.do(t, http.MethodPost, "/api/v1/setups/sync", sync)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(t, http.MethodPost, "/api/v1/setups/sync", sync, bearer(token))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	first := decode(t, w)
	assert.Equal(t, "cursor", first["editor_name"])

	// a second sync replaces the same row
	sync["display_name"] = "Carol's Cursor v2"
	w = api.do(t, http.MethodPost, "/api/v1/setups/sync", sync, bearer(token))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, first["id"], decode(t, w)["id"])

	w = api.do(t, http.MethodGet, "/api/v1/setups?editor=cursor&sort=stars", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 1, body["total"])

	w = api.do(t, http.MethodGet, "/api/v1/users/carol/setups", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["total"])
}

func TestSyncRateLimited(t *testing.T) {
	api := newTestAPI(t, func(cfg *config.Config) {
		cfg.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 1}
	})
	dave := testutil.CreateUser(t, api.db.DB(), "dave")
	token := api.issueToken(t, dave)
	sync := map[string]interface{}{"editor_name": "vim", "display_name": "Vim"}

	w := api.do(t, http.MethodPost, "/api/v1/setups/sync", sync, bearer(token))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(t, http.MethodPost, "/api/v1/setups/sync", sync, bearer(token))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestOpenAPIDocument(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/docs/openapi.json", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	paths := body["paths"].(map[string]interface{})
	assert.Contains(t, paths, "/api/v1/setups/{id}/star")
	assert.Contains(t, paths, "/api/v1/auth/me")
	assert.Contains(t, paths, "/api/v1/users/{username}/banner")

	w = api.do(t, http.MethodGet, "/docs/openapi.yaml", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "openapi:")
}
