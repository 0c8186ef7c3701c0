package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/adminkit-dev/adminkit/internal/auth"
	"github.com/adminkit-dev/adminkit/internal/config"
	"github.com/adminkit-dev/adminkit/internal/models"
)

type testEnvelope struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.HTTP.CORSOrigins = []string{"http://localhost:9528"}
	cfg.Session.TokenTTL = time.Hour
	cfg.Session.PurgeSchedule = "@hourly"
	return cfg
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	s, err := NewWithDB(db, testConfig(), zerolog.Nop(), "test")
	require.NoError(t, err)
	return s
}

func doJSON(t *testing.T, s *Server, method, path string, body any, token string) (int, testEnvelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var env testEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func setupAdmin(t *testing.T, s *Server) {
	t.Helper()
	status, env := doJSON(t, s, http.MethodPost, "/api/setup", SetupRequest{
		Username: "admin",
		Password: "secret123",
		Name:     "Super Admin",
		Phone:    "13800138000",
	}, "")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, CodeOK, env.Code)
}

func createUser(t *testing.T, s *Server, username, password string, roles ...string) *models.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	user := &models.User{Username: username, PasswordHash: hash, Name: username}
	user.SetRoles(roles)
	require.NoError(t, s.db.Create(user).Error)
	return user
}

func loginToken(t *testing.T, s *Server, username, password string) string {
	t.Helper()
	_, env := doJSON(t, s, http.MethodPost, "/api/user/login", LoginRequest{Username: username, Password: password}, "")
	require.Equal(t, CodeOK, env.Code, env.Message)

	var data LoginData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.Token)
	return data.Token
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"online"`)
}

func TestNewWithDB_ReusesJWTSecret(t *testing.T) {
	s := newTestServer(t)

	var first models.Config
	require.NoError(t, s.db.First(&first).Error)

	require.NoError(t, initJWT(s.db, zerolog.Nop()))

	var count int64
	require.NoError(t, s.db.Model(&models.Config{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSetup(t *testing.T) {
	s := newTestServer(t)

	t.Run("rejects invalid phone", func(t *testing.T) {
		status, env := doJSON(t, s, http.MethodPost, "/api/setup", SetupRequest{
			Username: "admin",
			Password: "secret123",
			Name:     "Admin",
			Phone:    "12345",
		}, "")
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, CodeValidation, env.Code)
	})

	t.Run("creates the first admin", func(t *testing.T) {
		status, env := doJSON(t, s, http.MethodPost, "/api/setup", SetupRequest{
			Username: "admin",
			Password: "secret123",
			Name:     "Admin",
		}, "")
		require.Equal(t, http.StatusOK, status)
		require.Equal(t, CodeOK, env.Code)

		var data LoginData
		require.NoError(t, json.Unmarshal(env.Data, &data))
		assert.NotEmpty(t, data.Token)

		var user models.User
		require.NoError(t, s.db.Where("username = ?", "admin").First(&user).Error)
		assert.Equal(t, []string{"admin"}, user.RoleList())
	})

	t.Run("refuses a second setup", func(t *testing.T) {
		status, env := doJSON(t, s, http.MethodPost, "/api/setup", SetupRequest{
			Username: "other",
			Password: "secret123",
			Name:     "Other",
		}, "")
		assert.Equal(t, http.StatusConflict, status)
		assert.Equal(t, CodeSetupCompleted, env.Code)
	})
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	setupAdmin(t, s)

	t.Run("wrong password", func(t *testing.T) {
		status, env := doJSON(t, s, http.MethodPost, "/api/user/login", LoginRequest{Username: "admin", Password: "nope"}, "")
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, CodeInvalidCredentials, env.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		status, env := doJSON(t, s, http.MethodPost, "/api/user/login", LoginRequest{Username: "ghost", Password: "secret123"}, "")
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, CodeInvalidCredentials, env.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		status, env := doJSON(t, s, http.MethodPost, "/api/user/login", map[string]string{"username": "admin"}, "")
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, CodeValidation, env.Code)
	})

	t.Run("records last login", func(t *testing.T) {
		token := loginToken(t, s, "admin", "secret123")

		claims, err := auth.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, "admin", claims.Username)

		var user models.User
		require.NoError(t, s.db.Where("username = ?", "admin").First(&user).Error)
		assert.NotNil(t, user.LastLoginAt)
	})
}

func TestGetInfo(t *testing.T) {
	s := newTestServer(t)
	setupAdmin(t, s)
	token := loginToken(t, s, "admin", "secret123")

	t.Run("token in query", func(t *testing.T) {
		_, env := doJSON(t, s, http.MethodGet, "/api/user/info?token="+token, nil, "")
		require.Equal(t, CodeOK, env.Code)

		var info UserInfo
		require.NoError(t, json.Unmarshal(env.Data, &info))
		assert.Equal(t, "Super Admin", info.Name)
		assert.Equal(t, defaultAvatar, info.Avatar)
		assert.Equal(t, []string{"admin"}, info.Roles)
		assert.NotNil(t, info.LastLoginAt)
	})

	t.Run("token in header", func(t *testing.T) {
		_, env := doJSON(t, s, http.MethodGet, "/api/user/info", nil, token)
		assert.Equal(t, CodeOK, env.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		status, env := doJSON(t, s, http.MethodGet, "/api/user/info", nil, "")
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, CodeInvalidToken, env.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, env := doJSON(t, s, http.MethodGet, "/api/user/info?token=garbage", nil, "")
		assert.Equal(t, CodeInvalidToken, env.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		issued, err := auth.GenerateToken("someone", "admin", []string{"admin"}, -time.Minute)
		require.NoError(t, err)

		status, env := doJSON(t, s, http.MethodGet, "/api/user/info?token="+issued.Token, nil, "")
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, CodeSessionExpired, env.Code)
	})

	t.Run("deleted user yields empty data", func(t *testing.T) {
		ghost := createUser(t, s, "ghost", "secret123", "editor")
		ghostToken := loginToken(t, s, "ghost", "secret123")
		require.NoError(t, s.db.Delete(ghost).Error)

		_, env := doJSON(t, s, http.MethodGet, "/api/user/info?token="+ghostToken, nil, "")
		assert.Equal(t, CodeOK, env.Code)
		assert.Equal(t, "null", string(env.Data))
	})
}

func TestListRoutes(t *testing.T) {
	s := newTestServer(t)
	createUser(t, s, "admin", "secret123", "admin")
	createUser(t, s, "editor", "secret123", "editor")

	paths := func(token string) []string {
		_, env := doJSON(t, s, http.MethodGet, "/api/user/routes", nil, token)
		require.Equal(t, CodeOK, env.Code)

		var routes []struct {
			Path string `json:"path"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &routes))
		out := make([]string, 0, len(routes))
		for _, r := range routes {
			out = append(out, r.Path)
		}
		return out
	}

	adminPaths := paths(loginToken(t, s, "admin", "secret123"))
	assert.Contains(t, adminPaths, "/permission/page")
	assert.Contains(t, adminPaths, "/permission/role")
	assert.Contains(t, adminPaths, "/icon")

	editorPaths := paths(loginToken(t, s, "editor", "secret123"))
	assert.Contains(t, editorPaths, "/permission")
	assert.Contains(t, editorPaths, "/permission/directive")
	assert.NotContains(t, editorPaths, "/permission/page")
	assert.NotContains(t, editorPaths, "/permission/role")
}

func TestLogout_RevokesToken(t *testing.T) {
	s := newTestServer(t)
	setupAdmin(t, s)
	token := loginToken(t, s, "admin", "secret123")

	// Token in the JSON body, the way the console sends it
	_, env := doJSON(t, s, http.MethodPost, "/api/user/logout", map[string]string{"token": token}, "")
	require.Equal(t, CodeOK, env.Code)

	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	revoked, err := models.IsRevoked(s.db, claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)

	_, env = doJSON(t, s, http.MethodGet, "/api/user/info?token="+token, nil, "")
	assert.Equal(t, CodeInvalidToken, env.Code)

	// A fresh login is unaffected
	fresh := loginToken(t, s, "admin", "secret123")
	_, env = doJSON(t, s, http.MethodGet, "/api/user/info", nil, fresh)
	assert.Equal(t, CodeOK, env.Code)
}

func TestPurgeRevocations(t *testing.T) {
	s := newTestServer(t)

	now := time.Now()
	require.NoError(t, s.db.Create(&models.RevokedToken{JTI: "old", ExpiresAt: now.Add(-time.Hour)}).Error)
	require.NoError(t, s.db.Create(&models.RevokedToken{JTI: "live", ExpiresAt: now.Add(time.Hour)}).Error)

	s.purgeRevocations()

	var remaining []models.RevokedToken
	require.NoError(t, s.db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, "live", remaining[0].JTI)
}

func TestStartPurgeScheduler_InvalidSchedule(t *testing.T) {
	s := newTestServer(t)
	s.config.Session.PurgeSchedule = "not a schedule"

	err := s.startPurgeScheduler()
	assert.ErrorContains(t, err, "invalid purge schedule")
}
