package commands

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/adminkit-dev/adminkit/internal/cli/api"
	"github.com/adminkit-dev/adminkit/internal/cli/config"
)

// mockTokenStore is a simple in-memory token store for testing
type mockTokenStore struct {
	mu    sync.Mutex
	token string
}

func (m *mockTokenStore) Get() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *mockTokenStore) Set(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *mockTokenStore) Remove() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}

// mockAPI answers the user endpoints for username/password and a fixed token
type mockAPI struct {
	username string
	password string
	token    string
	// expiredCode, when set, is returned for every token-bearing request
	expiredCode string

	mu         sync.Mutex
	logoutSeen string
}

func (m *mockAPI) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		reject := func() bool {
			if m.expiredCode != "" {
				json.NewEncoder(w).Encode(map[string]any{"code": m.expiredCode, "message": "expired"})
				return true
			}
			return false
		}

		switch r.URL.Path {
		case api.LoginPath:
			var req api.LoginRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("failed to decode request: %v", err)
			}
			if req.Username != m.username || req.Password != m.password {
				w.Write([]byte(`{"code":"10001","message":"Invalid username or password"}`))
				return
			}
			json.NewEncoder(w).Encode(map[string]any{"code": "0", "data": map[string]string{"token": m.token}})
		case api.InfoPath:
			if reject() {
				return
			}
			if r.URL.Query().Get("token") != m.token {
				w.Write([]byte(`{"code":"10009","message":"Invalid token"}`))
				return
			}
			w.Write([]byte(`{"code":"0","data":{"name":"Super Admin","avatar":"https://example.com/a.gif","roles":["admin"],"introduction":"I am a super administrator","last_login_at":"2024-01-02T03:04:05Z"}}`))
		case api.RoutesPath:
			if reject() {
				return
			}
			w.Write([]byte(`{"code":"0","data":[{"path":"/permission","name":"Permission","title":"Permission","redirect":"/permission/page"},{"path":"/permission/page","name":"PagePermission","title":"Page Permission"},{"path":"/profile","name":"Profile","hidden":true}]}`))
		case api.LogoutPath:
			var body api.LogoutRequest
			json.NewDecoder(r.Body).Decode(&body)
			m.mu.Lock()
			m.logoutSeen = body.Token
			m.mu.Unlock()
			w.Write([]byte(`{"code":"0"}`))
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

type testEnv struct {
	api    *mockAPI
	server *config.Server
	tokens *mockTokenStore
	out    *bytes.Buffer
	errOut *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mock := &mockAPI{username: "admin", password: "password123", token: "jwt-token-abc"}
	srv := httptest.NewServer(mock.handler(t))
	t.Cleanup(srv.Close)

	return &testEnv{
		api:    mock,
		server: &config.Server{URL: srv.URL, Alias: "test-server"},
		tokens: &mockTokenStore{},
		out:    &bytes.Buffer{},
		errOut: &bytes.Buffer{},
	}
}

func (e *testEnv) opts() []Option {
	return []Option{WithServer(e.server), WithTokenStore(e.tokens), WithOutput(e.out, e.errOut)}
}

func (m *mockAPI) seenLogout() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.logoutSeen
}
