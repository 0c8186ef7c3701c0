package api

import (
	"context"
	"fmt"

	"github.com/adminkit-dev/adminkit/internal/cli/client"
	"github.com/adminkit-dev/adminkit/internal/cli/router"
)

// Endpoint paths of the admin API
const (
	LoginPath  = "/api/user/login"
	InfoPath   = "/api/user/info"
	LogoutPath = "/api/user/logout"
	RoutesPath = "/api/user/routes"
)

// HTTPClient is the transport the user service needs
type HTTPClient interface {
	Get(ctx context.Context, path string, params map[string]string) (*client.Envelope, error)
	Post(ctx context.Context, path string, body any) (*client.Envelope, error)
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the data returned by a successful login
type LoginResponse struct {
	Token string `json:"token"`
}

// UserInfo is the profile of the logged-in user
type UserInfo struct {
	Name         string   `json:"name"`
	Avatar       string   `json:"avatar"`
	Roles        []string `json:"roles"`
	Introduction string   `json:"introduction,omitempty"`
	LastLoginAt  string   `json:"last_login_at,omitempty"`
}

// LogoutRequest represents the logout request body
type LogoutRequest struct {
	Token string `json:"token"`
}

// UserService binds the user endpoints of the admin API
type UserService struct {
	http HTTPClient
}

// NewUserService creates a user service on top of c
func NewUserService(c HTTPClient) *UserService {
	return &UserService{http: c}
}

// Login exchanges credentials for a token. Transport errors are returned as is.
func (s *UserService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	env, err := s.http.Post(ctx, LoginPath, req)
	if err != nil {
		return nil, err
	}
	if err := env.Err(); err != nil {
		return nil, err
	}

	var resp LoginResponse
	if err := env.DecodeData(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode login response: %w", err)
	}
	return &resp, nil
}

// GetInfo fetches the profile for token. It returns a nil UserInfo and no
// error when the server answers without a payload.
func (s *UserService) GetInfo(ctx context.Context, token string) (*UserInfo, error) {
	env, err := s.http.Get(ctx, InfoPath, map[string]string{"token": token})
	if err != nil {
		return nil, err
	}
	if err := env.Err(); err != nil {
		return nil, err
	}
	if !env.HasData() {
		return nil, nil
	}

	var info UserInfo
	if err := env.DecodeData(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	return &info, nil
}

// Logout invalidates token on the server
func (s *UserService) Logout(ctx context.Context, token string) error {
	env, err := s.http.Post(ctx, LogoutPath, LogoutRequest{Token: token})
	if err != nil {
		return err
	}
	return env.Err()
}

// Routes fetches the dynamic routes the user's roles grant
func (s *UserService) Routes(ctx context.Context, token string) ([]router.Route, error) {
	env, err := s.http.Get(ctx, RoutesPath, map[string]string{"token": token})
	if err != nil {
		return nil, err
	}
	if err := env.Err(); err != nil {
		return nil, err
	}
	if !env.HasData() {
		return nil, nil
	}

	var routes []router.Route
	if err := env.DecodeData(&routes); err != nil {
		return nil, fmt.Errorf("failed to decode routes: %w", err)
	}
	return routes, nil
}
