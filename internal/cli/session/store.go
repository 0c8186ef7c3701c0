// Package session owns the console's login state. State is only changed
// through the store's operations, each of which commits after its HTTP call
// has returned.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/adminkit-dev/adminkit/internal/cli/api"
	"github.com/adminkit-dev/adminkit/internal/cli/auth"
	"github.com/adminkit-dev/adminkit/internal/cli/router"
)

// ErrLoginAgain is returned when the server has no profile for the token
var ErrLoginAgain = errors.New("please log in again")

// State is a snapshot of the session. Name and Avatar only mean something
// while Token is set.
type State struct {
	Token  string
	Name   string
	Avatar string
}

// Credentials are what the user typed on the login form
type Credentials struct {
	Username string
	Password string
}

// UserAPI is the slice of the admin API the store calls
type UserAPI interface {
	Login(ctx context.Context, req api.LoginRequest) (*api.LoginResponse, error)
	GetInfo(ctx context.Context, token string) (*api.UserInfo, error)
	Logout(ctx context.Context, token string) error
	Routes(ctx context.Context, token string) ([]router.Route, error)
}

// Router is the route table the store resets on logout
type Router interface {
	AddRoutes(routes ...router.Route) error
	Reset()
}

// Store holds the session state. Operations are not serialized against each
// other; concurrent login and logout resolve as last write wins.
type Store struct {
	api    UserAPI
	tokens auth.TokenStore
	router Router
	logger zerolog.Logger

	mu    sync.RWMutex
	state State
}

// NewStore creates a store seeded with the persisted token
func NewStore(userAPI UserAPI, tokens auth.TokenStore, rt Router, logger zerolog.Logger) *Store {
	s := &Store{
		api:    userAPI,
		tokens: tokens,
		router: rt,
		logger: logger,
	}
	s.state = State{Token: s.persistedToken()}
	return s
}

// State returns a copy of the current state
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Login trims the username, authenticates, and stores the returned token in
// memory first and then in the token store.
func (s *Store) Login(ctx context.Context, creds Credentials) error {
	resp, err := s.api.Login(ctx, api.LoginRequest{
		Username: strings.TrimSpace(creds.Username),
		Password: creds.Password,
	})
	if err != nil {
		return err
	}

	s.setToken(resp.Token)
	if err := s.tokens.Set(resp.Token); err != nil {
		return fmt.Errorf("failed to persist token: %w", err)
	}

	s.logger.Debug().Msg("Logged in")
	return nil
}

// GetInfo loads the profile for the current token and records name and avatar
func (s *Store) GetInfo(ctx context.Context) (*api.UserInfo, error) {
	info, err := s.api.GetInfo(ctx, s.State().Token)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, ErrLoginAgain
	}

	s.setName(info.Name)
	s.setAvatar(info.Avatar)
	return info, nil
}

// Logout ends the session on the server, then clears the persisted token,
// resets the router and resets the state, in that order. The token goes first
// so that anything evaluated during the router rebuild sees a logged out user.
func (s *Store) Logout(ctx context.Context) error {
	if err := s.api.Logout(ctx, s.State().Token); err != nil {
		return err
	}

	if err := s.tokens.Remove(); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	s.router.Reset()
	s.resetState()

	s.logger.Debug().Msg("Logged out")
	return nil
}

// ResetToken drops the session locally without calling the server. It always
// succeeds; a failure to clear the persisted token is only logged.
func (s *Store) ResetToken(ctx context.Context) error {
	if err := s.tokens.Remove(); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to clear persisted token")
	}
	s.resetState()
	return nil
}

// GenerateRoutes fetches the routes granted to the current user and merges
// them into the router's dynamic tier.
func (s *Store) GenerateRoutes(ctx context.Context) ([]router.Route, error) {
	token := s.State().Token
	if token == "" {
		return nil, ErrLoginAgain
	}

	routes, err := s.api.Routes(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.router.AddRoutes(routes...); err != nil {
		return nil, fmt.Errorf("failed to add routes: %w", err)
	}
	return routes, nil
}

// Mutation points

func (s *Store) setToken(token string) {
	s.mu.Lock()
	s.state.Token = token
	s.mu.Unlock()
}

func (s *Store) setName(name string) {
	s.mu.Lock()
	s.state.Name = name
	s.mu.Unlock()
}

func (s *Store) setAvatar(avatar string) {
	s.mu.Lock()
	s.state.Avatar = avatar
	s.mu.Unlock()
}

// resetState restores the empty defaults in one step
func (s *Store) resetState() {
	s.mu.Lock()
	s.state = State{}
	s.mu.Unlock()
}

func (s *Store) persistedToken() string {
	token, err := s.tokens.Get()
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to read persisted token")
		return ""
	}
	return token
}
