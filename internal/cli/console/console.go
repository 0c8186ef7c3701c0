// Package console serves the admin console locally: session endpoints backed
// by the session store, and the route table behind a login guard.
package console

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/adminkit-dev/adminkit/internal/cli/client"
	"github.com/adminkit-dev/adminkit/internal/cli/router"
	"github.com/adminkit-dev/adminkit/internal/cli/session"
	"github.com/adminkit-dev/adminkit/internal/util"
)

const (
	LoginPath = "/login"
	HomePath  = "/"
)

// whitelist is reachable without a token
var whitelist = []string{LoginPath, router.NotFoundPath}

// Console is the HTTP handler of the local console
type Console struct {
	store  *session.Store
	table  *router.Table
	logger zerolog.Logger
	mux    *chi.Mux

	// routesLoaded is set once the dynamic tier has been fetched for the
	// current token
	routesLoaded atomic.Bool
}

// New creates a console over store and table. The store must drive the same
// table so that logout clears the dynamic routes.
func New(store *session.Store, table *router.Table, logger zerolog.Logger) *Console {
	c := &Console{
		store:  store,
		table:  table,
		logger: logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(c.logRequests)

	r.Route("/session", func(r chi.Router) {
		r.Post("/login", c.login)
		r.Get("/info", c.info)
		r.Post("/logout", c.logout)
		r.Post("/reset", c.reset)
	})
	r.Handle("/*", http.HandlerFunc(c.guard))

	c.mux = r
	return c
}

func (c *Console) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.mux.ServeHTTP(w, r)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Redirect string         `json:"redirect"`
	Routes   []router.Route `json:"routes"`
}

type profileResponse struct {
	Name   string   `json:"name"`
	Avatar string   `json:"avatar"`
	Roles  []string `json:"roles"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (c *Console) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if err := c.store.Login(r.Context(), session.Credentials{Username: req.Username, Password: req.Password}); err != nil {
		c.writeError(w, err)
		return
	}

	routes, err := c.loadRoutes(r)
	if err != nil {
		c.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Redirect: redirectTarget(r),
		Routes:   routes,
	})
}

func (c *Console) info(w http.ResponseWriter, r *http.Request) {
	info, err := c.store.GetInfo(r.Context())
	if err != nil {
		c.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{Name: info.Name, Avatar: info.Avatar, Roles: info.Roles})
}

func (c *Console) logout(w http.ResponseWriter, r *http.Request) {
	if err := c.store.Logout(r.Context()); err != nil {
		c.writeError(w, err)
		return
	}
	c.routesLoaded.Store(false)
	w.WriteHeader(http.StatusNoContent)
}

func (c *Console) reset(w http.ResponseWriter, r *http.Request) {
	_ = c.store.ResetToken(r.Context())
	c.table.Reset()
	c.routesLoaded.Store(false)
	w.WriteHeader(http.StatusNoContent)
}

// guard sends visitors without a token to the login page, and loads the
// dynamic routes on the first request that carries one.
func (c *Console) guard(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	if c.store.State().Token == "" {
		if slices.Contains(whitelist, path) {
			c.table.ServeHTTP(w, r)
			return
		}
		c.redirectToLogin(w, r)
		return
	}

	if path == LoginPath {
		http.Redirect(w, r, HomePath, http.StatusFound)
		return
	}

	if !c.routesLoaded.Load() {
		if _, err := c.store.GetInfo(r.Context()); err != nil {
			c.dropSession(w, r, err)
			return
		}
		if _, err := c.loadRoutes(r); err != nil {
			c.dropSession(w, r, err)
			return
		}
	}

	c.table.ServeHTTP(w, r)
}

func (c *Console) loadRoutes(r *http.Request) ([]router.Route, error) {
	routes, err := c.store.GenerateRoutes(r.Context())
	if err != nil {
		return nil, err
	}
	c.routesLoaded.Store(true)
	return routes, nil
}

// dropSession clears a token the server no longer accepts
func (c *Console) dropSession(w http.ResponseWriter, r *http.Request, err error) {
	c.logger.Warn().Err(err).Str("path", r.URL.Path).Msg("Session rejected, resetting token")
	_ = c.store.ResetToken(r.Context())
	c.table.Reset()
	c.routesLoaded.Store(false)
	c.redirectToLogin(w, r)
}

func (c *Console) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	target := LoginPath + "?redirect=" + url.QueryEscape(r.URL.RequestURI())
	http.Redirect(w, r, target, http.StatusFound)
}

// redirectTarget is where the login page should go next. Only local paths
// are honoured.
func redirectTarget(r *http.Request) string {
	redirect := util.ParseQuery(r.URL.String())["redirect"]
	if !isLocalPath(redirect) {
		return HomePath
	}
	return redirect
}

// isLocalPath rejects anything a browser could resolve to another origin.
// Browsers read '\' as '/', so "/\host" is protocol relative too.
func isLocalPath(target string) bool {
	if !strings.HasPrefix(target, "/") || strings.ContainsRune(target, '\\') {
		return false
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return false
	}
	return !strings.HasPrefix(target, "//")
}

func (c *Console) writeError(w http.ResponseWriter, err error) {
	var apiErr *client.APIError
	var transportErr *client.TransportError

	switch {
	case errors.As(err, &apiErr):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: apiErr.Message, Code: apiErr.Code})
	case errors.Is(err, session.ErrLoginAgain):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
	case errors.As(err, &transportErr):
		c.logger.Error().Err(err).Msg("Admin API request failed")
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "admin API unavailable"})
	default:
		c.logger.Error().Err(err).Msg("Console request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

func (c *Console) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		c.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("Console request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
