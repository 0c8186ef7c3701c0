// Package router holds the console's route table. The table has a constant
// tier that is always present and a dynamic tier that is merged in after login.
// Every change builds a fresh matcher and swaps it in whole, so Reset never has
// to work out which routes were added.
package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-chi/chi/v5"

	"github.com/adminkit-dev/adminkit/internal/util"
)

// NotFoundPath is where unmatched paths are redirected
const NotFoundPath = "/404"

// Route binds a path to a view
type Route struct {
	Path     string   `json:"path"`
	Name     string   `json:"name,omitempty"`
	Title    string   `json:"title,omitempty"`
	Icon     string   `json:"icon,omitempty"`
	Redirect string   `json:"redirect,omitempty"`
	Hidden   bool     `json:"hidden,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

// Renderer writes the view for a matched route
type Renderer func(w http.ResponseWriter, r *http.Request, route Route)

// ConstantRoutes is the base set that needs no permissions
func ConstantRoutes() []Route {
	return []Route{
		{Path: "/login", Name: "Login", Hidden: true},
		{Path: NotFoundPath, Name: "NotFound", Hidden: true},
		{Path: "/", Redirect: "/dashboard"},
		{Path: "/dashboard", Name: "Dashboard", Title: "首页", Icon: "dashboard"},
		{Path: "/demo", Name: "Demo", Title: "Demo", Icon: "el-icon-s-help", Redirect: "/demo/demo1"},
		{Path: "/demo/demo1", Name: "Demo1", Title: "Demo1", Icon: "table"},
		{Path: "/demo/demo2", Name: "Demo2", Title: "Demo2", Icon: "tree"},
	}
}

// Table is a two-tier route table. It is safe for concurrent use.
type Table struct {
	constant []Route
	renderer Renderer

	// mu serializes rebuilds; readers only load current
	mu      sync.Mutex
	current atomic.Pointer[matcher]
}

type matcher struct {
	mux       *chi.Mux
	dynamic   []Route
	byPattern map[string]Route
}

// Option configures a Table
type Option func(*Table)

// WithRenderer sets how matched views are written
func WithRenderer(r Renderer) Option {
	return func(t *Table) { t.renderer = r }
}

// New creates a table whose constant tier is constant. It panics if a constant
// route cannot be registered, since that is a programming error.
func New(constant []Route, opts ...Option) *Table {
	t := &Table{
		constant: util.UniqueBy(constant, func(r Route) string { return r.Path }),
		renderer: JSONRenderer,
	}
	for _, opt := range opts {
		opt(t)
	}

	m, err := t.build(nil)
	if err != nil {
		panic(err)
	}
	t.current.Store(m)
	return t
}

// AddRoutes merges routes into the dynamic tier. Paths already in the table are
// skipped, as are later duplicates within routes.
func (t *Table) AddRoutes(routes ...Route) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	cur := t.current.Load()
	merged := append(append([]Route(nil), cur.dynamic...), routes...)
	for _, r := range merged {
		if !strings.HasPrefix(r.Path, "/") {
			return fmt.Errorf("route path %q must start with '/'", r.Path)
		}
	}

	m, err := t.build(merged)
	if err != nil {
		return err
	}
	t.current.Store(m)
	return nil
}

// Reset discards the matcher and rebuilds it from the constant tier only
func (t *Table) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	m, err := t.build(nil)
	if err != nil {
		// The constant tier already built once in New
		panic(err)
	}
	t.current.Store(m)
}

// Match returns the route for path
func (t *Table) Match(path string) (Route, bool) {
	m := t.current.Load()
	rctx := chi.NewRouteContext()
	if !m.mux.Match(rctx, http.MethodGet, path) {
		return Route{}, false
	}
	route, ok := m.byPattern[rctx.RoutePattern()]
	return route, ok
}

// Routes returns the constant tier followed by the dynamic tier
func (t *Table) Routes() []Route {
	m := t.current.Load()
	out := make([]Route, 0, len(t.constant)+len(m.dynamic))
	out = append(out, t.constant...)
	return append(out, m.dynamic...)
}

// Dynamic returns only the routes added since the last reset
func (t *Table) Dynamic() []Route {
	return append([]Route(nil), t.current.Load().dynamic...)
}

// Lookup finds a route by name
func (t *Table) Lookup(name string) (Route, bool) {
	_, route, ok := util.FindBy(t.Routes(), func(r Route) bool { return r.Name == name })
	return route, ok
}

// ServeHTTP renders the matched view. Redirect routes redirect, and paths that
// match nothing are sent to NotFoundPath.
func (t *Table) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	t.current.Load().mux.ServeHTTP(w, r)
}

func (t *Table) build(dynamic []Route) (m *matcher, err error) {
	defer func() {
		// chi panics on conflicting patterns
		if rec := recover(); rec != nil {
			m, err = nil, fmt.Errorf("invalid route table: %v", rec)
		}
	}()

	all := util.UniqueBy(append(append([]Route(nil), t.constant...), dynamic...), func(r Route) string { return r.Path })

	m = &matcher{
		mux:       chi.NewRouter(),
		dynamic:   all[len(t.constant):],
		byPattern: make(map[string]Route, len(all)),
	}
	for _, route := range all {
		m.byPattern[route.Path] = route
		m.mux.Get(route.Path, t.handlerFor(route))
	}
	m.mux.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == NotFoundPath {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, NotFoundPath, http.StatusFound)
	})
	return m, nil
}

func (t *Table) handlerFor(route Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if route.Redirect != "" {
			http.Redirect(w, r, route.Redirect, http.StatusFound)
			return
		}
		t.renderer(w, r, route)
	}
}

// JSONRenderer writes the route itself as the view
func JSONRenderer(w http.ResponseWriter, r *http.Request, route Route) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"view":  route.Name,
		"title": route.Title,
		"path":  r.URL.Path,
	})
}
