package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_ConstantRoutesMatch(t *testing.T) {
	table := New(ConstantRoutes())

	for _, path := range []string{"/login", "/404", "/", "/dashboard", "/demo", "/demo/demo1", "/demo/demo2"} {
		_, ok := table.Match(path)
		assert.True(t, ok, "expected %s to match", path)
	}

	route, ok := table.Match("/dashboard")
	require.True(t, ok)
	assert.Equal(t, "Dashboard", route.Name)

	_, ok = table.Match("/permission/page")
	assert.False(t, ok)
}

func TestTable_ResetDropsDynamicRoutes(t *testing.T) {
	table := New(ConstantRoutes())

	require.NoError(t, table.AddRoutes(
		Route{Path: "/permission/page", Name: "PagePermission", Roles: []string{"admin"}},
		Route{Path: "/article/{id}", Name: "Article"},
	))

	_, ok := table.Match("/permission/page")
	require.True(t, ok)
	route, ok := table.Match("/article/42")
	require.True(t, ok)
	assert.Equal(t, "Article", route.Name)
	assert.Len(t, table.Dynamic(), 2)

	table.Reset()

	_, ok = table.Match("/permission/page")
	assert.False(t, ok)
	_, ok = table.Match("/article/42")
	assert.False(t, ok)
	assert.Empty(t, table.Dynamic())
	assert.Equal(t, ConstantRoutes(), table.Routes())

	// Constant routes survive any number of resets
	table.Reset()
	_, ok = table.Match("/demo/demo2")
	assert.True(t, ok)
}

func TestTable_AddRoutesDedupes(t *testing.T) {
	table := New(ConstantRoutes())

	require.NoError(t, table.AddRoutes(
		Route{Path: "/dashboard", Name: "Shadow"},
		Route{Path: "/reports", Name: "Reports"},
		Route{Path: "/reports", Name: "ReportsAgain"},
	))
	require.NoError(t, table.AddRoutes(Route{Path: "/reports", Name: "Later"}))

	dashboard, _ := table.Match("/dashboard")
	assert.Equal(t, "Dashboard", dashboard.Name, "constant route wins")

	reports, _ := table.Match("/reports")
	assert.Equal(t, "Reports", reports.Name, "first dynamic route wins")
	assert.Len(t, table.Dynamic(), 1)
}

func TestTable_AddRoutesRejectsBadPaths(t *testing.T) {
	table := New(ConstantRoutes())

	err := table.AddRoutes(Route{Path: "relative"})
	require.Error(t, err)
	assert.Empty(t, table.Dynamic(), "failed add leaves the table untouched")
}

func TestTable_Lookup(t *testing.T) {
	table := New(ConstantRoutes())
	require.NoError(t, table.AddRoutes(Route{Path: "/reports", Name: "Reports"}))

	route, ok := table.Lookup("Reports")
	require.True(t, ok)
	assert.Equal(t, "/reports", route.Path)

	_, ok = table.Lookup("Missing")
	assert.False(t, ok)
}

func TestTable_ServeHTTP(t *testing.T) {
	table := New(ConstantRoutes())

	tests := []struct {
		name     string
		path     string
		status   int
		location string
	}{
		{"view", "/dashboard", http.StatusOK, ""},
		{"root redirect", "/", http.StatusFound, "/dashboard"},
		{"nested redirect", "/demo", http.StatusFound, "/demo/demo1"},
		{"unknown goes to 404", "/nope", http.StatusFound, NotFoundPath},
		{"404 view", "/404", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			table.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.status, rec.Code)
			if tt.location != "" {
				assert.Equal(t, tt.location, rec.Header().Get("Location"))
			}
		})
	}

	rec := httptest.NewRecorder()
	table.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/demo/demo2", nil))
	var view map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "Demo2", view["view"])
}

func TestTable_CustomRenderer(t *testing.T) {
	table := New(ConstantRoutes(), WithRenderer(func(w http.ResponseWriter, r *http.Request, route Route) {
		w.Write([]byte("view:" + route.Name))
	}))

	rec := httptest.NewRecorder()
	table.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
	assert.Equal(t, "view:Login", rec.Body.String())
}

func TestTable_ConcurrentResetAndMatch(t *testing.T) {
	table := New(ConstantRoutes())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if i%2 == 0 {
					_ = table.AddRoutes(Route{Path: "/reports", Name: "Reports"})
					table.Reset()
				} else {
					_, ok := table.Match("/dashboard")
					assert.True(t, ok)
				}
			}
		}()
	}
	wg.Wait()
}
