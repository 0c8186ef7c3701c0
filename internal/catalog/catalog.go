// Package catalog describes the routes granted per role. The server hands each
// user the subset their roles allow; the console merges it into its dynamic
// route tier.
package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Route is a catalogue entry. An entry without roles is granted to everyone
// who is logged in.
type Route struct {
	Path     string   `yaml:"path" json:"path"`
	Name     string   `yaml:"name" json:"name,omitempty"`
	Title    string   `yaml:"title" json:"title,omitempty"`
	Icon     string   `yaml:"icon" json:"icon,omitempty"`
	Redirect string   `yaml:"redirect" json:"redirect,omitempty"`
	Hidden   bool     `yaml:"hidden" json:"hidden,omitempty"`
	Roles    []string `yaml:"roles" json:"roles,omitempty"`
}

// Catalog is the full set of dynamic routes
type Catalog struct {
	Routes []Route `yaml:"routes"`
}

const defaultCatalog = `
routes:
  - path: /permission
    name: Permission
    title: Permission
    icon: lock
    redirect: /permission/page
    roles: [admin, editor]
  - path: /permission/page
    name: PagePermission
    title: Page Permission
    roles: [admin]
  - path: /permission/directive
    name: DirectivePermission
    title: Directive Permission
    roles: [admin, editor]
  - path: /permission/role
    name: RolePermission
    title: Role Permission
    roles: [admin]
  - path: /icon
    name: Icons
    title: Icons
    icon: icon
  - path: /profile
    name: Profile
    title: Profile
    icon: user
    hidden: true
`

// Default returns the built-in catalogue
func Default() *Catalog {
	c, err := Parse([]byte(defaultCatalog))
	if err != nil {
		panic(err)
	}
	return c
}

// Load reads a catalogue from a YAML file
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read route catalogue: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalogue
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse route catalogue: %w", err)
	}

	seen := make(map[string]bool, len(c.Routes))
	for i, r := range c.Routes {
		if !strings.HasPrefix(r.Path, "/") {
			return nil, fmt.Errorf("route %d: path %q must start with '/'", i, r.Path)
		}
		if seen[r.Path] {
			return nil, fmt.Errorf("route %d: duplicate path %q", i, r.Path)
		}
		seen[r.Path] = true
	}
	return &c, nil
}

// ForRoles returns the routes visible to a user holding roles, in catalogue order
func (c *Catalog) ForRoles(roles []string) []Route {
	held := make(map[string]bool, len(roles))
	for _, r := range roles {
		held[r] = true
	}

	granted := make([]Route, 0, len(c.Routes))
	for _, route := range c.Routes {
		if len(route.Roles) == 0 {
			granted = append(granted, route)
			continue
		}
		for _, need := range route.Roles {
			if held[need] {
				granted = append(granted, route)
				break
			}
		}
	}
	return granted
}
