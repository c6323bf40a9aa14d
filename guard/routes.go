package guard

import (
	_ "embed"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"gopkg.in/yaml.v3"
)

//go:embed routes.yaml
var defaultRoutes []byte

// Meta is the access metadata attached to a route.
type Meta struct {
	RequiresAuth     bool `yaml:"requiresAuth" json:"requires_auth"`
	RequiresAdmin    bool `yaml:"requiresAdmin" json:"requires_admin"`
	RequiresUserRole bool `yaml:"requiresUserRole" json:"requires_user_role"`
}

func (m Meta) or(o Meta) Meta {
	return Meta{
		RequiresAuth:     m.RequiresAuth || o.RequiresAuth,
		RequiresAdmin:    m.RequiresAdmin || o.RequiresAdmin,
		RequiresUserRole: m.RequiresUserRole || o.RequiresUserRole,
	}
}

// Route is one entry of the route table. Child paths are relative to their parent.
type Route struct {
	Name     string  `yaml:"name" json:"name"`
	Path     string  `yaml:"path" json:"path"`
	Meta     Meta    `yaml:"meta" json:"meta"`
	Children []Route `yaml:"children,omitempty" json:"children,omitempty"`
}

// Target is a resolved navigation request.
type Target struct {
	Name     string
	Path     string
	FullPath string
	Params   map[string]string
	// Matched lists the route records from the outermost parent to the leaf.
	Matched []Route
}

// Meta combines the metadata of every matched record.
func (t Target) Meta() Meta {
	var m Meta
	for _, r := range t.Matched {
		m = m.or(r.Meta)
	}
	return m
}

type tableEntry struct {
	pattern string
	chain   []Route
}

// Table is the static route table consumed by the Guard.
type Table struct {
	routes    []Route
	mux       *chi.Mux
	byPattern map[string]tableEntry
	byName    map[string]string
}

var ErrDuplicateRoute = errors.New("duplicate route")

func NewTable(routes []Route) (*Table, error) {
	t := &Table{
		routes:    routes,
		mux:       chi.NewMux(),
		byPattern: make(map[string]tableEntry),
		byName:    make(map[string]string),
	}
	if err := t.add(routes, "", nil); err != nil {
		return nil, err
	}
	return t, nil
}

// LoadTable reads a YAML route table from file, or the embedded default when file is empty.
func LoadTable(file string) (*Table, error) {
	data := defaultRoutes
	if file != "" {
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read route table %s: %w", file, err)
		}
		data = b
	}
	var routes []Route
	if err := yaml.Unmarshal(data, &routes); err != nil {
		return nil, fmt.Errorf("parse route table: %w", err)
	}
	return NewTable(routes)
}

// DefaultTable returns the embedded route table.
func DefaultTable() *Table {
	t, err := LoadTable("")
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Table) add(routes []Route, parentPath string, parents []Route) error {
	for _, r := range routes {
		full := r.Path
		if !strings.HasPrefix(full, "/") {
			full = path.Join(parentPath, full)
		}
		full = cleanPath(full)
		pattern := toChiPattern(full)

		chain := append(append([]Route{}, parents...), r)
		if r.Name != "" {
			if _, exists := t.byName[r.Name]; exists {
				return fmt.Errorf("%w: name %q", ErrDuplicateRoute, r.Name)
			}
			t.byName[r.Name] = full
		}
		if _, exists := t.byPattern[pattern]; exists {
			return fmt.Errorf("%w: path %q", ErrDuplicateRoute, full)
		}
		t.byPattern[pattern] = tableEntry{pattern: pattern, chain: chain}
		t.mux.Get(pattern, http.NotFound)

		if err := t.add(r.Children, full, chain); err != nil {
			return err
		}
	}
	return nil
}

// Resolve matches a full path (optionally with a query) against the table.
func (t *Table) Resolve(fullPath string) (Target, bool) {
	u, err := url.Parse(fullPath)
	if err != nil {
		return Target{Path: fullPath, FullPath: fullPath}, false
	}
	p := cleanPath(u.Path)
	target := Target{Path: p, FullPath: fullPath}

	rctx := chi.NewRouteContext()
	if !t.mux.Match(rctx, http.MethodGet, p) {
		return target, false
	}
	entry, ok := t.byPattern[rctx.RoutePattern()]
	if !ok {
		return target, false
	}

	target.Matched = entry.chain
	target.Name = entry.chain[len(entry.chain)-1].Name
	target.Params = make(map[string]string, len(rctx.URLParams.Keys))
	for i, k := range rctx.URLParams.Keys {
		target.Params[k] = rctx.URLParams.Values[i]
	}
	return target, true
}

// Routes returns the route definitions the table was built from.
func (t *Table) Routes() []Route {
	return t.routes
}

// PathOf returns the path registered under name. Parameterized routes keep their ":param" segments.
func (t *Table) PathOf(name string) (string, bool) {
	p, ok := t.byName[name]
	return p, ok
}

func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

// toChiPattern rewrites ":param" segments as chi "{param}" segments.
func toChiPattern(p string) string {
	segments := strings.Split(p, "/")
	for i, s := range segments {
		if strings.HasPrefix(s, ":") {
			segments[i] = "{" + s[1:] + "}"
		}
	}
	return strings.Join(segments, "/")
}
