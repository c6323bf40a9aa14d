package guard

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestTable_Resolve(t *testing.T) {
	table := DefaultTable()

	tests := []struct {
		path   string
		name   string
		meta   Meta
		params map[string]string
	}{
		{"/", "home", Meta{}, nil},
		{"/scoreboard/12", "scoreboard-match", Meta{}, map[string]string{"id": "12"}},
		{"/admin", "admin", Meta{RequiresAuth: true, RequiresAdmin: true}, nil},
		{"/admin/match/9", "match-control", Meta{RequiresAuth: true, RequiresAdmin: true}, map[string]string{"id": "9"}},
		{"/admin/tournaments/builder", "tournament-builder", Meta{RequiresAuth: true, RequiresAdmin: true}, nil},
		{"/admin/tournaments/division/d1", "division-management", Meta{RequiresAuth: true, RequiresAdmin: true}, map[string]string{"divisionId": "d1"}},
		{"/dashboard/", "user-dashboard", Meta{RequiresAuth: true, RequiresUserRole: true}, nil},
		{"/profile?tab=prefs", "profile", Meta{RequiresAuth: true}, nil},
	}
	for _, tt := range tests {
		target, ok := table.Resolve(tt.path)
		if !ok {
			t.Errorf("%s: expected a match", tt.path)
			continue
		}
		if target.Name != tt.name {
			t.Errorf("%s: expected route %q, got %q", tt.path, tt.name, target.Name)
		}
		if target.Meta() != tt.meta {
			t.Errorf("%s: expected meta %+v, got %+v", tt.path, tt.meta, target.Meta())
		}
		if target.FullPath != tt.path {
			t.Errorf("%s: full path not preserved, got %q", tt.path, target.FullPath)
		}
		for k, v := range tt.params {
			if target.Params[k] != v {
				t.Errorf("%s: expected param %s=%q, got %q", tt.path, k, v, target.Params[k])
			}
		}
	}

	if _, ok := table.Resolve("/nowhere"); ok {
		t.Error("expected no match for unknown path")
	}
}

func TestTable_PathOf(t *testing.T) {
	table := DefaultTable()
	if p, ok := table.PathOf("login"); !ok || p != "/login" {
		t.Errorf("expected /login, got %q (%v)", p, ok)
	}
	if p, ok := table.PathOf("user-management"); !ok || p != "/admin/users" {
		t.Errorf("expected /admin/users, got %q (%v)", p, ok)
	}
}

func TestNewTable_RejectsDuplicates(t *testing.T) {
	_, err := NewTable([]Route{{Name: "a", Path: "/a"}, {Name: "a", Path: "/b"}})
	if !errors.Is(err, ErrDuplicateRoute) {
		t.Fatalf("expected ErrDuplicateRoute, got %v", err)
	}
}

func TestLoadTable_FromFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "routes.yaml")
	data := []byte("- name: home\n  path: /\n- name: secret\n  path: /secret\n  meta: { requiresAuth: true }\n")
	if err := os.WriteFile(file, data, 0o600); err != nil {
		t.Fatal(err)
	}
	table, err := LoadTable(file)
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}
	target, ok := table.Resolve("/secret")
	if !ok || !target.Meta().RequiresAuth {
		t.Fatalf("expected protected /secret route, got %+v", target)
	}
}
