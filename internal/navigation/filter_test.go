package navigation

import (
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"testing"

	"github.com/naveenspark/backoffice/pkg/domain"
)

type stubSession struct {
	role  string
	perms []string
	admin bool
}

func (s stubSession) Can(p string) bool {
	if p == "" {
		return false
	}
	return s.admin || slices.Contains(s.perms, p)
}

func (s stubSession) RoleName() string { return s.role }

func titles(items []domain.NavItem) []string {
	var out []string
	for _, e := range Flatten(items) {
		out = append(out, e.Title)
	}
	return out
}

func TestFilterKeepsOnlyPassingChild(t *testing.T) {
	tree := []domain.NavItem{
		{Title: "Group", Permission: "GROUP.VIEW", Children: []domain.NavItem{
			{Title: "Fail", To: "fail", Permission: "FAIL.VIEW"},
			{Title: "Pass", To: "pass", Permission: "PASS.VIEW"},
		}},
	}
	s := stubSession{perms: []string{"PASS.VIEW"}}

	got := Filter(tree, s, s)
	if len(got) != 1 {
		t.Fatalf("got %d top-level items, want 1", len(got))
	}
	if len(got[0].Children) != 1 || got[0].Children[0].Title != "Pass" {
		t.Errorf("children = %v, want [Pass]", titles(got[0].Children))
	}
}

func TestFilterDropsEmptyGroup(t *testing.T) {
	tree := []domain.NavItem{
		{Title: "Group", Children: []domain.NavItem{
			{Title: "A", To: "a", Permission: "A.VIEW"},
		}},
		{Title: "Home", To: "root"},
	}
	s := stubSession{}

	got := titles(Filter(tree, s, s))
	if !reflect.DeepEqual(got, []string{"Home"}) {
		t.Errorf("got %v, want [Home]", got)
	}
}

func TestFilterRequiredRole(t *testing.T) {
	tree := []domain.NavItem{
		{Title: "Dashboard", To: "super-admin-dashboard", RequiredRole: domain.RoleSuperAdmin},
		{Title: "Users", To: "users", Permission: "USERS.VIEW"},
	}

	tests := []struct {
		name string
		s    stubSession
		want []string
	}{
		{"admin bypass does not apply to role gate", stubSession{role: domain.RoleAdmin, admin: true}, []string{"Users"}},
		{"matching role", stubSession{role: domain.RoleSuperAdmin, admin: true}, []string{"Dashboard", "Users"}},
		{"role match is exact", stubSession{role: "super admin"}, nil},
		{"no role", stubSession{perms: []string{"USERS.VIEW"}}, []string{"Users"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := titles(Filter(tree, tt.s, tt.s))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterPreservesOrder(t *testing.T) {
	s := stubSession{role: domain.RoleSuperAdmin, admin: true}
	all := titles(Default())
	got := titles(Filter(Default(), s, s))
	if !reflect.DeepEqual(got, all) {
		t.Errorf("super admin should see the full tree in order\n got  %v\n want %v", got, all)
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	tree := Default()
	before := Clone(tree)
	s := stubSession{perms: []string{"SUBJECTS.VIEW"}}

	_ = Filter(tree, s, s)
	if !reflect.DeepEqual(tree, before) {
		t.Error("Filter modified its input")
	}
}

func TestFilterDefaultTreeForAdmin(t *testing.T) {
	s := stubSession{role: domain.RoleAdmin, admin: true}
	got := titles(Filter(Default(), s, s))
	for _, hidden := range []string{"Super Admin Dashboard", "Companies", "Admins"} {
		if slices.Contains(got, hidden) {
			t.Errorf("%q visible to ADMIN", hidden)
		}
	}
	for _, shown := range []string{"Home", "Analytics", "Masters", "Values"} {
		if !slices.Contains(got, shown) {
			t.Errorf("%q hidden from ADMIN", shown)
		}
	}
}

func TestMenuRecomputes(t *testing.T) {
	s := &mutableSession{}
	m := NewMenu(Default(), s, s)

	if got := titles(m.Items()); !reflect.DeepEqual(got, []string{"Home"}) {
		t.Fatalf("anonymous menu = %v", got)
	}
	s.perms = []string{"GRADES.VIEW"}
	want := []string{"Home", "Content Management", "Grades"}
	if got := titles(m.Items()); !reflect.DeepEqual(got, want) {
		t.Errorf("menu = %v, want %v", got, want)
	}
}

type mutableSession struct {
	perms []string
}

func (s *mutableSession) Can(p string) bool { return slices.Contains(s.perms, p) }
func (s *mutableSession) RoleName() string  { return "" }

func TestRequiredRole(t *testing.T) {
	tree := Default()
	tests := []struct {
		route string
		want  string
	}{
		{"company", domain.RoleSuperAdmin},
		{"users-admin", domain.RoleSuperAdmin},
		{"users", ""},
		{"missing", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := RequiredRole(tree, tt.route); got != tt.want {
			t.Errorf("RequiredRole(%q) = %q, want %q", tt.route, got, tt.want)
		}
	}

	nested := []domain.NavItem{{Title: "G", Children: []domain.NavItem{
		{Title: "Audit", To: "audit", RequiredRole: "AUDITOR"},
	}}}
	if got := RequiredRole(nested, "audit"); got != "AUDITOR" {
		t.Errorf("nested lookup = %q", got)
	}
}

func TestFlattenDepth(t *testing.T) {
	entries := Flatten(Default())
	var depths = map[string]int{}
	for _, e := range entries {
		depths[e.Title] = e.Depth
	}
	if depths["Masters"] != 0 || depths["Values"] != 1 {
		t.Errorf("depths = %v", depths)
	}
	if len(entries) != 21 {
		t.Errorf("got %d entries, want 21", len(entries))
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nav.yaml")
	doc := `items:
  - title: Reports
    to: reports
    permission: REPORTS.VIEW
  - title: Admin
    children:
      - title: Audit
        to: audit
        required_role: AUDITOR
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	items, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(items) != 2 || items[1].Children[0].RequiredRole != "AUDITOR" {
		t.Errorf("items = %+v", items)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"unknown field", "items:\n  - title: A\n    to: a\n    colour: red\n", "colour"},
		{"missing title", "items:\n  - to: a\n", "no title"},
		{"leaf without route", "items:\n  - title: A\n", "no route"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestLoadOrDefault(t *testing.T) {
	items, err := LoadOrDefault("")
	if err != nil || len(items) != len(Default()) {
		t.Fatalf("LoadOrDefault(\"\") = %d items, %v", len(items), err)
	}
	if _, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
