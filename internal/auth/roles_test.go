package auth

import "testing"

func TestNormalizeRole(t *testing.T) {
	cases := []struct {
		value string
		role  Role
		ok    bool
	}{
		{"viewer", RoleViewer, true},
		{"operator", RoleOperator, true},
		{"admin", RoleAdmin, true},
		{"Viewer", "", false},
		{"root", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		role, ok := NormalizeRole(c.value)
		if role != c.role || ok != c.ok {
			t.Fatalf("normalize %q: expected (%q, %v), got (%q, %v)", c.value, c.role, c.ok, role, ok)
		}
	}
}

func TestRoleAtLeast(t *testing.T) {
	cases := []struct {
		role     Role
		required Role
		expected bool
	}{
		{RoleViewer, RoleViewer, true},
		{RoleViewer, RoleOperator, false},
		{RoleOperator, RoleViewer, true},
		{RoleOperator, RoleAdmin, false},
		{RoleAdmin, RoleOperator, true},
		{Role("root"), RoleViewer, false},
	}
	for _, c := range cases {
		if got := RoleAtLeast(c.role, c.required); got != c.expected {
			t.Fatalf("%q at least %q: expected %v, got %v", c.role, c.required, c.expected, got)
		}
	}
}
