// Package navigation holds the static menu tree and prunes it to what the
// current session may see.
package navigation

import (
	"slices"

	"github.com/naveenspark/backoffice/pkg/domain"
)

// Checker answers permission checks. *permission.Evaluator satisfies it.
type Checker interface {
	Can(permission string) bool
}

// RoleSource exposes the session's authoritative role name.
type RoleSource interface {
	RoleName() string
}

// Filter returns the items visible to the session. Groups survive only
// through visible descendants. A leaf with RequiredRole is shown only to
// that exact role, with no admin bypass; a leaf with neither gate is public;
// any other leaf needs its Permission. Sibling order is preserved and items
// is never modified.
func Filter(items []domain.NavItem, ev Checker, role RoleSource) []domain.NavItem {
	out := make([]domain.NavItem, 0, len(items))
	for _, item := range items {
		if item.HasChildren() {
			children := Filter(item.Children, ev, role)
			if len(children) == 0 {
				continue
			}
			item.Children = children
			out = append(out, item)
			continue
		}
		if visible(item, ev, role) {
			out = append(out, item)
		}
	}
	return out
}

func visible(item domain.NavItem, ev Checker, role RoleSource) bool {
	switch {
	case item.RequiredRole != "":
		return role.RoleName() == item.RequiredRole
	case item.Permission == "":
		return true
	default:
		return ev.Can(item.Permission)
	}
}

// RequiredRole returns the role gate of the item routing to routeName,
// searching depth-first. It returns "" when no item matches or the item has
// no role gate.
func RequiredRole(items []domain.NavItem, routeName string) string {
	if routeName == "" {
		return ""
	}
	for _, item := range items {
		if item.To == routeName {
			return item.RequiredRole
		}
		if r := RequiredRole(item.Children, routeName); r != "" {
			return r
		}
	}
	return ""
}

// Entry is a flattened tree item with its depth.
type Entry struct {
	domain.NavItem
	Depth int
}

// Flatten walks items depth-first, parents before children.
func Flatten(items []domain.NavItem) []Entry {
	var out []Entry
	var walk func([]domain.NavItem, int)
	walk = func(items []domain.NavItem, depth int) {
		for _, item := range items {
			out = append(out, Entry{NavItem: item, Depth: depth})
			walk(item.Children, depth+1)
		}
	}
	walk(items, 0)
	return out
}

// Clone deep-copies a tree.
func Clone(items []domain.NavItem) []domain.NavItem {
	if items == nil {
		return nil
	}
	out := slices.Clone(items)
	for i := range out {
		out[i].Children = Clone(out[i].Children)
	}
	return out
}
