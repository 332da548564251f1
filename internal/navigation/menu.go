package navigation

import (
	"github.com/naveenspark/backoffice/pkg/domain"
)

// Menu pairs the static tree with the live session. Items is recomputed on
// every call so a new session never sees a previous one's menu.
type Menu struct {
	tree []domain.NavItem
	ev   Checker
	role RoleSource
}

// NewMenu copies tree; later changes to the caller's slice are not seen.
func NewMenu(tree []domain.NavItem, ev Checker, role RoleSource) *Menu {
	return &Menu{tree: Clone(tree), ev: ev, role: role}
}

// Items returns the filtered menu.
func (m *Menu) Items() []domain.NavItem {
	return Filter(m.tree, m.ev, m.role)
}

// Tree returns a copy of the unfiltered tree.
func (m *Menu) Tree() []domain.NavItem {
	return Clone(m.tree)
}

// RequiredRole looks up the role gate for routeName in the unfiltered tree.
func (m *Menu) RequiredRole(routeName string) string {
	return RequiredRole(m.tree, routeName)
}
