package domain

// NavItem is a node of the static navigation tree. A node with children is
// visible only through its descendants; its own Permission and RequiredRole
// are ignored.
type NavItem struct {
	Title        string    `json:"title" yaml:"title"`
	To           string    `json:"to,omitempty" yaml:"to,omitempty"` // route name
	Icon         string    `json:"icon,omitempty" yaml:"icon,omitempty"`
	Permission   string    `json:"permission,omitempty" yaml:"permission,omitempty"`
	RequiredRole string    `json:"required_role,omitempty" yaml:"required_role,omitempty"`
	Children     []NavItem `json:"children,omitempty" yaml:"children,omitempty"`
}

// HasChildren reports whether the item is a group.
func (n NavItem) HasChildren() bool {
	return len(n.Children) > 0
}
