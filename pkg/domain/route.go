package domain

// RouteMeta is the metadata a route declares for the guard.
type RouteMeta struct {
	Public        bool   `yaml:"public,omitempty"`
	Permission    string `yaml:"permission,omitempty"`
	Title         string `yaml:"title,omitempty"`
	NavActiveLink string `yaml:"nav_active_link,omitempty"`
}

// Route is an application route. In a route table Path is a pattern such as
// /schools/edit/:id; a resolved route carries the concrete path and the
// matched Params.
type Route struct {
	Name   string            `yaml:"name"`
	Path   string            `yaml:"path"`
	Meta   RouteMeta         `yaml:"meta,omitempty"`
	Params map[string]string `yaml:"-"`
}

// IsZero reports whether r is the empty route, i.e. there was no previous
// navigation.
func (r Route) IsZero() bool {
	return r.Name == "" && r.Path == ""
}
