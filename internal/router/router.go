// Package router resolves console paths to routes and runs the guards that
// decide whether a navigation proceeds or is redirected.
package router

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/naveenspark/backoffice/pkg/domain"
)

var (
	// ErrNoRoute is returned for a path no route matches.
	ErrNoRoute = errors.New("no route matches path")

	// ErrRedirectLoop is returned when guards keep redirecting past the
	// redirect limit.
	ErrRedirectLoop = errors.New("too many redirects")
)

const defaultMaxRedirects = 8

// Decision is a guard's verdict on a navigation.
type Decision struct {
	redirect string
}

// Proceed lets the navigation continue.
func Proceed() Decision { return Decision{} }

// RedirectTo replaces the navigation with one to path.
func RedirectTo(path string) Decision { return Decision{redirect: path} }

// Redirect returns the redirect target, if any.
func (d Decision) Redirect() (string, bool) {
	return d.redirect, d.redirect != ""
}

func (d Decision) String() string {
	if d.redirect == "" {
		return "proceed"
	}
	return "redirect " + d.redirect
}

// GuardFunc runs before every navigation. from is the zero Route on the
// first navigation of the process.
type GuardFunc func(ctx context.Context, to, from domain.Route) Decision

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the router's logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Router) { r.logger = l.Named("router") }
}

// WithMaxRedirects bounds the redirects followed by one Push.
func WithMaxRedirects(n int) Option {
	return func(r *Router) {
		if n > 0 {
			r.maxRedirects = n
		}
	}
}

// Router holds the route table, registered guards and the current route.
type Router struct {
	routes       []domain.Route
	maxRedirects int
	logger       *zap.Logger

	mu      sync.Mutex
	guards  []GuardFunc
	current domain.Route
}

// New creates a router over a copy of routes.
func New(routes []domain.Route, opts ...Option) *Router {
	r := &Router{
		routes:       slices.Clone(routes),
		maxRedirects: defaultMaxRedirects,
		logger:       zap.NewNop(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// BeforeEach registers a guard. Guards run in registration order and the
// first redirect wins.
func (r *Router) BeforeEach(g GuardFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.guards = append(r.guards, g)
}

// Routes returns a copy of the route table.
func (r *Router) Routes() []domain.Route {
	return slices.Clone(r.routes)
}

// Current returns the route of the last completed navigation.
func (r *Router) Current() domain.Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneRoute(r.current)
}

// Lookup finds a route by name.
func (r *Router) Lookup(name string) (domain.Route, bool) {
	i := slices.IndexFunc(r.routes, func(rt domain.Route) bool { return rt.Name == name })
	if i < 0 {
		return domain.Route{}, false
	}
	return cloneRoute(r.routes[i]), true
}

// PathFor builds the concrete path of a named route.
func (r *Router) PathFor(name string, params map[string]string) (string, error) {
	rt, ok := r.Lookup(name)
	if !ok {
		return "", fmt.Errorf("router.PathFor %q: %w", name, ErrNoRoute)
	}
	segs := split(rt.Path)
	for i, s := range segs {
		if !strings.HasPrefix(s, ":") {
			continue
		}
		v, ok := params[s[1:]]
		if !ok || v == "" {
			return "", fmt.Errorf("router.PathFor %q: missing param %s", name, s[1:])
		}
		segs[i] = v
	}
	return "/" + strings.Join(segs, "/"), nil
}

// Resolve matches path against the table. Static routes win over patterns;
// a query string and trailing slash are ignored.
func (r *Router) Resolve(path string) (domain.Route, error) {
	clean := normalize(path)
	segs := split(clean)

	for _, rt := range r.routes {
		if !strings.Contains(rt.Path, ":") && normalize(rt.Path) == clean {
			out := cloneRoute(rt)
			out.Path = clean
			return out, nil
		}
	}
	for _, rt := range r.routes {
		if !strings.Contains(rt.Path, ":") {
			continue
		}
		if params, ok := match(split(rt.Path), segs); ok {
			out := cloneRoute(rt)
			out.Path = clean
			out.Params = params
			return out, nil
		}
	}
	return domain.Route{}, fmt.Errorf("router.Resolve %q: %w", path, ErrNoRoute)
}

// Push navigates to path. Guards are run against the resolved route and
// redirects are followed until a guard lets the navigation proceed; from
// stays the route current before Push.
func (r *Router) Push(ctx context.Context, path string) (domain.Route, error) {
	r.mu.Lock()
	from := cloneRoute(r.current)
	guards := slices.Clone(r.guards)
	r.mu.Unlock()

	target := path
	for hops := 0; ; hops++ {
		if hops > r.maxRedirects {
			return domain.Route{}, fmt.Errorf("router.Push %q: %w", path, ErrRedirectLoop)
		}
		if err := ctx.Err(); err != nil {
			return domain.Route{}, fmt.Errorf("router.Push %q: %w", path, err)
		}
		to, err := r.Resolve(target)
		if err != nil {
			return domain.Route{}, err
		}

		redirect := ""
		for _, g := range guards {
			if p, ok := g(ctx, to, from).Redirect(); ok {
				redirect = p
				break
			}
		}
		if redirect == "" {
			r.mu.Lock()
			r.current = to
			r.mu.Unlock()
			r.logger.Debug("navigated", zap.String("route", to.Name), zap.String("path", to.Path))
			return cloneRoute(to), nil
		}
		r.logger.Debug("redirected",
			zap.String("from", to.Path),
			zap.String("to", redirect))
		target = redirect
	}
}

func normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = "/" + strings.Trim(path, "/")
	return path
}

func split(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func match(pattern, segs []string) (map[string]string, bool) {
	if len(pattern) != len(segs) {
		return nil, false
	}
	params := make(map[string]string)
	for i, p := range pattern {
		if strings.HasPrefix(p, ":") {
			if segs[i] == "" {
				return nil, false
			}
			params[p[1:]] = segs[i]
			continue
		}
		if p != segs[i] {
			return nil, false
		}
	}
	return params, true
}

func cloneRoute(rt domain.Route) domain.Route {
	rt.Params = maps.Clone(rt.Params)
	return rt
}
