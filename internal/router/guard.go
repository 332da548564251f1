package router

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/naveenspark/backoffice/internal/config"
	"github.com/naveenspark/backoffice/pkg/domain"
)

// Session is the part of the session store the guard drives.
type Session interface {
	Authenticated() bool
	Token() string
	RoleName() string
	Attempt(ctx context.Context, token string) error
	LogOut(ctx context.Context)
}

// Checker answers permission checks.
type Checker interface {
	Can(permission string) bool
}

// RoleLookup finds the role a route name requires in the navigation tree.
type RoleLookup interface {
	RequiredRole(routeName string) string
}

// Guard authenticates and authorizes navigations. The whoami call is made
// once per session lifetime, on the process's first navigation; later
// navigations are checked against the already loaded session.
type Guard struct {
	session      Session
	ev           Checker
	roles        RoleLookup
	login        string
	landing      string
	unauthorized string
	logger       *zap.Logger

	// nil unless concurrent first navigations share one verification.
	group *singleflight.Group

	mu       sync.Mutex
	verified bool
}

// NewGuard builds a guard from the router config.
func NewGuard(s Session, ev Checker, roles RoleLookup, cfg config.RouterConfig, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Guard{
		session:      s,
		ev:           ev,
		roles:        roles,
		login:        cfg.LoginPath,
		landing:      cfg.LandingPath,
		unauthorized: cfg.UnauthorizedPath,
		logger:       logger.Named("guard"),
	}
	if cfg.CoalesceVerification {
		g.group = &singleflight.Group{}
	}
	return g
}

// Check is the GuardFunc.
func (g *Guard) Check(ctx context.Context, to, from domain.Route) Decision {
	isLogin := to.Path == g.login

	if !g.session.Authenticated() {
		g.setVerified(false)
		if isLogin || to.Meta.Public {
			return Proceed()
		}
		return RedirectTo(g.login)
	}

	if from.IsZero() && !g.Verified() {
		if err := g.verify(ctx); err != nil {
			g.logger.Warn("verification failed", zap.String("path", to.Path), zap.Error(err))
			g.session.LogOut(ctx)
			g.setVerified(false)
			if isLogin {
				return Proceed()
			}
			return RedirectTo(g.login)
		}
		g.setVerified(true)
		if isLogin {
			return RedirectTo(g.landing)
		}
		return g.authorize(to)
	}

	if isLogin {
		return RedirectTo(g.landing)
	}
	if to.Path == g.unauthorized {
		return Proceed()
	}
	return g.authorize(to)
}

// Verified reports whether whoami has succeeded this session lifetime.
func (g *Guard) Verified() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.verified
}

// Reset forgets the verification so the next first navigation re-verifies.
func (g *Guard) Reset() {
	g.setVerified(false)
}

// Watch resets the guard whenever the session is cleared. It returns the
// unsubscribe function.
func (g *Guard) Watch(subscribe func(func(domain.Session)) func()) func() {
	return subscribe(func(s domain.Session) {
		if !s.Authenticated() {
			g.Reset()
		}
	})
}

func (g *Guard) authorize(to domain.Route) Decision {
	if role := g.roles.RequiredRole(to.Name); role != "" && g.session.RoleName() != role {
		g.logger.Info("route denied by role",
			zap.String("route", to.Name),
			zap.String("required_role", role))
		return RedirectTo(g.unauthorized)
	}
	if p := to.Meta.Permission; p != "" && !g.ev.Can(p) {
		g.logger.Info("route denied by permission",
			zap.String("route", to.Name),
			zap.String("permission", p))
		return RedirectTo(g.unauthorized)
	}
	return Proceed()
}

func (g *Guard) verify(ctx context.Context) error {
	if g.group == nil {
		return g.session.Attempt(ctx, g.session.Token())
	}
	_, err, shared := g.group.Do("verify", func() (any, error) {
		return nil, g.session.Attempt(ctx, g.session.Token())
	})
	if shared {
		g.logger.Debug("joined in-flight verification")
	}
	return err
}

func (g *Guard) setVerified(v bool) {
	g.mu.Lock()
	g.verified = v
	g.mu.Unlock()
}
