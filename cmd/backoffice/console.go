package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/naveenspark/backoffice/internal/config"
	"github.com/naveenspark/backoffice/internal/logging"
	"github.com/naveenspark/backoffice/internal/navigation"
	"github.com/naveenspark/backoffice/internal/permission"
	"github.com/naveenspark/backoffice/internal/router"
	"github.com/naveenspark/backoffice/internal/session"
	"github.com/naveenspark/backoffice/internal/storage"
	"github.com/naveenspark/backoffice/pkg/client"
)

// errSignedOut is returned by commands that need a session when there is none.
var errSignedOut = errors.New("not signed in (run: backoffice login)")

// console holds the wired core for one process.
type console struct {
	cfg     *config.Config
	logger  *zap.Logger
	kv      storage.Store
	api     *client.Client
	session *session.Store
	perms   *permission.Evaluator
	menu    *navigation.Menu
	router  *router.Router
	guard   *router.Guard

	stopWatch func()
}

// openConsole loads configuration and wires storage, the API client, the
// session store, the evaluator, the menu and the guarded router.
func openConsole(ctx context.Context, cfgPath string) (*console, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Logging, version)
	if err != nil {
		return nil, err
	}

	kv, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		logger.Sync() //nolint:errcheck
		return nil, fmt.Errorf("open storage: %w", err)
	}

	c := &console{cfg: cfg, logger: logger, kv: kv}

	// The client reads the token and company from the store at request time.
	var st *session.Store
	c.api = client.New(cfg.API.BaseURL,
		client.AuthFunc(func() (string, string) {
			if st == nil {
				return "", ""
			}
			return st.Token(), st.CompanyID()
		}),
		client.WithTimeout(cfg.API.Timeout),
		client.OnUnauthorized(func() {
			if st != nil {
				st.HandleUnauthorized()
			}
		}),
	)

	st, err = session.NewStore(ctx, c.api, kv, logger)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.session = st

	if cfg.Token != "" && cfg.Token != st.Token() {
		if err := st.Attempt(ctx, cfg.Token); err != nil {
			c.Close()
			return nil, fmt.Errorf("BACKOFFICE_TOKEN rejected: %w", err)
		}
	}

	c.perms = permission.New(st)

	tree, err := navigation.LoadOrDefault(cfg.Navigation.File)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.menu = navigation.NewMenu(tree, c.perms, st)

	routes, err := router.LoadRoutesOrDefault(cfg.Navigation.Routes)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.router = router.New(routes, router.WithLogger(logger))
	c.guard = router.NewGuard(st, c.perms, c.menu, cfg.Router, logger)
	c.stopWatch = c.guard.Watch(st.Subscribe)
	c.router.BeforeEach(c.guard.Check)

	logger.Debug("console ready",
		zap.String("api", cfg.API.BaseURL),
		zap.String("storage", cfg.Storage.Backend),
		zap.Stringer("state", st.State()))
	return c, nil
}

// verify re-checks the persisted token against the API. It returns
// errSignedOut when there is no token or the API rejects it.
func (c *console) verify(ctx context.Context) error {
	if !c.session.Authenticated() {
		return errSignedOut
	}
	if err := c.session.Attempt(ctx, c.session.Token()); err != nil {
		if client.Classify(err) == client.KindAuth {
			return errSignedOut
		}
		return err
	}
	return nil
}

// Close releases storage and flushes the logger.
func (c *console) Close() {
	if c.stopWatch != nil {
		c.stopWatch()
	}
	if c.kv != nil {
		if err := c.kv.Close(); err != nil {
			c.logger.Warn("close storage", zap.Error(err))
		}
	}
	c.logger.Sync() //nolint:errcheck
}
