// Package session owns the client-side authentication state: token, user,
// active company and permission set.
//
// A Store is constructed once per process and injected into everything that
// reads the session. Every mutation is mirrored to durable storage, and a
// new Store rehydrates the previous run's session so a restart resumes
// without logging in again.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/naveenspark/backoffice/internal/storage"
	"github.com/naveenspark/backoffice/pkg/domain"
)

// Storage keys.
const (
	KeyAuth    = "auth"
	KeyCompany = "company"
)

var (
	// ErrVerificationFailed wraps every failed whoami verification. The
	// session has been cleared when it is returned.
	ErrVerificationFailed = errors.New("session verification failed")

	// ErrNoToken is returned by LogIn when the login response has no token.
	ErrNoToken = errors.New("login response carried no token")

	// ErrUnknownCompany is returned by SetCompany for a company the user
	// does not belong to.
	ErrUnknownCompany = errors.New("company not assigned to user")

	errNoUser = errors.New("whoami response carried no user")
)

// State is the session lifecycle state.
type State int

const (
	StateAnonymous State = iota
	StateVerifying
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateVerifying:
		return "verifying"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// API is the subset of the admin API the store calls.
type API interface {
	Login(ctx context.Context, creds domain.Credentials) (*domain.LoginResponse, error)
	Me(ctx context.Context) (*domain.MeResponse, error)
}

// Store is the session state machine. It is safe for concurrent use;
// mutations are last-write-wins and no lock is held across API calls.
type Store struct {
	api    API
	kv     storage.Store
	logger *zap.Logger

	mu        sync.RWMutex
	s         domain.Session
	verifying int

	subMu   sync.Mutex
	subs    map[int]func(domain.Session)
	nextSub int
}

// NewStore creates the store and rehydrates the persisted session from kv.
// A corrupt persisted session is discarded and logged, not returned.
func NewStore(ctx context.Context, api API, kv storage.Store, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	st := &Store{
		api:    api,
		kv:     kv,
		logger: logger.Named("session"),
		subs:   make(map[int]func(domain.Session)),
	}

	raw, ok, err := kv.Get(ctx, KeyAuth)
	if err != nil {
		return nil, fmt.Errorf("session.NewStore: %w", err)
	}
	if ok && raw != "" {
		var s domain.Session
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			st.logger.Warn("discarding corrupt persisted session", zap.Error(err))
			if err := kv.Remove(ctx, KeyAuth); err != nil {
				st.logger.Warn("remove corrupt session", zap.Error(err))
			}
		} else {
			st.s = s
			st.logger.Debug("session rehydrated", zap.Bool("authenticated", s.Authenticated()))
		}
	}
	return st, nil
}

// LogIn posts creds to the login endpoint and, when a token comes back,
// verifies it with Attempt before returning. The login response is returned
// even when verification fails, alongside the error.
func (st *Store) LogIn(ctx context.Context, creds domain.Credentials) (*domain.LoginResponse, error) {
	resp, err := st.api.Login(ctx, creds)
	if err != nil {
		st.logger.Info("login rejected", zap.Error(err))
		return nil, fmt.Errorf("session.LogIn: %w", err)
	}
	if resp == nil || resp.Token == "" {
		return resp, fmt.Errorf("session.LogIn: %w", ErrNoToken)
	}
	if err := st.Attempt(ctx, resp.Token); err != nil {
		return resp, fmt.Errorf("session.LogIn: %w", err)
	}
	st.logger.Info("logged in", zap.String("role", st.RoleName()))
	return resp, nil
}

// Attempt verifies a token against the whoami endpoint.
//
// A non-empty token is stored before the call is made, so it is visible
// while verification is in flight. With an empty token the current one is
// re-verified; if there is none Attempt returns nil without touching state.
// On success user, permissions and company are replaced; a company saved
// with SetCompany takes precedence over the user's first company when it is
// one of the user's companies. On any
// failure the whole session is cleared and the error wraps
// ErrVerificationFailed.
func (st *Store) Attempt(ctx context.Context, token string) error {
	st.mu.Lock()
	if token != "" {
		st.s.Token = token
		st.persistLocked(ctx)
	}
	if st.s.Token == "" {
		st.mu.Unlock()
		return nil
	}
	st.verifying++
	snap := st.s.Clone()
	st.mu.Unlock()
	if token != "" {
		st.notify(snap)
	}

	resp, err := st.api.Me(ctx)
	if err == nil && (resp == nil || resp.Data == nil) {
		err = errNoUser
	}

	st.mu.Lock()
	st.verifying--
	if err != nil {
		st.s = domain.Session{}
		st.persistLocked(ctx)
		snap = st.s.Clone()
		st.mu.Unlock()
		st.notify(snap)
		st.logger.Warn("session verification failed", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrVerificationFailed, err)
	}

	user := *resp.Data
	st.s.User = &user
	st.s.Company = user.DefaultCompany()
	st.s.Permissions = normalize(resp.Permissions)
	if saved, ok := st.storedCompany(ctx); ok {
		if c, ok := userCompany(&user, saved.ID); ok {
			st.s.Company = c
		}
	}
	st.persistLocked(ctx)
	snap = st.s.Clone()
	st.mu.Unlock()
	st.notify(snap)

	st.logger.Debug("session verified",
		zap.String("user_id", user.ID.String()),
		zap.Int("permissions", len(snap.Permissions)))
	return nil
}

// LogOut clears token, user, company and permissions. It is idempotent.
// The company saved with SetCompany is kept for the next login.
func (st *Store) LogOut(ctx context.Context) {
	st.mu.Lock()
	st.s = domain.Session{}
	st.persistLocked(ctx)
	snap := st.s.Clone()
	st.mu.Unlock()
	st.notify(snap)
}

// HandleUnauthorized is the hook for API 401 responses.
func (st *Store) HandleUnauthorized() {
	if !st.Authenticated() {
		return
	}
	st.logger.Info("api rejected token, logging out")
	st.LogOut(context.Background())
}

// SetCompany switches the active tenant and remembers the choice across
// logins. When a user is loaded the company must be one of theirs.
func (st *Store) SetCompany(ctx context.Context, c domain.Company) error {
	st.mu.Lock()
	if u := st.s.User; u != nil && len(u.Companies) > 0 {
		if _, ok := userCompany(u, c.ID); !ok {
			st.mu.Unlock()
			return fmt.Errorf("session.SetCompany %s: %w", c.ID, ErrUnknownCompany)
		}
	}
	st.s.Company = &c
	st.persistLocked(ctx)
	snap := st.s.Clone()
	st.mu.Unlock()

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("session.SetCompany: encode: %w", err)
	}
	if err := st.kv.Set(ctx, KeyCompany, string(data)); err != nil {
		return fmt.Errorf("session.SetCompany: %w", err)
	}
	st.notify(snap)
	return nil
}

// Subscribe registers fn to receive a copy of the session after every
// mutation. Call the returned function to unsubscribe.
func (st *Store) Subscribe(fn func(domain.Session)) (cancel func()) {
	st.subMu.Lock()
	id := st.nextSub
	st.nextSub++
	st.subs[id] = fn
	st.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			st.subMu.Lock()
			delete(st.subs, id)
			st.subMu.Unlock()
		})
	}
}

// State reports where the session is in its lifecycle.
func (st *Store) State() State {
	st.mu.RLock()
	defer st.mu.RUnlock()
	switch {
	case st.verifying > 0:
		return StateVerifying
	case st.s.Token != "":
		return StateAuthenticated
	default:
		return StateAnonymous
	}
}

// Token returns the bearer token, or "".
func (st *Store) Token() string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s.Token
}

// Authenticated reports whether a token is present.
func (st *Store) Authenticated() bool {
	return st.Token() != ""
}

// User returns a copy of the current user, or nil.
func (st *Store) User() *domain.User {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s.Clone().User
}

// Company returns a copy of the active company, or nil.
func (st *Store) Company() *domain.Company {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if st.s.Company == nil {
		return nil
	}
	c := st.s.Company.Clone()
	return &c
}

// CompanyID returns the active company id, or "".
func (st *Store) CompanyID() string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if st.s.Company == nil {
		return ""
	}
	return st.s.Company.ID.String()
}

// Permissions returns a copy of the permission set.
func (st *Store) Permissions() []string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return slices.Clone(st.s.Permissions)
}

// RoleName returns the first role's name, or "".
func (st *Store) RoleName() string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s.RoleName()
}

// Snapshot returns a deep copy of the whole session.
func (st *Store) Snapshot() domain.Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s.Clone()
}

// persistLocked mirrors the session to storage. Caller holds mu. Write
// failures are logged; the in-memory session stays authoritative.
func (st *Store) persistLocked(ctx context.Context) {
	data, err := json.Marshal(st.s)
	if err != nil {
		st.logger.Error("encode session", zap.Error(err))
		return
	}
	if err := st.kv.Set(ctx, KeyAuth, string(data)); err != nil {
		st.logger.Warn("persist session", zap.Error(err))
	}
}

// storedCompany reads the company saved by SetCompany.
func (st *Store) storedCompany(ctx context.Context) (*domain.Company, bool) {
	raw, ok, err := st.kv.Get(ctx, KeyCompany)
	if err != nil {
		st.logger.Warn("read stored company", zap.Error(err))
		return nil, false
	}
	if !ok || raw == "" {
		return nil, false
	}
	var c domain.Company
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		st.logger.Warn("discarding corrupt stored company", zap.Error(err))
		return nil, false
	}
	return &c, true
}

// userCompany returns a copy of the user's company with id.
func userCompany(u *domain.User, id domain.ID) (*domain.Company, bool) {
	i := slices.IndexFunc(u.Companies, func(c domain.Company) bool { return c.ID == id })
	if i < 0 {
		return nil, false
	}
	c := u.Companies[i].Clone()
	return &c, true
}

func (st *Store) notify(s domain.Session) {
	st.subMu.Lock()
	fns := make([]func(domain.Session), 0, len(st.subs))
	for _, fn := range st.subs {
		fns = append(fns, fn)
	}
	st.subMu.Unlock()

	for _, fn := range fns {
		fn(s.Clone())
	}
}

// normalize deduplicates permissions, keeping first-seen order. The result
// is never nil.
func normalize(perms []string) []string {
	out := make([]string, 0, len(perms))
	seen := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
