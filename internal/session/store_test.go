package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naveenspark/backoffice/internal/permission"
	"github.com/naveenspark/backoffice/internal/storage"
	"github.com/naveenspark/backoffice/pkg/client"
	"github.com/naveenspark/backoffice/pkg/domain"
)

type fakeAPI struct {
	mu       sync.Mutex
	token    string
	loginErr error
	me       *domain.MeResponse
	meErr    error
	meCalls  atomic.Int32
	onMe     func()
}

func (f *fakeAPI) Login(_ context.Context, _ domain.Credentials) (*domain.LoginResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &domain.LoginResponse{Token: f.token}, nil
}

func (f *fakeAPI) Me(_ context.Context) (*domain.MeResponse, error) {
	f.meCalls.Add(1)
	if f.onMe != nil {
		f.onMe()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.me, f.meErr
}

func adminMe() *domain.MeResponse {
	return &domain.MeResponse{
		Data: &domain.User{
			ID:        "1",
			Name:      "Ada",
			Roles:     []domain.Role{{Name: domain.RoleAdmin}},
			Companies: []domain.Company{{ID: "9", Name: "Acme"}, {ID: "12", Name: "Globex"}},
		},
		Permissions: []string{},
	}
}

func newStore(t *testing.T, api API, kv storage.Store) *Store {
	t.Helper()
	if kv == nil {
		kv = storage.NewMemoryStore()
	}
	st, err := NewStore(context.Background(), api, kv, nil)
	require.NoError(t, err)
	return st
}

func TestLogInVerifiesAndLoadsUser(t *testing.T) {
	api := &fakeAPI{token: "T1", me: adminMe()}
	st := newStore(t, api, nil)
	ctx := context.Background()

	resp, err := st.LogIn(ctx, domain.Credentials{Email: "ada@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "T1", resp.Token)

	assert.Equal(t, "T1", st.Token())
	assert.Equal(t, "9", st.CompanyID())
	assert.Equal(t, domain.RoleAdmin, st.RoleName())
	assert.Equal(t, StateAuthenticated, st.State())
	assert.NotNil(t, st.Permissions())
	assert.Empty(t, st.Permissions())

	ev := permission.New(st)
	assert.True(t, ev.Can("ANYTHING"))
}

func TestLogInRejected(t *testing.T) {
	api := &fakeAPI{loginErr: &client.HTTPError{StatusCode: 422, Message: "invalid credentials"}}
	st := newStore(t, api, nil)

	resp, err := st.LogIn(context.Background(), domain.Credentials{})
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, client.IsStatus(err, 422))
	assert.False(t, st.Authenticated())
	assert.Zero(t, api.meCalls.Load())
}

func TestLogInWithoutToken(t *testing.T) {
	api := &fakeAPI{me: adminMe()}
	st := newStore(t, api, nil)

	_, err := st.LogIn(context.Background(), domain.Credentials{})
	require.ErrorIs(t, err, ErrNoToken)
	assert.Zero(t, api.meCalls.Load())
}

func TestLogInVerificationFailure(t *testing.T) {
	api := &fakeAPI{token: "T1", meErr: &client.HTTPError{StatusCode: 500}}
	st := newStore(t, api, nil)

	resp, err := st.LogIn(context.Background(), domain.Credentials{})
	require.ErrorIs(t, err, ErrVerificationFailed)
	require.NotNil(t, resp)
	assert.Equal(t, "T1", resp.Token)
	assert.Equal(t, domain.Session{}, st.Snapshot())
}

func TestAttemptEmptySessionIsNoop(t *testing.T) {
	api := &fakeAPI{me: adminMe()}
	st := newStore(t, api, nil)

	require.NoError(t, st.Attempt(context.Background(), ""))
	assert.Zero(t, api.meCalls.Load())
	assert.Equal(t, StateAnonymous, st.State())
}

func TestAttemptReverifiesCurrentToken(t *testing.T) {
	api := &fakeAPI{token: "T1", me: adminMe()}
	st := newStore(t, api, nil)
	ctx := context.Background()
	_, err := st.LogIn(ctx, domain.Credentials{})
	require.NoError(t, err)

	require.NoError(t, st.Attempt(ctx, ""))
	assert.EqualValues(t, 2, api.meCalls.Load())
	assert.Equal(t, "T1", st.Token())
}

func TestAttemptUnauthorizedClearsSession(t *testing.T) {
	api := &fakeAPI{token: "T1", me: adminMe()}
	st := newStore(t, api, nil)
	ctx := context.Background()
	_, err := st.LogIn(ctx, domain.Credentials{})
	require.NoError(t, err)

	api.mu.Lock()
	api.me, api.meErr = nil, &client.HTTPError{StatusCode: 401}
	api.mu.Unlock()

	err = st.Attempt(ctx, "")
	require.ErrorIs(t, err, ErrVerificationFailed)
	assert.True(t, client.IsStatus(err, 401))

	assert.Empty(t, st.Token())
	assert.Nil(t, st.User())
	assert.Nil(t, st.Company())
	assert.Empty(t, st.Permissions())
	assert.False(t, permission.New(st).Can("X.Y"))
}

func TestAttemptMissingUserFails(t *testing.T) {
	api := &fakeAPI{me: &domain.MeResponse{}}
	st := newStore(t, api, nil)

	err := st.Attempt(context.Background(), "T1")
	require.ErrorIs(t, err, ErrVerificationFailed)
	assert.False(t, st.Authenticated())
}

func TestTokenVisibleWhileVerifying(t *testing.T) {
	api := &fakeAPI{me: adminMe()}
	st := newStore(t, api, nil)

	var seenToken string
	var seenState State
	api.onMe = func() {
		seenToken = st.Token()
		seenState = st.State()
	}
	require.NoError(t, st.Attempt(context.Background(), "T2"))
	assert.Equal(t, "T2", seenToken)
	assert.Equal(t, StateVerifying, seenState)
	assert.Equal(t, StateAuthenticated, st.State())
}

func TestPermissionsDeduplicated(t *testing.T) {
	me := adminMe()
	me.Data.Roles = []domain.Role{{Name: "EDITOR"}}
	me.Permissions = []string{"USERS.VIEW", "USERS.EDIT", "USERS.VIEW"}
	st := newStore(t, &fakeAPI{me: me}, nil)

	require.NoError(t, st.Attempt(context.Background(), "T1"))
	assert.Equal(t, []string{"USERS.VIEW", "USERS.EDIT"}, st.Permissions())
}

func TestLogOutIdempotent(t *testing.T) {
	kv := storage.NewMemoryStore()
	api := &fakeAPI{token: "T1", me: adminMe()}
	st := newStore(t, api, kv)
	ctx := context.Background()
	_, err := st.LogIn(ctx, domain.Credentials{})
	require.NoError(t, err)

	st.LogOut(ctx)
	st.LogOut(ctx)
	assert.Equal(t, domain.Session{}, st.Snapshot())

	raw, ok, err := kv.Get(ctx, KeyAuth)
	require.NoError(t, err)
	require.True(t, ok)
	var persisted domain.Session
	require.NoError(t, json.Unmarshal([]byte(raw), &persisted))
	assert.False(t, persisted.Authenticated())
}

func TestRehydrate(t *testing.T) {
	kv := storage.NewMemoryStore()
	ctx := context.Background()
	first := newStore(t, &fakeAPI{token: "T1", me: adminMe()}, kv)
	_, err := first.LogIn(ctx, domain.Credentials{})
	require.NoError(t, err)

	api := &fakeAPI{}
	second := newStore(t, api, kv)
	assert.Equal(t, "T1", second.Token())
	assert.Equal(t, "9", second.CompanyID())
	assert.Equal(t, domain.RoleAdmin, second.RoleName())
	assert.Zero(t, api.meCalls.Load())
}

func TestRehydrateCorrupt(t *testing.T) {
	kv := storage.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, KeyAuth, "{not json"))

	st := newStore(t, &fakeAPI{}, kv)
	assert.False(t, st.Authenticated())
	_, ok, err := kv.Get(ctx, KeyAuth)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetCompanySurvivesLogin(t *testing.T) {
	kv := storage.NewMemoryStore()
	api := &fakeAPI{token: "T1", me: adminMe()}
	st := newStore(t, api, kv)
	ctx := context.Background()
	_, err := st.LogIn(ctx, domain.Credentials{})
	require.NoError(t, err)

	require.NoError(t, st.SetCompany(ctx, domain.Company{ID: "12", Name: "Globex"}))
	assert.Equal(t, "12", st.CompanyID())

	st.LogOut(ctx)
	_, err = st.LogIn(ctx, domain.Credentials{})
	require.NoError(t, err)
	assert.Equal(t, "12", st.CompanyID())
}

func TestSavedCompanyIgnoredForOtherUser(t *testing.T) {
	kv := storage.NewMemoryStore()
	api := &fakeAPI{token: "T1", me: adminMe()}
	st := newStore(t, api, kv)
	ctx := context.Background()
	_, err := st.LogIn(ctx, domain.Credentials{})
	require.NoError(t, err)
	require.NoError(t, st.SetCompany(ctx, domain.Company{ID: "12", Name: "Globex"}))
	st.LogOut(ctx)

	api.mu.Lock()
	api.token = "T2"
	api.me = &domain.MeResponse{Data: &domain.User{
		ID:        "2",
		Roles:     []domain.Role{{Name: "EDITOR"}},
		Companies: []domain.Company{{ID: "77", Name: "Initech"}},
	}}
	api.mu.Unlock()

	_, err = st.LogIn(ctx, domain.Credentials{})
	require.NoError(t, err)
	assert.Equal(t, "77", st.CompanyID())
}

func TestSnapshotDoesNotShareProfile(t *testing.T) {
	me := adminMe()
	me.Data.Profile = map[string]json.RawMessage{"phone": json.RawMessage(`"+1 555"`)}
	me.Data.Companies[0].Profile = map[string]json.RawMessage{"logo": json.RawMessage(`"a.png"`)}
	st := newStore(t, &fakeAPI{token: "T1", me: me}, nil)
	_, err := st.LogIn(context.Background(), domain.Credentials{})
	require.NoError(t, err)

	snap := st.Snapshot()
	snap.User.Profile["phone"] = json.RawMessage(`"changed"`)
	snap.Company.Profile["logo"] = json.RawMessage(`"changed"`)
	st.Company().Profile["logo"] = json.RawMessage(`"changed"`)

	assert.JSONEq(t, `"+1 555"`, string(st.User().Profile["phone"]))
	assert.JSONEq(t, `"a.png"`, string(st.Company().Profile["logo"]))
}

func TestSetCompanyUnknown(t *testing.T) {
	api := &fakeAPI{token: "T1", me: adminMe()}
	st := newStore(t, api, nil)
	ctx := context.Background()
	_, err := st.LogIn(ctx, domain.Credentials{})
	require.NoError(t, err)

	err = st.SetCompany(ctx, domain.Company{ID: "404"})
	require.ErrorIs(t, err, ErrUnknownCompany)
	assert.Equal(t, "9", st.CompanyID())
}

func TestHandleUnauthorized(t *testing.T) {
	api := &fakeAPI{token: "T1", me: adminMe()}
	st := newStore(t, api, nil)
	_, err := st.LogIn(context.Background(), domain.Credentials{})
	require.NoError(t, err)

	st.HandleUnauthorized()
	assert.False(t, st.Authenticated())
	assert.Nil(t, st.User())
}

func TestSubscribe(t *testing.T) {
	api := &fakeAPI{token: "T1", me: adminMe()}
	st := newStore(t, api, nil)
	ctx := context.Background()

	var got []domain.Session
	cancel := st.Subscribe(func(s domain.Session) { got = append(got, s) })

	_, err := st.LogIn(ctx, domain.Credentials{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "T1", got[0].Token)
	assert.Nil(t, got[0].User)
	assert.NotNil(t, got[1].User)

	cancel()
	cancel()
	st.LogOut(ctx)
	assert.Len(t, got, 2)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "anonymous", StateAnonymous.String())
	assert.Equal(t, "verifying", StateVerifying.String())
	assert.Equal(t, "authenticated", StateAuthenticated.String())
}

type failingKV struct{ storage.Store }

func (failingKV) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("disk on fire")
}

func TestNewStoreStorageError(t *testing.T) {
	_, err := NewStore(context.Background(), &fakeAPI{}, failingKV{storage.NewMemoryStore()}, nil)
	require.Error(t, err)
}
