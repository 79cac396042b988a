package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/phonehub/internal/events"
	"github.com/Skotchmaster/phonehub/internal/repo"
	"github.com/Skotchmaster/phonehub/internal/repo/repotest"
	"github.com/Skotchmaster/phonehub/internal/tokens"
	"github.com/Skotchmaster/phonehub/pkg/authclient"
	"github.com/Skotchmaster/phonehub/pkg/hash"
)

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) Close() error { return nil }

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeProvider struct {
	info *authclient.TokenInfo
	err  error
}

func (f *fakeProvider) Introspect(context.Context, string) (*authclient.TokenInfo, error) {
	return f.info, f.err
}

type env struct {
	svc      *AuthService
	repo     *repo.GormRepo
	tokens   *tokens.Service
	provider *fakeProvider
	events   *recorder
}

type envOption func(*Deps)

func newEnv(t *testing.T, opts ...envOption) *env {
	t.Helper()

	r := repo.New(repotest.NewDB(t))
	ts, err := tokens.NewService(tokens.Config{
		Secret:      []byte("0123456789abcdef0123456789abcdef"),
		Environment: "prod",
		Production:  tokens.ProductionProfile,
		Development: tokens.DevelopmentProfile,
	})
	require.NoError(t, err)

	e := &env{repo: r, tokens: ts, provider: &fakeProvider{}, events: &recorder{}}
	d := Deps{
		Users:          r,
		Roles:          r,
		Hasher:         hash.Bcrypt{Cost: bcrypt.MinCost},
		Tokens:         ts,
		Provider:       e.provider,
		Events:         e.events,
		DefaultRoleID:  3,
		GoogleClientID: "client-1",
	}
	for _, opt := range opts {
		opt(&d)
	}
	e.svc = New(d)
	return e
}

func (e *env) signup(t *testing.T, username, password, email string) {
	t.Helper()

	_, err := e.svc.Signup(context.Background(), SignupInput{Username: username, Password: password, Email: email})
	require.NoError(t, err)
}

func TestSignup_Validation(t *testing.T) {
	t.Parallel()

	e := newEnv(t)

	tests := []struct {
		name string
		in   SignupInput
	}{
		{name: "empty username", in: SignupInput{Password: "p1"}},
		{name: "blank username", in: SignupInput{Username: "   ", Password: "p1"}},
		{name: "empty password", in: SignupInput{Username: "alice"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.svc.Signup(context.Background(), tt.in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestSignup_Conflicts(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.signup(t, "alice", "p1", "a@x.com")

	_, err := e.svc.Signup(context.Background(), SignupInput{Username: "alice", Password: "p2"})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, "username already exists", PublicMessage(err))

	_, err = e.svc.Signup(context.Background(), SignupInput{Username: "alice2", Password: "p2", Email: "a@x.com"})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, "email already exists", PublicMessage(err))
}

func TestSignup_MissingDefaultRole(t *testing.T) {
	t.Parallel()

	e := newEnv(t, func(d *Deps) { d.DefaultRoleID = 99 })

	_, err := e.svc.Signup(context.Background(), SignupInput{Username: "alice", Password: "p1"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSignup_StoresHashAndDefaultRole(t *testing.T) {
	t.Parallel()

	e := newEnv(t)

	u, err := e.svc.Signup(context.Background(), SignupInput{
		Username: "alice", Password: "p1", Email: "a@x.com", Phone: "0900", Address: "Main St",
	})
	require.NoError(t, err)

	assert.NotZero(t, u.ID)
	assert.NotEqual(t, "p1", u.PasswordHash)
	assert.Equal(t, "USER", u.Role.Name)
	assert.Equal(t, "a@x.com", u.EmailValue())
	assert.Nil(t, u.RefreshToken)
	assert.Equal(t, []string{events.TypeUserRegistered}, e.events.types())
}

func TestSignin_ClaimsMirrorIdentity(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.signup(t, "alice", "p1", "a@x.com")

	res, err := e.svc.Signin(context.Background(), "alice", "p1")
	require.NoError(t, err)
	require.True(t, e.tokens.ValidateAccess(res.AccessToken))

	claims, err := e.tokens.ParseClaims(res.AccessToken)
	require.NoError(t, err)

	stored, err := e.repo.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)

	assert.Equal(t, stored.ID, claims.ID)
	assert.Equal(t, stored.Username, claims.Subject)
	assert.Equal(t, stored.Username, claims.Username)
	assert.Equal(t, stored.EmailValue(), claims.Email)
	assert.Equal(t, stored.Role.ID, claims.RoleID)
	assert.Equal(t, stored.Role.Name, claims.RoleName)

	require.NotNil(t, stored.RefreshToken)
	assert.Equal(t, res.RefreshToken, *stored.RefreshToken)
	assert.Contains(t, e.events.types(), events.TypeUserSignedIn)
}

func TestSignin_Failures(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.signup(t, "alice", "p1", "")

	tests := []struct {
		name     string
		username string
		password string
		kind     error
	}{
		{name: "wrong password", username: "alice", password: "nope", kind: ErrAuthentication},
		{name: "unknown user", username: "bob", password: "p1", kind: ErrAuthentication},
		{name: "empty username", username: "", password: "p1", kind: ErrValidation},
		{name: "empty password", username: "alice", password: "", kind: ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.svc.Signin(context.Background(), tt.username, tt.password)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestRefresh_RotatesAndInvalidatesPrevious(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.signup(t, "alice", "p1", "a@x.com")
	ctx := context.Background()

	t1, err := e.svc.Signin(ctx, "alice", "p1")
	require.NoError(t, err)
	assert.Equal(t, "USER", t1.User.Role.Name)

	t2, err := e.svc.Refresh(ctx, t1.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, t1.RefreshToken, t2.RefreshToken)
	assert.NotEqual(t, t1.AccessToken, t2.AccessToken)
	assert.True(t, e.tokens.ValidateAccess(t2.AccessToken))

	_, err = e.svc.Refresh(ctx, t1.RefreshToken)
	assert.ErrorIs(t, err, ErrAuthentication, "replaying a rotated refresh token must fail")

	t3, err := e.svc.Refresh(ctx, t2.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, t2.RefreshToken, t3.RefreshToken)
}

func TestRefresh_NewSigninSupersedesOldToken(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.signup(t, "alice", "p1", "")
	ctx := context.Background()

	first, err := e.svc.Signin(ctx, "alice", "p1")
	require.NoError(t, err)
	_, err = e.svc.Signin(ctx, "alice", "p1")
	require.NoError(t, err)

	require.True(t, e.tokens.ValidateRefresh(first.RefreshToken), "still cryptographically valid")
	_, err = e.svc.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestRefresh_Rejects(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.signup(t, "alice", "p1", "")
	ctx := context.Background()

	res, err := e.svc.Signin(ctx, "alice", "p1")
	require.NoError(t, err)

	ghost, err := e.tokens.IssueRefreshToken("ghost")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		kind  error
	}{
		{name: "empty", token: "", kind: ErrValidation},
		{name: "garbage", token: "garbage", kind: ErrAuthentication},
		{name: "access token", token: res.AccessToken, kind: ErrAuthentication},
		{name: "unknown owner", token: ghost, kind: ErrAuthentication},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.svc.Refresh(ctx, tt.token)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

// racingStore lets a competing refresh land between the stored-token check
// and the write.
type racingStore struct {
	*repo.GormRepo
	compete func(id uint, expected string)
}

func (r *racingStore) SwapRefreshToken(ctx context.Context, id uint, expected, next string) (bool, error) {
	r.compete(id, expected)
	return r.GormRepo.SwapRefreshToken(ctx, id, expected, next)
}

func TestRefresh_ConcurrentRotationLoses(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.signup(t, "alice", "p1", "")
	ctx := context.Background()

	racer := &racingStore{GormRepo: e.repo}
	racer.compete = func(id uint, expected string) {
		ok, err := e.repo.SwapRefreshToken(ctx, id, expected, "winner")
		require.NoError(t, err)
		require.True(t, ok)
	}
	svc := New(Deps{
		Users:         racer,
		Roles:         e.repo,
		Hasher:        hash.Bcrypt{Cost: bcrypt.MinCost},
		Tokens:        e.tokens,
		DefaultRoleID: 3,
	})

	res, err := svc.Signin(ctx, "alice", "p1")
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, res.RefreshToken)
	assert.ErrorIs(t, err, ErrAuthentication)

	stored, err := e.repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "winner", *stored.RefreshToken, "the earlier writer is not overwritten")
}

// staleStore lets another writer change the row between the signin read
// and the token write.
type staleStore struct {
	*repo.GormRepo
	interleave func(id uint)
}

func (s *staleStore) SetRefreshToken(ctx context.Context, id uint, token string) error {
	s.interleave(id)
	return s.GormRepo.SetRefreshToken(ctx, id, token)
}

func TestSignin_KeepsConcurrentProfileWrites(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.signup(t, "alice", "p1", "")
	ctx := context.Background()

	store := &staleStore{GormRepo: e.repo}
	store.interleave = func(id uint) {
		require.NoError(t, e.repo.DB.Exec("UPDATE users SET points = ?, avatar = ? WHERE id = ?",
			120, "https://cdn.example.com/a.png", id).Error)
	}
	svc := New(Deps{
		Users:         store,
		Roles:         e.repo,
		Hasher:        hash.Bcrypt{Cost: bcrypt.MinCost},
		Tokens:        e.tokens,
		DefaultRoleID: 3,
	})

	res, err := svc.Signin(ctx, "alice", "p1")
	require.NoError(t, err)
	assert.Equal(t, 0, res.User.Points, "the returned record is the one read at signin")

	stored, err := e.repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, stored.RefreshToken)
	assert.Equal(t, res.RefreshToken, *stored.RefreshToken)
	assert.Equal(t, 120, stored.Points)
	assert.Equal(t, "https://cdn.example.com/a.png", stored.Avatar)
}

func TestEndToEnd_SignupSigninRefreshReplay(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()

	_, err := e.svc.Signup(ctx, SignupInput{Username: "alice", Password: "p1", Email: "a@x.com"})
	require.NoError(t, err)

	t1, err := e.svc.Signin(ctx, "alice", "p1")
	require.NoError(t, err)
	claims, err := e.tokens.ParseClaims(t1.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "USER", claims.RoleName)

	t2, err := e.svc.Refresh(ctx, t1.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, t1.RefreshToken, t2.RefreshToken)

	_, err = e.svc.Refresh(ctx, t1.RefreshToken)
	var se *Error
	require.True(t, errors.As(err, &se))
	assert.ErrorIs(t, err, ErrAuthentication)

	assert.Equal(t, []string{
		events.TypeUserRegistered,
		events.TypeUserSignedIn,
		events.TypeTokenRefreshed,
	}, e.events.types())
}
