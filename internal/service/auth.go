package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Skotchmaster/phonehub/internal/events"
	"github.com/Skotchmaster/phonehub/internal/metrics"
	"github.com/Skotchmaster/phonehub/internal/models"
	"github.com/Skotchmaster/phonehub/internal/repo"
	"github.com/Skotchmaster/phonehub/internal/tokens"
	"github.com/Skotchmaster/phonehub/pkg/authclient"
	"github.com/Skotchmaster/phonehub/pkg/logging"
)

type CredentialStore interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Save(ctx context.Context, u *models.User) error
	SetRefreshToken(ctx context.Context, id uint, token string) error
	SwapRefreshToken(ctx context.Context, id uint, expected, next string) (bool, error)
}

type RoleStore interface {
	FindRoleByID(ctx context.Context, id uint) (*models.Role, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

type TokenIssuer interface {
	IssueAccessToken(u *models.User) (string, error)
	IssueRefreshToken(username string) (string, error)
	ValidateRefresh(token string) bool
	ParseRefreshClaims(token string) (*tokens.RefreshClaims, error)
}

type IdentityProvider interface {
	Introspect(ctx context.Context, idToken string) (*authclient.TokenInfo, error)
}

type Deps struct {
	Users    CredentialStore
	Roles    RoleStore
	Hasher   PasswordHasher
	Tokens   TokenIssuer
	Provider IdentityProvider
	Events   events.Publisher

	DefaultRoleID  uint
	GoogleClientID string
}

type AuthService struct {
	users    CredentialStore
	roles    RoleStore
	hasher   PasswordHasher
	tokens   TokenIssuer
	provider IdentityProvider
	events   events.Publisher

	defaultRoleID  uint
	googleClientID string
}

func New(d Deps) *AuthService {
	pub := d.Events
	if pub == nil {
		pub = events.NopPublisher{}
	}
	roleID := d.DefaultRoleID
	if roleID == 0 {
		roleID = 3
	}
	return &AuthService{
		users:          d.Users,
		roles:          d.Roles,
		hasher:         d.Hasher,
		tokens:         d.Tokens,
		provider:       d.Provider,
		events:         pub,
		defaultRoleID:  roleID,
		googleClientID: d.GoogleClientID,
	}
}

// AuthResult is a freshly issued token pair and the identity it belongs to.
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	User         *models.User
}

type SignupInput struct {
	Username string
	Password string
	Email    string
	Phone    string
	Address  string
}

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (_ *models.User, err error) {
	defer observe("signup", &err)
	l := logging.FromContext(ctx).With("svc", "auth.signup", "username", in.Username)

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.Username == "" || in.Password == "" {
		return nil, newErr(ErrValidation, "username and password are required")
	}

	exists, err := s.users.ExistsByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		l.Warn("signup_failed", "status", 409, "reason", "username taken")
		return nil, newErr(ErrConflict, "username already exists")
	}
	if in.Email != "" {
		exists, err := s.users.ExistsByEmail(ctx, in.Email)
		if err != nil {
			return nil, err
		}
		if exists {
			l.Warn("signup_failed", "status", 409, "reason", "email taken")
			return nil, newErr(ErrConflict, "email already exists")
		}
	}

	role, err := s.defaultRole(ctx)
	if err != nil {
		return nil, err
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{
		Username:     in.Username,
		PasswordHash: digest,
		Phone:        in.Phone,
		Address:      in.Address,
		RoleID:       role.ID,
	}
	if in.Email != "" {
		u.Email = &in.Email
	}
	if err := s.users.Save(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, newErr(ErrConflict, "username or email already exists")
		}
		return nil, err
	}

	l.Info("signup_successful", "user_id", u.ID)
	s.publish(ctx, events.New(events.TypeUserRegistered, u.ID, u.Username))
	return u, nil
}

func (s *AuthService) Signin(ctx context.Context, username, password string) (_ *AuthResult, err error) {
	defer observe("signin", &err)
	l := logging.FromContext(ctx).With("svc", "auth.signin", "username", username)

	if strings.TrimSpace(username) == "" || password == "" {
		return nil, newErr(ErrValidation, "username and password are required")
	}

	u, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, repo.ErrNotFound) {
		l.Warn("signin_failed", "status", 401, "reason", "unknown username")
		return nil, newErr(ErrAuthentication, "invalid username or password")
	}
	if err != nil {
		return nil, err
	}
	if !s.hasher.Verify(password, u.PasswordHash) {
		l.Warn("signin_failed", "status", 401, "reason", "password mismatch")
		return nil, newErr(ErrAuthentication, "invalid username or password")
	}

	res, err := s.issueAndStore(ctx, u)
	if err != nil {
		return nil, err
	}

	l.Info("signin_successful", "user_id", u.ID)
	s.publish(ctx, events.New(events.TypeUserSignedIn, u.ID, u.Username))
	return res, nil
}

// Refresh rotates the pair. The presented token must be the one currently
// stored for its owner, so a superseded token is rejected even while its
// signature and expiry are still good.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (_ *AuthResult, err error) {
	defer observe("refresh", &err)
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	if refreshToken == "" {
		return nil, newErr(ErrValidation, "refresh token is required")
	}
	if !s.tokens.ValidateRefresh(refreshToken) {
		l.Warn("refresh_failed", "status", 401, "reason", "invalid token")
		return nil, newErr(ErrAuthentication, "invalid or expired refresh token")
	}
	claims, err := s.tokens.ParseRefreshClaims(refreshToken)
	if err != nil {
		return nil, wrapErr(ErrAuthentication, "invalid or expired refresh token", err)
	}

	u, err := s.users.FindByUsername(ctx, claims.Subject)
	if errors.Is(err, repo.ErrNotFound) {
		l.Warn("refresh_failed", "status", 401, "reason", "owner not found", "username", claims.Subject)
		return nil, newErr(ErrAuthentication, "invalid or expired refresh token")
	}
	if err != nil {
		return nil, err
	}
	if u.RefreshToken == nil || *u.RefreshToken != refreshToken {
		l.Warn("refresh_failed", "status", 401, "reason", "token superseded", "user_id", u.ID)
		return nil, newErr(ErrAuthentication, "refresh token has been superseded")
	}

	access, next, err := s.issuePair(u)
	if err != nil {
		return nil, err
	}
	swapped, err := s.users.SwapRefreshToken(ctx, u.ID, refreshToken, next)
	if err != nil {
		return nil, err
	}
	if !swapped {
		l.Warn("refresh_failed", "status", 401, "reason", "concurrent refresh", "user_id", u.ID)
		return nil, newErr(ErrAuthentication, "refresh token has been superseded")
	}
	u.RefreshToken = &next

	l.Info("refresh_successful", "user_id", u.ID)
	s.publish(ctx, events.New(events.TypeTokenRefreshed, u.ID, u.Username))
	return &AuthResult{AccessToken: access, RefreshToken: next, User: u}, nil
}

func (s *AuthService) issuePair(u *models.User) (access, refresh string, err error) {
	access, err = s.tokens.IssueAccessToken(u)
	if err != nil {
		return "", "", fmt.Errorf("issue access token: %w", err)
	}
	refresh, err = s.tokens.IssueRefreshToken(u.Username)
	if err != nil {
		return "", "", fmt.Errorf("issue refresh token: %w", err)
	}
	return access, refresh, nil
}

// issueAndStore mints a pair and overwrites the stored refresh token.
func (s *AuthService) issueAndStore(ctx context.Context, u *models.User) (*AuthResult, error) {
	access, refresh, err := s.issuePair(u)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetRefreshToken(ctx, u.ID, refresh); err != nil {
		return nil, err
	}
	u.RefreshToken = &refresh
	return &AuthResult{AccessToken: access, RefreshToken: refresh, User: u}, nil
}

func (s *AuthService) defaultRole(ctx context.Context) (*models.Role, error) {
	role, err := s.roles.FindRoleByID(ctx, s.defaultRoleID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, newErr(ErrNotFound, "default role not found")
	}
	if err != nil {
		return nil, err
	}
	return role, nil
}

func (s *AuthService) publish(ctx context.Context, e events.Event) {
	if err := s.events.Publish(ctx, e); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "type", e.Type, "user_id", e.UserID, "error", err)
	}
}

func observe(flow string, errp *error) {
	metrics.ObserveFlow(flow, outcome(*errp))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrAuthentication):
		return "authentication"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return metrics.OutcomeFailure
	}
}
