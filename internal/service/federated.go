package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/phonehub/internal/events"
	"github.com/Skotchmaster/phonehub/internal/models"
	"github.com/Skotchmaster/phonehub/internal/repo"
	"github.com/Skotchmaster/phonehub/pkg/authclient"
	"github.com/Skotchmaster/phonehub/pkg/logging"
)

const (
	providerGoogle = "google"

	extraUsernameAttempts = 3
)

// FederatedSignin signs in with a Google id token, provisioning an identity
// on first use.
func (s *AuthService) FederatedSignin(ctx context.Context, idToken string) (_ *AuthResult, err error) {
	defer observe("federated_signin", &err)
	l := logging.FromContext(ctx).With("svc", "auth.federated_signin", "provider", providerGoogle)

	idToken = strings.Trim(strings.TrimSpace(idToken), `"`)
	if idToken == "" {
		return nil, newErr(ErrValidation, "id token is required")
	}
	if s.provider == nil {
		return nil, errors.New("identity provider is not configured")
	}

	info, err := s.provider.Introspect(ctx, idToken)
	if err != nil {
		l.Warn("federated_signin_failed", "status", 401, "reason", "introspection failed", "error", err)
		return nil, wrapErr(ErrAuthentication, "invalid Google token", err)
	}
	if err := s.checkTokenInfo(info); err != nil {
		l.Warn("federated_signin_failed", "status", 401, "reason", err.Error())
		return nil, err
	}

	u, err := s.users.FindByEmail(ctx, info.Email)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		u, err = s.provision(ctx, info)
		if err != nil {
			return nil, err
		}
		l.Info("user_provisioned", "user_id", u.ID, "username", u.Username)
		s.publish(ctx, googleEvent(events.TypeUserProvisioned, u))
	case err != nil:
		return nil, err
	case u.Avatar == "" && info.Picture != "":
		u.Avatar = info.Picture
		if err := s.users.Save(ctx, u); err != nil {
			return nil, err
		}
	}

	res, err := s.issueAndStore(ctx, u)
	if err != nil {
		return nil, err
	}

	l.Info("federated_signin_successful", "user_id", u.ID)
	s.publish(ctx, googleEvent(events.TypeUserSignedIn, u))
	return res, nil
}

func googleEvent(typ string, u *models.User) events.Event {
	e := events.New(typ, u.ID, u.Username)
	e.Provider = providerGoogle
	return e
}

func (s *AuthService) checkTokenInfo(info *authclient.TokenInfo) error {
	if info == nil || info.Audience == "" || info.Email == "" {
		return newErr(ErrAuthentication, "Google token is missing audience or email")
	}
	if s.googleClientID != "" && info.Audience != s.googleClientID {
		return newErr(ErrAuthentication, "Google token audience mismatch")
	}
	if info.EmailVerified != nil && !*info.EmailVerified {
		return newErr(ErrAuthentication, "Google email is not verified")
	}
	return nil
}

func (s *AuthService) provision(ctx context.Context, info *authclient.TokenInfo) (*models.User, error) {
	role, err := s.defaultRole(ctx)
	if err != nil {
		return nil, err
	}

	username, err := s.freeUsername(ctx, info)
	if err != nil {
		return nil, err
	}

	digest, err := s.hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	email := info.Email
	u := &models.User{
		Username:        username,
		PasswordHash:    digest,
		Email:           &email,
		Avatar:          info.Picture,
		RoleID:          role.ID,
		IsEmailVerified: true,
	}
	if err := s.users.Save(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, newErr(ErrConflict, "username or email already exists")
		}
		return nil, err
	}
	return u, nil
}

func (s *AuthService) freeUsername(ctx context.Context, info *authclient.TokenInfo) (string, error) {
	for _, candidate := range usernameCandidates(info.Name, info.Subject, extraUsernameAttempts) {
		taken, err := s.users.ExistsByUsername(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", newErr(ErrConflict, "could not derive a free username")
}
