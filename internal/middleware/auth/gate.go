package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/phonehub/internal/metrics"
	"github.com/Skotchmaster/phonehub/internal/models"
	"github.com/Skotchmaster/phonehub/internal/repo"
	"github.com/Skotchmaster/phonehub/internal/tokens"
	"github.com/Skotchmaster/phonehub/pkg/logging"
)

const (
	HeaderNewAccessToken = "X-New-Access-Token"
	HeaderTokenStatus    = "X-Token-Status"

	StatusRefreshExpired = "REFRESH_TOKEN_EXPIRED"
	StatusUserNotFound   = "USER_NOT_FOUND"

	msgRefreshExpired = "Access token expired and refresh token is invalid or expired. Please login again."
)

type TokenService interface {
	ValidateAccess(token string) bool
	ValidateRefresh(token string) bool
	IsExpired(token string) bool
	ParseClaims(token string) (*tokens.AccessClaims, error)
	DecodeExpiredSubjectClaims(token string) (*tokens.SubjectClaims, error)
	IssueAccessToken(u *models.User) (string, error)
}

type IdentityFinder interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
}

// Gate establishes the request identity from the bearer token and performs
// silent refresh of expired access tokens. Apart from a failed refresh it
// never rejects a request.
type Gate struct {
	Tokens TokenService
	Users  IdentityFinder
}

func NewGate(ts TokenService, users IdentityFinder) *Gate {
	return &Gate{Tokens: ts, Users: users}
}

func (g *Gate) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw, ok := BearerToken(c.Request())
		if !ok {
			return next(c)
		}

		l := logging.FromContext(c.Request().Context()).With("component", "auth_gate")

		p, refreshFailed, err := g.resolve(c, raw)
		if err != nil {
			metrics.ObserveGate(metrics.GateError)
			l.Error("auth_gate_failed", "reason", "continuing unauthenticated", "error", err)
			c.Response().Header().Del(HeaderNewAccessToken)
			return next(c)
		}
		if refreshFailed {
			metrics.ObserveGate(metrics.GateRefreshFailed)
			l.Warn("silent_refresh_failed", "status", http.StatusUnauthorized)
			c.Response().Header().Set(HeaderTokenStatus, StatusRefreshExpired)
			return echo.NewHTTPError(http.StatusUnauthorized, msgRefreshExpired)
		}
		if p != nil {
			setPrincipal(c, p)
		}
		return next(c)
	}
}

func (g *Gate) resolve(c echo.Context, raw string) (p *Principal, refreshFailed bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			p, refreshFailed, err = nil, false, fmt.Errorf("panic: %v", r)
		}
	}()

	switch {
	case g.Tokens.ValidateAccess(raw):
		claims, err := g.Tokens.ParseClaims(raw)
		if err != nil {
			return nil, false, err
		}
		metrics.ObserveGate(metrics.GateAuthenticated)
		return principalFromClaims(claims), false, nil
	case g.Tokens.IsExpired(raw):
		return g.silentRefresh(c, raw)
	default:
		metrics.ObserveGate(metrics.GateRejected)
		logging.FromContext(c.Request().Context()).Debug("bearer_token_rejected", "reason", "malformed or bad signature")
		return nil, false, nil
	}
}

func (g *Gate) silentRefresh(c echo.Context, raw string) (*Principal, bool, error) {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("component", "auth_gate")

	sub, err := g.Tokens.DecodeExpiredSubjectClaims(raw)
	if err != nil {
		l.Debug("expired_token_undecodable", "error", err)
		return nil, false, nil
	}

	u, err := g.Users.FindByID(ctx, sub.ID)
	if errors.Is(err, repo.ErrNotFound) {
		l.Warn("silent_refresh_skipped", "reason", "user not found", "user_id", sub.ID)
		c.Response().Header().Set(HeaderTokenStatus, StatusUserNotFound)
		metrics.ObserveGate(metrics.GateUserNotFound)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load user %d: %w", sub.ID, err)
	}

	if u.RefreshToken == nil || !g.Tokens.ValidateRefresh(*u.RefreshToken) {
		return nil, true, nil
	}

	fresh, err := g.Tokens.IssueAccessToken(u)
	if err != nil {
		return nil, false, fmt.Errorf("issue access token: %w", err)
	}
	c.Response().Header().Set(HeaderNewAccessToken, fresh)
	metrics.ObserveGate(metrics.GateRefreshed)
	l.Info("silent_refresh_succeeded", "user_id", u.ID)

	return principalFromUser(u), false, nil
}
