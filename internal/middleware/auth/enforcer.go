package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/phonehub/internal/metrics"
	"github.com/Skotchmaster/phonehub/internal/routes"
	"github.com/Skotchmaster/phonehub/internal/tokens"
	"github.com/Skotchmaster/phonehub/pkg/logging"
)

const (
	msgTokenRequired = "Unauthorized: Token is required"
	msgInvalidToken  = "Unauthorized: Invalid token"
	msgForbidden     = "Forbidden: Insufficient permissions"
)

type RuleLookup interface {
	Lookup(method, pattern string) (routes.Rule, bool)
}

type ClaimsValidator interface {
	ValidateAccess(token string) bool
	ParseClaims(token string) (*tokens.AccessClaims, error)
}

// Enforcer applies the route rule of the matched handler. It re-validates
// the credential itself instead of trusting the gate's principal.
type Enforcer struct {
	Rules  RuleLookup
	Tokens ClaimsValidator
}

func NewEnforcer(rules RuleLookup, ts ClaimsValidator) *Enforcer {
	return &Enforcer{Rules: rules, Tokens: ts}
}

func (e *Enforcer) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		rule, ok := e.Rules.Lookup(c.Request().Method, c.Path())
		if !ok || rule.Visibility == routes.VisibilityPublic || !rule.Guarded {
			return next(c)
		}

		l := logging.FromContext(c.Request().Context()).With("component", "access_enforcer")

		// A token minted by silent refresh on this request replaces the
		// expired bearer.
		raw := c.Response().Header().Get(HeaderNewAccessToken)
		if raw == "" {
			raw, _ = BearerToken(c.Request())
		}
		if raw == "" {
			metrics.ObserveDenied(http.StatusUnauthorized)
			l.Warn("access_denied", "status", http.StatusUnauthorized, "reason", "missing token")
			return echo.NewHTTPError(http.StatusUnauthorized, msgTokenRequired)
		}
		if !e.Tokens.ValidateAccess(raw) {
			metrics.ObserveDenied(http.StatusUnauthorized)
			l.Warn("access_denied", "status", http.StatusUnauthorized, "reason", "invalid token")
			return echo.NewHTTPError(http.StatusUnauthorized, msgInvalidToken)
		}

		if len(rule.Roles) > 0 {
			claims, err := e.Tokens.ParseClaims(raw)
			if err != nil {
				metrics.ObserveDenied(http.StatusUnauthorized)
				l.Warn("access_denied", "status", http.StatusUnauthorized, "error", err)
				return echo.NewHTTPError(http.StatusUnauthorized, msgInvalidToken)
			}
			if !hasRole(claims.RoleName, rule.Roles) {
				metrics.ObserveDenied(http.StatusForbidden)
				l.Warn("access_denied", "status", http.StatusForbidden, "role", claims.RoleName, "required", rule.Roles)
				return echo.NewHTTPError(http.StatusForbidden, msgForbidden)
			}
		}

		return next(c)
	}
}

func hasRole(role string, required []string) bool {
	if role == "" {
		return false
	}
	for _, r := range required {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}
