package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/phonehub/internal/models"
	"github.com/Skotchmaster/phonehub/internal/tokens"
)

const (
	CtxPrincipal = "principal"
	CtxUserID    = "user_id"
	CtxRole      = "role"
)

// Principal is the identity established for the current request.
type Principal struct {
	ID       uint
	Username string
	Email    string
	RoleID   uint
	RoleName string
}

func principalFromClaims(c *tokens.AccessClaims) *Principal {
	return &Principal{
		ID:       c.ID,
		Username: c.Subject,
		Email:    c.Email,
		RoleID:   c.RoleID,
		RoleName: c.RoleName,
	}
}

func principalFromUser(u *models.User) *Principal {
	return &Principal{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.EmailValue(),
		RoleID:   u.Role.ID,
		RoleName: u.Role.Name,
	}
}

func setPrincipal(c echo.Context, p *Principal) {
	c.Set(CtxPrincipal, p)
	c.Set(CtxUserID, p.ID)
	c.Set(CtxRole, p.RoleName)
}

func PrincipalFrom(c echo.Context) (*Principal, bool) {
	p, ok := c.Get(CtxPrincipal).(*Principal)
	return p, ok && p != nil
}

// BearerToken extracts the credential of an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get(echo.HeaderAuthorization)
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
