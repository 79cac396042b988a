package tokens

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/Skotchmaster/phonehub/internal/models"
)

// Token kinds carried in the typ claim. Only access tokens authorize API
// calls; a refresh token is good for nothing but rotation.
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

// AccessClaims mirror the identity the token was issued for. Subject is
// the username.
type AccessClaims struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
	Address  string `json:"address,omitempty"`
	RoleID   uint   `json:"roleId,omitempty"`
	RoleName string `json:"roleName,omitempty"`
	Type     string `json:"typ"`
	jwt.RegisteredClaims
}

// RefreshClaims carry nothing beyond the kind and the registered fields.
type RefreshClaims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

// SubjectClaims is what can be learned from a token regardless of expiry.
// It identifies an owner and never authorizes anything.
type SubjectClaims struct {
	Subject string
	ID      uint
}

func accessClaimsFor(u *models.User) AccessClaims {
	return AccessClaims{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.EmailValue(),
		Phone:    u.Phone,
		Avatar:   u.Avatar,
		Address:  u.Address,
		RoleID:   u.Role.ID,
		RoleName: u.Role.Name,
		Type:     KindAccess,
	}
}
