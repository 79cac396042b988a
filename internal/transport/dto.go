package transport

import "time"

// APIResponse is the envelope of every JSON body the service writes.
type APIResponse struct {
	Success    bool      `json:"success"`
	Message    string    `json:"message"`
	Data       any       `json:"data"`
	Timestamp  time.Time `json:"timestamp"`
	StatusCode int       `json:"statusCode"`
}

func Success(status int, message string, data any) APIResponse {
	return APIResponse{
		Success:    true,
		Message:    message,
		Data:       data,
		Timestamp:  time.Now().UTC(),
		StatusCode: status,
	}
}

func Failure(status int, message string) APIResponse {
	return APIResponse{
		Message:    message,
		Timestamp:  time.Now().UTC(),
		StatusCode: status,
	}
}

type SigninRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type SignupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type GoogleSigninRequest struct {
	IDToken string `json:"idToken"`
}

type CreateRoleRequest struct {
	Name string `json:"name"`
}

type AuthResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	Type         string `json:"type"`
	UserID       uint   `json:"userId"`
	Username     string `json:"username"`
	Email        string `json:"email,omitempty"`
	RoleID       uint   `json:"roleId"`
	RoleName     string `json:"roleName"`
}

type UserDTO struct {
	ID              uint   `json:"id"`
	Username        string `json:"username"`
	Email           string `json:"email,omitempty"`
	Phone           string `json:"phone,omitempty"`
	Avatar          string `json:"avatar,omitempty"`
	Address         string `json:"address,omitempty"`
	RoleID          uint   `json:"roleId"`
	RoleName        string `json:"roleName"`
	RankName        string `json:"rankName,omitempty"`
	Points          int    `json:"points"`
	IsEmailVerified bool   `json:"isEmailVerified"`
}

type RoleDTO struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type Page[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	TotalItems int64 `json:"totalItems"`
	TotalPages int   `json:"totalPages"`
}
