package httpserver

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/phonehub/internal/service"
	"github.com/Skotchmaster/phonehub/internal/transport"
	"github.com/Skotchmaster/phonehub/pkg/logging"
)

const maxGoogleBody = 64 << 10

type AuthHTTP struct {
	Svc *service.AuthService
}

func authResponse(res *service.AuthResult) transport.AuthResponse {
	return transport.AuthResponse{
		Token:        res.AccessToken,
		RefreshToken: res.RefreshToken,
		Type:         "Bearer",
		UserID:       res.User.ID,
		Username:     res.User.Username,
		Email:        res.User.EmailValue(),
		RoleID:       res.User.Role.ID,
		RoleName:     res.User.Role.Name,
	}
}

func (h *AuthHTTP) Signup(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_signup")

	var req transport.SignupRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("signup_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := req.Validate(); err != nil {
		l.Warn("signup_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	u, err := h.Svc.Signup(ctx, service.SignupInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		Phone:    req.Phone,
		Address:  req.Address,
	})
	if err != nil {
		l.Warn("signup_failed", "error", err)
		return toHTTPError(err)
	}

	return c.JSON(http.StatusCreated, transport.Success(http.StatusCreated, "signup successful", userDTO(u)))
}

func (h *AuthHTTP) Signin(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_signin")

	var req transport.SigninRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("signin_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := req.Validate(); err != nil {
		l.Warn("signin_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	res, err := h.Svc.Signin(ctx, req.Username, req.Password)
	if err != nil {
		l.Warn("signin_failed", "error", err)
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, transport.Success(http.StatusOK, "signin successful", authResponse(res)))
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	var req transport.RefreshRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("refresh_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := req.Validate(); err != nil {
		l.Warn("refresh_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	res, err := h.Svc.Refresh(ctx, req.RefreshToken)
	if err != nil {
		l.Warn("refresh_failed", "error", err)
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, transport.Success(http.StatusOK, "token refreshed", authResponse(res)))
}

// GoogleSignin accepts {"idToken": "..."} or the bare token as the body.
func (h *AuthHTTP) GoogleSignin(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_google_signin")

	raw, err := io.ReadAll(io.LimitReader(c.Request().Body, maxGoogleBody))
	if err != nil {
		l.Warn("google_signin_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	idToken := strings.TrimSpace(string(raw))
	if strings.HasPrefix(idToken, "{") {
		var req transport.GoogleSigninRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			l.Warn("google_signin_error", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
		}
		idToken = req.IDToken
	}

	res, err := h.Svc.FederatedSignin(ctx, idToken)
	if err != nil {
		l.Warn("google_signin_failed", "error", err)
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, transport.Success(http.StatusOK, "signin successful", authResponse(res)))
}
