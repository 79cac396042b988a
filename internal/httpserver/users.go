package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/phonehub/internal/middleware/auth"
	"github.com/Skotchmaster/phonehub/internal/models"
	"github.com/Skotchmaster/phonehub/internal/repo"
	"github.com/Skotchmaster/phonehub/internal/transport"
	"github.com/Skotchmaster/phonehub/internal/util"
	"github.com/Skotchmaster/phonehub/pkg/logging"
)

type UserReader interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]models.User, int64, error)
}

type UsersHTTP struct {
	Users UserReader
}

func userDTO(u *models.User) transport.UserDTO {
	dto := transport.UserDTO{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.EmailValue(),
		Phone:           u.Phone,
		Avatar:          u.Avatar,
		Address:         u.Address,
		RoleID:          u.Role.ID,
		RoleName:        u.Role.Name,
		Points:          u.Points,
		IsEmailVerified: u.IsEmailVerified,
	}
	if u.Rank != nil {
		dto.RankName = u.Rank.Name
	}
	return dto
}

func (h *UsersHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users_list")

	page := util.ParseIntDefault(c.QueryParam("page"), 0)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	users, total, err := h.Users.ListUsers(ctx, limit, offset)
	if err != nil {
		l.Error("users_list_error", "status", 500, "error", err)
		return toHTTPError(err)
	}

	items := make([]transport.UserDTO, 0, len(users))
	for i := range users {
		items = append(items, userDTO(&users[i]))
	}

	return c.JSON(http.StatusOK, transport.Success(http.StatusOK, "users", transport.Page[transport.UserDTO]{
		Items:      items,
		Page:       offset / limit,
		Size:       limit,
		TotalItems: total,
		TotalPages: util.TotalPages(total, limit),
	}))
}

func (h *UsersHTTP) Me(c echo.Context) error {
	p, ok := auth.PrincipalFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized: Token is required")
	}
	return h.respondUser(c, "users_me", func(ctx context.Context) (*models.User, error) {
		return h.Users.FindByID(ctx, p.ID)
	})
}

func (h *UsersHTTP) GetByID(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	return h.respondUser(c, "users_get", func(ctx context.Context) (*models.User, error) {
		return h.Users.FindByID(ctx, uint(id))
	})
}

func (h *UsersHTTP) SearchByUsername(c echo.Context) error {
	username := strings.TrimSpace(c.QueryParam("username"))
	if username == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username is required")
	}
	return h.respondUser(c, "users_search", func(ctx context.Context) (*models.User, error) {
		return h.Users.FindByUsername(ctx, username)
	})
}

func (h *UsersHTTP) respondUser(c echo.Context, handler string, find func(context.Context) (*models.User, error)) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", handler)

	u, err := find(ctx)
	if errors.Is(err, repo.ErrNotFound) {
		l.Warn("user_lookup_failed", "status", 404)
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}
	if err != nil {
		l.Error("user_lookup_error", "status", 500, "error", err)
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, transport.Success(http.StatusOK, "user", userDTO(u)))
}
