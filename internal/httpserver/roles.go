package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/phonehub/internal/models"
	"github.com/Skotchmaster/phonehub/internal/repo"
	"github.com/Skotchmaster/phonehub/internal/transport"
	"github.com/Skotchmaster/phonehub/pkg/logging"
)

type RoleManager interface {
	FindRoleByID(ctx context.Context, id uint) (*models.Role, error)
	ListRoles(ctx context.Context) ([]models.Role, error)
	CreateRole(ctx context.Context, name string) (*models.Role, error)
}

type RolesHTTP struct {
	Roles RoleManager
}

func roleDTO(r *models.Role) transport.RoleDTO {
	return transport.RoleDTO{ID: r.ID, Name: r.Name}
}

func (h *RolesHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()

	roles, err := h.Roles.ListRoles(ctx)
	if err != nil {
		logging.FromContext(ctx).Error("roles_list_error", "status", 500, "error", err)
		return toHTTPError(err)
	}

	out := make([]transport.RoleDTO, 0, len(roles))
	for i := range roles {
		out = append(out, roleDTO(&roles[i]))
	}
	return c.JSON(http.StatusOK, transport.Success(http.StatusOK, "roles", out))
}

func (h *RolesHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid role id")
	}

	role, err := h.Roles.FindRoleByID(ctx, uint(id))
	if errors.Is(err, repo.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "role not found")
	}
	if err != nil {
		logging.FromContext(ctx).Error("role_get_error", "status", 500, "error", err)
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, transport.Success(http.StatusOK, "role", roleDTO(role)))
}

func (h *RolesHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "roles_create")

	var req transport.CreateRoleRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_role_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	req.Name = strings.ToUpper(strings.TrimSpace(req.Name))
	if err := req.Validate(); err != nil {
		l.Warn("create_role_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	name := req.Name

	role, err := h.Roles.CreateRole(ctx, name)
	if errors.Is(err, repo.ErrDuplicate) {
		l.Warn("create_role_failed", "status", 409, "name", name)
		return echo.NewHTTPError(http.StatusConflict, "role already exists")
	}
	if err != nil {
		l.Error("create_role_error", "status", 500, "error", err)
		return toHTTPError(err)
	}

	l.Info("role_created", "role_id", role.ID, "name", role.Name)
	return c.JSON(http.StatusCreated, transport.Success(http.StatusCreated, "role created", roleDTO(role)))
}
