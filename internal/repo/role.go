package repo

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/phonehub/internal/models"
)

func (r *GormRepo) FindRoleByID(ctx context.Context, id uint) (*models.Role, error) {
	var role models.Role
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&role).Error; err != nil {
		return nil, translate(err)
	}
	return &role, nil
}

func (r *GormRepo) ListRoles(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role
	if err := r.DB.WithContext(ctx).Order("id").Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

func (r *GormRepo) CreateRole(ctx context.Context, name string) (*models.Role, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.Role{}).Where("name = ?", name).Count(&n).Error; err != nil {
		return nil, fmt.Errorf("count roles: %w", err)
	}
	if n > 0 {
		return nil, ErrDuplicate
	}

	role := models.Role{Name: name}
	if err := r.DB.WithContext(ctx).Create(&role).Error; err != nil {
		return nil, fmt.Errorf("create role %q: %w", name, translate(err))
	}
	return &role, nil
}
