package repo

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/phonehub/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (r *GormRepo) users(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx).Preload("Role").Preload("Rank")
}

func (r *GormRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.users(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *GormRepo) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.users(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *GormRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.users(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *GormRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&n).Error; err != nil {
		return false, fmt.Errorf("count users by username: %w", err)
	}
	return n > 0, nil
}

func (r *GormRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return false, fmt.Errorf("count users by email: %w", err)
	}
	return n > 0, nil
}

// Save inserts a new identity or overwrites every column of an existing
// one, then reloads its role and rank.
func (r *GormRepo) Save(ctx context.Context, u *models.User) error {
	q := r.DB.WithContext(ctx).Omit(clause.Associations)
	var err error
	if u.ID == 0 {
		err = q.Create(u).Error
	} else {
		err = q.Save(u).Error
	}
	if err != nil {
		return fmt.Errorf("save user %q: %w", u.Username, translate(err))
	}

	if err := r.users(ctx).Where("id = ?", u.ID).First(u).Error; err != nil {
		return fmt.Errorf("reload user %d: %w", u.ID, translate(err))
	}
	return nil
}

// SetRefreshToken overwrites the stored refresh token and touches no other
// column.
func (r *GormRepo) SetRefreshToken(ctx context.Context, id uint, token string) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("refresh_token", token)
	if res.Error != nil {
		return fmt.Errorf("set refresh token for user %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("set refresh token for user %d: %w", id, ErrNotFound)
	}
	return nil
}

// SwapRefreshToken replaces the stored refresh token only if it still
// equals expected. It reports false when another writer got there first.
func (r *GormRepo) SwapRefreshToken(ctx context.Context, id uint, expected, next string) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND refresh_token = ?", id, expected).
		Update("refresh_token", next)
	if res.Error != nil {
		return false, fmt.Errorf("swap refresh token for user %d: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *GormRepo) ListUsers(ctx context.Context, limit, offset int) ([]models.User, int64, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	var users []models.User
	if err := r.users(ctx).Order("id").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}
