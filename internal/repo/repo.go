package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/Skotchmaster/phonehub/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Role{}, &models.UserRank{}, &models.User{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// DefaultRoles are created in order at startup when missing, so a fresh
// database numbers them 1, 2, 3.
var DefaultRoles = []string{"ADMIN", "STAFF", "USER"}

func (r *GormRepo) EnsureRoles(ctx context.Context, names []string) error {
	for _, name := range names {
		role := models.Role{Name: name}
		if err := r.DB.WithContext(ctx).Where("name = ?", name).FirstOrCreate(&role).Error; err != nil {
			return fmt.Errorf("ensure role %s: %w", name, translate(err))
		}
	}
	return nil
}

// translate maps driver errors onto the package sentinels. Raw postgres
// unique violations are checked too, for statements gorm does not translate.
func translate(err error) error {
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation:
		return ErrDuplicate
	default:
		return err
	}
}
