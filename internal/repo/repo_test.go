package repo

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestTranslate(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")

	tests := []struct {
		name string
		in   error
		want error
	}{
		{name: "not found", in: gorm.ErrRecordNotFound, want: ErrNotFound},
		{name: "duplicate", in: fmt.Errorf("create: %w", gorm.ErrDuplicatedKey), want: ErrDuplicate},
		{name: "raw unique violation", in: &pgconn.PgError{Code: pgerrcode.UniqueViolation}, want: ErrDuplicate},
		{name: "other pg error", in: &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}},
		{name: "passthrough", in: boom, want: boom},
	}

	for _, tt := range tests {
		got := translate(tt.in)
		if tt.want == nil {
			assert.NotErrorIs(t, got, ErrDuplicate, tt.name)
			assert.NotErrorIs(t, got, ErrNotFound, tt.name)
			continue
		}
		assert.ErrorIs(t, got, tt.want, tt.name)
	}
}
