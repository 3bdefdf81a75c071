package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/Skotchmaster/pcshop/internal/domain"
	"github.com/Skotchmaster/pcshop/internal/models"
)

type GormRepo struct {
	DB *gorm.DB
}

// WithTx runs fn against a repository bound to a single transaction.
func (r *GormRepo) WithTx(ctx context.Context, fn func(tx *GormRepo) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepo{DB: tx})
	})
}

// Migrate creates or updates every table.
func (r *GormRepo) Migrate(ctx context.Context) error {
	if err := r.DB.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Ping checks that the database answers.
func (r *GormRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// classify maps store errors onto the domain taxonomy and keeps the cause.
func classify(err error, what string) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%s: %w: %v", what, domain.ErrConflict, err)
	case errors.As(err, &pqErr) && (pqErr.Code == "23505" || pqErr.Code == "23503"):
		return fmt.Errorf("%s: %w: %s", what, domain.ErrConflict, pqErr.Message)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func (r *GormRepo) exists(ctx context.Context, model any, query string, args ...any) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(model).Where(query, args...).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
