package repo

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/pcshop/internal/domain"
	"github.com/Skotchmaster/pcshop/internal/models"
)

func (r *GormRepo) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, classify(err, "find user")
	}
	return &user, nil
}

func (r *GormRepo) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, classify(err, "find user")
	}
	return &user, nil
}

func (r *GormRepo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, classify(err, "find user")
	}
	return &user, nil
}

// CreateUser inserts u unless its username or email is already taken by
// another user.
func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	if err := r.ensureUnique(ctx, u); err != nil {
		return err
	}
	if err := r.DB.WithContext(ctx).Create(u).Error; err != nil {
		return classify(err, "create user")
	}
	return nil
}

func (r *GormRepo) SaveUser(ctx context.Context, u *models.User) error {
	if err := r.ensureUnique(ctx, u); err != nil {
		return err
	}
	if err := r.DB.WithContext(ctx).Save(u).Error; err != nil {
		return classify(err, "save user")
	}
	return nil
}

func (r *GormRepo) ensureUnique(ctx context.Context, u *models.User) error {
	taken, err := r.exists(ctx, &models.User{}, "(username = ? OR email = ?) AND id <> ?", u.Username, u.Email, u.ID)
	if err != nil {
		return classify(err, "check user")
	}
	if taken {
		return fmt.Errorf("username or e-mail already taken: %w", domain.ErrConflict)
	}
	return nil
}

func (r *GormRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.DB.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, classify(err, "list users")
	}
	return users, nil
}

func (r *GormRepo) DeleteUser(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return classify(res.Error, "delete user")
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	return nil
}
