package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/pcshop/internal/domain"
	"github.com/Skotchmaster/pcshop/internal/models"
	"github.com/Skotchmaster/pcshop/internal/repo"
	"github.com/Skotchmaster/pcshop/pkg/logging"
)

type UserService struct {
	Repo   *repo.GormRepo
	Hasher PasswordHasher
}

type Profile struct {
	Firstname string      `json:"firstname"`
	Lastname  string      `json:"lastname"`
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	Password  string      `json:"password"`
	Role      models.Role `json:"role"`
}

func (p *Profile) normalize() {
	p.Firstname = strings.TrimSpace(p.Firstname)
	p.Lastname = strings.TrimSpace(p.Lastname)
	p.Username = strings.TrimSpace(p.Username)
	p.Email = strings.TrimSpace(p.Email)
}

func (p Profile) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Firstname, notBlank),
		validation.Field(&p.Lastname, notBlank),
		validation.Field(&p.Username, notBlank),
		validation.Field(&p.Email, notBlank),
		validation.Field(&p.Password, notBlank),
		validation.Field(&p.Role, validation.In(models.RoleUser, models.RoleAdmin)),
	)
}

// UserPatch carries the fields to change; blank values are left untouched.
type UserPatch struct {
	Firstname string      `json:"firstname"`
	Lastname  string      `json:"lastname"`
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	Password  string      `json:"password"`
	Role      models.Role `json:"role"`
}

// Create stores a new user together with the empty cart every user owns.
func (s *UserService) Create(ctx context.Context, p Profile) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "user.create", "username", p.Username)

	p.normalize()
	if p.Role == "" {
		p.Role = models.RoleUser
	}
	if err := p.Validate(); err != nil {
		l.Warn("create_user_failed", "status", 400, "reason", "invalid profile", "error", err)
		return nil, invalid(err)
	}

	pwHash, err := s.Hasher.Hash(p.Password)
	if err != nil {
		l.Error("create_user_failed", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Firstname:    p.Firstname,
		Lastname:     p.Lastname,
		Username:     p.Username,
		Email:        p.Email,
		PasswordHash: pwHash,
		Role:         p.Role,
	}
	err = s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		if err := tx.CreateUser(ctx, user); err != nil {
			return err
		}
		return tx.CreateOrder(ctx, &models.Order{
			Status: models.OrderStatusCart,
			Total:  decimal.Zero,
			UserID: user.ID,
		})
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			l.Warn("create_user_failed", "status", 409, "reason", "user already exists")
		} else {
			l.Error("create_user_failed", "status", 500, "error", err)
		}
		return nil, err
	}

	l.Info("user_created", "user_id", user.ID, "role", user.Role)
	return user, nil
}

func (s *UserService) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.Repo.FindUserByUsername(ctx, username)
}

func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.Repo.FindUserByEmail(ctx, email)
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	return s.Repo.FindUserByID(ctx, id)
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.Repo.ListUsers(ctx)
}

func (s *UserService) Update(ctx context.Context, id uint, patch UserPatch) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "user.update", "user_id", id)

	user, err := s.Repo.FindUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	setIfPresent(&user.Firstname, patch.Firstname)
	setIfPresent(&user.Lastname, patch.Lastname)
	setIfPresent(&user.Username, patch.Username)
	setIfPresent(&user.Email, patch.Email)
	if patch.Role != "" {
		if err := validation.Validate(patch.Role, validation.In(models.RoleUser, models.RoleAdmin)); err != nil {
			return nil, fmt.Errorf("%w: role: %v", domain.ErrInvalidInput, err)
		}
		user.Role = patch.Role
	}
	if strings.TrimSpace(patch.Password) != "" {
		if user.PasswordHash, err = s.Hasher.Hash(patch.Password); err != nil {
			l.Error("update_user_failed", "status", 500, "reason", "cannot hash the password", "error", err)
			return nil, fmt.Errorf("hash password: %w", err)
		}
	}

	if err := s.Repo.SaveUser(ctx, user); err != nil {
		l.Warn("update_user_failed", "error", err)
		return nil, err
	}
	l.Info("user_updated")
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteUser(ctx, id); err != nil {
		return err
	}
	logging.FromContext(ctx).Info("user_deleted", "svc", "user.delete", "user_id", id)
	return nil
}

func setIfPresent(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}
