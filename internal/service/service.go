package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/Skotchmaster/pcshop/internal/domain"
	"github.com/Skotchmaster/pcshop/internal/models"
	"github.com/Skotchmaster/pcshop/internal/repo"
)

// Issuer signs and verifies the tokens carried in session cookies.
type Issuer interface {
	IssueAccessToken(username string) (string, error)
	IssueRefreshToken(username string) (string, error)
	ExtractUsername(token string) (string, error)
}

// SessionStore is the token and user storage the auth flows run against.
// WithTx hands fn the transactional repository.
type SessionStore interface {
	FindAccessToken(ctx context.Context, value string) (*models.AccessToken, error)
	FindRefreshToken(ctx context.Context, value string) (*models.RefreshToken, error)
	SaveAccessToken(ctx context.Context, value string, user *models.User, refresh *models.RefreshToken, existing *models.AccessToken) (*models.AccessToken, error)
	SaveRefreshToken(ctx context.Context, value string) (*models.RefreshToken, error)
	DeleteAccessToken(ctx context.Context, value string) error
	ListOtherSessions(ctx context.Context, userID uint, excluding string) ([]models.AccessToken, error)
	DeleteAll(ctx context.Context, toks []models.AccessToken) error

	FindUserByID(ctx context.Context, id uint) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)

	WithTx(ctx context.Context, fn func(tx *repo.GormRepo) error) error
}

var _ SessionStore = (*repo.GormRepo)(nil)

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) bool
}

// invalid turns a validation failure into ErrInvalidInput.
func invalid(err error) error {
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, verrs.Error())
	}
	return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
}

var notBlank = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
})
