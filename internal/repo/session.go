package repo

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"gorm.io/gorm"

	"github.com/Skotchmaster/pcshop/internal/models"
)

// Token values are stored as SHA-256 digests; lookups hash the raw value.
func digest(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

func (r *GormRepo) FindAccessToken(ctx context.Context, value string) (*models.AccessToken, error) {
	var tok models.AccessToken
	if err := r.DB.WithContext(ctx).Where("token = ?", digest(value)).First(&tok).Error; err != nil {
		return nil, classify(err, "find access token")
	}
	return &tok, nil
}

func (r *GormRepo) FindRefreshToken(ctx context.Context, value string) (*models.RefreshToken, error) {
	var tok models.RefreshToken
	if err := r.DB.WithContext(ctx).Where("token = ?", digest(value)).First(&tok).Error; err != nil {
		return nil, classify(err, "find refresh token")
	}
	return &tok, nil
}

// SaveAccessToken stores value for user, overwriting existing by id when it is
// given, and points refresh at the stored row.
func (r *GormRepo) SaveAccessToken(ctx context.Context, value string, user *models.User, refresh *models.RefreshToken, existing *models.AccessToken) (*models.AccessToken, error) {
	tok := &models.AccessToken{Token: digest(value), UserID: user.ID}

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stored := false
		if existing != nil {
			res := tx.Model(&models.AccessToken{}).
				Where("id = ?", existing.ID).
				Updates(map[string]any{"token": tok.Token, "user_id": tok.UserID})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				tok.ID = existing.ID
				stored = true
			}
		}
		if !stored {
			if err := tx.Create(tok).Error; err != nil {
				return err
			}
		}

		return tx.Model(&models.RefreshToken{}).
			Where("id = ?", refresh.ID).
			Update("access_token_id", tok.ID).Error
	})
	if err != nil {
		return nil, classify(err, "save access token")
	}

	refresh.AccessTokenID = &tok.ID
	tok.User = user
	return tok, nil
}

func (r *GormRepo) SaveRefreshToken(ctx context.Context, value string) (*models.RefreshToken, error) {
	tok := &models.RefreshToken{Token: digest(value)}
	if err := r.DB.WithContext(ctx).Create(tok).Error; err != nil {
		return nil, classify(err, "save refresh token")
	}
	return tok, nil
}

// DeleteAccessToken revokes one session. Missing rows are not an error.
func (r *GormRepo) DeleteAccessToken(ctx context.Context, value string) error {
	var tok models.AccessToken
	res := r.DB.WithContext(ctx).Where("token = ?", digest(value)).Limit(1).Find(&tok)
	if res.Error != nil {
		return classify(res.Error, "delete access token")
	}
	if res.RowsAffected == 0 {
		return nil
	}
	return r.DeleteAll(ctx, []models.AccessToken{tok})
}

func (r *GormRepo) ListOtherSessions(ctx context.Context, userID uint, excluding string) ([]models.AccessToken, error) {
	var toks []models.AccessToken
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND token <> ?", userID, digest(excluding)).
		Order("id").
		Find(&toks).Error
	if err != nil {
		return nil, classify(err, "list sessions")
	}
	return toks, nil
}

// DeleteAll revokes the given sessions together with the refresh tokens that
// currently point at them.
func (r *GormRepo) DeleteAll(ctx context.Context, toks []models.AccessToken) error {
	if len(toks) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(toks))
	for _, t := range toks {
		ids = append(ids, t.ID)
	}

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("access_token_id IN ?", ids).Delete(&models.RefreshToken{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&models.AccessToken{}).Error
	})
	return classify(err, "delete sessions")
}
