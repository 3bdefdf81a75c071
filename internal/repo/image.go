package repo

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/pcshop/internal/domain"
	"github.com/Skotchmaster/pcshop/internal/models"
)

func (r *GormRepo) CreateImage(ctx context.Context, img *models.Image) error {
	taken, err := r.exists(ctx, &models.Image{}, "name = ?", img.Name)
	if err != nil {
		return classify(err, "check image")
	}
	if taken {
		return fmt.Errorf("file with name %q already exists: %w", img.Name, domain.ErrConflict)
	}
	if err := r.DB.WithContext(ctx).Create(img).Error; err != nil {
		return classify(err, "create image")
	}
	return nil
}

func (r *GormRepo) FindImage(ctx context.Context, name string) (*models.Image, error) {
	var img models.Image
	if err := r.DB.WithContext(ctx).Where("name = ?", name).First(&img).Error; err != nil {
		return nil, classify(err, fmt.Sprintf("image %q", name))
	}
	return &img, nil
}

// ListImages returns image metadata without the stored bytes.
func (r *GormRepo) ListImages(ctx context.Context) ([]models.Image, error) {
	var imgs []models.Image
	if err := r.DB.WithContext(ctx).Select("id", "name", "type").Order("id").Find(&imgs).Error; err != nil {
		return nil, classify(err, "list images")
	}
	return imgs, nil
}

func (r *GormRepo) SaveImage(ctx context.Context, img *models.Image) error {
	taken, err := r.exists(ctx, &models.Image{}, "name = ? AND id <> ?", img.Name, img.ID)
	if err != nil {
		return classify(err, "check image")
	}
	if taken {
		return fmt.Errorf("file with name %q already exists: %w", img.Name, domain.ErrConflict)
	}
	return classify(r.DB.WithContext(ctx).Save(img).Error, "save image")
}

func (r *GormRepo) DeleteImage(ctx context.Context, name string) error {
	res := r.DB.WithContext(ctx).Where("name = ?", name).Delete(&models.Image{})
	if res.Error != nil {
		return classify(res.Error, "delete image")
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("image %q: %w", name, domain.ErrNotFound)
	}
	return nil
}

func (r *GormRepo) DeleteAllImages(ctx context.Context) error {
	err := r.DB.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Image{}).Error
	return classify(err, "delete images")
}
