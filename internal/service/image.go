package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zlib"

	"github.com/Skotchmaster/pcshop/internal/domain"
	"github.com/Skotchmaster/pcshop/internal/models"
	"github.com/Skotchmaster/pcshop/internal/repo"
	"github.com/Skotchmaster/pcshop/pkg/logging"
)

type ImageService struct {
	Repo *repo.GormRepo
}

type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

func (s *ImageService) Upload(ctx context.Context, up Upload) (*models.Image, error) {
	var img *models.Image
	err := s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		var err error
		img, err = storeImage(ctx, tx, up)
		return err
	})
	if err != nil {
		logging.FromContext(ctx).Warn("upload_image_failed", "svc", "image.upload", "name", up.Name, "error", err)
		return nil, err
	}
	return img, nil
}

// UploadMany stores all uploads or none of them.
func (s *ImageService) UploadMany(ctx context.Context, ups []Upload) ([]models.Image, error) {
	l := logging.FromContext(ctx).With("svc", "image.upload_many", "count", len(ups))

	out := make([]models.Image, 0, len(ups))
	err := s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		for _, up := range ups {
			img, err := storeImage(ctx, tx, up)
			if err != nil {
				return err
			}
			out = append(out, *img)
		}
		return nil
	})
	if err != nil {
		l.Warn("upload_images_failed", "error", err)
		return nil, err
	}
	l.Info("images_uploaded")
	return out, nil
}

func storeImage(ctx context.Context, tx *repo.GormRepo, up Upload) (*models.Image, error) {
	name := imageName(up.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: file name cannot be blank", domain.ErrInvalidInput)
	}
	data, err := compress(up.Data)
	if err != nil {
		return nil, err
	}
	img := &models.Image{Name: name, Type: up.ContentType, Data: data}
	if err := tx.CreateImage(ctx, img); err != nil {
		return nil, err
	}
	return img, nil
}

func (s *ImageService) List(ctx context.Context) ([]models.Image, error) {
	return s.Repo.ListImages(ctx)
}

// Get returns the image with its data decompressed.
func (s *ImageService) Get(ctx context.Context, name string) (*models.Image, error) {
	img, err := s.Repo.FindImage(ctx, name)
	if err != nil {
		return nil, err
	}
	if img.Data, err = decompress(img.Data); err != nil {
		return nil, fmt.Errorf("image %q: %w", name, err)
	}
	return img, nil
}

// Replace swaps the content of the image stored under name. A non-blank
// upload name renames it as well.
func (s *ImageService) Replace(ctx context.Context, name string, up Upload) (*models.Image, error) {
	img, err := s.Repo.FindImage(ctx, name)
	if err != nil {
		return nil, err
	}
	if n := imageName(up.Name); n != "" {
		img.Name = n
	}
	img.Type = up.ContentType
	if img.Data, err = compress(up.Data); err != nil {
		return nil, err
	}
	if err := s.Repo.SaveImage(ctx, img); err != nil {
		return nil, err
	}
	return img, nil
}

func (s *ImageService) Delete(ctx context.Context, name string) error {
	return s.Repo.DeleteImage(ctx, name)
}

func (s *ImageService) DeleteAll(ctx context.Context) error {
	return s.Repo.DeleteAllImages(ctx)
}

func imageName(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("compress image: %w", err)
	}
	if _, err := zw.Write(data); err != nil {
		return nil, fmt.Errorf("compress image: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compress image: %w", err)
	}
	return buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decompress image: %w", err)
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
