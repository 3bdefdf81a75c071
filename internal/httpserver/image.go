package httpserver

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/pcshop/internal/service"
	"github.com/Skotchmaster/pcshop/pkg/logging"
)

const maxImageBytes = 10 << 20

type ImageHTTP struct {
	Svc *service.ImageService
}

func readUpload(fh *multipart.FileHeader) (service.Upload, error) {
	if fh.Size > maxImageBytes {
		return service.Upload{}, echo.NewHTTPError(http.StatusRequestEntityTooLarge, fmt.Sprintf("%s is too large", fh.Filename))
	}
	f, err := fh.Open()
	if err != nil {
		return service.Upload{}, fmt.Errorf("open upload %q: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxImageBytes+1))
	if err != nil {
		return service.Upload{}, fmt.Errorf("read upload %q: %w", fh.Filename, err)
	}
	if len(data) > maxImageBytes {
		return service.Upload{}, echo.NewHTTPError(http.StatusRequestEntityTooLarge, fmt.Sprintf("%s is too large", fh.Filename))
	}
	return service.Upload{Name: fh.Filename, ContentType: fh.Header.Get(echo.HeaderContentType), Data: data}, nil
}

func (h *ImageHTTP) Upload(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "image_upload")

	fh, err := c.FormFile("file")
	if err != nil {
		l.Warn("image_upload_error", "status", 400, "reason", "no file part", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	up, err := readUpload(fh)
	if err != nil {
		return err
	}

	img, err := h.Svc.Upload(ctx, up)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, img)
}

func (h *ImageHTTP) UploadMany(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "image_upload_many")

	form, err := c.MultipartForm()
	if err != nil || len(form.File["files"]) == 0 {
		l.Warn("image_upload_error", "status", 400, "reason", "no files part", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "files are required")
	}

	ups := make([]service.Upload, 0, len(form.File["files"]))
	for _, fh := range form.File["files"] {
		up, err := readUpload(fh)
		if err != nil {
			return err
		}
		ups = append(ups, up)
	}

	imgs, err := h.Svc.UploadMany(ctx, ups)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, imgs)
}

func (h *ImageHTTP) List(c echo.Context) error {
	imgs, err := h.Svc.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, imgs)
}

// Get serves the decompressed image bytes with their stored content type.
func (h *ImageHTTP) Get(c echo.Context) error {
	img, err := h.Svc.Get(c.Request().Context(), c.Param("name"))
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, img.Type, img.Data)
}

func (h *ImageHTTP) Replace(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	up, err := readUpload(fh)
	if err != nil {
		return err
	}

	img, err := h.Svc.Replace(c.Request().Context(), c.Param("name"), up)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, img)
}

func (h *ImageHTTP) Delete(c echo.Context) error {
	if err := h.Svc.Delete(c.Request().Context(), c.Param("name")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ImageHTTP) DeleteAll(c echo.Context) error {
	if err := h.Svc.DeleteAll(c.Request().Context()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
