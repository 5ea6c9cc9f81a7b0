package handlers

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/go-restaurant-pos/internal/apperr"
	"github.com/imrishuroy/go-restaurant-pos/internal/storage"
)

const maxUploadBytes = 5 << 20

// saveUpload stores an uploaded image and returns its public URL. Only a bad
// upload is a client error; backend failures are persistence errors.
func saveUpload(c *gin.Context, images storage.ImageStore, fh *multipart.FileHeader) (string, error) {
	if fh.Size > maxUploadBytes {
		return "", apperr.Validation("image must be at most 5MB")
	}
	f, err := fh.Open()
	if err != nil {
		return "", apperr.Validation("could not read uploaded file")
	}
	defer f.Close()

	url, err := images.Save(c.Request.Context(), fh.Filename, fh.Header.Get("Content-Type"), f)
	if errors.Is(err, storage.ErrUnsupportedType) {
		return "", apperr.Validation("%v", err)
	}
	if err != nil {
		return "", apperr.Persistence(err, "store image")
	}
	return url, nil
}

// discardUpload removes an image whose record was never written.
func discardUpload(ctx context.Context, images storage.ImageStore, log *slog.Logger, url string) {
	if err := images.Delete(ctx, url); err != nil {
		log.WarnContext(ctx, "failed to remove orphaned upload", "url", url, "error", err)
	}
}
